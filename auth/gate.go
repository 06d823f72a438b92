package auth

import (
	"errors"
	"slices"
	"strings"
	"time"

	"eshop/apperr"
	"eshop/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const userKey = "user"

// Gate authenticates requests from their bearer token and checks roles.
type Gate struct {
	db     *gorm.DB
	tokens *TokenIssuer
}

func NewGate(db *gorm.DB, tokens *TokenIssuer) *Gate {
	return &Gate{db: db, tokens: tokens}
}

// Protect resolves the caller from the Authorization header and stores it
// on the request. Tokens issued before the last password change, and
// deactivated accounts, are rejected.
func (g *Gate) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return apperr.Unauthorized("Authorization header is missing")
		}

		_, token, _ := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if token == "" {
			return apperr.Unauthorized("Token is not provided")
		}

		claims, err := g.tokens.Parse(token)
		if err != nil {
			return apperr.Unauthorized("Invalid token")
		}

		var user models.User
		err = g.db.WithContext(c.UserContext()).First(&user, claims.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Unauthorized("The user that belong to this token does no longer exist")
		}
		if err != nil {
			return err
		}

		if ChangedPasswordAfter(&user, claims.IssuedAt.Time) {
			return apperr.Unauthorized("User recently changed his password. please login again..")
		}
		if !user.IsActive {
			return apperr.Unauthorized("Your account has been deactivated. Please log in again to reactivate your account.")
		}

		c.Locals(userKey, &user)
		return c.Next()
	}
}

// AllowedTo must run after Protect.
func (g *Gate) AllowedTo(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !slices.Contains(roles, user.Role) {
			return apperr.Forbidden("You are not allowed to access this route")
		}
		return c.Next()
	}
}

// CurrentUser returns the caller stored by Protect, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}

// ChangedPasswordAfter compares at second precision, the precision of iat.
func ChangedPasswordAfter(user *models.User, issuedAt time.Time) bool {
	return user.PasswordChangedAt != nil && user.PasswordChangedAt.Unix() > issuedAt.Unix()
}

// PasswordChangedStamp is the value to store as passwordChangedAt when a
// password changes at now. It sits one second back so a token issued in the
// same second stays valid.
func PasswordChangedStamp(now time.Time) time.Time {
	return now.Add(-time.Second)
}
