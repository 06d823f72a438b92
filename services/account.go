package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"eshop/apperr"
	"eshop/auth"
	"eshop/logging"
	"eshop/mail"
	"eshop/models"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResetCodeTTL is how long an emailed reset code stays usable.
const ResetCodeTTL = 10 * time.Minute

// AuthService covers sign up, login and the password reset flow:
// no reset -> code sent -> code verified -> password reset.
type AuthService struct {
	db      *gorm.DB
	tokens  *auth.TokenIssuer
	mailer  mail.Sender
	logger  *zap.Logger
	now     func() time.Time
	newCode func() (string, error)
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenIssuer, mailer mail.Sender, logger *zap.Logger) *AuthService {
	return &AuthService{
		db:      db,
		tokens:  tokens,
		mailer:  mailer,
		logger:  logger,
		now:     time.Now,
		newCode: resetCode,
	}
}

type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// resetCode returns a random six digit code.
func resetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*models.User, string, error) {
	tx := s.db.WithContext(ctx)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var count int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, "", err
	}
	if count > 0 {
		return nil, "", apperr.Field("email", "E-mail already in user")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Name:     in.Name,
		Slug:     slug.Make(in.Name),
		Email:    email,
		Phone:    in.Phone,
		Password: hash,
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := tx.Create(user).Error; err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks the credentials and reactivates a deactivated account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	tx := s.db.WithContext(ctx)

	var user models.User
	err := tx.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	if err != nil || !auth.CheckPassword(user.Password, password) {
		return nil, "", apperr.Unauthorized("Invalid email or password")
	}

	if !user.IsActive {
		if err := tx.Model(&user).Update("is_active", true).Error; err != nil {
			return nil, "", fmt.Errorf("reactivate user %d: %w", user.ID, err)
		}
		user.IsActive = true
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// ForgotPassword stores a hashed reset code and mails the plain one. If the
// mail cannot be sent the reset state is cleared again.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	tx := s.db.WithContext(ctx)

	var user models.User
	err := tx.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("There is no user with that email %s", email)
	}
	if err != nil {
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	expires := s.now().Add(ResetCodeTTL)

	err = tx.Model(&user).Updates(map[string]any{
		"password_reset_code":     hashCode(code),
		"password_reset_expires":  expires,
		"password_reset_verified": false,
	}).Error
	if err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	if err := s.mailer.SendPasswordResetCode(ctx, &user, code); err != nil {
		logging.Error(ctx, s.logger, "reset code email failed", zap.Uint("user_id", user.ID), zap.Error(err))
		if clearErr := clearReset(tx, &user); clearErr != nil {
			logging.Error(ctx, s.logger, "clear reset state failed", zap.Uint("user_id", user.ID), zap.Error(clearErr))
		}
		return apperr.Internal("There is an error in sending email", err)
	}
	return nil
}

func clearReset(tx *gorm.DB, user *models.User) error {
	return tx.Model(user).Updates(map[string]any{
		"password_reset_code":     "",
		"password_reset_expires":  nil,
		"password_reset_verified": false,
	}).Error
}

// VerifyResetCode marks the reset as verified and returns a short lived
// token that authorizes ResetPassword.
func (s *AuthService) VerifyResetCode(ctx context.Context, code string) (string, error) {
	tx := s.db.WithContext(ctx)

	var user models.User
	err := tx.Where("password_reset_code = ? AND password_reset_expires > ?", hashCode(strings.TrimSpace(code)), s.now()).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.BadRequest("Reset code invalid or expired")
	}
	if err != nil {
		return "", err
	}

	if err := tx.Model(&user).Update("password_reset_verified", true).Error; err != nil {
		return "", fmt.Errorf("verify reset code: %w", err)
	}

	return s.tokens.IssueFor(user.ID, auth.ResetTokenTTL)
}

func (s *AuthService) ResetPassword(ctx context.Context, user *models.User, newPassword string) (string, error) {
	if !user.PasswordResetVerified {
		return "", apperr.BadRequest("The reset code has not been verified or the password has already been changed.")
	}
	if err := s.changePassword(ctx, user, newPassword); err != nil {
		return "", err
	}
	return s.tokens.Issue(user.ID)
}

// UpdateMyPassword sets a new password for the signed-in user and returns a
// fresh token; tokens issued before the change stop working.
func (s *AuthService) UpdateMyPassword(ctx context.Context, user *models.User, newPassword string) (string, error) {
	if err := s.changePassword(ctx, user, newPassword); err != nil {
		return "", err
	}
	return s.tokens.Issue(user.ID)
}

func (s *AuthService) changePassword(ctx context.Context, user *models.User, newPassword string) error {
	if auth.CheckPassword(user.Password, newPassword) {
		return apperr.BadRequest("The new password must be different from the old one.")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	changedAt := auth.PasswordChangedStamp(s.now())

	err = s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"password":                hash,
		"password_changed_at":     changedAt,
		"password_reset_code":     "",
		"password_reset_expires":  nil,
		"password_reset_verified": false,
	}).Error
	if err != nil {
		return fmt.Errorf("change password of user %d: %w", user.ID, err)
	}

	user.Password = hash
	user.PasswordChangedAt = &changedAt
	user.PasswordResetVerified = false
	return nil
}

// Deactivate marks the account inactive; logging in again reactivates it.
func (s *AuthService) Deactivate(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Model(user).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("deactivate user %d: %w", user.ID, err)
	}
	user.IsActive = false
	return nil
}
