package routes

import (
	"context"
	"strings"

	"eshop/apperr"
	"eshop/auth"
	"eshop/handlers"
	"eshop/models"
	"eshop/store"
	"eshop/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
)

type userInput struct {
	Name                 string `json:"name" form:"name" validate:"required,min=3"`
	Email                string `json:"email" form:"email" validate:"required,email"`
	Password             string `json:"password" form:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"passwordConfirmation" form:"passwordConfirmation" validate:"required,eqfield=Password"`
	Phone                string `json:"phone" form:"phone" validate:"omitempty,mobile"`
	Role                 string `json:"role" form:"role" validate:"omitempty,oneof=user admin"`
	ProfileImage         string `json:"profileImage" form:"profileImage"`
}

type userPatch struct {
	Name         *string `json:"name" form:"name" validate:"omitempty,min=3"`
	Email        *string `json:"email" form:"email" validate:"omitempty,email"`
	Phone        *string `json:"phone" form:"phone" validate:"omitempty,mobile"`
	Role         *string `json:"role" form:"role" validate:"omitempty,oneof=user admin"`
	ProfileImage *string `json:"profileImage" form:"profileImage"`
}

// mePatch is what users may change on their own profile.
type mePatch struct {
	Name         *string `json:"name" form:"name" validate:"omitempty,min=3"`
	Email        *string `json:"email" form:"email" validate:"omitempty,email"`
	Phone        *string `json:"phone" form:"phone" validate:"omitempty,mobile"`
	ProfileImage *string `json:"profileImage" form:"profileImage"`
}

type addressPatch struct {
	Alias    *string `json:"alias" validate:"omitempty,min=2,max=50"`
	Details  *string `json:"details" validate:"omitempty,min=5,max=255"`
	Street   *string `json:"street" validate:"omitempty,min=3,max=100"`
	City     *string `json:"city" validate:"omitempty,min=2,max=50"`
	PostCode *string `json:"postCode" validate:"omitempty,min=5,max=10"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *router) emailTaken(ctx context.Context, email string, except uint) error {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id <> ?", email, except).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Field("email", "This email is already in use")
	}
	return nil
}

func (r *router) userResource() *handlers.Resource[models.User] {
	return &handlers.Resource[models.User]{
		Name: "user",
		Repo: store.NewRepository[models.User](r.DB, "Addresses"),
		Present: func(u *models.User) {
			u.ProfileImage = r.Uploads.URL(uploads.Users, u.ProfileImage)
		},
	}
}

// profileChanges collects the profile columns shared by the admin and the
// self-service update.
func (r *router) profileChanges(c *fiber.Ctx, id uint, name, email, phone, image *string) (store.Changes, error) {
	changes := store.Changes{Fields: map[string]any{}}
	if name != nil {
		changes.Fields["name"] = *name
		changes.Fields["slug"] = slug.Make(*name)
	}
	if email != nil {
		normalized := normalizeEmail(*email)
		if err := r.emailTaken(c.UserContext(), normalized, id); err != nil {
			return changes, err
		}
		changes.Fields["email"] = normalized
	}
	if phone != nil {
		changes.Fields["phone"] = *phone
	}

	given := ""
	if image != nil {
		given = *image
	}
	img, err := r.image(c, "profileImage", uploads.Users, given)
	if err != nil {
		return changes, err
	}
	if img != "" {
		changes.Fields["profile_image"] = img
	}
	return changes, nil
}

func (r *router) userRoutes(g fiber.Router) {
	res := r.userResource()

	create := handlers.CreateOne(res, func(c *fiber.Ctx, in *userInput) (*models.User, error) {
		email := normalizeEmail(in.Email)
		if err := r.emailTaken(c.UserContext(), email, 0); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		img, err := r.image(c, "profileImage", uploads.Users, in.ProfileImage)
		if err != nil {
			return nil, err
		}
		role := in.Role
		if role == "" {
			role = models.RoleUser
		}
		return &models.User{
			Name:         in.Name,
			Slug:         slug.Make(in.Name),
			Email:        email,
			Phone:        in.Phone,
			ProfileImage: img,
			Role:         role,
			Password:     hash,
			IsActive:     true,
		}, nil
	})
	update := handlers.UpdateOne(res, func(c *fiber.Ctx, id uint, in *userPatch) (store.Changes, error) {
		changes, err := r.profileChanges(c, id, in.Name, in.Email, in.Phone, in.ProfileImage)
		if err != nil {
			return changes, err
		}
		if in.Role != nil {
			changes.Fields["role"] = *in.Role
		}
		return changes, nil
	})

	admin := r.admin()
	g.Get("/", chain(admin, res.GetAll(nil))...)
	g.Post("/", chain(admin, create)...)
	g.Get("/:id", chain(admin, res.GetOne(nil))...)
	g.Patch("/:id", chain(admin, update)...)
	g.Delete("/:id", chain(admin, res.DeleteOne(nil))...)
}

func (r *router) meRoutes(g fiber.Router) {
	res := r.userResource()
	protect := r.gate.Protect()

	g.Get("/", protect, func(c *fiber.Ctx) error {
		user, err := res.Repo.FindByID(c.UserContext(), auth.CurrentUser(c).ID, nil)
		if err != nil {
			return err
		}
		res.Present(user)
		return success(c, user)
	})

	g.Patch("/", protect, func(c *fiber.Ctx) error {
		in, err := handlers.Bind[mePatch](c)
		if err != nil {
			return err
		}
		id := auth.CurrentUser(c).ID
		changes, err := r.profileChanges(c, id, in.Name, in.Email, in.Phone, in.ProfileImage)
		if err != nil {
			return err
		}
		user, err := res.Repo.Update(c.UserContext(), id, nil, changes)
		if err != nil {
			return err
		}
		res.Present(user)
		return success(c, user)
	})

	g.Delete("/", protect, func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)
		if err := r.Auth.Deactivate(c.UserContext(), user); err != nil {
			return err
		}
		return success(c, user)
	})

	g.Patch("/update-password", protect, func(c *fiber.Ctx) error {
		in, err := handlers.Bind[newPasswordInput](c)
		if err != nil {
			return err
		}
		token, err := r.Auth.UpdateMyPassword(c.UserContext(), auth.CurrentUser(c), in.NewPassword)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"token": token})
	})

	onlyUsers := r.as(models.RoleUser)
	g.Post("/addresses", chain(onlyUsers, r.addAddress)...)
	g.Get("/addresses", chain(onlyUsers, r.listAddresses)...)
	g.Patch("/addresses/:addressId", chain(onlyUsers, r.updateAddress)...)
	g.Delete("/addresses/:addressId", chain(onlyUsers, r.deleteAddress)...)
}

func (r *router) addAddress(c *fiber.Ctx) error {
	in, err := handlers.Bind[shippingAddressInput](c)
	if err != nil {
		return err
	}
	addresses, err := r.Addresses.Add(c.UserContext(), auth.CurrentUser(c).ID, in.model())
	if err != nil {
		return err
	}
	return successMessage(c, "Your Address added successfully.", addresses)
}

func (r *router) listAddresses(c *fiber.Ctx) error {
	addresses, err := r.Addresses.List(c.UserContext(), auth.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "success", "results": len(addresses), "data": addresses})
}

func (r *router) updateAddress(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "addressId")
	if err != nil {
		return err
	}
	in, err := handlers.Bind[addressPatch](c)
	if err != nil {
		return err
	}

	changes := map[string]any{}
	for column, v := range map[string]*string{
		"alias":     in.Alias,
		"details":   in.Details,
		"street":    in.Street,
		"city":      in.City,
		"post_code": in.PostCode,
	} {
		if v != nil {
			changes[column] = *v
		}
	}

	addresses, err := r.Addresses.Update(c.UserContext(), auth.CurrentUser(c).ID, id, changes)
	if err != nil {
		return err
	}
	return successMessage(c, "This Address updated successfully.", addresses)
}

func (r *router) deleteAddress(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "addressId")
	if err != nil {
		return err
	}
	if err := r.Addresses.Delete(c.UserContext(), auth.CurrentUser(c).ID, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "success", "message": "This Address deleted successfully."})
}
