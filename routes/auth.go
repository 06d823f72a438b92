package routes

import (
	"eshop/auth"
	"eshop/handlers"
	"eshop/services"

	"github.com/gofiber/fiber/v2"
)

type signUpInput struct {
	Name            string `json:"name" validate:"required,min=3"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Phone           string `json:"phone" validate:"omitempty,mobile"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type forgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyResetCodeInput struct {
	Code string `json:"code" validate:"required"`
}

type newPasswordInput struct {
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=NewPassword"`
}

func (r *router) authRoutes(g fiber.Router) {
	g.Post("/signUp", r.signUp)
	g.Post("/login", r.login)
	g.Post("/forgotPassword", r.forgotPassword)
	g.Post("/verifyResetCode", r.verifyResetCode)
	g.Patch("/resetPassword", r.gate.Protect(), r.resetPassword)
}

func (r *router) signUp(c *fiber.Ctx) error {
	in, err := handlers.Bind[signUpInput](c)
	if err != nil {
		return err
	}
	user, token, err := r.Auth.SignUp(c.UserContext(), services.SignUpInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Phone:    in.Phone,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": user, "token": token})
}

func (r *router) login(c *fiber.Ctx) error {
	in, err := handlers.Bind[loginInput](c)
	if err != nil {
		return err
	}
	_, token, err := r.Auth.Login(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "success", "token": token})
}

func (r *router) forgotPassword(c *fiber.Ctx) error {
	in, err := handlers.Bind[forgotPasswordInput](c)
	if err != nil {
		return err
	}
	if err := r.Auth.ForgotPassword(c.UserContext(), in.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "Success", "message": "Reset code sent to email"})
}

func (r *router) verifyResetCode(c *fiber.Ctx) error {
	in, err := handlers.Bind[verifyResetCodeInput](c)
	if err != nil {
		return err
	}
	token, err := r.Auth.VerifyResetCode(c.UserContext(), in.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "Success", "resetToken": token})
}

func (r *router) resetPassword(c *fiber.Ctx) error {
	in, err := handlers.Bind[newPasswordInput](c)
	if err != nil {
		return err
	}
	token, err := r.Auth.ResetPassword(c.UserContext(), auth.CurrentUser(c), in.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token})
}
