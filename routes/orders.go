package routes

import (
	"eshop/auth"
	"eshop/handlers"
	"eshop/models"
	"eshop/store"

	"github.com/gofiber/fiber/v2"
)

type shippingAddressInput struct {
	Alias    string `json:"alias" validate:"required,min=2,max=50"`
	Details  string `json:"details" validate:"required,min=5,max=255"`
	Street   string `json:"street" validate:"required,min=3,max=100"`
	City     string `json:"city" validate:"required,min=2,max=50"`
	PostCode string `json:"postCode" validate:"required,min=5,max=10"`
}

func (a shippingAddressInput) model() models.ShippingAddress {
	return models.ShippingAddress{
		Alias:    a.Alias,
		Details:  a.Details,
		Street:   a.Street,
		City:     a.City,
		PostCode: a.PostCode,
	}
}

type cashOrderInput struct {
	ShippingAddress shippingAddressInput `json:"shippingAddress"`
}

type checkoutInput struct {
	ShippingAddress *shippingAddressInput `json:"shippingAddress" validate:"omitempty"`
}

// ownOrders limits plain users to their own orders; admins see all.
func ownOrders(c *fiber.Ctx) (store.Scope, error) {
	user := auth.CurrentUser(c)
	if user.Role == models.RoleAdmin {
		return nil, nil
	}
	return store.Scope{"user_id": user.ID}, nil
}

func (r *router) orderRoutes(g fiber.Router) {
	res := &handlers.Resource[models.Order]{
		Name: "order",
		Repo: store.NewRepository[models.Order](r.DB, "Items").
			Preload("User", selectColumns("id", "name", "email", "phone", "profile_image")).
			Preload("Items.Product", selectColumns("id", "name", "image_cover")),
	}

	g.Post("/", chain(r.as(models.RoleUser), r.createCashOrder)...)
	g.Get("/", chain(r.as(models.RoleUser, models.RoleAdmin), res.GetAll(ownOrders))...)
	g.Get("/checkout-session", chain(r.as(models.RoleUser), r.checkoutSession)...)
	g.Post("/checkout-session", chain(r.as(models.RoleUser), r.checkoutSession)...)
	g.Get("/:id", chain(r.as(models.RoleUser, models.RoleAdmin), res.GetOne(ownOrders))...)
	g.Patch("/:id/:action", chain(r.admin(), r.updateOrderStatus)...)
}

func (r *router) createCashOrder(c *fiber.Ctx) error {
	in, err := handlers.Bind[cashOrderInput](c)
	if err != nil {
		return err
	}
	order, err := r.Orders.CreateCashOrder(c.UserContext(), auth.CurrentUser(c), in.ShippingAddress.model())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": order})
}

func (r *router) checkoutSession(c *fiber.Ctx) error {
	in, err := handlers.Bind[checkoutInput](c)
	if err != nil {
		return err
	}
	var addr *models.ShippingAddress
	if in.ShippingAddress != nil {
		a := in.ShippingAddress.model()
		addr = &a
	}

	session, err := r.Orders.CheckoutSession(c.UserContext(), auth.CurrentUser(c), addr)
	if err != nil {
		return err
	}
	return success(c, session)
}

func (r *router) updateOrderStatus(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return err
	}
	order, err := r.Orders.UpdateOrderStatus(c.UserContext(), id, c.Params("action"))
	if err != nil {
		return err
	}
	return success(c, order)
}

// webhookCheckout receives payment provider events. The signature is
// computed over the raw body, so it is passed through untouched.
func (r *router) webhookCheckout(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	if err := r.Orders.HandleWebhook(c.UserContext(), payload, c.Get("Stripe-Signature")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"received": true})
}
