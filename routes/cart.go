package routes

import (
	"eshop/auth"
	"eshop/handlers"
	"eshop/models"
	"eshop/services"

	"github.com/gofiber/fiber/v2"
)

type addToCartInput struct {
	ProductID uint   `json:"productId" validate:"required"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

type cartItemPatch struct {
	Color    *string `json:"color"`
	Quantity *int    `json:"quantity"`
}

type applyCouponInput struct {
	CouponCode string `json:"couponCode" validate:"required"`
}

func (r *router) cartRoutes(g fiber.Router) {
	user := r.as(models.RoleUser)

	g.Post("/", chain(user, r.addToCart)...)
	g.Get("/", chain(user, r.getMyCart)...)
	g.Delete("/", chain(user, r.clearCart)...)
	g.Patch("/applyCoupon", chain(user, r.applyCoupon)...)
	g.Patch("/:productId", chain(user, r.updateCartItem)...)
	g.Delete("/:itemId", chain(user, r.removeCartItem)...)
}

func cartResponse(c *fiber.Ctx, message string, cart *models.Cart) error {
	return successMessage(c, message, fiber.Map{"cart": cart})
}

func (r *router) addToCart(c *fiber.Ctx) error {
	in, err := handlers.Bind[addToCartInput](c)
	if err != nil {
		return err
	}
	cart, err := r.Carts.AddToCart(c.UserContext(), auth.CurrentUser(c).ID, services.AddToCartInput{
		ProductID: in.ProductID,
		Color:     in.Color,
		Quantity:  in.Quantity,
	})
	if err != nil {
		return err
	}
	return cartResponse(c, "The product has been successfully added to your cart.", cart)
}

func (r *router) getMyCart(c *fiber.Ctx) error {
	cart, err := r.Carts.GetMyCart(c.UserContext(), auth.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return success(c, cart)
}

func (r *router) clearCart(c *fiber.Ctx) error {
	if err := r.Carts.ClearCart(c.UserContext(), auth.CurrentUser(c).ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (r *router) applyCoupon(c *fiber.Ctx) error {
	in, err := handlers.Bind[applyCouponInput](c)
	if err != nil {
		return err
	}
	cart, err := r.Carts.ApplyCoupon(c.UserContext(), auth.CurrentUser(c).ID, in.CouponCode)
	if err != nil {
		return err
	}
	return cartResponse(c, "Coupon applied successfully", cart)
}

func (r *router) updateCartItem(c *fiber.Ctx) error {
	productID, err := handlers.ParamID(c, "productId")
	if err != nil {
		return err
	}
	in, err := handlers.Bind[cartItemPatch](c)
	if err != nil {
		return err
	}
	cart, err := r.Carts.UpdateCartItem(c.UserContext(), auth.CurrentUser(c).ID, productID, services.CartItemUpdate{
		Color:    in.Color,
		Quantity: in.Quantity,
	})
	if err != nil {
		return err
	}
	return cartResponse(c, "Cart updated successfully", cart)
}

func (r *router) removeCartItem(c *fiber.Ctx) error {
	itemID, err := handlers.ParamID(c, "itemId")
	if err != nil {
		return err
	}
	cart, err := r.Carts.RemoveCartItem(c.UserContext(), auth.CurrentUser(c).ID, itemID)
	if err != nil {
		return err
	}
	return cartResponse(c, "Item removed from cart successfully", cart)
}
