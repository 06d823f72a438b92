package routes

import (
	"eshop/apperr"
	"eshop/auth"
	"eshop/metrics"
	"eshop/models"
	"eshop/notify"
	"eshop/services"
	"eshop/uploads"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP surface is built from. Hub and
// Metrics are optional.
type Deps struct {
	DB        *gorm.DB
	Tokens    *auth.TokenIssuer
	Auth      *services.AuthService
	Carts     *services.CartService
	Orders    *services.OrderService
	Reviews   *services.ReviewService
	Addresses *services.AddressService
	Uploads   *uploads.Store
	Hub       *notify.Hub
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

type router struct {
	Deps
	gate *auth.Gate
}

func SetupRoutes(app *fiber.App, d Deps) {
	r := &router{Deps: d, gate: auth.NewGate(d.DB, d.Tokens)}

	app.Static("/uploads", d.Uploads.Dir())
	app.Post("/webhook-checkout", r.webhookCheckout)

	if d.Hub != nil {
		app.Get("/ws/orders", tokenFromQuery, r.gate.Protect(), r.gate.AllowedTo(models.RoleAdmin), d.Hub.Handler())
	}
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}

	api := app.Group("/api")

	r.categoryRoutes(api.Group("/categories"))
	r.subCategoryRoutes(api.Group("/subCategories"))
	r.brandRoutes(api.Group("/brands"))
	r.productRoutes(api.Group("/products"))
	r.reviewRoutes(api.Group("/reviews"))
	r.cartRoutes(api.Group("/cart"))
	r.couponRoutes(api.Group("/coupons"))
	r.orderRoutes(api.Group("/orders"))
	r.authRoutes(api.Group("/auth"))
	r.meRoutes(api.Group("/users/me"))
	r.userRoutes(api.Group("/users"))

	app.Use(apperr.RouteNotFound)
}

// admin chains authentication and the admin role check.
func (r *router) admin() []fiber.Handler {
	return []fiber.Handler{r.gate.Protect(), r.gate.AllowedTo(models.RoleAdmin)}
}

func (r *router) as(roles ...string) []fiber.Handler {
	return []fiber.Handler{r.gate.Protect(), r.gate.AllowedTo(roles...)}
}

func chain(pre []fiber.Handler, h ...fiber.Handler) []fiber.Handler {
	return append(append([]fiber.Handler{}, pre...), h...)
}

// Browsers cannot set headers on a websocket handshake, so the feed also
// accepts the token as a query parameter.
func tokenFromQuery(c *fiber.Ctx) error {
	if token := c.Query("token"); token != "" && c.Get(fiber.HeaderAuthorization) == "" {
		c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return c.Next()
}

func selectColumns(columns ...string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB { return tx.Select(columns) }
}

func success(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"status": "success", "data": data})
}

func successMessage(c *fiber.Ctx, message string, data any) error {
	return c.JSON(fiber.Map{"status": "success", "message": message, "data": data})
}
