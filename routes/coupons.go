package routes

import (
	"strings"
	"time"

	"eshop/apperr"
	"eshop/handlers"
	"eshop/models"
	"eshop/store"

	"github.com/gofiber/fiber/v2"
)

type couponInput struct {
	Name     string    `json:"name" validate:"required,min=3,max=30"`
	Discount *float64  `json:"discount" validate:"required,gte=0,lte=100"`
	Expire   time.Time `json:"expire" validate:"required"`
}

type couponPatch struct {
	Name     *string    `json:"name" validate:"omitempty,min=3,max=30"`
	Discount *float64   `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Expire   *time.Time `json:"expire"`
}

func futureExpire(expire time.Time) error {
	if !expire.After(time.Now()) {
		return apperr.Field("expire", "Coupon expire time must be in the future")
	}
	return nil
}

func (r *router) couponRoutes(g fiber.Router) {
	res := &handlers.Resource[models.Coupon]{
		Name: "coupon",
		Repo: store.NewRepository[models.Coupon](r.DB),
	}

	create := handlers.CreateOne(res, func(c *fiber.Ctx, in *couponInput) (*models.Coupon, error) {
		if err := futureExpire(in.Expire); err != nil {
			return nil, err
		}
		return &models.Coupon{Name: strings.TrimSpace(in.Name), Discount: *in.Discount, Expire: in.Expire}, nil
	})
	update := handlers.UpdateOne(res, func(c *fiber.Ctx, _ uint, in *couponPatch) (store.Changes, error) {
		changes := store.Changes{Fields: map[string]any{}}
		if in.Name != nil {
			changes.Fields["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Discount != nil {
			changes.Fields["discount"] = *in.Discount
		}
		if in.Expire != nil {
			if err := futureExpire(*in.Expire); err != nil {
				return changes, err
			}
			changes.Fields["expire"] = *in.Expire
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
