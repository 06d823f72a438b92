package routes

import (
	"eshop/apperr"
	"eshop/auth"
	"eshop/handlers"
	"eshop/models"
	"eshop/services"
	"eshop/store"

	"github.com/gofiber/fiber/v2"
)

type reviewInput struct {
	Title   string  `json:"title"`
	Ratings float64 `json:"ratings" validate:"required,gte=1,lte=5"`
	Product uint    `json:"product"`
}

type reviewPatch struct {
	Title   *string  `json:"title"`
	Ratings *float64 `json:"ratings" validate:"omitempty,gte=1,lte=5"`
}

func (r *router) reviewResource() *handlers.Resource[models.Review] {
	return &handlers.Resource[models.Review]{
		Name: "review",
		Repo: store.NewRepository[models.Review](r.DB).Preload("User", selectColumns("id", "name")),
	}
}

// mountReviews registers the listing and creation endpoints shared by
// /reviews and /products/:productId/reviews.
func (r *router) mountReviews(g fiber.Router) *handlers.Resource[models.Review] {
	res := r.reviewResource()
	g.Get("/", res.GetAll(handlers.Param("productId", "product_id")))
	g.Post("/", chain(r.as(models.RoleUser), r.createReview)...)
	return res
}

func (r *router) reviewRoutes(g fiber.Router) {
	res := r.mountReviews(g)

	g.Get("/:id", res.GetOne(nil))
	g.Patch("/:id", chain(r.as(models.RoleUser), r.updateReview)...)
	g.Delete("/:id", chain(r.as(models.RoleUser, models.RoleAdmin), r.deleteReview)...)
}

func (r *router) createReview(c *fiber.Ctx) error {
	in, err := handlers.Bind[reviewInput](c)
	if err != nil {
		return err
	}
	if c.Params("productId") != "" {
		id, err := handlers.ParamID(c, "productId")
		if err != nil {
			return err
		}
		in.Product = id
	}
	if in.Product == 0 {
		return apperr.Field("product", "product is required")
	}

	review, err := r.Reviews.Create(c.UserContext(), auth.CurrentUser(c), services.ReviewInput{
		Title:     in.Title,
		Ratings:   in.Ratings,
		ProductID: in.Product,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": review})
}

func (r *router) updateReview(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return err
	}
	in, err := handlers.Bind[reviewPatch](c)
	if err != nil {
		return err
	}

	review, err := r.Reviews.Update(c.UserContext(), auth.CurrentUser(c), id, services.ReviewUpdate{
		Title:   in.Title,
		Ratings: in.Ratings,
	})
	if err != nil {
		return err
	}
	return success(c, review)
}

func (r *router) deleteReview(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := r.Reviews.Delete(c.UserContext(), auth.CurrentUser(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "success", "message": "Document deleted"})
}
