package routes

import (
	"context"
	"fmt"

	"eshop/apperr"
	"eshop/handlers"
	"eshop/models"
	"eshop/store"
	"eshop/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
)

type categoryInput struct {
	Name  string `json:"name" form:"name" validate:"required,min=3,max=30"`
	Image string `json:"image" form:"image"`
}

type categoryPatch struct {
	Name  *string `json:"name" form:"name" validate:"omitempty,min=3,max=30"`
	Image *string `json:"image" form:"image"`
}

type subCategoryInput struct {
	Name     string `json:"name" form:"name" validate:"required,min=2,max=30"`
	Category uint   `json:"category" form:"category"`
}

type subCategoryPatch struct {
	Name     *string `json:"name" form:"name" validate:"omitempty,min=2,max=30"`
	Category *uint   `json:"category" form:"category"`
}

type brandInput struct {
	Name  string `json:"name" form:"name" validate:"required,min=2,max=30"`
	Image string `json:"image" form:"image"`
}

type brandPatch struct {
	Name  *string `json:"name" form:"name" validate:"omitempty,min=2,max=30"`
	Image *string `json:"image" form:"image"`
}

// exists reports whether a row of model with the given id is stored.
func (r *router) exists(ctx context.Context, model any, id uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *router) requireCategory(c *fiber.Ctx, id uint) error {
	if id == 0 {
		return apperr.Field("category", "category is required")
	}
	ok, err := r.exists(c.UserContext(), &models.Category{}, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Field("category", fmt.Sprintf("Category not found by ID: %d", id))
	}
	return nil
}

// image stores an uploaded file when present, otherwise keeps the given name.
func (r *router) image(c *fiber.Ctx, field, folder, given string) (string, error) {
	name, err := r.Uploads.Single(c, field, folder)
	if err != nil || name != "" {
		return name, err
	}
	return given, nil
}

func (r *router) categoryResource() *handlers.Resource[models.Category] {
	return &handlers.Resource[models.Category]{
		Name: "category",
		Repo: store.NewRepository[models.Category](r.DB),
		Present: func(cat *models.Category) {
			cat.Image = r.Uploads.URL(uploads.Categories, cat.Image)
		},
	}
}

func (r *router) categoryRoutes(g fiber.Router) {
	res := r.categoryResource()

	create := handlers.CreateOne(res, func(c *fiber.Ctx, in *categoryInput) (*models.Category, error) {
		img, err := r.image(c, "image", uploads.Categories, in.Image)
		if err != nil {
			return nil, err
		}
		return &models.Category{Name: in.Name, Slug: slug.Make(in.Name), Image: img}, nil
	})
	update := handlers.UpdateOne(res, func(c *fiber.Ctx, _ uint, in *categoryPatch) (store.Changes, error) {
		changes := store.Changes{Fields: map[string]any{}}
		if in.Name != nil {
			changes.Fields["name"] = *in.Name
			changes.Fields["slug"] = slug.Make(*in.Name)
		}
		given := ""
		if in.Image != nil {
			given = *in.Image
		}
		img, err := r.image(c, "image", uploads.Categories, given)
		if err != nil {
			return changes, err
		}
		if img != "" {
			changes.Fields["image"] = img
		}
		return changes, nil
	})

	g.Get("/", res.GetAll(nil))
	g.Post("/", chain(r.admin(), create)...)
	g.Get("/:id", res.GetOne(nil))
	g.Patch("/:id", chain(r.admin(), update)...)
	g.Delete("/:id", chain(r.admin(), res.DeleteOne(nil))...)

	// subcategories of one category
	nested := g.Group("/:categoryId/subCategories")
	sub := r.subCategoryResource()
	nested.Get("/", sub.GetAll(handlers.Param("categoryId", "category_id")))
	nested.Post("/", chain(r.admin(), r.createSubCategory(sub))...)
}

func (r *router) subCategoryResource() *handlers.Resource[models.SubCategory] {
	return &handlers.Resource[models.SubCategory]{
		Name: "subCategory",
		Repo: store.NewRepository[models.SubCategory](r.DB),
	}
}

func (r *router) createSubCategory(res *handlers.Resource[models.SubCategory]) fiber.Handler {
	return handlers.CreateOne(res, func(c *fiber.Ctx, in *subCategoryInput) (*models.SubCategory, error) {
		if c.Params("categoryId") != "" {
			id, err := handlers.ParamID(c, "categoryId")
			if err != nil {
				return nil, err
			}
			in.Category = id
		}
		if err := r.requireCategory(c, in.Category); err != nil {
			return nil, err
		}
		return &models.SubCategory{Name: in.Name, Slug: slug.Make(in.Name), CategoryID: in.Category}, nil
	})
}

func (r *router) subCategoryRoutes(g fiber.Router) {
	res := r.subCategoryResource()

	update := handlers.UpdateOne(res, func(c *fiber.Ctx, _ uint, in *subCategoryPatch) (store.Changes, error) {
		changes := store.Changes{Fields: map[string]any{}}
		if in.Name != nil {
			changes.Fields["name"] = *in.Name
			changes.Fields["slug"] = slug.Make(*in.Name)
		}
		if in.Category != nil {
			if err := r.requireCategory(c, *in.Category); err != nil {
				return changes, err
			}
			changes.Fields["category_id"] = *in.Category
		}
		return changes, nil
	})

	g.Get("/", res.GetAll(nil))
	g.Post("/", chain(r.admin(), r.createSubCategory(res))...)
	g.Get("/:id", res.GetOne(nil))
	g.Patch("/:id", chain(r.admin(), update)...)
	g.Delete("/:id", chain(r.admin(), res.DeleteOne(nil))...)
}

func (r *router) brandRoutes(g fiber.Router) {
	res := &handlers.Resource[models.Brand]{
		Name: "brand",
		Repo: store.NewRepository[models.Brand](r.DB),
		Present: func(b *models.Brand) {
			b.Image = r.Uploads.URL(uploads.Brands, b.Image)
		},
	}

	create := handlers.CreateOne(res, func(c *fiber.Ctx, in *brandInput) (*models.Brand, error) {
		img, err := r.image(c, "image", uploads.Brands, in.Image)
		if err != nil {
			return nil, err
		}
		return &models.Brand{Name: in.Name, Slug: slug.Make(in.Name), Image: img}, nil
	})
	update := handlers.UpdateOne(res, func(c *fiber.Ctx, _ uint, in *brandPatch) (store.Changes, error) {
		changes := store.Changes{Fields: map[string]any{}}
		if in.Name != nil {
			changes.Fields["name"] = *in.Name
			changes.Fields["slug"] = slug.Make(*in.Name)
		}
		given := ""
		if in.Image != nil {
			given = *in.Image
		}
		img, err := r.image(c, "image", uploads.Brands, given)
		if err != nil {
			return changes, err
		}
		if img != "" {
			changes.Fields["image"] = img
		}
		return changes, nil
	})

	g.Get("/", res.GetAll(nil))
	g.Post("/", chain(r.admin(), create)...)
	g.Get("/:id", res.GetOne(nil))
	g.Patch("/:id", chain(r.admin(), update)...)
	g.Delete("/:id", chain(r.admin(), res.DeleteOne(nil))...)
}
