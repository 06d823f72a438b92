package routes

import (
	"errors"
	"fmt"
	"slices"

	"eshop/apperr"
	"eshop/export"
	"eshop/handlers"
	"eshop/models"
	"eshop/store"
	"eshop/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const maxProductImages = 5

type productInput struct {
	Name               string   `json:"name" form:"name" validate:"required,min=3,max=100"`
	Description        string   `json:"description" form:"description" validate:"required,min=20,max=500"`
	Quantity           int      `json:"quantity" form:"quantity" validate:"gte=1"`
	Sold               int      `json:"sold" form:"sold" validate:"gte=0"`
	Price              float64  `json:"price" form:"price" validate:"gte=1,lte=100000"`
	PriceAfterDiscount *float64 `json:"priceAfterDiscount" form:"priceAfterDiscount" validate:"omitempty,ltfield=Price"`
	Colors             []string `json:"colors" form:"colors"`
	ImageCover         string   `json:"imageCover" form:"imageCover"`
	Images             []string `json:"images" form:"images"`
	Category           uint     `json:"category" form:"category" validate:"required"`
	SubCategories      []uint   `json:"subCategories" form:"subCategories" validate:"required,min=1"`
	Brand              *uint    `json:"brand" form:"brand"`
}

type productPatch struct {
	Name               *string  `json:"name" form:"name" validate:"omitempty,min=3,max=100"`
	Description        *string  `json:"description" form:"description" validate:"omitempty,min=20,max=500"`
	Quantity           *int     `json:"quantity" form:"quantity" validate:"omitempty,gte=1"`
	Sold               *int     `json:"sold" form:"sold" validate:"omitempty,gte=0"`
	Price              *float64 `json:"price" form:"price" validate:"omitempty,gte=1,lte=100000"`
	PriceAfterDiscount *float64 `json:"priceAfterDiscount" form:"priceAfterDiscount"`
	Colors             []string `json:"colors" form:"colors"`
	ImageCover         *string  `json:"imageCover" form:"imageCover"`
	Images             []string `json:"images" form:"images"`
	Category           *uint    `json:"category" form:"category"`
	SubCategories      []uint   `json:"subCategories" form:"subCategories"`
	Brand              *uint    `json:"brand" form:"brand"`
}

// checkSubCategories verifies that every id names a stored subcategory of
// the category.
func (r *router) checkSubCategories(c *fiber.Ctx, categoryID uint, ids []uint) ([]models.SubCategory, error) {
	ids = unique(ids)

	var found []models.SubCategory
	if err := r.DB.WithContext(c.UserContext()).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, apperr.Field("subCategories", fmt.Sprintf("Some SubCategory IDs are not found: %v", ids))
	}
	for _, sc := range found {
		if sc.CategoryID != categoryID {
			return nil, apperr.Field("subCategories", "Provided subcategories do not belong to the specified category")
		}
	}
	return found, nil
}

func (r *router) checkBrand(c *fiber.Ctx, id *uint) error {
	if id == nil {
		return nil
	}
	ok, err := r.exists(c.UserContext(), &models.Brand{}, *id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Field("brand", fmt.Sprintf("No brand for this id %d", *id))
	}
	return nil
}

// productImages stores the uploaded cover and gallery, falling back to the
// names sent in the body.
func (r *router) productImages(c *fiber.Ctx, cover string, images []string) (string, []string, error) {
	cover, err := r.image(c, "imageCover", uploads.Products, cover)
	if err != nil {
		return "", nil, err
	}
	uploaded, err := r.Uploads.Many(c, "images", uploads.Products, maxProductImages)
	if err != nil {
		return "", nil, err
	}
	if len(uploaded) > 0 {
		images = uploaded
	}
	return cover, images, nil
}

func (r *router) productResource() *handlers.Resource[models.Product] {
	return &handlers.Resource[models.Product]{
		Name: "product",
		Repo: store.NewRepository[models.Product](r.DB, "SubCategories").
			Preload("Category", selectColumns("id", "name")).
			Preload("Brand", selectColumns("id", "name")),
		Present: func(p *models.Product) {
			p.ImageCover = r.Uploads.URL(uploads.Products, p.ImageCover)
			p.Images = r.Uploads.URLs(uploads.Products, p.Images)
		},
	}
}

func (r *router) productRoutes(g fiber.Router) {
	res := r.productResource()

	create := handlers.CreateOne(res, func(c *fiber.Ctx, in *productInput) (*models.Product, error) {
		if err := r.requireCategory(c, in.Category); err != nil {
			return nil, err
		}
		subs, err := r.checkSubCategories(c, in.Category, in.SubCategories)
		if err != nil {
			return nil, err
		}
		if err := r.checkBrand(c, in.Brand); err != nil {
			return nil, err
		}
		cover, images, err := r.productImages(c, in.ImageCover, in.Images)
		if err != nil {
			return nil, err
		}
		if cover == "" {
			return nil, apperr.Field("imageCover", "Product image cover is required")
		}

		return &models.Product{
			Name:               in.Name,
			Slug:               slug.Make(in.Name),
			Description:        in.Description,
			Quantity:           in.Quantity,
			Sold:               in.Sold,
			Price:              in.Price,
			PriceAfterDiscount: in.PriceAfterDiscount,
			Colors:             in.Colors,
			ImageCover:         cover,
			Images:             images,
			CategoryID:         in.Category,
			SubCategories:      subs,
			BrandID:            in.Brand,
		}, nil
	})

	update := handlers.UpdateOne(res, func(c *fiber.Ctx, id uint, in *productPatch) (store.Changes, error) {
		changes := store.Changes{Fields: map[string]any{}, Associations: map[string]any{}}

		var current models.Product
		if err := r.DB.WithContext(c.UserContext()).First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// the repository reports the missing record
				return changes, nil
			}
			return changes, err
		}

		if in.Name != nil {
			changes.Fields["name"] = *in.Name
			changes.Fields["slug"] = slug.Make(*in.Name)
		}
		if in.Description != nil {
			changes.Fields["description"] = *in.Description
		}
		if in.Quantity != nil {
			changes.Fields["quantity"] = *in.Quantity
		}
		if in.Sold != nil {
			changes.Fields["sold"] = *in.Sold
		}
		price := current.Price
		if in.Price != nil {
			price = *in.Price
			changes.Fields["price"] = price
		}
		if in.PriceAfterDiscount != nil {
			if *in.PriceAfterDiscount >= price {
				return changes, apperr.Field("priceAfterDiscount", "priceAfterDiscount must be lower than price")
			}
			changes.Fields["price_after_discount"] = *in.PriceAfterDiscount
		} else if in.Price != nil && current.PriceAfterDiscount != nil && *current.PriceAfterDiscount >= price {
			return changes, apperr.Field("price", "price must be greater than the current priceAfterDiscount")
		}
		if in.Colors != nil {
			changes.Fields["colors"] = models.StringList(in.Colors)
		}

		category := current.CategoryID
		if in.Category != nil {
			if err := r.requireCategory(c, *in.Category); err != nil {
				return changes, err
			}
			category = *in.Category
			changes.Fields["category_id"] = category
		}
		if in.SubCategories != nil {
			subs, err := r.checkSubCategories(c, category, in.SubCategories)
			if err != nil {
				return changes, err
			}
			changes.Associations["SubCategories"] = subs
		}
		if in.Brand != nil {
			if err := r.checkBrand(c, in.Brand); err != nil {
				return changes, err
			}
			changes.Fields["brand_id"] = *in.Brand
		}

		cover := ""
		if in.ImageCover != nil {
			cover = *in.ImageCover
		}
		cover, images, err := r.productImages(c, cover, in.Images)
		if err != nil {
			return changes, err
		}
		if cover != "" {
			changes.Fields["image_cover"] = cover
		}
		if images != nil {
			changes.Fields["images"] = models.StringList(images)
		}
		return changes, nil
	})

	g.Get("/", res.GetAll(nil))
	g.Post("/", chain(r.admin(), create)...)
	g.Get("/export", chain(r.admin(), r.exportProducts)...)
	g.Get("/:id", res.GetOne(nil))
	g.Patch("/:id", chain(r.admin(), update)...)
	g.Delete("/:id", chain(r.admin(), res.DeleteOne(nil))...)

	reviews := g.Group("/:productId/reviews")
	r.mountReviews(reviews)
}

func (r *router) exportProducts(c *fiber.Ctx) error {
	var products []models.Product
	err := r.DB.WithContext(c.UserContext()).Preload("SubCategories").Order("id").Find(&products).Error
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="products.xlsx"`)
	return export.Products(c.Response().BodyWriter(), products)
}

func unique(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
