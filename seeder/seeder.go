// Package seeder loads product fixtures into the database and removes them.
package seeder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eshop/models"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type Product struct {
	Name               string   `yaml:"name" json:"name"`
	Description        string   `yaml:"description" json:"description"`
	Quantity           int      `yaml:"quantity" json:"quantity"`
	Sold               int      `yaml:"sold" json:"sold"`
	Price              float64  `yaml:"price" json:"price"`
	PriceAfterDiscount *float64 `yaml:"priceAfterDiscount" json:"priceAfterDiscount"`
	Colors             []string `yaml:"colors" json:"colors"`
	ImageCover         string   `yaml:"imageCover" json:"imageCover"`
	Images             []string `yaml:"images" json:"images"`
	Category           uint     `yaml:"category" json:"category"`
	SubCategories      []uint   `yaml:"subcategories" json:"subcategories"`
	Brand              *uint    `yaml:"brand" json:"brand"`
	RatingsAverage     float64  `yaml:"ratingsAverage" json:"ratingsAverage"`
	RatingsQuantity    int      `yaml:"ratingsQuantity" json:"ratingsQuantity"`
}

// Load reads fixtures from a YAML or JSON file, chosen by extension.
func Load(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}

	var products []Product
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &products); err != nil {
			return nil, fmt.Errorf("parsing JSON fixtures: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &products); err != nil {
			return nil, fmt.Errorf("parsing YAML fixtures: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported fixture format %q", filepath.Ext(path))
	}
	return products, nil
}

func (p Product) model() models.Product {
	subs := make([]models.SubCategory, len(p.SubCategories))
	for i, id := range p.SubCategories {
		subs[i] = models.SubCategory{ID: id}
	}
	return models.Product{
		Name:               p.Name,
		Slug:               slug.Make(p.Name),
		Description:        p.Description,
		Quantity:           p.Quantity,
		Sold:               p.Sold,
		Price:              p.Price,
		PriceAfterDiscount: p.PriceAfterDiscount,
		Colors:             p.Colors,
		ImageCover:         p.ImageCover,
		Images:             p.Images,
		CategoryID:         p.Category,
		SubCategories:      subs,
		BrandID:            p.Brand,
		RatingsAverage:     p.RatingsAverage,
		RatingsQuantity:    p.RatingsQuantity,
	}
}

// Import inserts all fixtures in one transaction. Subcategory links are
// written to the join table only; the subcategories themselves must exist.
func Import(db *gorm.DB, fixtures []Product) (int, error) {
	if len(fixtures) == 0 {
		return 0, nil
	}
	products := make([]models.Product, len(fixtures))
	for i, f := range fixtures {
		products[i] = f.model()
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit("SubCategories.*").Create(&products).Error
	})
	if err != nil {
		return 0, fmt.Errorf("importing products: %w", err)
	}
	return len(products), nil
}

// DeleteAll removes every product together with its subcategory links.
func DeleteAll(db *gorm.DB) (int64, error) {
	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM product_sub_categories").Error; err != nil {
			return err
		}
		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("deleting products: %w", err)
	}
	return deleted, nil
}
