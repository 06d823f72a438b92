package store_test

import (
	"context"
	"fmt"
	"testing"

	"eshop/db/dbtest"
	"eshop/models"
	"eshop/query"
	"eshop/store"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type RepositorySuite struct {
	suite.Suite
	db       *gorm.DB
	ctx      context.Context
	products *store.Repository[models.Product]
	category models.Category
	subs     []models.SubCategory
}

func (s *RepositorySuite) SetupTest() {
	s.db = dbtest.Open(s.T())
	s.ctx = context.Background()
	s.products = store.NewRepository[models.Product](s.db, "Category", "SubCategories")

	s.category = models.Category{Name: "Phones", Slug: "phones"}
	s.Require().NoError(s.db.Create(&s.category).Error)

	s.subs = []models.SubCategory{
		{Name: "Android", Slug: "android", CategoryID: s.category.ID},
		{Name: "iOS", Slug: "ios", CategoryID: s.category.ID},
	}
	s.Require().NoError(s.db.Create(&s.subs).Error)

	for i := 1; i <= 12; i++ {
		p := models.Product{
			Name:          fmt.Sprintf("Phone %02d", i),
			Description:   "A phone with a long enough description",
			Quantity:      i,
			Price:         float64(i * 100),
			CategoryID:    s.category.ID,
			SubCategories: []models.SubCategory{s.subs[i%2]},
		}
		s.Require().NoError(s.products.Create(s.ctx, &p))
	}
}

func (s *RepositorySuite) TestList_DefaultPage() {
	recs, page, err := s.products.List(s.ctx, nil, query.Parse(map[string]string{}))
	s.Require().NoError(err)

	s.Require().Len(recs, 10)
	s.Require().Equal(int64(12), page.TotalDocs)
	s.Require().Equal(2, page.NumberOfPages)
	s.Require().NotNil(page.NextPage)
	s.Require().Equal(2, *page.NextPage)
	s.Require().Nil(page.PreviousPage)
	s.Require().Equal("Phone 12", recs[0].Name, "newest first by default")
	s.Require().NotNil(recs[0].Category)
	s.Require().Len(recs[0].SubCategories, 1)
}

func (s *RepositorySuite) TestList_FilterSortAndSecondPage() {
	f := query.Parse(map[string]string{
		"price[gte]": "300",
		"price[lt]":  "1000",
		"sort":       "price",
		"limit":      "4",
		"page":       "2",
	})

	recs, page, err := s.products.List(s.ctx, nil, f)
	s.Require().NoError(err)

	s.Require().Equal(int64(7), page.TotalDocs)
	s.Require().Equal(2, page.NumberOfPages)
	s.Require().Len(recs, 3)
	s.Require().Equal(700.0, recs[0].Price)
	s.Require().Nil(page.NextPage)
	s.Require().NotNil(page.PreviousPage)
	s.Require().Equal(1, *page.PreviousPage)
}

func (s *RepositorySuite) TestList_PageBeyondLast() {
	recs, page, err := s.products.List(s.ctx, nil, query.Parse(map[string]string{"page": "5"}))
	s.Require().NoError(err)

	s.Require().Empty(recs)
	s.Require().Equal(2, page.NumberOfPages)
	s.Require().Contains(page.Message, "greater than the number of existing pages")
}

func (s *RepositorySuite) TestList_KeywordAndScope() {
	recs, page, err := s.products.List(s.ctx, store.Scope{"category_id": s.category.ID},
		query.Parse(map[string]string{"keyword": "PHONE 0"}))
	s.Require().NoError(err)
	s.Require().Equal(int64(9), page.TotalDocs)
	s.Require().Len(recs, 9)

	_, page, err = s.products.List(s.ctx, store.Scope{"category_id": s.category.ID + 1}, query.Parse(nil))
	s.Require().NoError(err)
	s.Require().Equal(int64(0), page.TotalDocs)
	s.Require().Equal("No documents found.", page.Message)
}

func (s *RepositorySuite) TestList_InvalidFilterValue() {
	_, _, err := s.products.List(s.ctx, nil, query.Parse(map[string]string{"price[gt]": "cheap"}))
	s.Require().Error(err)
}

func (s *RepositorySuite) TestFindByID_Scoped() {
	_, err := s.products.FindByID(s.ctx, 1, store.Scope{"category_id": s.category.ID + 1})
	s.Require().ErrorIs(err, store.ErrNotFound)

	p, err := s.products.FindByID(s.ctx, 1, store.Scope{"category_id": s.category.ID})
	s.Require().NoError(err)
	s.Require().Equal("Phone 01", p.Name)
}

func (s *RepositorySuite) TestUpdate_FieldsAndAssociations() {
	updated, err := s.products.Update(s.ctx, 1, nil, store.Changes{
		Fields:       map[string]any{"price": 150.5, "name": "Renamed"},
		Associations: map[string]any{"SubCategories": s.subs},
	})
	s.Require().NoError(err)

	s.Require().Equal(150.5, updated.Price)
	s.Require().Equal("Renamed", updated.Name)
	s.Require().Len(updated.SubCategories, 2)

	_, err = s.products.Update(s.ctx, 999, nil, store.Changes{Fields: map[string]any{"price": 1}})
	s.Require().ErrorIs(err, store.ErrNotFound)
}

func (s *RepositorySuite) TestDelete() {
	s.Require().NoError(s.products.Delete(s.ctx, 1, nil))

	_, err := s.products.FindByID(s.ctx, 1, nil)
	s.Require().ErrorIs(err, store.ErrNotFound)

	var links int64
	s.Require().NoError(s.db.Table("product_sub_categories").Where("product_id = ?", 1).Count(&links).Error)
	s.Require().Zero(links)

	s.Require().ErrorIs(s.products.Delete(s.ctx, 1, nil), store.ErrNotFound)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}
