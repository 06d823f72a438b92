// Package export writes catalog data as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"eshop/models"

	"github.com/tealeg/xlsx"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timeLayout  = "2006-01-02 15:04:05"
)

var productHeaders = []string{
	"ID", "Name", "Slug", "Description", "Price", "PriceAfterDiscount",
	"Quantity", "Sold", "Colors", "CategoryID", "SubCategoryIDs", "BrandID",
	"RatingsAverage", "RatingsQuantity", "ImageCover", "CreatedAt", "UpdatedAt",
}

// Products writes one sheet with a header row and a row per product.
func Products(w io.Writer, products []models.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range productHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(p.ID))
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Slug)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetFloat(p.Price)
		if p.PriceAfterDiscount != nil {
			row.AddCell().SetFloat(*p.PriceAfterDiscount)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetInt(p.Quantity)
		row.AddCell().SetInt(p.Sold)
		row.AddCell().SetString(strings.Join(p.Colors, ","))
		row.AddCell().SetInt(int(p.CategoryID))

		subIDs := make([]string, 0, len(p.SubCategories))
		for _, sc := range p.SubCategories {
			subIDs = append(subIDs, strconv.FormatUint(uint64(sc.ID), 10))
		}
		row.AddCell().SetString(strings.Join(subIDs, ","))

		if p.BrandID != nil {
			row.AddCell().SetInt(int(*p.BrandID))
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetFloat(p.RatingsAverage)
		row.AddCell().SetInt(p.RatingsQuantity)
		row.AddCell().SetString(p.ImageCover)
		row.AddCell().SetString(p.CreatedAt.Format(timeLayout))
		row.AddCell().SetString(p.UpdatedAt.Format(timeLayout))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
