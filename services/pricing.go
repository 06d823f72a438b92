package services

import (
	"eshop/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CartTotal sums quantity * price over the items.
func CartTotal(items []models.CartItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.InexactFloat64()
}

// Discounted applies a percentage discount and rounds to cents.
func Discounted(total, percent float64) float64 {
	t := decimal.NewFromFloat(total)
	off := t.Mul(decimal.NewFromFloat(percent)).Div(hundred)
	return t.Sub(off).Round(2).InexactFloat64()
}
