package products

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roorreach/marketplace-backend/pkg/enums"
)

// Filter is the catalog query. Every field is optional and the set composes
// conjunctively.
type Filter struct {
	Query      string            `json:"q,omitempty"`
	Region     string            `json:"region,omitempty"`
	Stock      enums.StockFilter `json:"stock,omitempty"`
	MinPrice   *decimal.Decimal  `json:"min,omitempty"`
	MaxPrice   *decimal.Decimal  `json:"max,omitempty"`
	CategoryID *uuid.UUID        `json:"category,omitempty"`
	Sort       enums.PriceSort   `json:"sort,omitempty"`
}

// ParseFilter reads q, region, stock, min, max, category and sort. It never
// fails: malformed numbers and ids are dropped.
func ParseFilter(values url.Values) Filter {
	f := Filter{
		Query:  strings.TrimSpace(values.Get("q")),
		Region: strings.TrimSpace(values.Get("region")),
		Stock:  enums.ParseStockFilter(values.Get("stock")),
		Sort:   enums.ParsePriceSort(values.Get("sort")),
	}
	f.MinPrice = parseDecimal(values.Get("min"))
	f.MaxPrice = parseDecimal(values.Get("max"))
	if raw := strings.TrimSpace(values.Get("category")); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			f.CategoryID = &id
		}
	}
	return f
}

func parseDecimal(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}
