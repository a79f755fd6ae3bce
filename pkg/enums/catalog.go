package enums

import "strings"

// StockFilter narrows catalog listings by availability.
type StockFilter string

const (
	StockAny StockFilter = ""
	StockIn  StockFilter = "in"
	StockOut StockFilter = "out"
)

// ParseStockFilter never fails; unknown input means no filter.
func ParseStockFilter(value string) StockFilter {
	switch StockFilter(strings.ToLower(strings.TrimSpace(value))) {
	case StockIn:
		return StockIn
	case StockOut:
		return StockOut
	default:
		return StockAny
	}
}

// PriceSort orders catalog listings by price.
type PriceSort string

const (
	PriceSortNone PriceSort = ""
	PriceSortAsc  PriceSort = "asc"
	PriceSortDesc PriceSort = "desc"
)

// ParsePriceSort never fails; unknown input means no explicit sort.
func ParsePriceSort(value string) PriceSort {
	switch PriceSort(strings.ToLower(strings.TrimSpace(value))) {
	case PriceSortAsc:
		return PriceSortAsc
	case PriceSortDesc:
		return PriceSortDesc
	default:
		return PriceSortNone
	}
}

// SenderRole records which side of a thread wrote a message.
type SenderRole string

const (
	SenderBuyer  SenderRole = "buyer"
	SenderSeller SenderRole = "seller"
)

func (r SenderRole) IsValid() bool {
	return r == SenderBuyer || r == SenderSeller
}
