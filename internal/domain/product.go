package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Specification is one row of a product's ordered spec sheet.
type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Category       string          `json:"category"`
	Brand          string          `json:"brand"`
	Color          string          `json:"color,omitempty"`
	Size           string          `json:"size,omitempty"`
	Stock          int             `json:"stock"`
	Image          string          `json:"image,omitempty"`
	Images         []string        `json:"images,omitempty"`
	Rating         float64         `json:"rating"`
	Featured       bool            `json:"featured"`
	Tags           []string        `json:"tags,omitempty"`
	Specifications []Specification `json:"specifications,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Validate enforces the catalog invariants.
func (p *Product) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if p.Price.IsNegative() {
		problems = append(problems, "price must not be negative")
	}
	if p.Stock < 0 {
		problems = append(problems, "stock must not be negative")
	}
	if p.Rating < 0 || p.Rating > 5 {
		problems = append(problems, "rating must be between 0 and 5")
	}
	if len(problems) > 0 {
		return invalid(strings.Join(problems, "; "))
	}
	return nil
}

// ProductSort is the single sort key a catalog listing may use.
type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortOldest    ProductSort = "oldest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortRating    ProductSort = "rating"
	SortName      ProductSort = "name"
)

func (s ProductSort) Valid() bool {
	switch s {
	case SortNewest, SortOldest, SortPriceAsc, SortPriceDesc, SortRating, SortName:
		return true
	}
	return false
}

// ProductFilter is AND-composed. Nil pointers mean "no constraint". MinPrice
// greater than MaxPrice is not rejected; it simply matches nothing.
type ProductFilter struct {
	Category  string
	Brand     string
	Featured  *bool
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating *float64
	Sort      ProductSort
}
