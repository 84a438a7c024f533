package entity

import (
	"strings"
	"time"
)

// Product is a rental catalog entry. Categories is always a normalized
// list; catalog sources that deliver a single string or a separated
// list are split by NormalizeCategories before reaching this struct.
type Product struct {
	ID          string
	Name        string
	Categories  []string
	PriceTTC    float64
	Description string
	Images      []string
	Slug        string
	Stock       int
}

// Ref returns the lightweight view used for mention resolution and
// suggestion text.
func (p Product) Ref() ProductRef {
	ref := ProductRef{ID: p.ID, Name: p.Name}
	if len(p.Categories) > 0 {
		ref.Category = p.Categories[0]
	}
	return ref
}

// ProductRef is the slimmed-down product reference carried on messages.
type ProductRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// Catalog is an ordered snapshot of the product list.
type Catalog struct {
	Products  []Product
	UpdatedAt time.Time
	Source    string
}

// NormalizeCategories splits a raw category cell into a clean list.
// Accepts ",", ";" and "/" as separators and drops blanks.
func NormalizeCategories(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '/'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
