package repository

import (
	"context"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
)

// ProductRepository holds the rental catalog snapshot. GetAll preserves
// catalog order; mention resolution and the suggestion engine depend on it.
type ProductRepository interface {
	// ReplaceCatalog swaps in a new catalog snapshot.
	ReplaceCatalog(ctx context.Context, catalog entity.Catalog) error

	// GetAll returns all products in catalog order.
	GetAll(ctx context.Context) ([]entity.Product, error)

	// GetByID returns one product.
	GetByID(ctx context.Context, id string) (*entity.Product, error)

	// Search returns products matching a free-text query, used for the
	// @mention autocomplete lookup.
	Search(ctx context.Context, query string) ([]entity.Product, error)

	// GetCatalog returns the current snapshot with its metadata.
	GetCatalog(ctx context.Context) (*entity.Catalog, error)
}
