package repository

import (
	"context"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
)

// CatalogParser reads catalog files uploaded by admins.
type CatalogParser interface {
	// ParseProducts reads products from a file on disk.
	ParseProducts(ctx context.Context, filePath string) ([]entity.Product, error)

	// ParseProductsFromBytes reads products from an in-memory file.
	ParseProductsFromBytes(ctx context.Context, data []byte, filename string) ([]entity.Product, error)
}
