package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/repository"
)

// ProductUseCase is the catalog-facing business logic.
type ProductUseCase interface {
	// Search is the lightweight lookup backing @mention autocomplete.
	Search(ctx context.Context, query string) ([]entity.Product, error)

	// GetAll returns the full catalog snapshot in order.
	GetAll(ctx context.Context) ([]entity.Product, error)

	// ImportCatalog parses an uploaded catalog file and replaces the
	// current snapshot. Returns the number of imported products.
	ImportCatalog(ctx context.Context, data []byte, filename string) (int, error)

	// LoadCatalogFile imports a catalog from a file on disk, used to
	// preload the catalog at startup.
	LoadCatalogFile(ctx context.Context, path string) (int, error)

	// HasProducts reports whether a catalog is loaded.
	HasProducts(ctx context.Context) (bool, error)
}

type productUseCase struct {
	productRepo repository.ProductRepository
	parser      repository.CatalogParser
	logger      *slog.Logger
}

// NewProductUseCase creates the catalog usecase.
func NewProductUseCase(productRepo repository.ProductRepository, parser repository.CatalogParser, logger *slog.Logger) ProductUseCase {
	return &productUseCase{productRepo: productRepo, parser: parser, logger: logger}
}

func (u *productUseCase) Search(ctx context.Context, query string) ([]entity.Product, error) {
	return u.productRepo.Search(ctx, query)
}

func (u *productUseCase) GetAll(ctx context.Context) ([]entity.Product, error) {
	return u.productRepo.GetAll(ctx)
}

func (u *productUseCase) ImportCatalog(ctx context.Context, data []byte, filename string) (int, error) {
	products, err := u.parser.ParseProductsFromBytes(ctx, data, filename)
	if err != nil {
		return 0, fmt.Errorf("catalog parsing failed: %w", err)
	}
	if len(products) == 0 {
		return 0, fmt.Errorf("catalog file %q contains no products", filename)
	}

	catalog := entity.Catalog{
		Products:  products,
		UpdatedAt: time.Now(),
		Source:    filename,
	}
	if err := u.productRepo.ReplaceCatalog(ctx, catalog); err != nil {
		return 0, fmt.Errorf("catalog replacement failed: %w", err)
	}

	u.logger.Info("catalog imported", "source", filename, "products", len(products))
	return len(products), nil
}

func (u *productUseCase) LoadCatalogFile(ctx context.Context, path string) (int, error) {
	products, err := u.parser.ParseProducts(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("catalog parsing failed: %w", err)
	}

	catalog := entity.Catalog{
		Products:  products,
		UpdatedAt: time.Now(),
		Source:    path,
	}
	if err := u.productRepo.ReplaceCatalog(ctx, catalog); err != nil {
		return 0, fmt.Errorf("catalog replacement failed: %w", err)
	}

	u.logger.Info("catalog loaded", "path", path, "products", len(products))
	return len(products), nil
}

func (u *productUseCase) HasProducts(ctx context.Context) (bool, error) {
	products, err := u.productRepo.GetAll(ctx)
	if err != nil {
		return false, err
	}
	return len(products) > 0, nil
}
