package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/repository"
)

type memoryProductRepository struct {
	mu      sync.RWMutex
	catalog *entity.Catalog
}

// NewMemoryProductRepository creates an in-memory product repository.
// Products are kept in catalog order; mention resolution and the
// suggestion engine both rely on that order being stable.
func NewMemoryProductRepository() repository.ProductRepository {
	return &memoryProductRepository{}
}

// ReplaceCatalog swaps in a new catalog snapshot.
func (m *memoryProductRepository) ReplaceCatalog(ctx context.Context, catalog entity.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = &catalog
	return nil
}

// GetAll returns all products in catalog order.
func (m *memoryProductRepository) GetAll(ctx context.Context) ([]entity.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.catalog == nil {
		return nil, nil
	}
	return append([]entity.Product(nil), m.catalog.Products...), nil
}

// GetByID returns one product.
func (m *memoryProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.catalog != nil {
		for _, p := range m.catalog.Products {
			if p.ID == id {
				product := p
				return &product, nil
			}
		}
	}
	return nil, fmt.Errorf("product not found: %s", id)
}

// Search matches the query against name, categories and description,
// case-insensitively, preserving catalog order.
func (m *memoryProductRepository) Search(ctx context.Context, query string) ([]entity.Product, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.catalog == nil {
		return nil, nil
	}

	var results []entity.Product
	for _, p := range m.catalog.Products {
		if matchesQuery(p, query) {
			results = append(results, p)
		}
	}
	return results, nil
}

func matchesQuery(p entity.Product, query string) bool {
	if strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query) {
		return true
	}
	for _, cat := range p.Categories {
		if strings.Contains(strings.ToLower(cat), query) {
			return true
		}
	}
	return false
}

// GetCatalog returns the current snapshot.
func (m *memoryProductRepository) GetCatalog(ctx context.Context) (*entity.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.catalog == nil {
		return nil, fmt.Errorf("no catalog loaded")
	}
	catalog := *m.catalog
	return &catalog, nil
}
