package storage

import (
	"context"
	"testing"

	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
)

func seededProductRepo(t *testing.T) *memoryProductRepository {
	t.Helper()
	repo := NewMemoryProductRepository().(*memoryProductRepository)
	err := repo.ReplaceCatalog(context.Background(), entity.Catalog{
		Products: []entity.Product{
			{ID: "p1", Name: "Enceinte JBL Pro", Categories: []string{"Sonorisation"}, Description: "enceinte active"},
			{ID: "p2", Name: "Pack Lumière LED", Categories: []string{"Éclairage"}},
			{ID: "p3", Name: "Micro HF Shure", Categories: []string{"Sonorisation"}},
		},
	})
	if err != nil {
		t.Fatalf("ReplaceCatalog: %v", err)
	}
	return repo
}

func TestGetAllPreservesCatalogOrder(t *testing.T) {
	repo := seededProductRepo(t)

	products, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	want := []string{"p1", "p2", "p3"}
	if len(products) != len(want) {
		t.Fatalf("expected %d products, got %d", len(want), len(products))
	}
	for i, id := range want {
		if products[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, products[i].ID)
		}
	}
}

func TestSearchMatchesNameCategoryAndDescription(t *testing.T) {
	ctx := context.Background()
	repo := seededProductRepo(t)

	byName, err := repo.Search(ctx, "jbl")
	if err != nil || len(byName) != 1 || byName[0].ID != "p1" {
		t.Errorf("search by name: got %v (err %v)", byName, err)
	}

	byCategory, err := repo.Search(ctx, "sonorisation")
	if err != nil || len(byCategory) != 2 {
		t.Errorf("search by category: got %v (err %v)", byCategory, err)
	}

	byDescription, err := repo.Search(ctx, "active")
	if err != nil || len(byDescription) != 1 || byDescription[0].ID != "p1" {
		t.Errorf("search by description: got %v (err %v)", byDescription, err)
	}

	none, err := repo.Search(ctx, "introuvable")
	if err != nil || len(none) != 0 {
		t.Errorf("expected no results, got %v (err %v)", none, err)
	}
}

func TestGetByIDUnknownProduct(t *testing.T) {
	repo := seededProductRepo(t)

	if _, err := repo.GetByID(context.Background(), "absent"); err == nil {
		t.Fatal("expected an error for an unknown id")
	}
}

func TestSearchWithoutCatalog(t *testing.T) {
	repo := NewMemoryProductRepository()

	results, err := repo.Search(context.Background(), "jbl")
	if err != nil || results != nil {
		t.Errorf("expected nil results on empty repo, got %v (err %v)", results, err)
	}
}
