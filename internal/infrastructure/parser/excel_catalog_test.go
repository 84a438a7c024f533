package parser

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.Bytes()
}

func TestParseProductsFrenchHeaders(t *testing.T) {
	data := workbookBytes(t, [][]interface{}{
		{"Nom", "Prix TTC", "Catégorie", "Description", "Stock"},
		{"Enceinte JBL Pro", "1 234,56 €", "Sonorisation, Pack Concert", "Enceinte active 15 pouces", "8"},
		{"Pack Lumière LED", "349,90", "Éclairage", "", "12"},
	})

	products, err := NewExcelCatalogParser().ParseProductsFromBytes(context.Background(), data, "catalogue.xlsx")
	if err != nil {
		t.Fatalf("ParseProductsFromBytes: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}

	first := products[0]
	if first.Name != "Enceinte JBL Pro" {
		t.Errorf("name: got %q", first.Name)
	}
	if first.PriceTTC != 1234.56 {
		t.Errorf("French price: got %v, want 1234.56", first.PriceTTC)
	}
	if len(first.Categories) != 2 || first.Categories[0] != "Sonorisation" || first.Categories[1] != "Pack Concert" {
		t.Errorf("categories: got %v", first.Categories)
	}
	if first.Stock != 8 {
		t.Errorf("stock: got %d", first.Stock)
	}
	if first.ID == "" {
		t.Error("missing id must be generated")
	}

	if products[1].PriceTTC != 349.90 {
		t.Errorf("decimal-comma price: got %v", products[1].PriceTTC)
	}
}

func TestParseProductsHeaderlessFile(t *testing.T) {
	data := workbookBytes(t, [][]interface{}{
		{"Micro HF Shure", "89,00", "Sonorisation"},
		{"Table de mixage", "120", "Sonorisation"},
	})

	products, err := NewExcelCatalogParser().ParseProductsFromBytes(context.Background(), data, "catalogue.xlsx")
	if err != nil {
		t.Fatalf("ParseProductsFromBytes: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("headerless file: expected 2 products, got %d", len(products))
	}
	if products[0].Name != "Micro HF Shure" || products[0].PriceTTC != 89 {
		t.Errorf("positional mapping failed: %+v", products[0])
	}
}

func TestParseProductsSkipsBrokenRows(t *testing.T) {
	data := workbookBytes(t, [][]interface{}{
		{"Nom", "Prix"},
		{"", "100"},
		{"Sans prix lisible", "n/a"},
		{"Produit valide", "50"},
	})

	products, err := NewExcelCatalogParser().ParseProductsFromBytes(context.Background(), data, "catalogue.xlsx")
	if err != nil {
		t.Fatalf("ParseProductsFromBytes: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Produit valide" {
		t.Errorf("expected only the valid row, got %v", products)
	}
}

func TestParseProductsEmptyFile(t *testing.T) {
	data := workbookBytes(t, [][]interface{}{
		{"Nom", "Prix"},
	})

	if _, err := NewExcelCatalogParser().ParseProductsFromBytes(context.Background(), data, "vide.xlsx"); err == nil {
		t.Fatal("expected an error for a catalog with no products")
	}
}
