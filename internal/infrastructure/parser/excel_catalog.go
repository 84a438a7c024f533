// Package parser reads catalog files uploaded by admins.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/entity"
	"github.com/sonoloc/sonoloc-assistant/internal/domain/repository"
	"github.com/xuri/excelize/v2"
)

type excelCatalogParser struct{}

// NewExcelCatalogParser creates the Excel-backed catalog parser.
func NewExcelCatalogParser() repository.CatalogParser {
	return &excelCatalogParser{}
}

// ParseProducts reads products from a file on disk.
func (e *excelCatalogParser) ParseProducts(ctx context.Context, filePath string) ([]entity.Product, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	return e.parse(f)
}

// ParseProductsFromBytes reads products from an uploaded file.
func (e *excelCatalogParser) ParseProductsFromBytes(ctx context.Context, data []byte, filename string) ([]entity.Product, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel from bytes: %w", err)
	}
	defer f.Close()

	return e.parse(f)
}

func (e *excelCatalogParser) parse(f *excelize.File) ([]entity.Product, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}

	columns, startRow := mapColumns(rows)

	var products []entity.Product
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		name := cell(row, columns["name"])
		if name == "" {
			continue
		}

		product := entity.Product{
			ID:          cell(row, columns["id"]),
			Name:        name,
			Categories:  entity.NormalizeCategories(cell(row, columns["category"])),
			Description: cell(row, columns["description"]),
			Slug:        cell(row, columns["slug"]),
		}
		if product.ID == "" {
			product.ID = uuid.New().String()
		}

		if raw := cell(row, columns["price"]); raw != "" {
			price, err := parsePrice(raw)
			if err != nil {
				continue // unreadable price, skip the row
			}
			product.PriceTTC = price
		}
		if raw := cell(row, columns["stock"]); raw != "" {
			if stock, err := strconv.Atoi(raw); err == nil {
				product.Stock = stock
			}
		}
		if raw := cell(row, columns["images"]); raw != "" {
			for _, img := range strings.Split(raw, ",") {
				if img = strings.TrimSpace(img); img != "" {
					product.Images = append(product.Images, img)
				}
			}
		}

		products = append(products, product)
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("no products found in excel file")
	}
	return products, nil
}

// columnSynonyms maps logical columns to the header names accepted in
// French and English catalogs.
var columnSynonyms = map[string][]string{
	"id":          {"id", "réf", "ref", "reference", "référence"},
	"name":        {"nom", "name", "produit", "product", "désignation", "designation"},
	"price":       {"prix", "prix ttc", "price", "tarif", "ttc"},
	"category":    {"catégorie", "categorie", "category", "catégories", "categories"},
	"description": {"description", "desc", "détails", "details"},
	"stock":       {"stock", "quantité", "quantite", "qty"},
	"images":      {"images", "image", "photos", "photo"},
	"slug":        {"slug", "url"},
}

// mapColumns builds the column index from the header row. A first row
// whose price column parses as a number is treated as data, in which
// case a positional default mapping applies.
func mapColumns(rows [][]string) (map[string]int, int) {
	columns := map[string]int{
		"id": -1, "name": -1, "price": -1, "category": -1,
		"description": -1, "stock": -1, "images": -1, "slug": -1,
	}

	header := rows[0]
	hasHeader := true
	if len(header) > 1 {
		if _, err := parsePrice(strings.TrimSpace(header[1])); err == nil {
			hasHeader = false
		}
	}

	if !hasHeader {
		columns["name"] = 0
		columns["price"] = 1
		if len(header) > 2 {
			columns["category"] = 2
		}
		return columns, 0
	}

	for idx, raw := range header {
		label := strings.ToLower(strings.TrimSpace(raw))
		for logical, synonyms := range columnSynonyms {
			if columns[logical] != -1 {
				continue
			}
			for _, syn := range synonyms {
				if label == syn {
					columns[logical] = idx
					break
				}
			}
		}
	}
	if columns["name"] == -1 {
		columns["name"] = 0
	}
	return columns, 1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parsePrice accepts French-formatted amounts such as "1 234,56 €".
func parsePrice(raw string) (float64, error) {
	cleaned := strings.NewReplacer("€", "", " ", "", " ", "").Replace(raw)
	cleaned = strings.TrimSpace(cleaned)
	if strings.Contains(cleaned, ",") && !strings.Contains(cleaned, ".") {
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	return strconv.ParseFloat(cleaned, 64)
}
