// Package catalog defines the product data model and the contract for
// the spreadsheet-backed data source.
package catalog

import (
	"context"
	"strings"
)

// Column headers expected in the source sheet. The first row of the sheet
// is the header row; data rows are keyed by these names.
const (
	ColName         = "Name"
	ColPurchaseLink = "Purchase Link"
	ColImageURL     = "Image URL"
	ColDescription  = "Description"
	ColTags         = "Tags"
)

// Product is a single catalog item. The ID is the 0-based position of the
// product's row within one fetched snapshot; it is recomputed on every
// refresh and is not stable across cache generations.
type Product struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	ImageURL     string   `json:"image_url"`
	PurchaseLink string   `json:"purchase_link"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
}

// NewProduct is the payload for appending a row to the source sheet.
// Field names mirror the sheet's column headers; Tags stays in the sheet's
// native comma-separated form.
type NewProduct struct {
	Name         string `json:"Name"`
	ImageURL     string `json:"Image URL"`
	PurchaseLink string `json:"Purchase Link"`
	Description  string `json:"Description"`
	Tags         string `json:"Tags"`
}

// Source is the external spreadsheet read/append API.
type Source interface {
	// Fetch returns all products currently in the sheet.
	Fetch(ctx context.Context) ([]Product, error)

	// Append adds a new row to the end of the sheet.
	Append(ctx context.Context, p NewProduct) error
}

// FromRecords converts raw sheet rows into products. The first row is the
// header row; column order is whatever the sheet uses. Rows shorter than
// the header are padded with empty fields, unknown columns are ignored.
func FromRecords(rows [][]string) []Product {
	if len(rows) < 2 {
		return []Product{}
	}

	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[strings.TrimSpace(h)] = i
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	products := make([]Product, 0, len(rows)-1)
	for i, row := range rows[1:] {
		products = append(products, Product{
			ID:           i,
			Name:         cell(row, ColName),
			ImageURL:     cell(row, ColImageURL),
			PurchaseLink: cell(row, ColPurchaseLink),
			Description:  cell(row, ColDescription),
			Tags:         SplitTags(cell(row, ColTags)),
		})
	}

	return products
}

// SplitTags splits a comma-separated tag field into trimmed tokens.
// Empty tokens are dropped, so "a, ,b," yields ["a" "b"].
func SplitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
