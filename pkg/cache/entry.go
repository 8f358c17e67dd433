// Package cache provides the two-tier (memory and disk) product cache
// in front of the spreadsheet data source.
package cache

import (
	"time"

	"github.com/google/uuid"

	"github.com/sheetshop/catalog/pkg/catalog"
)

// Entry is one immutable snapshot of the product catalog. Entries are
// replaced wholesale on refresh, never mutated in place.
type Entry struct {
	// Products is the full product list, in sheet row order.
	Products []catalog.Product `json:"products"`

	// FetchedAt is when the snapshot was fetched from the source.
	FetchedAt time.Time `json:"fetched_at"`

	// Generation uniquely identifies this snapshot. A fresh ID is minted
	// per successful fetch, so invalidation is observable even when the
	// sheet contents did not change.
	Generation uuid.UUID `json:"generation"`
}

// NewEntry creates a snapshot of the given products with a fresh generation.
func NewEntry(products []catalog.Product) *Entry {
	return &Entry{
		Products:   products,
		FetchedAt:  time.Now().UTC(),
		Generation: uuid.New(),
	}
}

// Age returns how long ago the snapshot was fetched.
func (e *Entry) Age() time.Duration {
	return time.Since(e.FetchedAt)
}
