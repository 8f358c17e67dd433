// Package testutil provides testing utilities for the catalog service.
package testutil

import (
	"context"
	"sync"

	"github.com/sheetshop/catalog/pkg/catalog"
)

// FakeSource is a scriptable in-memory catalog.Source for testing the
// cache manager and HTTP handlers without a spreadsheet.
type FakeSource struct {
	mu        sync.Mutex
	products  []catalog.Product
	fetchErr  error
	appendErr error

	// Tracking
	FetchCount int
	Appended   []catalog.NewProduct
}

// NewFakeSource creates a fake source serving the given products.
func NewFakeSource(products ...catalog.Product) *FakeSource {
	return &FakeSource{products: products}
}

// Fetch returns the configured products or the configured error.
func (s *FakeSource) Fetch(ctx context.Context) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.FetchCount++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}

	out := make([]catalog.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// Append records the appended row or returns the configured error.
func (s *FakeSource) Append(ctx context.Context, p catalog.NewProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.appendErr != nil {
		return s.appendErr
	}
	s.Appended = append(s.Appended, p)
	return nil
}

// SetProducts replaces the products served by Fetch.
func (s *FakeSource) SetProducts(products ...catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
}

// SetFetchError makes Fetch fail with err (nil to restore success).
func (s *FakeSource) SetFetchError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

// SetAppendError makes Append fail with err (nil to restore success).
func (s *FakeSource) SetAppendError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

// Fetches returns the number of Fetch calls made.
func (s *FakeSource) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.FetchCount
}

// AppendedRows returns a copy of the rows recorded by Append.
func (s *FakeSource) AppendedRows() []catalog.NewProduct {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.NewProduct, len(s.Appended))
	copy(out, s.Appended)
	return out
}
