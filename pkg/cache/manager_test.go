package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sheetshop/catalog/internal/testutil"
	"github.com/sheetshop/catalog/pkg/catalog"
)

const testToken = "test-secret-token"

func sampleProducts() []catalog.Product {
	return []catalog.Product{
		{ID: 0, Name: "Mug", ImageURL: "http://y", PurchaseLink: "http://x", Description: "A mug", Tags: []string{"kitchen", "gift"}},
		{ID: 1, Name: "Poster", ImageURL: "http://q", PurchaseLink: "http://p", Description: "A poster", Tags: []string{"art"}},
	}
}

func setupManager(t *testing.T, source catalog.Source) *Manager {
	t.Helper()

	manager, err := NewManager(Config{
		Source:          source,
		DiskPath:        filepath.Join(t.TempDir(), "products_cache.json"),
		InvalidateToken: testToken,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return manager
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestNewManager_Validation(t *testing.T) {
	source := testutil.NewFakeSource()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing_source", Config{DiskPath: "cache.json", InvalidateToken: testToken}},
		{"missing_disk_path", Config{Source: source, InvalidateToken: testToken}},
		{"missing_token", Config{Source: source, DiskPath: "cache.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewManager(tt.cfg); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}
}

func TestManager_GetProducts_FetchesOnceAndCaches(t *testing.T) {
	source := testutil.NewFakeSource(sampleProducts()...)
	manager := setupManager(t, source)
	ctx := context.Background()

	products, err := manager.GetProducts(ctx)
	if err != nil {
		t.Fatalf("GetProducts failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(products))
	}
	if products[0].Name != "Mug" || len(products[0].Tags) != 2 {
		t.Errorf("Unexpected first product: %+v", products[0])
	}

	// Second read is a memory hit.
	if _, err := manager.GetProducts(ctx); err != nil {
		t.Fatalf("Second GetProducts failed: %v", err)
	}
	if got := source.Fetches(); got != 1 {
		t.Errorf("Expected 1 source fetch, got %d", got)
	}
}

func TestManager_GetProducts_SourceError(t *testing.T) {
	source := testutil.NewFakeSource(sampleProducts()...)
	source.SetFetchError(errors.New("quota exceeded"))
	manager := setupManager(t, source)
	ctx := context.Background()

	if _, err := manager.GetProducts(ctx); err == nil {
		t.Fatal("Expected fetch error to surface")
	}
	if manager.Snapshot() != nil {
		t.Error("Failed fetch must not populate the cache")
	}

	// Next read falls through to a fresh attempt.
	source.SetFetchError(nil)
	products, err := manager.GetProducts(ctx)
	if err != nil {
		t.Fatalf("GetProducts after recovery failed: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("Expected 2 products, got %d", len(products))
	}
}

func TestManager_GetProduct(t *testing.T) {
	source := testutil.NewFakeSource(sampleProducts()...)
	manager := setupManager(t, source)
	ctx := context.Background()

	product, err := manager.GetProduct(ctx, 0)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if product.Name != "Mug" {
		t.Errorf("Expected Mug, got %s", product.Name)
	}

	t.Run("out_of_range", func(t *testing.T) {
		if _, err := manager.GetProduct(ctx, 99); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("negative_id", func(t *testing.T) {
		if _, err := manager.GetProduct(ctx, -1); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestManager_DiskCacheSurvivesRestart(t *testing.T) {
	diskPath := filepath.Join(t.TempDir(), "products_cache.json")
	ctx := context.Background()

	source := testutil.NewFakeSource(sampleProducts()...)
	manager, err := NewManager(Config{Source: source, DiskPath: diskPath, InvalidateToken: testToken})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := manager.GetProducts(ctx); err != nil {
		t.Fatalf("GetProducts failed: %v", err)
	}

	// Simulated restart: a new manager with empty memory, a source that
	// must not be contacted, and the existing disk file.
	coldSource := testutil.NewFakeSource()
	restarted, err := NewManager(Config{Source: coldSource, DiskPath: diskPath, InvalidateToken: testToken})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	products, err := restarted.GetProducts(ctx)
	if err != nil {
		t.Fatalf("GetProducts after restart failed: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("Expected 2 products from disk, got %d", len(products))
	}
	if coldSource.Fetches() != 0 {
		t.Errorf("Expected no source fetch, got %d", coldSource.Fetches())
	}
}

func TestManager_Invalidate_BadToken(t *testing.T) {
	source := testutil.NewFakeSource(sampleProducts()...)
	manager := setupManager(t, source)
	ctx := context.Background()

	if _, err := manager.GetProducts(ctx); err != nil {
		t.Fatalf("GetProducts failed: %v", err)
	}
	before := manager.Snapshot()
	fetches := source.Fetches()

	tests := []struct {
		name  string
		token string
	}{
		{"wrong_token", "not-the-token"},
		{"empty_token", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := manager.Invalidate(tt.token); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("Expected ErrUnauthorized, got %v", err)
			}
			if manager.Snapshot() != before {
				t.Error("Cache entry must be untouched after rejected invalidation")
			}
			if source.Fetches() != fetches {
				t.Error("Rejected invalidation must not trigger a refresh")
			}
			if _, err := manager.disk.Load(); err != nil {
				t.Errorf("Disk cache must be untouched, got %v", err)
			}
		})
	}
}

func TestManager_Invalidate_NewGeneration(t *testing.T) {
	source := testutil.NewFakeSource(sampleProducts()...)
	manager := setupManager(t, source)
	ctx := context.Background()

	if _, err := manager.GetProducts(ctx); err != nil {
		t.Fatalf("GetProducts failed: %v", err)
	}
	oldGen := manager.Snapshot().Generation

	if err := manager.Invalidate(testToken); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	// The background refresh rebuilds the cache with a new generation.
	eventually(t, 2*time.Second, func() bool {
		return manager.Snapshot() != nil
	})
	if manager.Snapshot().Generation == oldGen {
		t.Error("Post-invalidation entry must carry a new generation")
	}

	// Reads after invalidation never see the old generation either way.
	if _, err := manager.GetProducts(ctx); err != nil {
		t.Fatalf("GetProducts after invalidation failed: %v", err)
	}
	if manager.Snapshot().Generation == oldGen {
		t.Error("Read observed the pre-invalidation generation")
	}
}

func TestManager_Invalidate_RefreshFailureLeavesCacheEmpty(t *testing.T) {
	source := testutil.NewFakeSource(sampleProducts()...)
	manager := setupManager(t, source)
	ctx := context.Background()

	if _, err := manager.GetProducts(ctx); err != nil {
		t.Fatalf("GetProducts failed: %v", err)
	}

	source.SetFetchError(errors.New("source down"))
	if err := manager.Invalidate(testToken); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	// Refresh fails, cache stays empty; the error is not surfaced here.
	eventually(t, 2*time.Second, func() bool {
		return source.Fetches() >= 2
	})
	if manager.Snapshot() != nil {
		t.Error("Failed refresh must not repopulate the cache")
	}

	// The next read pays a synchronous fetch and sees the error.
	if _, err := manager.GetProducts(ctx); err == nil {
		t.Error("Expected source error on read after failed refresh")
	}
}

// blockingSource parks Fetch until released, to exercise refresh coalescing.
type blockingSource struct {
	mu       sync.Mutex
	fetches  int
	release  chan struct{}
	products []catalog.Product
}

func (s *blockingSource) Fetch(ctx context.Context) ([]catalog.Product, error) {
	s.mu.Lock()
	s.fetches++
	s.mu.Unlock()
	<-s.release
	return s.products, nil
}

func (s *blockingSource) Append(ctx context.Context, p catalog.NewProduct) error {
	return nil
}

func (s *blockingSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func TestManager_ScheduleRefresh_Coalesces(t *testing.T) {
	source := &blockingSource{
		release:  make(chan struct{}),
		products: sampleProducts(),
	}
	manager := setupManager(t, source)

	manager.ScheduleRefresh()
	manager.ScheduleRefresh()
	manager.ScheduleRefresh()

	close(source.release)

	eventually(t, 2*time.Second, func() bool {
		return manager.Snapshot() != nil
	})
	if got := source.count(); got != 1 {
		t.Errorf("Expected overlapping refreshes to coalesce into 1 fetch, got %d", got)
	}

	// A refresh after the first finished starts a new fetch.
	manager.ScheduleRefresh()
	eventually(t, 2*time.Second, func() bool {
		return source.count() == 2
	})
}

func TestManager_ConcurrentReads_SingleFetch(t *testing.T) {
	source := testutil.NewFakeSource(sampleProducts()...)
	manager := setupManager(t, source)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.GetProducts(ctx); err != nil {
				t.Errorf("GetProducts failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := source.Fetches(); got != 1 {
		t.Errorf("Expected concurrent cold reads to share 1 fetch, got %d", got)
	}
}
