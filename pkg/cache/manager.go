package cache

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sheetshop/catalog/pkg/catalog"
	"github.com/sheetshop/catalog/pkg/logging"
)

var (
	// ErrCacheMiss indicates a tier holds no data. Not an error by itself;
	// the manager falls through to the next tier.
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotFound indicates a product id outside the current snapshot.
	ErrNotFound = errors.New("product not found")

	// ErrUnauthorized indicates an invalidation token mismatch.
	ErrUnauthorized = errors.New("invalid invalidation token")
)

// Manager is the single source of truth for product data. It orchestrates
// the memory and disk tiers, fetches lazily from the source on a full
// miss, and rebuilds the cache in the background after invalidation.
type Manager struct {
	mem    *Memory
	disk   *Disk
	source catalog.Source
	token  string
	logger zerolog.Logger

	// mu serializes tier writes and the read-check-then-write sequences.
	// Lock-free memory reads stay outside it.
	mu         sync.Mutex
	refreshing bool
}

// Config holds the manager configuration.
type Config struct {
	// Source is the spreadsheet data source (REQUIRED).
	Source catalog.Source

	// DiskPath is the disk-cache file location (REQUIRED).
	DiskPath string

	// InvalidateToken authorizes cache invalidation (REQUIRED).
	InvalidateToken string
}

// NewManager creates a new cache manager with empty tiers.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if cfg.DiskPath == "" {
		return nil, fmt.Errorf("disk cache path is required")
	}
	if cfg.InvalidateToken == "" {
		return nil, fmt.Errorf("invalidate token is required")
	}

	return &Manager{
		mem:    NewMemory(),
		disk:   NewDisk(cfg.DiskPath),
		source: cfg.Source,
		token:  cfg.InvalidateToken,
		logger: logging.NewLogger("cache-manager"),
	}, nil
}

// GetProducts returns the current product list, trying memory, then disk,
// then a synchronous source fetch that populates both tiers. A failed
// fetch leaves prior cache state untouched and returns the source error.
func (m *Manager) GetProducts(ctx context.Context) ([]catalog.Product, error) {
	if entry := m.mem.Load(); entry != nil {
		CacheHits.WithLabelValues("memory").Inc()
		return entry.Products, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under the lock: another request may have populated the
	// cache while we waited.
	if entry := m.mem.Load(); entry != nil {
		CacheHits.WithLabelValues("memory").Inc()
		return entry.Products, nil
	}

	entry, err := m.disk.Load()
	if err == nil {
		CacheHits.WithLabelValues("disk").Inc()
		m.mem.Store(entry)
		CachedProducts.Set(float64(len(entry.Products)))
		m.logger.Debug().
			Str("generation", entry.Generation.String()).
			Int("products", len(entry.Products)).
			Msg("Populated memory cache from disk")
		return entry.Products, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		m.logger.Warn().Err(err).Msg("Disk cache read failed")
	}

	CacheMisses.Inc()
	m.logger.Debug().Msg("Cache miss on both tiers, fetching from source")

	entry, err = m.fetchLocked(ctx)
	if err != nil {
		return nil, err
	}
	return entry.Products, nil
}

// GetProduct returns a single product by its position-derived id.
// Returns ErrNotFound if the id is outside the current snapshot.
func (m *Manager) GetProduct(ctx context.Context, id int) (catalog.Product, error) {
	products, err := m.GetProducts(ctx)
	if err != nil {
		return catalog.Product{}, err
	}
	if id < 0 || id >= len(products) {
		return catalog.Product{}, ErrNotFound
	}
	return products[id], nil
}

// Invalidate clears both cache tiers and schedules a background refresh.
// The token is compared in constant time; on mismatch the cache is left
// untouched and ErrUnauthorized is returned. Invalidate returns before the
// refresh completes, so a read racing the refresh may pay a synchronous
// fetch or briefly observe an empty cache being rebuilt.
func (m *Manager) Invalidate(token string) error {
	if subtle.ConstantTimeCompare([]byte(token), []byte(m.token)) != 1 {
		m.logger.Warn().Msg("Invalidation rejected: token mismatch")
		return ErrUnauthorized
	}

	m.mu.Lock()
	m.mem.Clear()
	if err := m.disk.Remove(); err != nil {
		m.logger.Warn().Err(err).Msg("Disk cache remove failed")
	}
	m.mu.Unlock()

	CacheInvalidations.Inc()
	m.logger.Info().Msg("Cache invalidated, scheduling background refresh")
	m.ScheduleRefresh()

	return nil
}

// ScheduleRefresh starts a background refresh unless one is already in
// flight; overlapping calls coalesce into the running refresh.
func (m *Manager) ScheduleRefresh() {
	m.mu.Lock()
	if m.refreshing {
		m.mu.Unlock()
		m.logger.Debug().Msg("Refresh already in flight, coalescing")
		return
	}
	m.refreshing = true
	m.mu.Unlock()

	go m.refresh()
}

// Snapshot returns the current memory-cache entry, or nil when empty.
func (m *Manager) Snapshot() *Entry {
	return m.mem.Load()
}

// refresh fetches a new snapshot off the request path. It runs with a
// detached context: the source client's own timeout is the only bound.
// On failure it only logs; the next read falls through to a synchronous
// fetch attempt.
func (m *Manager) refresh() {
	products, err := m.source.Fetch(context.Background())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshing = false

	if err != nil {
		SourceFetches.WithLabelValues("error").Inc()
		RefreshFailures.Inc()
		m.logger.Error().Err(err).Msg("Background refresh failed")
		return
	}
	SourceFetches.WithLabelValues("success").Inc()

	entry := NewEntry(products)
	m.storeLocked(entry)
	m.logger.Info().
		Str("generation", entry.Generation.String()).
		Int("products", len(products)).
		Msg("Background refresh complete")
}

// fetchLocked fetches from the source and populates both tiers.
// Callers must hold mu.
func (m *Manager) fetchLocked(ctx context.Context) (*Entry, error) {
	products, err := m.source.Fetch(ctx)
	if err != nil {
		SourceFetches.WithLabelValues("error").Inc()
		return nil, err
	}
	SourceFetches.WithLabelValues("success").Inc()

	entry := NewEntry(products)
	m.storeLocked(entry)
	return entry, nil
}

// storeLocked swaps the new entry into both tiers. A disk write failure is
// logged but not returned: memory is authoritative, disk is durability only.
// Callers must hold mu.
func (m *Manager) storeLocked(entry *Entry) {
	m.mem.Store(entry)
	CachedProducts.Set(float64(len(entry.Products)))

	if err := m.disk.Store(entry); err != nil {
		m.logger.Warn().Err(err).Msg("Disk cache write failed")
	}

	m.logger.Debug().
		Str("generation", entry.Generation.String()).
		Int("products", len(entry.Products)).
		Msg("Cache populated")
}
