package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/sheetshop/catalog/pkg/logging"
)

// Disk is the durable cache tier: one JSON file holding the serialized
// entry. It survives process restarts. Writes go through a sidecar flock
// so two server processes sharing a cache file cannot interleave, and are
// write-to-temp-then-rename so readers never observe a partial file.
type Disk struct {
	path   string
	lock   *flock.Flock
	logger zerolog.Logger
}

// NewDisk creates a disk tier backed by the file at path.
func NewDisk(path string) *Disk {
	return &Disk{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewLogger("disk-cache"),
	}
}

// Path returns the cache file path.
func (d *Disk) Path() string {
	return d.path
}

// Load reads the cached entry from disk.
// Returns ErrCacheMiss if the file doesn't exist. A corrupt file is
// removed and also reported as a miss so the caller falls through to the
// source instead of serving garbage.
func (d *Disk) Load() (*Entry, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		CacheErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("load").Inc()
		d.logger.Warn().Err(err).Str("path", d.path).Msg("Corrupt cache file, removing")
		_ = os.Remove(d.path)
		return nil, ErrCacheMiss
	}

	return &entry, nil
}

// Store writes the entry to disk atomically: marshal, write a temp file in
// the same directory, then rename over the cache file.
func (d *Disk) Store(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := d.lock.Lock(); err != nil {
		CacheErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("lock cache file: %w", err)
	}
	defer d.lock.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".tmp-*")
	if err != nil {
		CacheErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		CacheErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		CacheErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("close temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		CacheErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("rename cache file: %w", err)
	}

	return nil
}

// Remove deletes the cache file. A missing file is not an error.
func (d *Disk) Remove() error {
	if err := d.lock.Lock(); err != nil {
		CacheErrors.WithLabelValues("remove").Inc()
		return fmt.Errorf("lock cache file: %w", err)
	}
	defer d.lock.Unlock()

	if err := os.Remove(d.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		CacheErrors.WithLabelValues("remove").Inc()
		return fmt.Errorf("remove cache file: %w", err)
	}

	return nil
}
