package inspect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/moufmouf/tdbm/compiler/schema"
)

// Cache stores schema snapshots on disk, keyed by a hash of the
// connection string, so repeated generation runs against an unchanged
// database skip the inspection queries.
type Cache struct {
	dir string
}

// NewCache creates a snapshot cache under the given directory.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) path(dsn string) string {
	sum := sha256.Sum256([]byte(dsn))
	return filepath.Join(c.dir, "schema-"+hex.EncodeToString(sum[:8])+".msgpack")
}

// Load returns the cached snapshot for the given connection string, or
// false when none exists or the file cannot be decoded.
func (c *Cache) Load(dsn string) (*schema.Schema, bool) {
	data, err := os.ReadFile(c.path(dsn))
	if err != nil {
		return nil, false
	}
	var s schema.Schema
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, false
	}
	return &s, true
}

// Store writes the snapshot for the given connection string.
func (c *Cache) Store(dsn string, s *schema.Schema) error {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path(dsn), data, 0o644)
}

// Invalidate drops the cached snapshot for the given connection string.
func (c *Cache) Invalidate(dsn string) error {
	err := os.Remove(c.path(dsn))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Cached wraps an inspector with the snapshot cache. A cache hit skips
// the wrapped inspector entirely; a failed store is logged and ignored,
// the fresh snapshot is returned either way.
func Cached(inner Inspector, cache *Cache, dsn string, logger *slog.Logger) Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &cachedInspector{inner: inner, cache: cache, dsn: dsn, logger: logger}
}

type cachedInspector struct {
	inner  Inspector
	cache  *Cache
	dsn    string
	logger *slog.Logger
}

func (c *cachedInspector) Inspect(ctx context.Context) (*schema.Schema, error) {
	if s, ok := c.cache.Load(c.dsn); ok {
		c.logger.Debug("using cached schema snapshot")
		return s, nil
	}
	s, err := c.inner.Inspect(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Store(c.dsn, s); err != nil {
		c.logger.Warn("storing schema snapshot failed", "err", err)
	}
	return s, nil
}
