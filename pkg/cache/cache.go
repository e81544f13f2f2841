// Package cache implements a type-preserving, expiring key/value cache on top
// of a storage backend. Values keep their original kind across a round trip
// even when the backend can only hold strings, entries can carry an absolute
// expiration stamp, and eviction of expired entries is lazy: it happens inline
// on the next read, there is no background cleaner.
//
// Several cache instances may share one backend; each instance only ever
// touches keys under its own prefix.
package cache

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nohuhu/typecache/pkg/storage"
	"github.com/nohuhu/typecache/pkg/storage/file_storage"
	"github.com/nohuhu/typecache/pkg/storage/session_storage"
	"github.com/nohuhu/typecache/pkg/typeval"
	"github.com/nohuhu/typecache/pkg/utils"
)

const (
	StorageKindSession   = "session"
	StorageKindPermanent = "permanent"

	defaultKeyPrefix = "cache."
	defaultFilePath  = "typecache.json"
)

var nopLogger = zap.NewNop()

type Opts struct {
	// Backend to bind to. When nil, one is selected by StorageKind.
	Backend storage.Backend

	// StorageKind selects the backend when Backend is nil:
	// "session" binds to the shared process-lifetime string store,
	// "permanent" to a file-persisted string store.
	// Default is "session".
	StorageKind string

	// KeyPrefix namespaces this cache's keys on a shared backend.
	// Default is "cache.". Forced empty when the backend is raw, since a raw
	// in-memory backend is not shared with other consumers.
	KeyPrefix string

	// FilePath is the backing file for the "permanent" kind.
	// Default is "typecache.json".
	FilePath string

	// Logger is the *zap.Logger for this Cache.
	// A nil Logger will disable logging.
	Logger *zap.Logger

	// MetricsReg receives the cache counters. Optional.
	MetricsReg prometheus.Registerer
}

func (opts *Opts) Init() error {
	switch opts.StorageKind {
	case "":
		opts.StorageKind = StorageKindSession
	case StorageKindSession, StorageKindPermanent:
	default:
		return fmt.Errorf("unknown storage kind %q", opts.StorageKind)
	}
	utils.SetDefaultString(&opts.KeyPrefix, defaultKeyPrefix)
	utils.SetDefaultString(&opts.FilePath, defaultFilePath)
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return nil
}

type Cache struct {
	backend   storage.Backend
	prefix    string
	serialize bool
	logger    *zap.Logger
	metrics   *cacheMetrics

	// mu makes each operation's whole backend sequence a critical section, in
	// particular the read-check-evict sequence in Get.
	mu     sync.Mutex
	loadSF singleflight.Group
}

func New(opts Opts) (*Cache, error) {
	if err := opts.Init(); err != nil {
		return nil, err
	}

	backend := opts.Backend
	if backend == nil {
		switch opts.StorageKind {
		case StorageKindPermanent:
			fs, err := file_storage.NewFileStorage(file_storage.FileStorageOpts{
				Path:   opts.FilePath,
				Logger: opts.Logger,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to init permanent storage, %w", err)
			}
			backend = fs
		default:
			backend = session_storage.Default()
		}
	}

	prefix := opts.KeyPrefix
	if !backend.NeedsSerialization() {
		prefix = ""
	}

	return &Cache{
		backend:   backend,
		prefix:    prefix,
		serialize: backend.NeedsSerialization(),
		logger:    opts.Logger,
		metrics:   newCacheMetrics(opts.MetricsReg),
	}, nil
}

// Set stores value under key, optionally with an expiration modifier: a
// finite Go number is relative milliseconds from now (zero or negative
// resolves to a stamp already in the past), a time.Duration is relative, a
// time.Time is absolute. Any existing entry under key is removed first, so no
// expiration stamp lingers from a previous write. Returns the original value.
//
// All validation happens before the backend is touched.
func (c *Cache) Set(key string, value any, expires ...any) (any, error) {
	if len(key) == 0 {
		return nil, ErrInvalidKey
	}
	if _, ok := value.(typeval.Undefined); ok {
		return nil, ErrInvalidValue
	}
	if err := typeval.Validate(value); err != nil {
		return nil, err
	}

	var exp time.Time
	if len(expires) > 0 {
		if len(expires) > 1 {
			return nil, ErrInvalidExpiration
		}
		e, err := resolveExpiration(expires[0], time.Now())
		if err != nil {
			return nil, err
		}
		exp = e
	}

	ent := &Entry{Value: value, Expires: exp}
	var stored any = ent
	if c.serialize {
		n, err := entryNode(ent)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		stored = string(b)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bkey := c.prefix + key
	c.backend.RemoveItem(bkey)
	c.backend.SetItem(bkey, stored)
	c.metrics.setTotal.Inc()
	c.logger.Debug("entry stored", zap.String("key", key), zap.Time("expires", exp))
	return value, nil
}

// Get returns the value stored under key. The second return is false when key
// is absent or its entry has expired; an expired entry is evicted on the way.
// A stored document that fails deserialization surfaces as a
// *typeval.CorruptEntryError or *typeval.InvalidSerializedTypeError.
func (c *Cache) Get(key string) (any, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.getTotal.Inc()
	ent, err := c.fetch(key)
	if err != nil {
		return nil, false, err
	}
	if ent == nil {
		c.metrics.missTotal.Inc()
		return nil, false, nil
	}
	if ent.Expired(time.Now()) {
		c.backend.RemoveItem(c.prefix + key)
		c.metrics.expiredTotal.Inc()
		c.metrics.missTotal.Inc()
		c.logger.Debug("expired entry evicted", zap.String("key", key))
		return nil, false, nil
	}
	c.metrics.hitTotal.Inc()
	return ent.Value, true, nil
}

// Has reports whether an entry exists under key.
//
// Unlike Get, Has does not apply the expiration check: it can report true for
// an entry that has expired but has not been evicted yet. This asymmetry is
// part of the contract, not an oversight.
func (c *Cache) Has(key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, err := c.fetch(key)
	if err != nil {
		return false, err
	}
	return ent != nil, nil
}

// Keys returns the unprefixed keys of this cache's own entries. Keys
// belonging to other consumers of a shared backend are filtered out. Order is
// backend-defined.
func (c *Cache) Keys() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scanOwnKeys(), nil
}

// Remove removes the entry under key. Removing an absent key is a no-op.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backend.RemoveItem(c.prefix + key)
}

// Clear removes every entry belonging to this cache's prefix. Keys of other
// consumers sharing the backend are left alone, so this is never a
// backend-wide wipe.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.scanOwnKeys() {
		c.backend.RemoveItem(c.prefix + k)
	}
}

// Fetch returns the value under key, loading and storing it on a miss. At
// most one loader runs per key at a time; concurrent callers for the same
// missing key share the result.
func (c *Cache) Fetch(key string, loader func() (any, error), expires ...any) (any, error) {
	v, ok, err := c.Get(key)
	if err != nil {
		return nil, err
	}
	if ok {
		return v, nil
	}

	v, err, _ = c.loadSF.Do(key, func() (any, error) {
		if v, ok, err := c.Get(key); err != nil || ok {
			return v, err
		}
		v, err := loader()
		if err != nil {
			return nil, err
		}
		return c.Set(key, v, expires...)
	})
	return v, err
}

// Close closes the underlying backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}

// fetch reads and decodes the entry for key, or nil if absent.
// Callers must hold c.mu.
func (c *Cache) fetch(key string) (*Entry, error) {
	raw, ok := c.backend.GetItem(c.prefix + key)
	if !ok {
		return nil, nil
	}

	if !c.serialize {
		ent, ok := raw.(*Entry)
		if !ok {
			return nil, &typeval.CorruptEntryError{Reason: "raw backend holds a foreign value"}
		}
		return ent, nil
	}

	s, ok := raw.(string)
	if !ok {
		return nil, &typeval.CorruptEntryError{Reason: "string backend holds a non-string value"}
	}
	n := new(typeval.Node)
	if err := json.Unmarshal([]byte(s), n); err != nil {
		switch err.(type) {
		case *typeval.CorruptEntryError, *typeval.InvalidSerializedTypeError:
			return nil, err
		}
		return nil, &typeval.CorruptEntryError{Reason: "stored document is not valid JSON"}
	}
	return nodeEntry(n)
}

// scanOwnKeys enumerates the backend and returns this cache's own keys with
// the prefix stripped. Callers must hold c.mu.
func (c *Cache) scanOwnKeys() []string {
	var keys []string
	for i := 0; ; i++ {
		k, ok := c.backend.Key(i)
		if !ok {
			break
		}
		if strings.HasPrefix(k, c.prefix) {
			keys = append(keys, strings.TrimPrefix(k, c.prefix))
		}
	}
	return keys
}

// resolveExpiration turns an expiration modifier into an absolute stamp.
func resolveExpiration(e any, now time.Time) (time.Time, error) {
	switch t := e.(type) {
	case time.Time:
		return t, nil
	case time.Duration:
		return now.Add(t), nil
	}

	var ms float64
	switch t := e.(type) {
	case int:
		ms = float64(t)
	case int8:
		ms = float64(t)
	case int16:
		ms = float64(t)
	case int32:
		ms = float64(t)
	case int64:
		ms = float64(t)
	case uint:
		ms = float64(t)
	case uint8:
		ms = float64(t)
	case uint16:
		ms = float64(t)
	case uint32:
		ms = float64(t)
	case uint64:
		ms = float64(t)
	case float32:
		ms = float64(t)
	case float64:
		ms = t
	default:
		return time.Time{}, ErrInvalidExpiration
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, ErrInvalidExpiration
	}
	return now.Add(time.Duration(ms * float64(time.Millisecond))), nil
}
