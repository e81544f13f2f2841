package cache

import (
	"errors"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nohuhu/typecache/pkg/storage/mem_storage"
	"github.com/nohuhu/typecache/pkg/storage/session_storage"
	"github.com/nohuhu/typecache/pkg/typeval"
)

func newTestCache(t *testing.T, opts Opts) *Cache {
	t.Helper()
	if opts.Backend == nil {
		opts.Backend = session_storage.NewSessionStorage()
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func mustGet(t *testing.T, c *Cache, key string) (any, bool) {
	t.Helper()
	v, ok, err := c.Get(key)
	require.NoError(t, err)
	return v, ok
}

func TestSetGetScenario(t *testing.T) {
	c := newTestCache(t, Opts{})

	_, err := c.Set("a", 42)
	require.NoError(t, err)
	v, ok := mustGet(t, c, "a")
	require.True(t, ok)
	assert.Equal(t, float64(42), v)

	_, err = c.Set("b", map[string]any{"x": 1, "y": []any{1, "two", nil}})
	require.NoError(t, err)
	v, ok = mustGet(t, c, "b")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"x": float64(1), "y": []any{float64(1), "two", nil}}, v)

	_, err = c.Set("c", math.NaN())
	require.NoError(t, err)
	v, ok = mustGet(t, c, "c")
	require.True(t, ok)
	assert.True(t, math.IsNaN(v.(float64)))

	_, err = c.Set("d", "v", -5)
	require.NoError(t, err)
	_, ok = mustGet(t, c, "d")
	assert.False(t, ok)

	_, ok = mustGet(t, c, "missing")
	assert.False(t, ok)
}

func TestSetReturnsOriginalValue(t *testing.T) {
	c := newTestCache(t, Opts{})
	v, err := c.Set("k", 42)
	require.NoError(t, err)
	// The original value, not its serialized or normalized form.
	assert.Equal(t, 42, v)
}

func TestKeyValidation(t *testing.T) {
	c := newTestCache(t, Opts{})
	_, err := c.Set("", "v")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestValueValidation(t *testing.T) {
	c := newTestCache(t, Opts{})

	_, err := c.Set("k", typeval.Undefined{})
	assert.ErrorIs(t, err, ErrInvalidValue)

	// Nested undefined is legal.
	_, err = c.Set("k", map[string]any{"u": typeval.Undefined{}})
	require.NoError(t, err)
	v, ok := mustGet(t, c, "k")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"u": typeval.Undefined{}}, v)

	var ute *typeval.UnsupportedTypeError
	_, err = c.Set("k", func() {})
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "func", ute.TypeName)

	_, err = c.Set("k", regexp.MustCompile(`x`))
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "regexp", ute.TypeName)

	_, err = c.Set("k", map[string]any{"nested": make(chan int)})
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "chan", ute.TypeName)

	// A failed Set must not leave anything behind.
	_, ok = mustGet(t, c, "k2")
	assert.False(t, ok)
}

func TestExpirationValidation(t *testing.T) {
	c := newTestCache(t, Opts{})
	for _, e := range []any{
		nil,
		"x",
		map[string]any{},
		[]any{},
		math.NaN(),
		math.Inf(1),
	} {
		_, err := c.Set("k", "v", e)
		assert.ErrorIs(t, err, ErrInvalidExpiration)
	}

	_, err := c.Set("k", "v", 100, 200)
	assert.ErrorIs(t, err, ErrInvalidExpiration)

	// No partial writes on validation failure.
	_, ok := mustGet(t, c, "k")
	assert.False(t, ok)
}

func TestExpiryBoundary(t *testing.T) {
	backend := session_storage.NewSessionStorage()
	c := newTestCache(t, Opts{Backend: backend})

	_, err := c.Set("k", "v", 100)
	require.NoError(t, err)

	v, ok := mustGet(t, c, "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	time.Sleep(time.Millisecond * 150)
	_, ok = mustGet(t, c, "k")
	assert.False(t, ok)
	// Lazy eviction removed the entry from the backend.
	assert.Equal(t, 0, backend.Len())
}

func TestNegativeTTL(t *testing.T) {
	backend := session_storage.NewSessionStorage()
	c := newTestCache(t, Opts{Backend: backend})

	_, err := c.Set("k", "v", -1)
	require.NoError(t, err)
	_, ok := mustGet(t, c, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, backend.Len())
}

func TestAbsoluteAndDurationExpiration(t *testing.T) {
	c := newTestCache(t, Opts{})

	_, err := c.Set("future", "v", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, ok := mustGet(t, c, "future")
	assert.True(t, ok)

	_, err = c.Set("past", "v", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, ok = mustGet(t, c, "past")
	assert.False(t, ok)

	_, err = c.Set("dur", "v", time.Hour)
	require.NoError(t, err)
	_, ok = mustGet(t, c, "dur")
	assert.True(t, ok)
}

// Has skips the expiration check on purpose: an expired entry that has not
// been evicted yet still reports true.
func TestHasSkipsExpirationCheck(t *testing.T) {
	c := newTestCache(t, Opts{})

	_, err := c.Set("k", "v", -1)
	require.NoError(t, err)

	ok, err := c.Has("k")
	require.NoError(t, err)
	assert.True(t, ok)

	// Get evicts the expired entry, after which Has agrees.
	_, found := mustGet(t, c, "k")
	assert.False(t, found)
	ok, err = c.Has("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOverwriteClearsStaleExpiration(t *testing.T) {
	c := newTestCache(t, Opts{})

	_, err := c.Set("k", "v1", 50)
	require.NoError(t, err)
	_, err = c.Set("k", "v2")
	require.NoError(t, err)

	time.Sleep(time.Millisecond * 80)
	v, ok := mustGet(t, c, "k")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestNamespaceIsolation(t *testing.T) {
	shared := session_storage.NewSessionStorage()
	shared.SetItem("foreign", "untouched")

	a := newTestCache(t, Opts{Backend: shared, KeyPrefix: "a."})
	b := newTestCache(t, Opts{Backend: shared, KeyPrefix: "b."})

	_, err := a.Set("one", 1)
	require.NoError(t, err)
	_, err = a.Set("two", 2)
	require.NoError(t, err)
	_, err = b.Set("three", 3)
	require.NoError(t, err)

	keys, err := a.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, keys)

	a.Clear()
	assert.Equal(t, 2, shared.Len())
	_, ok := shared.GetItem("foreign")
	assert.True(t, ok)
	_, ok = mustGet(t, b, "three")
	assert.True(t, ok)
}

func TestRemoveIdempotent(t *testing.T) {
	backend := session_storage.NewSessionStorage()
	c := newTestCache(t, Opts{Backend: backend})

	_, err := c.Set("k", "v")
	require.NoError(t, err)
	c.Remove("absent")
	assert.Equal(t, 1, backend.Len())
	c.Remove("k")
	c.Remove("k")
	assert.Equal(t, 0, backend.Len())
}

func TestCorruptEntries(t *testing.T) {
	backend := session_storage.NewSessionStorage()
	c := newTestCache(t, Opts{Backend: backend})

	var cee *typeval.CorruptEntryError
	backend.SetItem("cache.bad", "{")
	_, _, err := c.Get("bad")
	require.ErrorAs(t, err, &cee)
	_, err = c.Has("bad")
	require.ErrorAs(t, err, &cee)

	// A valid document that is not an entry object.
	backend.SetItem("cache.notentry", `{"type":"string","value":"x"}`)
	_, _, err = c.Get("notentry")
	require.ErrorAs(t, err, &cee)

	var iste *typeval.InvalidSerializedTypeError
	backend.SetItem("cache.badtag", `{"type":"object","value":{"value":{"type":"symbol","value":"x"}}}`)
	_, _, err = c.Get("badtag")
	require.ErrorAs(t, err, &iste)
}

func TestRawBackendSkipsSerialization(t *testing.T) {
	backend := mem_storage.NewMemStorage()
	c := newTestCache(t, Opts{Backend: backend, KeyPrefix: "cache."})

	_, err := c.Set("k", 42)
	require.NoError(t, err)

	// Prefix is forced empty on a raw backend and the native value survives
	// untouched: an int stays an int.
	raw, ok := backend.GetItem("k")
	require.True(t, ok)
	require.IsType(t, &Entry{}, raw)
	assert.Equal(t, 42, raw.(*Entry).Value)

	v, ok := mustGet(t, c, "k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestStringBackendWireForm(t *testing.T) {
	backend := session_storage.NewSessionStorage()
	c := newTestCache(t, Opts{Backend: backend})

	_, err := c.Set("k", true)
	require.NoError(t, err)

	raw, ok := backend.GetItem("cache.k")
	require.True(t, ok)
	assert.JSONEq(t,
		`{"type":"object","value":{
			"value":{"type":"boolean","value":"true"},
			"expires":{"type":"undefined"}}}`,
		raw.(string))
}

func TestFetch(t *testing.T) {
	c := newTestCache(t, Opts{})

	calls := 0
	loader := func() (any, error) {
		calls++
		return "loaded", nil
	}

	v, err := c.Fetch("k", loader)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)
	assert.Equal(t, 1, calls)

	v, err = c.Fetch("k", loader)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)
	assert.Equal(t, 1, calls)

	wantErr := errors.New("boom")
	_, err = c.Fetch("other", func() (any, error) { return nil, wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestOpts(t *testing.T) {
	_, err := New(Opts{StorageKind: "bogus"})
	require.Error(t, err)

	opts := Opts{}
	require.NoError(t, opts.Init())
	assert.Equal(t, StorageKindSession, opts.StorageKind)
	assert.Equal(t, "cache.", opts.KeyPrefix)
}

func TestEntryExpired(t *testing.T) {
	now := time.Now()

	e := &Entry{Value: "v"}
	assert.False(t, e.Expired(now), "entry without stamp never expires")

	e = &Entry{Value: "v", Expires: now}
	assert.False(t, e.Expired(now), "expiry is strictly less-than")

	e = &Entry{Value: "v", Expires: now.Add(-time.Millisecond)}
	assert.True(t, e.Expired(now))
}
