package inspect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moufmouf/tdbm/compiler/schema"
)

func snapshot() *schema.Schema {
	return schema.New("app", &schema.Table{
		Name: "users",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.TypeInt64, AutoIncrement: true},
			{Name: "login", Type: schema.TypeString},
		},
		Indexes: []*schema.Index{
			{Name: "users_pk", Columns: []string{"id"}, Unique: true, Primary: true},
		},
	})
}

func TestCacheRoundtrip(t *testing.T) {
	c := NewCache(t.TempDir())
	const dsn = "user:pass@tcp(localhost)/app"

	_, ok := c.Load(dsn)
	assert.False(t, ok)

	require.NoError(t, c.Store(dsn, snapshot()))
	got, ok := c.Load(dsn)
	require.True(t, ok)
	assert.Equal(t, "app", got.Name)

	users, ok := got.Table("users")
	require.True(t, ok)
	assert.Len(t, users.Columns, 2)
	assert.True(t, users.HasPrimaryKey())

	// A different connection string misses.
	_, ok = c.Load("other-dsn")
	assert.False(t, ok)

	require.NoError(t, c.Invalidate(dsn))
	_, ok = c.Load(dsn)
	assert.False(t, ok)

	// Invalidating twice is fine.
	require.NoError(t, c.Invalidate(dsn))
}

type countingInspector struct {
	calls int
	s     *schema.Schema
}

func (c *countingInspector) Inspect(ctx context.Context) (*schema.Schema, error) {
	c.calls++
	return c.s, nil
}

func TestCachedInspector(t *testing.T) {
	cache := NewCache(t.TempDir())
	inner := &countingInspector{s: snapshot()}
	insp := Cached(inner, cache, "dsn", nil)

	s, err := insp.Inspect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "app", s.Name)
	assert.Equal(t, 1, inner.calls)

	// The second run hits the cache and skips the database.
	s, err = insp.Inspect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "app", s.Name)
	assert.Equal(t, 1, inner.calls)

	require.NoError(t, cache.Invalidate("dsn"))
	_, err = insp.Inspect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
