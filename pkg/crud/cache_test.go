package crud

import (
	"net/url"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestKey_SortsParams(t *testing.T) {
	a := Key("admin/posts", url.Values{"sort": {"-created_at"}, "page": {"2"}})
	b := Key("admin/posts", url.Values{"page": {"2"}, "sort": {"-created_at"}})
	assert.Equal(t, a, b)
	assert.Equal(t, "admin/posts", Key("admin/posts", nil))
}

func TestCache_Staleness(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCache(WithCacheClock(clock))

	c.Set("admin/tags", "admin/tags", "v1")
	v, _, ok := c.Get("admin/tags")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	clock.Advance(DefaultStaleAfter - time.Second)
	_, _, ok = c.Get("admin/tags")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, _, ok = c.Get("admin/tags")
	assert.False(t, ok)
}

func TestCache_InvalidateEndpoint(t *testing.T) {
	c := NewCache()
	c.Set("admin/tags", Key("admin/tags", nil), 1)
	c.Set("admin/tags", Key("admin/tags", url.Values{"page": {"2"}}), 2)
	c.Set("admin/posts", Key("admin/posts", nil), 3)

	c.InvalidateEndpoint("admin/tags")
	assert.Equal(t, 1, c.Len())
	_, _, ok := c.Get("admin/posts")
	assert.True(t, ok)
}

func TestCache_SetIfCurrentDropsRacedWrites(t *testing.T) {
	c := NewCache()
	gen := c.Generation("admin/tags")
	c.InvalidateEndpoint("admin/tags")

	_, stored := c.SetIfCurrent("admin/tags", "admin/tags", "stale", gen)
	assert.False(t, stored)
	assert.Equal(t, 0, c.Len())

	_, stored = c.SetIfCurrent("admin/tags", "admin/tags", "fresh", c.Generation("admin/tags"))
	assert.True(t, stored)
}
