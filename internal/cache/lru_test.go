package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[[]string](2, time.Minute)
	c.Set("1", []string{"Food"})
	c.Set("2", []string{"Travel"})
	_, _ = c.Get("1")
	c.Set("3", []string{"Shopping"})

	_, ok := c.Get("2")
	assert.False(t, ok)
	v, ok := c.Get("1")
	assert.True(t, ok)
	assert.Equal(t, []string{"Food"}, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.SetClock(func() time.Time { return now })

	c.Set("a", "x")
	c.Set("b", "y")
	now = now.Add(30 * time.Second)
	c.Set("b", "z")

	now = now.Add(45 * time.Second)
	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "z", v)

	now = now.Add(time.Minute)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())
}

func TestLRUDelete(t *testing.T) {
	c := NewLRUCache[int](4, time.Minute)
	c.Set("k", 1)
	c.Delete("k")
	c.Delete("missing")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestManagerSweepsAndStops(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](4, time.Second)
	c.SetClock(func() time.Time { return now })
	c.Set("k", 1)

	m := NewManager(nil)
	m.Register(c)
	now = now.Add(2 * time.Second)
	assert.Equal(t, 1, m.Sweep())

	m.StartCleanup(context.Background(), time.Millisecond)
	m.Stop()
	m.Stop()
}
