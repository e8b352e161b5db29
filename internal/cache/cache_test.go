package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a")
	}
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("a = %q, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c, clk := newTestCache(4, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	clk.t = clk.t.Add(2 * time.Minute)
	c.Set("c", "3")

	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired = %d, want 1", n)
	}
	if v, ok := c.Get("c"); !ok || v != "3" {
		t.Errorf("c = %q, %v", v, ok)
	}
}

func TestLRUCacheZeroTTLNeverExpires(t *testing.T) {
	c, clk := newTestCache(4, 0)
	c.Set("a", "1")
	clk.t = clk.t.Add(24 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Error("entry with zero ttl expired")
	}
}

func TestLRUCacheClearAndDelete(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("size after Clear = %d", c.Size())
	}
	c.Set("d", "4")
	if v, ok := c.Get("d"); !ok || v != "4" {
		t.Error("cache unusable after Clear")
	}
}

func TestManagerCleanAll(t *testing.T) {
	c, clk := newTestCache(4, time.Second)
	c.Set("a", "1")
	m := NewManager()
	m.Register(c)

	clk.t = clk.t.Add(time.Minute)
	if n := m.CleanAll(); n != 1 {
		t.Errorf("CleanAll = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
