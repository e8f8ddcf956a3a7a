package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU[string](4, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("Get(a) = %q,%v", v, ok)
	}

	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Errorf("overwrite: Get(a) = %q, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a's recency
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a was refreshed and should survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c was just written")
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := NewLRU[int](4, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired read should drop the entry, Len = %d", c.Len())
	}
}

func TestLRU_Delete(t *testing.T) {
	c := NewLRU[int](4, time.Minute)
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("never-existed")

	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry still present")
	}
}

func TestLRU_CleanExpired(t *testing.T) {
	c := NewLRU[int](8, 10*time.Millisecond)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("old-%d", i), i)
	}
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 9)

	if removed := c.CleanExpired(); removed != 3 {
		t.Errorf("CleanExpired = %d, want 3", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry swept")
	}
}

func TestJanitor(t *testing.T) {
	c := NewLRU[int](8, time.Millisecond)
	c.Set("a", 1)

	j := NewJanitor()
	j.Register(c)
	j.Start(5 * time.Millisecond)
	defer j.Stop()

	deadline := time.After(time.Second)
	for c.Len() > 0 {
		select {
		case <-deadline:
			t.Fatal("janitor never swept the expired entry")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
