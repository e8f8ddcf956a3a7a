// Package cache provides a small in-process LRU cache with TTL used to
// memoize grouped timelines and wallet listings between requests.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is the read/write surface handlers depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Len() int
}

// LRU is a fixed-capacity cache with per-entry TTL. Reads refresh
// recency; writes past capacity evict the least recently used entry.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List
}

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// NewLRU creates a cache holding at most maxSize entries, each valid
// for ttl after its last write.
func NewLRU[T any](maxSize int, ttl time.Duration) *LRU[T] {
	return &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *LRU[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.entries[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}

	c.entries[key] = c.order.PushFront(e)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}
}

func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CleanExpired drops every expired entry and reports how many went.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			c.remove(elem)
			removed++
		}
		elem = next
	}
	return removed
}

func (c *LRU[T]) remove(elem *list.Element) {
	delete(c.entries, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}

// Cleaner is implemented by caches that support expiry sweeps.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically sweeps expired entries out of registered caches.
type Janitor struct {
	caches []Cleaner
	stop   chan struct{}
	done   chan struct{}
}

func NewJanitor() *Janitor {
	return &Janitor{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register adds a cache to the sweep set. Not safe to call after Start.
func (j *Janitor) Register(c Cleaner) {
	j.caches = append(j.caches, c)
}

func (j *Janitor) Start(interval time.Duration) {
	go func() {
		defer close(j.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, c := range j.caches {
					c.CleanExpired()
				}
			case <-j.stop:
				return
			}
		}
	}()
}

func (j *Janitor) Stop() {
	close(j.stop)
	<-j.done
}
