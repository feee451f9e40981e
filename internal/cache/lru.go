package cache

import (
	"container/list"
	"sync"
	"time"
)

type cacheItem[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// LRUCache is a size-bounded cache with an optional TTL. Expired entries are
// dropped on access and by a background sweep that runs until Close.
type LRUCache[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	cache    map[K]*list.Element
	list     *list.List
	mu       sync.Mutex
	done     chan struct{}
	once     sync.Once
	now      func() time.Time
}

func NewLRUCache[K comparable, V any](capacity int, ttl time.Duration) *LRUCache[K, V] {
	c := &LRUCache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		cache:    make(map[K]*list.Element),
		list:     list.New(),
		done:     make(chan struct{}),
		now:      time.Now,
	}

	if ttl > 0 {
		go c.cleanup()
	}
	return c
}

func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.cache[key]
	if !ok {
		return zero, false
	}
	item := elem.Value.(*cacheItem[K, V])
	if c.expired(item, c.now()) {
		c.removeElement(elem)
		return zero, false
	}
	c.list.MoveToFront(elem)
	return item.value, true
}

func (c *LRUCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if elem, ok := c.cache[key]; ok {
		c.list.MoveToFront(elem)
		item := elem.Value.(*cacheItem[K, V])
		item.value = value
		item.expiresAt = expiresAt
		return
	}

	if c.list.Len() >= c.capacity {
		if elem := c.list.Back(); elem != nil {
			c.removeElement(elem)
		}
	}

	c.cache[key] = c.list.PushFront(&cacheItem[K, V]{key: key, value: value, expiresAt: expiresAt})
}

func (c *LRUCache[K, V]) expired(item *cacheItem[K, V], now time.Time) bool {
	return c.ttl > 0 && now.After(item.expiresAt)
}

func (c *LRUCache[K, V]) removeElement(elem *list.Element) {
	delete(c.cache, elem.Value.(*cacheItem[K, V]).key)
	c.list.Remove(elem)
}

func (c *LRUCache[K, V]) cleanup() {
	ticker := time.NewTicker(c.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *LRUCache[K, V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var toRemove []*list.Element
	for elem := c.list.Back(); elem != nil; elem = elem.Prev() {
		if c.expired(elem.Value.(*cacheItem[K, V]), now) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
}

func (c *LRUCache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Len()
}

func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[K]*list.Element)
	c.list.Init()
}

// Close stops the background sweep.
func (c *LRUCache[K, V]) Close() {
	c.once.Do(func() { close(c.done) })
}
