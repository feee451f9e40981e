package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
)

// Key derives a fixed-size cache key from an encoded parameter string.
func Key(encoded string) string {
	sum := sha256.Sum256([]byte(encoded))
	return hex.EncodeToString(sum[:])
}

// Layered checks an in-process LRU before Redis. Remote may be nil. Redis
// failures are logged and treated as misses so a broken cache never fails a search.
type Layered struct {
	Local  *LRUCache[string, []byte]
	Remote *RedisCache
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool) {
	if l.Local != nil {
		if val, ok := l.Local.Get(key); ok {
			return val, true
		}
	}
	if l.Remote == nil {
		return nil, false
	}
	val, ok, err := l.Remote.Get(ctx, key)
	if err != nil {
		log.Printf("cache lookup failed: %v", err)
		return nil, false
	}
	if ok && l.Local != nil {
		l.Local.Put(key, val)
	}
	return val, ok
}

func (l *Layered) Set(ctx context.Context, key string, value []byte) {
	if l.Local != nil {
		l.Local.Put(key, value)
	}
	if l.Remote != nil {
		if err := l.Remote.Set(ctx, key, value); err != nil {
			log.Printf("cache store failed: %v", err)
		}
	}
}
