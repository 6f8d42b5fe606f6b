package zurich

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCacheSize bounds the in-process response memo. The memo is off
// unless a TTL is configured.
const DefaultCacheSize = 256

// memo keeps recent response bodies of slow-moving catalog endpoints in memory,
// keyed by the full request URL. A nil memo is valid and stores nothing.
type memo struct {
	lru *expirable.LRU[string, []byte]
}

// newMemo returns nil when ttl is not positive.
func newMemo(size int, ttl time.Duration) *memo {
	if ttl <= 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &memo{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (m *memo) get(key string) ([]byte, bool) {
	if m == nil {
		return nil, false
	}
	return m.lru.Get(key)
}

func (m *memo) add(key string, body []byte) {
	if m == nil {
		return
	}
	m.lru.Add(key, body)
}

func (m *memo) len() int {
	if m == nil {
		return 0
	}
	return m.lru.Len()
}
