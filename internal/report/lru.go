package report

import (
	"container/list"
	"sync"
)

// LRUStore keeps the most recent run reports in memory and delegates
// to a backing Store on miss. The MCP server serves drill-down queries
// from here without re-reading disk for every call.
type LRUStore struct {
	mu   sync.Mutex
	cap  int
	back Store

	order *list.List // most recent at front; values are *lruEntry
	items map[string]*list.Element
}

type lruEntry struct {
	key    string
	result *RunResult
}

// NewLRUStore creates an LRU cache with the given capacity that
// delegates to back on cache misses. Capacity must be >= 1.
func NewLRUStore(cap int, back Store) *LRUStore {
	if cap < 1 {
		cap = 1
	}
	return &LRUStore{
		cap:   cap,
		back:  back,
		order: list.New(),
		items: make(map[string]*list.Element, cap),
	}
}

// Save writes the report to the cache and delegates to the backing store.
func (s *LRUStore) Save(result *RunResult) error {
	s.mu.Lock()
	s.insert(result.ID, result)
	s.mu.Unlock()

	return s.back.Save(result)
}

// Load checks the cache first. On miss, it loads from the backing
// store and promotes the report into the cache.
func (s *LRUStore) Load(runID string) (*RunResult, error) {
	s.mu.Lock()
	if el, ok := s.items[runID]; ok {
		s.order.MoveToFront(el)
		r := el.Value.(*lruEntry).result
		s.mu.Unlock()
		return r, nil
	}
	s.mu.Unlock()

	result, err := s.back.Load(runID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.insert(runID, result)
	s.mu.Unlock()

	return result, nil
}

// insert adds or refreshes an entry and evicts the oldest one when
// over capacity. Caller holds the lock.
func (s *LRUStore) insert(key string, result *RunResult) {
	if el, ok := s.items[key]; ok {
		el.Value.(*lruEntry).result = result
		s.order.MoveToFront(el)
		return
	}
	s.items[key] = s.order.PushFront(&lruEntry{key: key, result: result})
	if s.order.Len() > s.cap {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.items, oldest.Value.(*lruEntry).key)
	}
}
