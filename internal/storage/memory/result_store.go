package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/JakeFAU/linkrank/internal/storage"
)

// ResultStore keeps crawl results in a map. Saving an existing crawl id
// replaces it.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]storage.Result
}

// NewResultStore creates an empty ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]storage.Result)}
}

// SaveResult implements storage.ResultStore.
func (s *ResultStore) SaveResult(_ context.Context, result storage.Result) error {
	if result.CrawlID == "" {
		return fmt.Errorf("crawl id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.CrawlID] = clone(result)
	return nil
}

// GetResult implements storage.ResultStore.
func (s *ResultStore) GetResult(_ context.Context, crawlID string) (storage.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[crawlID]
	if !ok {
		return storage.Result{}, fmt.Errorf("crawl %s: %w", crawlID, storage.ErrResultNotFound)
	}
	return clone(result), nil
}

func clone(r storage.Result) storage.Result {
	r.Ranked = slices.Clone(r.Ranked)
	r.Edges = slices.Clone(r.Edges)
	return r
}
