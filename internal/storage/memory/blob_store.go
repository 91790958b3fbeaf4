// Package memory keeps crawl results and rendered artifacts in process
// memory, for development and tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// BlobStore keeps artifacts in a map and returns memory:// URIs.
type BlobStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	kind map[string]string
}

// NewBlobStore creates an empty BlobStore.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		data: make(map[string][]byte),
		kind: make(map[string]string),
	}
}

// PutObject stores a copy of data under path.
func (s *BlobStore) PutObject(_ context.Context, path, contentType string, data io.Reader) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read object %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path] = body
	s.kind[path] = contentType
	return "memory://" + path, nil
}

// Object returns a copy of the stored object and its content type.
func (s *BlobStore) Object(path string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.data[path]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), body...), s.kind[path], true
}
