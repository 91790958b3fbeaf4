// Package storage defines where finished crawl results and rendered
// artifacts are kept.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/JakeFAU/linkrank/internal/graph"
)

// ErrResultNotFound is returned when no result exists for a crawl id.
var ErrResultNotFound = errors.New("crawl result not found")

// Result is the ranked output of one finished crawl.
type Result struct {
	CrawlID   string       `json:"crawl_id"`
	Seed      string       `json:"seed"`
	CreatedAt time.Time    `json:"created_at"`
	Ranked    []graph.Node `json:"ranked"`
	Edges     []graph.Edge `json:"edges,omitempty"`
	// Truncated is set when the crawl stopped at its page limit.
	Truncated bool `json:"truncated,omitempty"`
}

// IDs returns the ranked page identifiers.
func (r Result) IDs() []string {
	ids := make([]string, len(r.Ranked))
	for i, n := range r.Ranked {
		ids[i] = n.ID
	}
	return ids
}

// Graph rebuilds a frozen graph from the result. Stores that drop edges
// yield a graph with nodes only.
func (r Result) Graph() (*graph.Graph, error) {
	g, err := graph.Restore(graph.Snapshot{Nodes: r.Ranked, Edges: r.Edges})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ResultStore persists finished crawl results.
type ResultStore interface {
	SaveResult(ctx context.Context, result Result) error
	GetResult(ctx context.Context, crawlID string) (Result, error)
}

// BlobStore persists rendered artifacts and returns a URI for them.
type BlobStore interface {
	PutObject(ctx context.Context, path, contentType string, data io.Reader) (string, error)
}
