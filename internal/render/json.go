package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/JakeFAU/linkrank/internal/graph"
)

// JSON renders a machine-readable report.
type JSON struct{}

// Report is the document written by JSON.
type Report struct {
	Nodes  []RankedNode `json:"nodes"`
	Edges  []graph.Edge `json:"edges"`
	Ranked []string     `json:"ranked"`
}

// RankedNode is a node with its 1-based rank.
type RankedNode struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
	Rank  int    `json:"rank"`
}

// ContentType implements Renderer.
func (JSON) ContentType() string { return "application/json" }

// Extension implements Renderer.
func (JSON) Extension() string { return ".json" }

// Render implements Renderer.
func (JSON) Render(ctx context.Context, w io.Writer, g *graph.Graph, ranked []string) error {
	if err := check(ctx, g); err != nil {
		return err
	}
	report := Report{
		Nodes:  make([]RankedNode, 0, len(ranked)),
		Edges:  g.Edges(),
		Ranked: append([]string{}, ranked...),
	}
	for i, id := range ranked {
		report.Nodes = append(report.Nodes, RankedNode{ID: id, Score: g.Score(id), Rank: i + 1})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
