package render

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/JakeFAU/linkrank/internal/graph"
)

const (
	minNodeWidth = 0.75
	maxNodeWidth = 2.75
)

// DOT renders a Graphviz digraph. Node width grows with score.
type DOT struct{}

// ContentType implements Renderer.
func (DOT) ContentType() string { return "text/vnd.graphviz" }

// Extension implements Renderer.
func (DOT) Extension() string { return ".dot" }

// Render implements Renderer.
func (DOT) Render(ctx context.Context, w io.Writer, g *graph.Graph, ranked []string) error {
	if err := check(ctx, g); err != nil {
		return err
	}
	top := 0
	for _, id := range ranked {
		top = max(top, g.Score(id))
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph linkrank {")
	fmt.Fprintln(bw, "  node [shape=circle, fixedsize=true, fontsize=10];")
	for _, id := range ranked {
		score := g.Score(id)
		fmt.Fprintf(bw, "  %s [label=%s, width=%.2f];\n",
			strconv.Quote(id), strconv.Quote(Label(id, score)), nodeWidth(score, top))
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "  %s -> %s;\n", strconv.Quote(e.From), strconv.Quote(e.To))
	}
	fmt.Fprintln(bw, "}")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write dot: %w", err)
	}
	return nil
}

func nodeWidth(score, top int) float64 {
	if top <= 0 {
		return minNodeWidth
	}
	return minNodeWidth + (maxNodeWidth-minNodeWidth)*float64(score)/float64(top)
}
