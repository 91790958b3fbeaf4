// Package render turns a finished crawl graph and its ranking into text, a
// Graphviz digraph or a JSON report.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JakeFAU/linkrank/internal/graph"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown render format")

// Renderer writes one representation of a ranked graph.
type Renderer interface {
	// Render writes g to w. ranked is the output of ranker.Rank for g.
	Render(ctx context.Context, w io.Writer, g *graph.Graph, ranked []string) error
	// ContentType is the MIME type of the output.
	ContentType() string
	// Extension is the file suffix for the output, including the dot.
	Extension() string
}

// Formats lists the names accepted by New.
func Formats() []string {
	return []string{"text", "dot", "json"}
}

// New returns the renderer for format. Names are case-insensitive.
func New(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "":
		return Text{}, nil
	case "dot":
		return DOT{}, nil
	case "json":
		return JSON{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Label is the display name of a page: its id without the .html suffix and
// its score, as in "page1(PRank=2)".
func Label(id string, score int) string {
	return fmt.Sprintf("%s(PRank=%d)", strings.TrimSuffix(id, ".html"), score)
}

func check(ctx context.Context, g *graph.Graph) error {
	if g == nil {
		return errors.New("render: graph is required")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
