package render

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/JakeFAU/linkrank/internal/graph"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	topStyle    = cellStyle.Foreground(lipgloss.Color("11"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Text renders the ranking as a terminal table.
type Text struct{}

// ContentType implements Renderer.
func (Text) ContentType() string { return "text/plain; charset=utf-8" }

// Extension implements Renderer.
func (Text) Extension() string { return ".txt" }

// Render implements Renderer.
func (Text) Render(ctx context.Context, w io.Writer, g *graph.Graph, ranked []string) error {
	if err := check(ctx, g); err != nil {
		return err
	}
	in, out := g.Degrees()
	rows := make([][]string, 0, len(ranked))
	for i, id := range ranked {
		score := g.Score(id)
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			Label(id, score),
			strconv.Itoa(score),
			strconv.Itoa(in[id]),
			strconv.Itoa(out[id]),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("RANK", "PAGE", "SCORE", "IN", "OUT").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == 0:
				return topStyle
			default:
				return cellStyle
			}
		})
	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
