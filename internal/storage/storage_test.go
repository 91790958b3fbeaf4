package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/linkrank/internal/graph"
)

func TestResultGraph(t *testing.T) {
	t.Parallel()

	res := Result{
		CrawlID: "c1",
		Ranked:  []graph.Node{{ID: "b", Score: 1}, {ID: "a"}},
		Edges:   []graph.Edge{{From: "a", To: "b"}},
	}
	require.Equal(t, []string{"b", "a"}, res.IDs())

	g, err := res.Graph()
	require.NoError(t, err)
	require.True(t, g.Frozen())
	require.Equal(t, []string{"b", "a"}, g.IDs())
	require.True(t, g.HasEdge("a", "b"))

	_, err = Result{Ranked: []graph.Node{{ID: "a"}, {ID: "a"}}}.Graph()
	require.Error(t, err)
}
