package graph

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddNodeIsCheckAndInsert(t *testing.T) {
	t.Parallel()

	g := New()
	require.True(t, g.AddNode("page1"))
	require.False(t, g.AddNode("page1"))
	require.Equal(t, 1, g.Len())

	n, ok := g.Node("page1")
	require.True(t, ok)
	require.Equal(t, Node{ID: "page1", Score: 0}, n)
}

func TestAddEdgeDeduplicates(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	g.AddNode("b")

	require.True(t, g.AddEdge("a", "b"))
	require.False(t, g.AddEdge("a", "b"))
	require.True(t, g.AddEdge("b", "a"))
	require.True(t, g.AddEdge("a", "a"))

	require.Equal(t, 3, g.EdgeCount())
	require.Equal(t, []Edge{{"a", "b"}, {"b", "a"}, {"a", "a"}}, g.Edges())
	require.True(t, g.HasEdge("a", "a"))
	require.False(t, g.HasEdge("b", "b"))
}

func TestAddEdgeRequiresNodes(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	require.Panics(t, func() { g.AddEdge("a", "missing") })
	require.Panics(t, func() { g.Increment("missing") })
}

func TestDiscoveryOrderIsKept(t *testing.T) {
	t.Parallel()

	g := New()
	for _, id := range []string{"c", "a", "b"} {
		g.AddNode(id)
	}
	g.Increment("b")

	require.Equal(t, []string{"c", "a", "b"}, g.IDs())
	require.Equal(t, []Node{{ID: "c"}, {ID: "a"}, {ID: "b", Score: 1}}, g.Nodes())
}

func TestAccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	g.AddNode("b")
	g.AddEdge("a", "b")

	nodes := g.Nodes()
	nodes[0].Score = 42
	ids := g.IDs()
	ids[0] = "zzz"
	edges := g.Edges()
	edges[0].To = "zzz"

	require.Equal(t, 0, g.Score("a"))
	require.Equal(t, []string{"a", "b"}, g.IDs())
	require.True(t, g.HasEdge("a", "b"))
}

func TestNeighbours(t *testing.T) {
	t.Parallel()

	g := New()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(id)
	}
	g.AddEdge("a", "b")
	g.AddEdge("a", "c")
	g.AddEdge("c", "b")

	require.Equal(t, []string{"b", "c"}, g.Successors("a"))
	require.Equal(t, []string{"a", "c"}, g.Predecessors("b"))
	require.Empty(t, g.Successors("b"))
}

func TestFreezeRejectsMutation(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	g.Freeze()
	require.True(t, g.Frozen())

	require.PanicsWithValue(t, ErrFrozen, func() { g.AddNode("b") })
	require.PanicsWithValue(t, ErrFrozen, func() { g.AddEdge("a", "a") })
	require.PanicsWithValue(t, ErrFrozen, func() { g.Increment("a") })
	require.Equal(t, 1, g.Len())
}

func TestConcurrentAddNodeCreatesOnce(t *testing.T) {
	t.Parallel()

	g := New()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if g.AddNode(fmt.Sprintf("page%d", i%4)) {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 4, created)
	require.Equal(t, 4, g.Len())
}

func TestDegrees(t *testing.T) {
	t.Parallel()

	g := New()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(id)
	}
	g.AddEdge("a", "b")
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddEdge("a", "c")
	g.AddEdge("c", "c")

	in, out := g.Degrees()
	require.Equal(t, map[string]int{"a": 1, "b": 1, "c": 2}, in)
	require.Equal(t, map[string]int{"a": 2, "b": 1, "c": 1}, out)
	for _, id := range []string{"a", "b", "c"} {
		require.Len(t, g.Predecessors(id), in[id])
		require.Len(t, g.Successors(id), out[id])
	}
}
