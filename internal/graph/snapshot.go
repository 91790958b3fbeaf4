package graph

import "fmt"

// Snapshot is a plain copy of a graph's nodes and edges.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Snapshot copies the graph in node discovery order and edge insertion order.
func (g *Graph) Snapshot() Snapshot {
	return Snapshot{Nodes: g.Nodes(), Edges: g.Edges()}
}

// Restore rebuilds a frozen graph from s. Node order in s becomes discovery
// order. Duplicate nodes and edges naming unknown nodes are errors.
func Restore(s Snapshot) (*Graph, error) {
	g := New()
	for _, n := range s.Nodes {
		if _, exists := g.nodes[n.ID]; exists {
			return nil, fmt.Errorf("restore graph: duplicate node %q", n.ID)
		}
		node := n
		g.nodes[n.ID] = &node
		g.order = append(g.order, n.ID)
	}
	for _, e := range s.Edges {
		if g.nodes[e.From] == nil || g.nodes[e.To] == nil {
			return nil, fmt.Errorf("restore graph: edge %s -> %s names an unknown node", e.From, e.To)
		}
		if _, exists := g.edgeSet[e]; exists {
			continue
		}
		g.edgeSet[e] = struct{}{}
		g.edges = append(g.edges, e)
	}
	g.frozen = true
	return g, nil
}
