// Package graph holds the directed page graph built by a crawl: one node per
// discovered page identifier, a deduplicated edge set, and a per-node score.
package graph

import (
	"errors"
	"fmt"
	"sync"
)

// ErrFrozen is the panic value used when a sealed graph is mutated.
var ErrFrozen = errors.New("graph is frozen")

// Node is the record kept for one page.
type Node struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// Edge is a directed link from one page to another.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is a concurrency-safe directed graph keyed by page identifier.
// Nodes and edges remember the order in which they were first added.
type Graph struct {
	mu      sync.RWMutex
	nodes   map[string]*Node
	order   []string
	edges   []Edge
	edgeSet map[Edge]struct{}
	frozen  bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edgeSet: make(map[Edge]struct{}),
	}
}

// AddNode registers id with a zero score. It reports false when the node
// already exists, which makes it usable as an atomic check-and-insert.
func (g *Graph) AddNode(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustMutate()
	if _, exists := g.nodes[id]; exists {
		return false
	}
	g.nodes[id] = &Node{ID: id}
	g.order = append(g.order, id)
	return true
}

// AddEdge adds a directed edge. Duplicate edges are ignored and reported as
// false. Both endpoints must already be nodes.
func (g *Graph) AddEdge(from, to string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustMutate()
	g.mustHave(from)
	g.mustHave(to)
	e := Edge{From: from, To: to}
	if _, exists := g.edgeSet[e]; exists {
		return false
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	return true
}

// Increment adds one to the score of an existing node.
func (g *Graph) Increment(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustMutate()
	g.mustHave(id)
	g.nodes[id].Score++
}

// Freeze seals the graph; any later mutation panics with ErrFrozen.
func (g *Graph) Freeze() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frozen = true
}

// Frozen reports whether Freeze has been called.
func (g *Graph) Frozen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.frozen
}

// Has reports whether id is a node.
func (g *Graph) Has(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Node returns a copy of the node for id.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Score returns the score of id, or 0 when it is not a node.
func (g *Graph) Score(id string) int {
	n, _ := g.Node(id)
	return n.Score
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// HasEdge reports whether the edge from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edgeSet[Edge{From: from, To: to}]
	return ok
}

// IDs returns node identifiers in discovery order.
func (g *Graph) IDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// Nodes returns copies of all nodes in discovery order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, *g.nodes[id])
	}
	return nodes
}

// Edges returns a copy of the edge list in insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Successors returns the targets id links to, in edge order.
func (g *Graph) Successors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []string
	for _, e := range g.edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Predecessors returns the pages linking to id, in edge order.
func (g *Graph) Predecessors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []string
	for _, e := range g.edges {
		if e.To == id {
			out = append(out, e.From)
		}
	}
	return out
}

// Degrees returns every page's in- and out-degree over distinct edges, in
// one pass. Pages without edges are absent from the maps.
func (g *Graph) Degrees() (in, out map[string]int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	in = make(map[string]int, len(g.nodes))
	out = make(map[string]int, len(g.nodes))
	for _, e := range g.edges {
		in[e.To]++
		out[e.From]++
	}
	return in, out
}

// caller holds g.mu.
func (g *Graph) mustMutate() {
	if g.frozen {
		panic(ErrFrozen)
	}
}

// caller holds g.mu.
func (g *Graph) mustHave(id string) {
	if _, ok := g.nodes[id]; !ok {
		panic(fmt.Sprintf("graph: unknown node %q", id))
	}
}
