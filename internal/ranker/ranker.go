// Package ranker orders the pages of a finished crawl graph by score.
package ranker

import (
	"slices"

	"github.com/JakeFAU/linkrank/internal/graph"
)

// Rank returns every node identifier sorted by score, highest first. Equal
// scores keep discovery order, so repeated calls agree.
func Rank(g *graph.Graph) []string {
	nodes := RankNodes(g)
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// RankNodes is Rank with the node records attached.
func RankNodes(g *graph.Graph) []graph.Node {
	if g == nil {
		return []graph.Node{}
	}
	nodes := g.Nodes()
	slices.SortStableFunc(nodes, func(a, b graph.Node) int {
		return b.Score - a.Score
	})
	return nodes
}
