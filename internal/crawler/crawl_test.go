package crawler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/linkrank/internal/corpus"
	"github.com/JakeFAU/linkrank/internal/graph"
	"github.com/JakeFAU/linkrank/internal/progress"
)

// mapSource is a PageSource over a fixed link map that counts lookups.
type mapSource struct {
	mu      sync.Mutex
	links   map[string][]string
	lookups map[string]int
}

func newMapSource(links map[string][]string) *mapSource {
	return &mapSource{links: links, lookups: make(map[string]int)}
}

func (s *mapSource) Lookup(_ context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups[id]++
	links, ok := s.links[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrPageNotFound)
	}
	return links, nil
}

func (s *mapSource) Lookups() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.lookups))
	for k, v := range s.lookups {
		out[k] = v
	}
	return out
}

// MockPageSource is a testify mock of PageSource.
type MockPageSource struct {
	mock.Mock
}

func (m *MockPageSource) Lookup(ctx context.Context, id string) ([]string, error) {
	args := m.Called(ctx, id)
	links, _ := args.Get(0).([]string)
	return links, args.Error(1)
}

type crawlFunc func(context.Context, *graph.Graph, string, PageSource, ...Option) error

var crawlers = map[string]crawlFunc{
	"sequential": Crawl,
	"parallel":   CrawlParallel,
}

func scenarioLinks() map[string][]string {
	return map[string][]string{
		"page1": {"page2"},
		"page2": {"page1", "page3"},
		"page3": {"page1", "page2", "page4"},
		"page4": {},
	}
}

func scores(g *graph.Graph) map[string]int {
	out := make(map[string]int)
	for _, n := range g.Nodes() {
		out[n.ID] = n.Score
	}
	return out
}

func edgeSet(g *graph.Graph) []graph.Edge {
	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

func TestCrawlScenario(t *testing.T) {
	t.Parallel()

	for name, crawl := range crawlers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			src := newMapSource(scenarioLinks())
			g := graph.New()
			require.NoError(t, crawl(context.Background(), g, "page1", src))

			require.Equal(t, map[string]int{"page1": 2, "page2": 2, "page3": 1, "page4": 1}, scores(g))
			require.Equal(t, []graph.Edge{
				{From: "page1", To: "page2"},
				{From: "page2", To: "page1"},
				{From: "page2", To: "page3"},
				{From: "page3", To: "page1"},
				{From: "page3", To: "page2"},
				{From: "page3", To: "page4"},
			}, edgeSet(g))
			for id, n := range src.Lookups() {
				require.Equalf(t, 1, n, "page %s looked up %d times", id, n)
			}
			require.True(t, g.Frozen())
		})
	}
}

func TestCrawlDiscoveryOrderIsDepthFirst(t *testing.T) {
	t.Parallel()

	g := graph.New()
	require.NoError(t, Crawl(context.Background(), g, "page1", newMapSource(scenarioLinks())))
	require.Equal(t, []string{"page1", "page2", "page3", "page4"}, g.IDs())

	// Edges are recorded after each target's subtree finishes.
	require.Equal(t, []graph.Edge{
		{From: "page2", To: "page1"},
		{From: "page3", To: "page1"},
		{From: "page3", To: "page2"},
		{From: "page3", To: "page4"},
		{From: "page2", To: "page3"},
		{From: "page1", To: "page2"},
	}, g.Edges())
}

func TestCrawlMissingPage(t *testing.T) {
	t.Parallel()

	for name, crawl := range crawlers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			src := newMapSource(map[string][]string{"page1": {"ghost"}})
			g := graph.New()
			require.NoError(t, crawl(context.Background(), g, "page1", src))

			n, ok := g.Node("ghost")
			require.True(t, ok)
			require.Equal(t, 1, n.Score)
			require.Empty(t, g.Successors("ghost"))
			require.Equal(t, 1, g.EdgeCount())
		})
	}
}

func TestCrawlMissingSeed(t *testing.T) {
	t.Parallel()

	g := graph.New()
	require.NoError(t, Crawl(context.Background(), g, "nowhere", newMapSource(nil)))
	require.Equal(t, []graph.Node{{ID: "nowhere"}}, g.Nodes())
	require.Zero(t, g.EdgeCount())
}

func TestCrawlSelfLoopDoesNotScore(t *testing.T) {
	t.Parallel()

	for name, crawl := range crawlers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			g := graph.New()
			src := newMapSource(map[string][]string{"a": {"a", "b"}, "b": {"b"}})
			require.NoError(t, crawl(context.Background(), g, "a", src))

			require.True(t, g.HasEdge("a", "a"))
			require.True(t, g.HasEdge("b", "b"))
			require.Equal(t, map[string]int{"a": 0, "b": 1}, scores(g))
		})
	}
}

func TestCrawlDuplicateLinksScoreModes(t *testing.T) {
	t.Parallel()

	links := map[string][]string{"a": {"b", "b", "a", "a"}, "b": {}}
	tests := []struct {
		name string
		mode ScoreMode
		want int
	}{
		{name: "per occurrence", mode: ScorePerOccurrence, want: 2},
		{name: "per edge", mode: ScorePerEdge, want: 1},
	}
	for _, tt := range tests {
		for name, crawl := range crawlers {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				t.Parallel()

				g := graph.New()
				require.NoError(t, crawl(context.Background(), g, "a", newMapSource(links), WithScoreMode(tt.mode)))
				require.Equal(t, tt.want, g.Score("b"))
				require.Equal(t, 0, g.Score("a"))
				require.Equal(t, 2, g.EdgeCount())
			})
		}
	}
}

func TestCrawlGeneratedCorpus(t *testing.T) {
	t.Parallel()

	for _, n := range []int{10, 50} {
		t.Run(fmt.Sprintf("pages=%d", n), func(t *testing.T) {
			t.Parallel()

			links := corpus.Links(n, corpus.DefaultNamer)
			seq := graph.New()
			require.NoError(t, Crawl(context.Background(), seq, "page1.html", newMapSource(links)))
			par := graph.New()
			require.NoError(t, CrawlParallel(context.Background(), par, "page1.html", newMapSource(links), WithWorkers(3)))

			require.Equal(t, n, seq.Len())
			require.Equal(t, scores(seq), scores(par))
			require.Equal(t, edgeSet(seq), edgeSet(par))

			got := scores(seq)
			require.Equal(t, n-1, got["page1.html"])
			for j := 2; j <= n; j++ {
				require.Equal(t, n+1-j, got[corpus.DefaultNamer(j)], "page %d", j)
			}
		})
	}
}

func TestCrawlDeepChainDoesNotOverflow(t *testing.T) {
	t.Parallel()

	const depth = 100000
	links := make(map[string][]string, depth)
	for i := 0; i < depth-1; i++ {
		links[fmt.Sprint(i)] = []string{fmt.Sprint(i + 1), "0"}
	}
	links[fmt.Sprint(depth-1)] = nil

	g := graph.New()
	require.NoError(t, Crawl(context.Background(), g, "0", newMapSource(links)))
	require.Equal(t, depth, g.Len())
	// Every page but the last links back to "0"; the self link from "0" is not counted.
	require.Equal(t, depth-2, g.Score("0"))
	require.Equal(t, 1, g.Score(fmt.Sprint(depth-1)))
}

func TestCrawlMaxPages(t *testing.T) {
	t.Parallel()

	for name, crawl := range crawlers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			links := corpus.Links(10, corpus.DefaultNamer)
			g := graph.New()
			err := crawl(context.Background(), g, "page1.html", newMapSource(links), WithMaxPages(3))
			require.ErrorIs(t, err, ErrPageLimit)
			require.Equal(t, 3, g.Len())
			for _, e := range g.Edges() {
				require.True(t, g.Has(e.From))
				require.True(t, g.Has(e.To))
			}
		})
	}
}

func TestCrawlLookupErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend down")
	for name, crawl := range crawlers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			src := &MockPageSource{}
			src.On("Lookup", mock.Anything, "a").Return([]string{"b"}, nil)
			src.On("Lookup", mock.Anything, "b").Return(nil, boom)

			g := graph.New()
			err := crawl(context.Background(), g, "a", src)
			require.ErrorIs(t, err, boom)
			require.ErrorContains(t, err, "lookup b")
			require.False(t, g.Frozen())
			src.AssertExpectations(t)
		})
	}
}

func TestCrawlHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Crawl(ctx, graph.New(), "page1", newMapSource(scenarioLinks()))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCrawlRejectsFrozenGraph(t *testing.T) {
	t.Parallel()

	g := graph.New()
	g.Freeze()
	err := Crawl(context.Background(), g, "page1", newMapSource(scenarioLinks()))
	require.ErrorIs(t, err, graph.ErrFrozen)
	require.Error(t, Crawl(context.Background(), nil, "page1", newMapSource(nil)))
	require.Error(t, Crawl(context.Background(), graph.New(), "page1", nil))
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (e *recordingEmitter) Emit(evt progress.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, evt)
}

func TestCrawlEmitsProgress(t *testing.T) {
	t.Parallel()

	em := &recordingEmitter{}
	g := graph.New()
	src := newMapSource(map[string][]string{"page1": {"page2", "ghost"}, "page2": {"page1"}})
	require.NoError(t, Crawl(context.Background(), g, "page1", src, WithEmitter(em)))

	stages := make(map[progress.Stage]int)
	for _, evt := range em.events {
		require.NoError(t, evt.Validate())
		stages[evt.Stage]++
	}
	require.Equal(t, map[progress.Stage]int{
		progress.StageCrawlStart:  1,
		progress.StagePageVisited: 2,
		progress.StagePageMissing: 1,
		progress.StageEdgeAdded:   3,
		progress.StageCrawlDone:   1,
	}, stages)
	require.Equal(t, progress.StageCrawlStart, em.events[0].Stage)
	require.Equal(t, progress.StageCrawlDone, em.events[len(em.events)-1].Stage)
}

func TestParseScoreMode(t *testing.T) {
	t.Parallel()

	m, err := ParseScoreMode("")
	require.NoError(t, err)
	require.Equal(t, ScorePerOccurrence, m)
	m, err = ParseScoreMode(" Edge ")
	require.NoError(t, err)
	require.Equal(t, ScorePerEdge, m)
	require.Equal(t, "edge", m.String())
	_, err = ParseScoreMode("pagerank")
	require.Error(t, err)
}
