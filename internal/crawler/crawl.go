package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/linkrank/internal/graph"
	"github.com/JakeFAU/linkrank/internal/progress"
)

// Crawl traverses the link structure reachable from seed depth-first and
// records it in g. A page is registered before its links are followed, which
// is what stops cycles; each link target is crawled completely before the
// edge to it is added and its score raised.
//
// The traversal runs on an explicit stack, so corpus depth is bounded by
// memory rather than goroutine stack size. On success g is frozen.
func Crawl(ctx context.Context, g *graph.Graph, seed string, src PageSource, opts ...Option) error {
	r, err := newRun(g, src, opts)
	if err != nil {
		return err
	}
	return r.finish(r.depthFirst(ctx, seed))
}

// frame is one suspended page on the traversal stack. When pending is set the
// crawl of links[next] has been started and its edge is still owed.
type frame struct {
	page    string
	links   []string
	next    int
	pending bool
}

func (r *run) depthFirst(ctx context.Context, seed string) error {
	var stack []*frame
	enter := func(id string) error {
		if !r.register(id) {
			return nil
		}
		links, found, err := r.lookup(ctx, id)
		if err != nil || !found {
			return err
		}
		stack = append(stack, &frame{page: id, links: links})
		return nil
	}

	if err := enter(seed); err != nil {
		return err
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		switch {
		case top.pending:
			r.record(top.page, top.links[top.next])
			top.pending = false
			top.next++
		case top.next == len(top.links):
			stack = stack[:len(stack)-1]
		default:
			top.pending = true
			if err := enter(top.links[top.next]); err != nil {
				return err
			}
		}
	}
	return nil
}

// run holds the state shared by one crawl invocation.
type run struct {
	g       *graph.Graph
	src     PageSource
	opts    options
	logger  *zap.Logger
	started time.Time

	regMu   sync.Mutex
	limited atomic.Bool
}

func newRun(g *graph.Graph, src PageSource, opts []Option) (*run, error) {
	if g == nil {
		return nil, errors.New("graph is required")
	}
	if src == nil {
		return nil, errors.New("page source is required")
	}
	if g.Frozen() {
		return nil, fmt.Errorf("crawl: %w", graph.ErrFrozen)
	}
	o := newOptions(opts)
	r := &run{
		g:      g,
		src:    src,
		opts:   o,
		logger: o.logger.With(zap.String("crawl_id", o.crawlID.String())),
	}
	r.started = o.now()
	r.emit(progress.Event{Stage: progress.StageCrawlStart})
	return r, nil
}

// register inserts id as a node. It reports false if the node already existed
// or the page limit refused it.
func (r *run) register(id string) bool {
	if r.opts.maxPages == 0 {
		return r.g.AddNode(id)
	}
	r.regMu.Lock()
	defer r.regMu.Unlock()
	if r.g.Has(id) {
		return false
	}
	if r.g.Len() >= r.opts.maxPages {
		r.limited.Store(true)
		return false
	}
	return r.g.AddNode(id)
}

// lookup asks the page source for id's links. A missing page is reported as
// found=false with a nil error.
func (r *run) lookup(ctx context.Context, id string) ([]string, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("crawl canceled: %w", err)
	}
	start := r.opts.now()
	links, err := r.src.Lookup(ctx, id)
	dur := r.opts.now().Sub(start)
	switch {
	case errors.Is(err, ErrPageNotFound):
		r.logger.Debug("page missing", zap.String("page", id))
		r.emit(progress.Event{Stage: progress.StagePageMissing, Page: id, Dur: dur})
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("lookup %s: %w", id, err)
	}
	r.logger.Debug("page visited", zap.String("page", id), zap.Int("links", len(links)))
	r.emit(progress.Event{Stage: progress.StagePageVisited, Page: id, Links: len(links), Dur: dur})
	return links, true, nil
}

// record adds the edge from -> to and scores it. Targets refused by the page
// limit are not nodes, so their edges are skipped.
func (r *run) record(from, to string) {
	if !r.g.Has(to) {
		return
	}
	added := r.g.AddEdge(from, to)
	if added {
		r.emit(progress.Event{Stage: progress.StageEdgeAdded, Page: from, Target: to})
	}
	if to == from {
		return
	}
	if added || r.opts.mode == ScorePerOccurrence {
		r.g.Increment(to)
	}
}

func (r *run) finish(err error) error {
	dur := r.opts.now().Sub(r.started)
	if err != nil {
		r.logger.Warn("crawl failed", zap.Error(err), zap.Int("pages", r.g.Len()))
		r.emit(progress.Event{Stage: progress.StageCrawlError, Dur: dur, Note: err.Error()})
		return err
	}
	r.g.Freeze()
	r.logger.Info("crawl finished",
		zap.Int("pages", r.g.Len()),
		zap.Int("edges", r.g.EdgeCount()),
		zap.Duration("dur", dur),
	)
	r.emit(progress.Event{Stage: progress.StageCrawlDone, Dur: dur})
	if r.limited.Load() {
		return fmt.Errorf("crawl stopped at %d pages: %w", r.opts.maxPages, ErrPageLimit)
	}
	return nil
}

func (r *run) emit(evt progress.Event) {
	evt.CrawlID = progress.UUIDToBytes(r.opts.crawlID)
	evt.TS = r.opts.now()
	if evt.Dur < 0 {
		evt.Dur = 0
	}
	r.opts.emitter.Emit(evt)
}
