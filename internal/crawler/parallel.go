package crawler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/linkrank/internal/graph"
)

// CrawlParallel is the concurrent form of Crawl. Each discovered link is
// crawled on its own goroutine and a page joins all of them before recording
// its edges, so the finished node set, edge set and scores match Crawl.
// Discovery order depends on scheduling.
//
// WithWorkers bounds in-flight page source lookups. The first error cancels
// the remaining work.
func CrawlParallel(ctx context.Context, g *graph.Graph, seed string, src PageSource, opts ...Option) error {
	r, err := newRun(g, src, opts)
	if err != nil {
		return err
	}
	sem := make(chan struct{}, r.opts.workers)
	return r.finish(r.visitParallel(ctx, seed, sem))
}

// visitParallel never holds a sem slot while waiting on children.
func (r *run) visitParallel(ctx context.Context, id string, sem chan struct{}) error {
	if !r.register(id) {
		return nil
	}
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("crawl canceled: %w", ctx.Err())
	}
	links, found, err := r.lookup(ctx, id)
	<-sem
	if err != nil || !found {
		return err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, link := range links {
		eg.Go(func() error {
			return r.visitParallel(egCtx, link, sem)
		})
	}
	if err := eg.Wait(); err != nil {
		return err //nolint:wrapcheck // already wrapped by the failing visit
	}
	for _, link := range links {
		r.record(id, link)
	}
	return nil
}
