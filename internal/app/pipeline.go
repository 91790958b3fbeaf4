package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkrank/internal/config"
	"github.com/JakeFAU/linkrank/internal/corpus"
	"github.com/JakeFAU/linkrank/internal/crawler"
	"github.com/JakeFAU/linkrank/internal/graph"
	"github.com/JakeFAU/linkrank/internal/pagesource/memory"
	"github.com/JakeFAU/linkrank/internal/progress"
	"github.com/JakeFAU/linkrank/internal/ranker"
	"github.com/JakeFAU/linkrank/internal/render"
	"github.com/JakeFAU/linkrank/internal/storage"
)

// MaxCorpusPages is the hard ceiling on Request.Pages. The configured
// crawler.max_corpus_pages may only lower it.
const MaxCorpusPages = corpus.MaxPages

// ErrInvalidRequest marks problems with a Request rather than with the crawl.
var ErrInvalidRequest = errors.New("invalid crawl request")

// IDGenerator mints crawl ids.
type IDGenerator interface {
	NewRawID() (uuid.UUID, error)
}

// Clock supplies timestamps.
type Clock interface {
	Now() time.Time
}

// Request describes one crawl. Zero fields fall back to configuration.
type Request struct {
	Seed      string `json:"seed"`
	Pages     int    `json:"pages"`
	ScoreMode string `json:"score_mode"`
	MaxPages  int    `json:"max_pages"`
}

// Deps are the collaborators of a Pipeline. Emitter and Logger are optional.
type Deps struct {
	Source  crawler.PageSource
	Results storage.ResultStore
	IDs     IDGenerator
	Clock   Clock
	Emitter progress.Emitter
	Logger  *zap.Logger
}

// Pipeline crawls a page source, ranks the graph and stores the result.
type Pipeline struct {
	cfg     config.Config
	source  crawler.PageSource
	results storage.ResultStore
	ids     IDGenerator
	clock   Clock
	emitter progress.Emitter
	logger  *zap.Logger
}

// NewPipeline validates deps and returns a Pipeline.
func NewPipeline(cfg config.Config, deps Deps) (*Pipeline, error) {
	switch {
	case deps.Source == nil:
		return nil, errors.New("page source is required")
	case deps.Results == nil:
		return nil, errors.New("result store is required")
	case deps.IDs == nil:
		return nil, errors.New("id generator is required")
	case deps.Clock == nil:
		return nil, errors.New("clock is required")
	}
	p := &Pipeline{
		cfg:     cfg,
		source:  deps.Source,
		results: deps.Results,
		ids:     deps.IDs,
		clock:   deps.Clock,
		emitter: deps.Emitter,
		logger:  deps.Logger,
	}
	if p.emitter == nil {
		p.emitter = progress.Nop{}
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p, nil
}

// Crawl runs one crawl and saves its ranked result. Setting req.Pages crawls
// a generated corpus of that many pages instead of the configured source.
// A crawl cut short by the page limit is saved with Truncated set.
func (p *Pipeline) Crawl(ctx context.Context, req Request) (storage.Result, error) {
	mode, err := crawler.ParseScoreMode(firstNonEmpty(req.ScoreMode, p.cfg.Crawler.ScoreMode))
	if err != nil {
		return storage.Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if limit := p.corpusLimit(); req.Pages < 0 || req.Pages > limit {
		return storage.Result{}, fmt.Errorf("%w: pages must be between 0 and %d", ErrInvalidRequest, limit)
	}
	if req.MaxPages < 0 {
		return storage.Result{}, fmt.Errorf("%w: max_pages must be >= 0", ErrInvalidRequest)
	}
	seed := firstNonEmpty(req.Seed, p.cfg.Crawler.Seed)
	src := p.source
	if req.Pages > 0 {
		src = memory.New(corpus.Links(req.Pages, corpus.DefaultNamer))
	}
	maxPages := p.cfg.Crawler.MaxPages
	if req.MaxPages > 0 {
		maxPages = req.MaxPages
	}

	crawlID, err := p.ids.NewRawID()
	if err != nil {
		return storage.Result{}, fmt.Errorf("generate crawl id: %w", err)
	}
	if p.cfg.Crawler.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Crawler.Timeout)
		defer cancel()
	}

	crawl := crawler.Crawl
	if p.cfg.Crawler.Parallel {
		crawl = crawler.CrawlParallel
	}
	g := graph.New()
	err = crawl(ctx, g, seed, src,
		crawler.WithLogger(p.logger.Named("crawler")),
		crawler.WithEmitter(p.emitter),
		crawler.WithCrawlID(crawlID),
		crawler.WithScoreMode(mode),
		crawler.WithMaxPages(maxPages),
		crawler.WithWorkers(p.cfg.Crawler.Workers),
		crawler.WithClock(p.clock.Now),
	)
	truncated := errors.Is(err, crawler.ErrPageLimit)
	if err != nil && !truncated {
		return storage.Result{}, fmt.Errorf("crawl %s: %w", seed, err)
	}
	if truncated {
		p.logger.Warn("crawl truncated", zap.String("crawl_id", crawlID.String()), zap.Int("max_pages", maxPages))
	}

	result := storage.Result{
		CrawlID:   crawlID.String(),
		Seed:      seed,
		CreatedAt: p.clock.Now(),
		Ranked:    ranker.RankNodes(g),
		Edges:     g.Edges(),
		Truncated: truncated,
	}
	if err := p.results.SaveResult(ctx, result); err != nil {
		return storage.Result{}, fmt.Errorf("save result: %w", err)
	}
	return result, nil
}

// Result loads a stored crawl result.
func (p *Pipeline) Result(ctx context.Context, crawlID string) (storage.Result, error) {
	res, err := p.results.GetResult(ctx, crawlID)
	if err != nil {
		return storage.Result{}, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}

// Render writes res in format, or the configured format when empty, and
// returns the output's content type.
func (p *Pipeline) Render(ctx context.Context, w io.Writer, res storage.Result, format string) (string, error) {
	r, err := render.New(firstNonEmpty(format, p.cfg.Render.Format))
	if err != nil {
		return "", err
	}
	g, err := res.Graph()
	if err != nil {
		return "", err
	}
	if err := r.Render(ctx, w, g, res.IDs()); err != nil {
		return "", err
	}
	return r.ContentType(), nil
}

// Publish renders res into blobs under name and returns the object URI. An
// empty name means the crawl id plus the format's extension.
func (p *Pipeline) Publish(ctx context.Context, blobs storage.BlobStore, name string, res storage.Result, format string) (string, error) {
	r, err := render.New(firstNonEmpty(format, p.cfg.Render.Format))
	if err != nil {
		return "", err
	}
	g, err := res.Graph()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := r.Render(ctx, &buf, g, res.IDs()); err != nil {
		return "", err
	}
	if name == "" {
		name = res.CrawlID + r.Extension()
	}
	uri, err := blobs.PutObject(ctx, name, r.ContentType(), &buf)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", name, err)
	}
	p.logger.Info("rendering published", zap.String("crawl_id", res.CrawlID), zap.String("uri", uri))
	return uri, nil
}

func (p *Pipeline) corpusLimit() int {
	if n := p.cfg.Crawler.MaxCorpusPages; n > 0 && n < MaxCorpusPages {
		return n
	}
	return MaxCorpusPages
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
