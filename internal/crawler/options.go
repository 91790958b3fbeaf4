package crawler

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkrank/internal/progress"
)

// ScoreMode selects how repeated links from one page count toward a target.
type ScoreMode int

const (
	// ScorePerOccurrence increments the target once per link occurrence, so a
	// page listing the same target twice contributes two.
	ScorePerOccurrence ScoreMode = iota
	// ScorePerEdge increments the target once per distinct source page.
	ScorePerEdge
)

// String returns the config spelling of the mode.
func (m ScoreMode) String() string {
	switch m {
	case ScorePerEdge:
		return "edge"
	default:
		return "occurrence"
	}
}

// ParseScoreMode parses "occurrence" or "edge". The empty string means
// ScorePerOccurrence.
func ParseScoreMode(s string) (ScoreMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "occurrence":
		return ScorePerOccurrence, nil
	case "edge":
		return ScorePerEdge, nil
	default:
		return 0, fmt.Errorf("unknown score mode %q", s)
	}
}

const defaultWorkers = 4

// Option configures a crawl.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	emitter  progress.Emitter
	crawlID  uuid.UUID
	mode     ScoreMode
	maxPages int
	workers  int
	now      func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		logger:  zap.NewNop(),
		emitter: progress.Nop{},
		workers: defaultWorkers,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.crawlID == uuid.Nil {
		o.crawlID = uuid.New()
	}
	return o
}

// WithLogger sets the logger; pages are logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEmitter sends progress events to e.
func WithEmitter(e progress.Emitter) Option {
	return func(o *options) {
		if e != nil {
			o.emitter = e
		}
	}
}

// WithCrawlID tags progress events with id. A random id is used otherwise.
func WithCrawlID(id uuid.UUID) Option {
	return func(o *options) { o.crawlID = id }
}

// WithScoreMode selects how duplicate links are scored.
func WithScoreMode(m ScoreMode) Option {
	return func(o *options) { o.mode = m }
}

// WithMaxPages bounds the number of registered pages. Zero means no limit.
func WithMaxPages(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPages = n
		}
	}
}

// WithWorkers bounds concurrent page source lookups in CrawlParallel.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
