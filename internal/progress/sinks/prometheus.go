package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/linkrank/internal/progress"
)

// PrometheusSink exports crawl progress as Prometheus collectors.
type PrometheusSink struct {
	crawlsStarted   prometheus.Counter
	crawlsCompleted *prometheus.CounterVec
	crawlDuration   *prometheus.HistogramVec
	pagesVisited    prometheus.Counter
	pagesMissing    prometheus.Counter
	edges           prometheus.Counter
	lookupDuration  prometheus.Histogram
}

// NewPrometheusSink registers the collectors against reg, or the default
// registerer when reg is nil.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		crawlsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkrank_crawls_started_total",
			Help: "Total crawls that have started.",
		}),
		crawlsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkrank_crawls_completed_total",
			Help: "Total crawls completed partitioned by result.",
		}, []string{"result"}),
		crawlDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linkrank_crawl_duration_seconds",
			Help:    "Wall time per completed crawl.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"result"}),
		pagesVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkrank_pages_visited_total",
			Help: "Pages registered and looked up in the page source.",
		}),
		pagesMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkrank_pages_missing_total",
			Help: "Pages the page source reported as not found.",
		}),
		edges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkrank_edges_total",
			Help: "Distinct edges recorded.",
		}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkrank_lookup_duration_seconds",
			Help:    "Page source lookup latency.",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.crawlsStarted,
		s.crawlsCompleted,
		s.crawlDuration,
		s.pagesVisited,
		s.pagesMissing,
		s.edges,
		s.lookupDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageCrawlStart:
			s.crawlsStarted.Inc()
		case progress.StageCrawlDone:
			s.complete("success", evt)
		case progress.StageCrawlError:
			s.complete("error", evt)
		case progress.StagePageVisited:
			s.pagesVisited.Inc()
			s.observeLookup(evt)
		case progress.StagePageMissing:
			s.pagesVisited.Inc()
			s.pagesMissing.Inc()
			s.observeLookup(evt)
		case progress.StageEdgeAdded:
			s.edges.Inc()
		}
	}
	return nil
}

func (s *PrometheusSink) complete(result string, evt progress.Event) {
	s.crawlsCompleted.WithLabelValues(result).Inc()
	if evt.Dur > 0 {
		s.crawlDuration.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
}

func (s *PrometheusSink) observeLookup(evt progress.Event) {
	if evt.Dur > 0 {
		s.lookupDuration.Observe(evt.Dur.Seconds())
	}
}

// Close implements progress.Sink.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
