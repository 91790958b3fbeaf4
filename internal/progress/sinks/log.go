package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/linkrank/internal/progress"
)

// LogSink writes each progress event as a structured debug log line.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("crawl_id", evt.CrawlUUID().String()),
			zap.String("stage", string(evt.Stage)),
		}
		if evt.Page != "" {
			fields = append(fields, zap.String("page", evt.Page))
		}
		if evt.Target != "" {
			fields = append(fields, zap.String("target", evt.Target))
		}
		if evt.Stage == progress.StagePageVisited {
			fields = append(fields, zap.Int("links", evt.Links))
		}
		if evt.Dur > 0 {
			fields = append(fields, zap.Duration("dur", evt.Dur))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		s.logger.Debug("progress event", fields...)
	}
	return nil
}

// Close implements progress.Sink.
func (s *LogSink) Close(context.Context) error {
	return nil
}
