// Package progress carries crawl progress events from the crawler to
// pluggable sinks. A Hub buffers events on a background goroutine, flushes
// them in batches, and never blocks the crawl that emits them.
package progress
