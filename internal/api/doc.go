// Package api hosts the HTTP server for submitting crawls and reading their
// results. Routes:
//   - POST /v1/crawls runs a crawl and stores the ranked result.
//   - GET /v1/crawls/{crawl_id} returns a stored result.
//   - GET /v1/crawls/{crawl_id}/render?format= renders it as text, dot or json.
//   - GET /healthz and /readyz for probes, /metrics for Prometheus.
package api
