package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkrank/internal/app"
	"github.com/JakeFAU/linkrank/internal/hash/sha256"
	"github.com/JakeFAU/linkrank/internal/render"
	"github.com/JakeFAU/linkrank/internal/storage"
)

const maxBodyBytes = 1 << 20

type submitRequest struct {
	app.Request
	Format string `json:"format"`
}

type submitResponse struct {
	CrawlID   string         `json:"crawl_id"`
	Result    storage.Result `json:"result"`
	Rendering string         `json:"rendering,omitempty"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) submitCrawl(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Format != "" {
		if _, err := render.New(req.Format); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	res, err := s.pipeline.Crawl(r.Context(), req.Request)
	if err != nil {
		s.fail(w, "crawl failed", err)
		return
	}
	resp := submitResponse{CrawlID: res.CrawlID, Result: res}
	if req.Format != "" {
		var buf bytes.Buffer
		if _, err := s.pipeline.Render(r.Context(), &buf, res, req.Format); err != nil {
			s.fail(w, "render failed", err)
			return
		}
		resp.Rendering = buf.String()
	}
	w.Header().Set("Location", "/v1/crawls/"+res.CrawlID)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) getCrawl(w http.ResponseWriter, r *http.Request) {
	res, err := s.pipeline.Result(r.Context(), chi.URLParam(r, "crawl_id"))
	if err != nil {
		s.fail(w, "get crawl failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) renderCrawl(w http.ResponseWriter, r *http.Request) {
	res, err := s.pipeline.Result(r.Context(), chi.URLParam(r, "crawl_id"))
	if err != nil {
		s.fail(w, "get crawl failed", err)
		return
	}
	var buf bytes.Buffer
	contentType, err := s.pipeline.Render(r.Context(), &buf, res, strings.TrimSpace(r.URL.Query().Get("format")))
	if err != nil {
		s.fail(w, "render failed", err)
		return
	}
	etag := sha256.ETag(buf.Bytes())
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("write rendering", zap.Error(err))
	}
}

// fail maps err to a status code and writes it. Server errors are logged.
func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrInvalidRequest), errors.Is(err, render.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
