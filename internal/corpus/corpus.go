// Package corpus generates the synthetic "internet" used for demos and tests:
// page i links to every earlier page and to page i+1, except the last page,
// which has no forward link.
package corpus

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"path"
)

// MaxPages is the largest corpus the generator accepts from untrusted input.
// Link count grows as n²/2, so 1000 pages is about half a million links.
const MaxPages = 1000

// Namer maps a 1-based page number to its identifier.
type Namer func(i int) string

// DefaultNamer names pages page1.html, page2.html and so on.
func DefaultNamer(i int) string {
	return fmt.Sprintf("page%d.html", i)
}

// BareNamer names pages page1, page2 and so on.
func BareNamer(i int) string {
	return fmt.Sprintf("page%d", i)
}

// Numbers returns the link targets of page i in an n-page corpus.
func Numbers(i, n int) []int {
	if i < 1 || i > n {
		return nil
	}
	out := make([]int, 0, i)
	for j := 1; j < i; j++ {
		out = append(out, j)
	}
	if i != n {
		out = append(out, i+1)
	}
	return out
}

// Links builds the link map of an n-page corpus.
func Links(n int, name Namer) map[string][]string {
	if name == nil {
		name = DefaultNamer
	}
	links := make(map[string][]string, n)
	for i := 1; i <= n; i++ {
		targets := Numbers(i, n)
		ids := make([]string, len(targets))
		for k, j := range targets {
			ids[k] = name(j)
		}
		links[name(i)] = ids
	}
	return links
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<ul>
{{- range .Links}}
  <li><a href="{{.}}">{{.}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))

type pageData struct {
	Title string
	Links []string
}

// RenderPage writes page i of an n-page corpus as HTML.
func RenderPage(w io.Writer, i, n int, name Namer) error {
	if name == nil {
		name = DefaultNamer
	}
	targets := Numbers(i, n)
	data := pageData{Title: fmt.Sprintf("Page%d", i), Links: make([]string, len(targets))}
	for k, j := range targets {
		data.Links[k] = name(j)
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render page %d: %w", i, err)
	}
	return nil
}

// Pages renders every page of an n-page corpus, keyed by identifier.
func Pages(n int, name Namer) (map[string]string, error) {
	if name == nil {
		name = DefaultNamer
	}
	pages := make(map[string]string, n)
	for i := 1; i <= n; i++ {
		var buf bytes.Buffer
		if err := RenderPage(&buf, i, n, name); err != nil {
			return nil, err
		}
		pages[name(i)] = buf.String()
	}
	return pages, nil
}

// BlobWriter stores one artifact; storage BlobStores satisfy it.
type BlobWriter interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Write renders the corpus and stores each page under prefix. It returns the
// URIs in page order.
func Write(ctx context.Context, store BlobWriter, prefix string, n int, name Namer) ([]string, error) {
	if name == nil {
		name = DefaultNamer
	}
	uris := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		var buf bytes.Buffer
		if err := RenderPage(&buf, i, n, name); err != nil {
			return nil, err
		}
		uri, err := store.PutObject(ctx, path.Join(prefix, name(i)), "text/html; charset=utf-8", &buf)
		if err != nil {
			return nil, fmt.Errorf("store page %d: %w", i, err)
		}
		uris = append(uris, uri)
	}
	return uris, nil
}
