// Package html provides a page source over HTML documents. A page's links
// are the href values of its anchor tags, in document order.
package html

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/linkrank/internal/crawler"
)

// Source serves links parsed from a fixed set of HTML documents.
type Source struct {
	docs map[string]string
}

// New builds a Source from documents keyed by page identifier.
func New(docs map[string]string) *Source {
	cp := make(map[string]string, len(docs))
	for id, body := range docs {
		cp[id] = body
	}
	return &Source{docs: cp}
}

// NewDirSource loads every *.html file in dir, keyed by file name.
func NewDirSource(dir string) (*Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat html corpus: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("html corpus %s is not a directory", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("glob html corpus: %w", err)
	}
	docs := make(map[string]string, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path) //nolint:gosec // corpus dir comes from operator config
		if err != nil {
			return nil, fmt.Errorf("read page %s: %w", filepath.Base(path), err)
		}
		docs[filepath.Base(path)] = string(data)
	}
	return &Source{docs: docs}, nil
}

// Len returns the number of documents.
func (s *Source) Len() int {
	return len(s.docs)
}

// Lookup implements crawler.PageSource.
func (s *Source) Lookup(_ context.Context, id string) ([]string, error) {
	body, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("page %q: %w", id, crawler.ErrPageNotFound)
	}
	links, err := ExtractLinks(body)
	if err != nil {
		return nil, fmt.Errorf("parse page %q: %w", id, err)
	}
	return links, nil
}

// ExtractLinks returns the non-empty href of every <a> element in order.
func ExtractLinks(body string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href != "" {
			links = append(links, href)
		}
	})
	return links, nil
}
