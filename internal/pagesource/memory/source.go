// Package memory provides a page source backed by an in-memory link map,
// optionally loaded from a YAML, TOML or JSON file.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/JakeFAU/linkrank/internal/crawler"
)

// Source serves outbound links from a fixed map.
type Source struct {
	links map[string][]string
}

// New copies links into a Source.
func New(links map[string][]string) *Source {
	cp := make(map[string][]string, len(links))
	for id, targets := range links {
		cp[id] = append([]string(nil), targets...)
	}
	return &Source{links: cp}
}

// Lookup implements crawler.PageSource.
func (s *Source) Lookup(_ context.Context, id string) ([]string, error) {
	targets, ok := s.links[id]
	if !ok {
		return nil, fmt.Errorf("page %q: %w", id, crawler.ErrPageNotFound)
	}
	return append([]string(nil), targets...), nil
}

// Len returns the number of known pages.
func (s *Source) Len() int {
	return len(s.links)
}

// LoadFile reads a link map (page id -> list of link ids) from path. The
// decoder is chosen by extension: .yaml/.yml, .toml or .json.
func LoadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read link map: %w", err)
	}
	links := map[string][]string{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &links)
	case ".toml":
		err = toml.Unmarshal(data, &links)
	case ".json":
		err = json.Unmarshal(data, &links)
	default:
		return nil, fmt.Errorf("unsupported link map extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode link map %s: %w", filepath.Base(path), err)
	}
	return New(links), nil
}
