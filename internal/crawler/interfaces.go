package crawler

import (
	"context"
	"errors"
)

// ErrPageNotFound is returned by a PageSource for identifiers it does not
// know. The crawler treats such pages as leaves rather than failures.
var ErrPageNotFound = errors.New("page not found")

// ErrPageLimit is returned when WithMaxPages stopped the crawl from
// registering further pages. The graph is still complete up to the limit.
var ErrPageLimit = errors.New("page limit reached")

// PageSource resolves a page identifier to its outbound link identifiers, in
// document order. Unknown pages yield an error wrapping ErrPageNotFound.
type PageSource interface {
	Lookup(ctx context.Context, id string) ([]string, error)
}

// PageSourceFunc adapts a function into a PageSource.
type PageSourceFunc func(ctx context.Context, id string) ([]string, error)

// Lookup implements PageSource.
func (f PageSourceFunc) Lookup(ctx context.Context, id string) ([]string, error) {
	return f(ctx, id)
}
