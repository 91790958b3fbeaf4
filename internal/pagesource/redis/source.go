// Package redis provides a page source backed by Redis. Each page's links
// are a list at <prefix><id>; a set at <prefix>pages records which pages
// exist, since Redis cannot hold an empty list.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/JakeFAU/linkrank/internal/crawler"
)

// DefaultPrefix namespaces page keys.
const DefaultPrefix = "links:"

// Client is the subset of *redis.Client the source uses.
type Client interface {
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	SIsMember(ctx context.Context, key string, member interface{}) *redis.BoolCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Source looks up page links in Redis.
type Source struct {
	client Client
	prefix string
}

// New wraps client. An empty prefix means DefaultPrefix.
func New(client Client, prefix string) *Source {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Source{client: client, prefix: prefix}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func (s *Source) linksKey(id string) string {
	return s.prefix + id
}

func (s *Source) pagesKey() string {
	return s.prefix + "pages"
}

// Lookup implements crawler.PageSource.
func (s *Source) Lookup(ctx context.Context, id string) ([]string, error) {
	links, err := s.client.LRange(ctx, s.linksKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", id, err)
	}
	if len(links) > 0 {
		return links, nil
	}
	known, err := s.client.SIsMember(ctx, s.pagesKey(), id).Result()
	if err != nil {
		return nil, fmt.Errorf("sismember %s: %w", id, err)
	}
	if !known {
		return nil, fmt.Errorf("page %q: %w", id, crawler.ErrPageNotFound)
	}
	return nil, nil
}

// Seed replaces the stored pages with links.
func (s *Source) Seed(ctx context.Context, links map[string][]string) error {
	for id, targets := range links {
		key := s.linksKey(id)
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("del %s: %w", key, err)
		}
		if len(targets) > 0 {
			values := make([]interface{}, len(targets))
			for i, t := range targets {
				values[i] = t
			}
			if err := s.client.RPush(ctx, key, values...).Err(); err != nil {
				return fmt.Errorf("rpush %s: %w", key, err)
			}
		}
		if err := s.client.SAdd(ctx, s.pagesKey(), id).Err(); err != nil {
			return fmt.Errorf("sadd %s: %w", id, err)
		}
	}
	return nil
}
