// Package postgres stores crawl results in Postgres, one row per ranked page
// plus one row per edge in a companion <table>_edges table.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/linkrank/internal/graph"
	"github.com/JakeFAU/linkrank/internal/storage"
)

// DefaultTable is used when Config.Table is empty.
const DefaultTable = "crawl_results"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var (
	resultColumns = []string{"crawl_id", "seed", "position", "page_id", "score", "created_at"}
	edgeColumns   = []string{"crawl_id", "position", "from_id", "to_id"}
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the subset of *pgxpool.Pool the store uses.
type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// ResultStore implements storage.ResultStore.
type ResultStore struct {
	pool       pool
	table      string
	edgesTable string
}

// NewResultStore connects a pool using cfg.
func NewResultStore(ctx context.Context, cfg Config) (*ResultStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewResultStoreWithPool(p, cfg.Table)
	if err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewResultStoreWithPool constructs a store from an existing pool.
func NewResultStoreWithPool(p pool, table string) (*ResultStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ResultStore{pool: p, table: table, edgesTable: table + "_edges"}, nil
}

// Close releases the pool.
func (s *ResultStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the results and edges tables if they do not exist.
func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	crawl_id   TEXT        NOT NULL,
	seed       TEXT        NOT NULL,
	position   INTEGER     NOT NULL,
	page_id    TEXT        NOT NULL,
	score      INTEGER     NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (crawl_id, position)
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	query = fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	crawl_id TEXT    NOT NULL,
	position INTEGER NOT NULL,
	from_id  TEXT    NOT NULL,
	to_id    TEXT    NOT NULL,
	PRIMARY KEY (crawl_id, position)
)`, s.edgesTable)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.edgesTable, err)
	}
	return nil
}

// SaveResult replaces any rows for the crawl and copies in the ranking and
// the edges, in one transaction.
func (s *ResultStore) SaveResult(ctx context.Context, result storage.Result) (err error) {
	if result.CrawlID == "" {
		return fmt.Errorf("crawl id is required")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE crawl_id = $1`, s.table), result.CrawlID); err != nil {
		return fmt.Errorf("clear result %s: %w", result.CrawlID, err)
	}
	if _, err = tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE crawl_id = $1`, s.edgesTable), result.CrawlID); err != nil {
		return fmt.Errorf("clear edges %s: %w", result.CrawlID, err)
	}
	rows := make([][]any, len(result.Ranked))
	for i, n := range result.Ranked {
		rows[i] = []any{result.CrawlID, result.Seed, i + 1, n.ID, n.Score, result.CreatedAt}
	}
	if len(rows) > 0 {
		if _, err = tx.CopyFrom(ctx, pgx.Identifier{s.table}, resultColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy result %s: %w", result.CrawlID, err)
		}
	}
	if len(result.Edges) > 0 {
		edges := make([][]any, len(result.Edges))
		for i, e := range result.Edges {
			edges[i] = []any{result.CrawlID, i + 1, e.From, e.To}
		}
		if _, err = tx.CopyFrom(ctx, pgx.Identifier{s.edgesTable}, edgeColumns, pgx.CopyFromRows(edges)); err != nil {
			return fmt.Errorf("copy edges %s: %w", result.CrawlID, err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit result %s: %w", result.CrawlID, err)
	}
	return nil
}

// GetResult loads the ranking for crawlID ordered by position, then its edges
// in insertion order.
func (s *ResultStore) GetResult(ctx context.Context, crawlID string) (storage.Result, error) {
	query := fmt.Sprintf(`
SELECT seed, page_id, score, created_at
FROM %s
WHERE crawl_id = $1
ORDER BY position`, s.table)
	rows, err := s.pool.Query(ctx, query, crawlID)
	if err != nil {
		return storage.Result{}, fmt.Errorf("query result %s: %w", crawlID, err)
	}
	defer rows.Close()

	result := storage.Result{CrawlID: crawlID}
	for rows.Next() {
		var n graph.Node
		if err := rows.Scan(&result.Seed, &n.ID, &n.Score, &result.CreatedAt); err != nil {
			return storage.Result{}, fmt.Errorf("scan result %s: %w", crawlID, err)
		}
		result.Ranked = append(result.Ranked, n)
	}
	if err := rows.Err(); err != nil {
		return storage.Result{}, fmt.Errorf("read result %s: %w", crawlID, err)
	}
	if len(result.Ranked) == 0 {
		return storage.Result{}, fmt.Errorf("crawl %s: %w", crawlID, storage.ErrResultNotFound)
	}
	edges, err := s.edges(ctx, crawlID)
	if err != nil {
		return storage.Result{}, err
	}
	result.Edges = edges
	return result, nil
}

func (s *ResultStore) edges(ctx context.Context, crawlID string) ([]graph.Edge, error) {
	query := fmt.Sprintf(`
SELECT from_id, to_id
FROM %s
WHERE crawl_id = $1
ORDER BY position`, s.edgesTable)
	rows, err := s.pool.Query(ctx, query, crawlID)
	if err != nil {
		return nil, fmt.Errorf("query edges %s: %w", crawlID, err)
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.From, &e.To); err != nil {
			return nil, fmt.Errorf("scan edges %s: %w", crawlID, err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read edges %s: %w", crawlID, err)
	}
	return edges, nil
}
