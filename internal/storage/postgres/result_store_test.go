package postgres

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/linkrank/internal/graph"
	"github.com/JakeFAU/linkrank/internal/render"
	"github.com/JakeFAU/linkrank/internal/storage"
)

func newMockStore(t *testing.T) (*ResultStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewResultStoreWithPool(mock, "")
	require.NoError(t, err)
	return store, mock
}

func TestSaveResultCopiesRowsInTransaction(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	now := time.Unix(1700000000, 0).UTC()
	res := storage.Result{
		CrawlID:   "crawl-1",
		Seed:      "page1.html",
		CreatedAt: now,
		Ranked:    []graph.Node{{ID: "page1.html", Score: 2}, {ID: "page4.html", Score: 1}},
		Edges:     []graph.Edge{{From: "page4.html", To: "page1.html"}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM crawl_results WHERE").
		WithArgs("crawl-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM crawl_results_edges WHERE").
		WithArgs("crawl-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"crawl_results"}, resultColumns).
		WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"crawl_results_edges"}, edgeColumns).
		WillReturnResult(1)
	mock.ExpectCommit()

	require.NoError(t, store.SaveResult(context.Background(), res))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveResultRollsBackOnError(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM crawl_results").
		WithArgs("crawl-1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.SaveResult(context.Background(), storage.Result{CrawlID: "crawl-1"})
	require.ErrorContains(t, err, "clear result crawl-1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetResultReadsRanking(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	now := time.Unix(1700000000, 0).UTC()
	rows := pgxmock.NewRows([]string{"seed", "page_id", "score", "created_at"}).
		AddRow("page1.html", "page1.html", 2, now).
		AddRow("page1.html", "page4.html", 1, now)
	mock.ExpectQuery("SELECT seed, page_id, score, created_at").
		WithArgs("crawl-1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT from_id, to_id").
		WithArgs("crawl-1").
		WillReturnRows(pgxmock.NewRows([]string{"from_id", "to_id"}))

	got, err := store.GetResult(context.Background(), "crawl-1")
	require.NoError(t, err)
	require.Equal(t, storage.Result{
		CrawlID:   "crawl-1",
		Seed:      "page1.html",
		CreatedAt: now,
		Ranked:    []graph.Node{{ID: "page1.html", Score: 2}, {ID: "page4.html", Score: 1}},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSavedEdgesRenderAfterReload(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	now := time.Unix(1700000000, 0).UTC()
	ranked := []graph.Node{
		{ID: "page1", Score: 2}, {ID: "page2", Score: 2}, {ID: "page3", Score: 1}, {ID: "page4", Score: 1},
	}
	edges := []graph.Edge{
		{From: "page2", To: "page1"},
		{From: "page3", To: "page1"},
		{From: "page3", To: "page2"},
		{From: "page3", To: "page4"},
		{From: "page2", To: "page3"},
		{From: "page1", To: "page2"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM crawl_results WHERE").WithArgs("crawl-1").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM crawl_results_edges WHERE").WithArgs("crawl-1").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"crawl_results"}, resultColumns).WillReturnResult(4)
	mock.ExpectCopyFrom(pgx.Identifier{"crawl_results_edges"}, edgeColumns).WillReturnResult(6)
	mock.ExpectCommit()
	require.NoError(t, store.SaveResult(context.Background(), storage.Result{
		CrawlID: "crawl-1", Seed: "page1", CreatedAt: now, Ranked: ranked, Edges: edges,
	}))

	nodeRows := pgxmock.NewRows([]string{"seed", "page_id", "score", "created_at"})
	for _, n := range ranked {
		nodeRows.AddRow("page1", n.ID, n.Score, now)
	}
	edgeRows := pgxmock.NewRows([]string{"from_id", "to_id"})
	for _, e := range edges {
		edgeRows.AddRow(e.From, e.To)
	}
	mock.ExpectQuery("SELECT seed, page_id, score, created_at").WithArgs("crawl-1").WillReturnRows(nodeRows)
	mock.ExpectQuery("SELECT from_id, to_id").WithArgs("crawl-1").WillReturnRows(edgeRows)

	got, err := store.GetResult(context.Background(), "crawl-1")
	require.NoError(t, err)
	require.Equal(t, edges, got.Edges)
	require.NoError(t, mock.ExpectationsWereMet())

	g, err := got.Graph()
	require.NoError(t, err)
	require.Equal(t, 6, g.EdgeCount())
	var buf bytes.Buffer
	require.NoError(t, render.DOT{}.Render(context.Background(), &buf, g, got.IDs()))
	require.Contains(t, buf.String(), `"page3" -> "page4";`)
	require.Contains(t, buf.String(), `"page1" -> "page2";`)
}

func TestGetResultEdgeQueryFails(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT seed").
		WithArgs("crawl-1").
		WillReturnRows(pgxmock.NewRows([]string{"seed", "page_id", "score", "created_at"}).
			AddRow("page1", "page1", 0, time.Now()))
	mock.ExpectQuery("SELECT from_id, to_id").
		WithArgs("crawl-1").
		WillReturnError(errors.New("connection reset"))

	_, err := store.GetResult(context.Background(), "crawl-1")
	require.ErrorContains(t, err, "query edges crawl-1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetResultNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT seed").
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"seed", "page_id", "score", "created_at"}))

	_, err := store.GetResult(context.Background(), "nope")
	require.ErrorIs(t, err, storage.ErrResultNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS crawl_results \(`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS crawl_results_edges").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewResultStoreWithPoolValidates(t *testing.T) {
	t.Parallel()

	_, err := NewResultStoreWithPool(nil, "")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewResultStoreWithPool(mock, "bad; DROP")
	require.ErrorContains(t, err, "invalid table name")
}
