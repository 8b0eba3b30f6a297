package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/dsl"
)

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Index(context.Background(), testIndex, "a", json.RawMessage(`{"x":1}`)))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	ok, err := s2.IndexExists(context.Background(), testIndex)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Index(context.Background(), testIndex, "a", json.RawMessage(`{"x":1}`)))
	n, err := s.Count(context.Background(), &backend.CountRequest{Index: testIndex})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIndex_ReindexKeepsInsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	indexRaw(t, s, `{"v":1}`, `{"v":2}`, `{"v":3}`)
	require.NoError(t, s.Index(ctx, testIndex, "doc-1", json.RawMessage(`{"v":10}`)))

	resp, err := s.Search(ctx, &backend.SearchRequest{Index: testIndex})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 3)
	assert.Equal(t, "doc-1", resp.Hits[0].ID)
	assert.JSONEq(t, `{"v":10}`, string(resp.Hits[0].Source))
	assert.Equal(t, "doc-3", resp.Hits[2].ID)
	assert.Equal(t, testIndex, resp.Hits[0].Index)
}

func TestIndex_GeneratesMissingID(t *testing.T) {
	s := createTestStore(t)

	require.NoError(t, s.Index(context.Background(), testIndex, "", json.RawMessage(`{"v":1}`)))
	resp, err := s.Search(context.Background(), &backend.SearchRequest{Index: testIndex})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	assert.Len(t, resp.Hits[0].ID, 36)
}

func TestIndex_RejectsNonObjects(t *testing.T) {
	s := createTestStore(t)

	for _, doc := range []string{``, `[1,2]`, `"x"`, `{"broken":`} {
		err := s.Index(context.Background(), testIndex, "a", json.RawMessage(doc))
		assert.Error(t, err, "doc %q", doc)
	}
}

func TestDeleteIndex(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	indexRaw(t, s, `{"v":1}`)

	require.NoError(t, s.DeleteIndex(ctx, testIndex))

	ok, err := s.IndexExists(ctx, testIndex)
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.DeleteIndex(ctx, testIndex)
	assert.ErrorIs(t, err, backend.ErrIndexNotFound)

	_, err = s.Search(ctx, &backend.SearchRequest{Index: testIndex})
	assert.ErrorIs(t, err, backend.ErrIndexNotFound)
}

func TestRefresh_MissingIndex(t *testing.T) {
	s := createTestStore(t)
	assert.ErrorIs(t, s.Refresh(context.Background(), "nope"), backend.ErrIndexNotFound)

	require.NoError(t, s.CreateIndex(context.Background(), "nope"))
	assert.NoError(t, s.Refresh(context.Background(), "nope"))
}

func TestSearch_ResultWindow(t *testing.T) {
	s := createTestStore(t, WithMaxResultWindow(10))
	indexRaw(t, s, `{"v":1}`)

	from, size := 5, 6
	_, err := s.Search(context.Background(), &backend.SearchRequest{Index: testIndex, From: &from, Size: &size})
	require.Error(t, err)

	var werr *ResultWindowError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, 10, werr.Max)
}

func TestSearch_DefaultSizeIsTen(t *testing.T) {
	s := createTestStore(t)
	docs := make([]string, 12)
	for i := range docs {
		docs[i] = `{"v":1}`
	}
	indexRaw(t, s, docs...)

	resp, err := s.Search(context.Background(), &backend.SearchRequest{Index: testIndex})
	require.NoError(t, err)
	assert.Len(t, resp.Hits, 10)
	assert.Equal(t, int64(12), resp.Total)
}

func TestSearch_UnsupportedAggregation(t *testing.T) {
	s := createTestStore(t)
	indexRaw(t, s, `{"v":1}`)

	_, err := s.Search(context.Background(), &backend.SearchRequest{
		Index:        testIndex,
		Aggregations: map[string]dsl.Aggregation{"top": dsl.TopHitsAggregation{Size: 1}},
	})
	var uerr *UnsupportedQueryError
	assert.True(t, errors.As(err, &uerr))
}
