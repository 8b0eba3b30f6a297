package store

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/esquery/internal/planner"
	"github.com/roach88/esquery/internal/testutil"
)

const testIndex = "people"

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(testutil.NewDeterministicClock().Now),
	}
	s, err := Open(path, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedPeople creates a store holding n sample people.
func seedPeople(t *testing.T, n int, opts ...Option) (*Store, []testutil.Person) {
	t.Helper()
	s := createTestStore(t, opts...)
	people := testutil.People(n, testutil.NewClockAt(testutil.Epoch, 24*time.Hour))
	require.NoError(t, testutil.SeedPeople(context.Background(), s, testIndex, people))
	return s, people
}

// indexRaw stores literal JSON documents with ids doc-1, doc-2, ...
func indexRaw(t *testing.T, s *Store, docs ...string) {
	t.Helper()
	for i, d := range docs {
		require.NoError(t, s.Index(context.Background(), testIndex, docID(i), json.RawMessage(d)))
	}
}

func docID(i int) string {
	return "doc-" + strconv.Itoa(i+1)
}

func newPlanner(s *Store, opts ...planner.Option) *planner.Planner {
	base := []planner.Option{planner.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return planner.New(s, testIndex, append(base, opts...)...)
}

func mustDoc(t *testing.T, raw string) document {
	t.Helper()
	d, err := decodeDocument("t", 1, []byte(raw))
	require.NoError(t, err)
	return d
}
