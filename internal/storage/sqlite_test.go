package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Store(ctx, "analyses/2024-06-01/rust.json", []byte(`{"topic":"rust"}`)))

	data, err := s.Retrieve(ctx, "analyses/2024-06-01/rust.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"topic":"rust"}`, string(data))
}

func TestSQLiteStorage_StoreOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Store(ctx, "report.json", []byte("v1")))
	require.NoError(t, s.Store(ctx, "report.json", []byte("v2")))

	data, err := s.Retrieve(ctx, "report.json")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestSQLiteStorage_List(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, name := range []string{"analyses/2024-06-02/b.json", "analyses/2024-06-01/a.json", "reports/weekly.json"} {
		require.NoError(t, s.Store(ctx, name, []byte("{}")))
	}

	names, err := s.List(ctx, "analyses/")
	require.NoError(t, err)
	assert.Equal(t, []string{"analyses/2024-06-01/a.json", "analyses/2024-06-02/b.json"}, names)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteStorage_DeleteAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Store(ctx, "gone.json", []byte("{}")))
	require.NoError(t, s.Delete(ctx, "gone.json"))

	_, err := s.Retrieve(ctx, "gone.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStorage_Pragmas(t *testing.T) {
	s := newTestStore(t)

	var mode string
	require.NoError(t, s.db.Get(&mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, s.db.Get(&timeout, "PRAGMA busy_timeout"))
	assert.Equal(t, 5000, timeout)
}
