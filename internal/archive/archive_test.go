package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutWritesSnapshotAndReturnsURI(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(Config{BaseDir: dir})
	require.NoError(t, err)

	uri, err := store.Put(context.Background(), "statsapi/2024-06-01/717465.json", "application/json", []byte(`{"gamePk":717465}`))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "file://"), "uri = %q", uri)

	data, err := os.ReadFile(filepath.Join(dir, "statsapi", "2024-06-01", "717465.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"gamePk":717465}`, string(data))
}

func TestPutRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	store, err := New(Config{BaseDir: t.TempDir(), MaxBytes: 8})
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "x.json", "application/json", []byte("0123456789"))
	require.Error(t, err)
}

func TestPutRejectsPathTraversal(t *testing.T) {
	t.Parallel()

	store, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape.json", "application/json", []byte("{}"))
	require.Error(t, err)
}
