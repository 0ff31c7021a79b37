package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestStoreLoadLocalFile(t *testing.T) {
	path := writeTempCSV(t, sampleCSV)
	store := NewStore(nil, NewNormalizer(nil), time.Minute, nil)

	table, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, table, 4)
}

func TestStoreServesFromCache(t *testing.T) {
	path := writeTempCSV(t, sampleCSV)
	store := NewStore(nil, nil, time.Minute, nil)

	first, err := store.Load(context.Background(), path)
	require.NoError(t, err)

	// Remove the file: a cache hit must not touch the filesystem.
	require.NoError(t, os.Remove(path))

	second, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
}

func TestStoreRejectsEmptySource(t *testing.T) {
	store := NewStore(nil, nil, time.Minute, nil)
	_, err := store.Load(context.Background(), "")
	assert.Error(t, err)
}

func TestStoreRemoteWithoutFetcher(t *testing.T) {
	store := NewStore(nil, nil, time.Minute, nil)
	_, err := store.Load(context.Background(), "https://example.com/snapshot.csv")
	assert.Error(t, err)
}
