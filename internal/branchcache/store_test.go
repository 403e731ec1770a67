package branchcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStore_PutThenGetRoundTrips(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snap.db")
	s, err := openBlobStore(path)
	require.NoError(t, err)

	require.NoError(t, s.put("index", []byte(`{"entries":[]}`)))

	value, _, ok, err := s.get("index")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"entries":[]}`, string(value))
}

func TestBlobStore_GetMissingKeyReturnsNotFound(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snap.db")
	s, err := openBlobStore(path)
	require.NoError(t, err)

	value, _, ok, err := s.get("index")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestBlobStore_GetOnNonexistentFileReturnsNotFound(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "snap.db")
	s := &blobStore{path: path}

	value, _, ok, err := s.get("index")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestBlobStore_PutOverwritesExistingValue(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snap.db")
	s, err := openBlobStore(path)
	require.NoError(t, err)

	require.NoError(t, s.put("index", []byte("first")))
	require.NoError(t, s.put("index", []byte("second")))

	value, _, ok, err := s.get("index")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", string(value))
}
