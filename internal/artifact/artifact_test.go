package artifact

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCopyRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/tmp/gateway", 0o755))
	store := NewStore(fs, "/tmp/gateway")

	a, err := store.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), a.Size)

	exists, err := afero.Exists(fs, a.Path)
	require.NoError(t, err)
	assert.True(t, exists)

	var buf bytes.Buffer
	n, err := a.CopyTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, "a,b\n1,2\n", buf.String())

	require.NoError(t, a.Remove())
	exists, err = afero.Exists(fs, a.Path)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, a.Remove(), "second remove is a no-op")
}

func TestWriteUniquePaths(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "/tmp")

	first, err := store.Write([]byte("1"))
	require.NoError(t, err)
	second, err := store.Write([]byte("2"))
	require.NoError(t, err)
	assert.NotEqual(t, first.Path, second.Path)
}

func TestWriteReadOnlyFs(t *testing.T) {
	store := NewStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/tmp")

	_, err := store.Write([]byte("x"))
	assert.Error(t, err)
}

func TestCopyMissingArtifact(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "/tmp")
	a, err := store.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, fs.Remove(a.Path))

	_, err = a.CopyTo(&bytes.Buffer{})
	assert.Error(t, err)
}
