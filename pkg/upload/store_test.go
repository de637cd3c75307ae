package upload

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestResolveFirstFileByName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "42", "b_spots.txt"), "b")
	writeFile(t, filepath.Join(root, "42", "a_spots.txt"), "a")
	require.NoError(t, os.Mkdir(filepath.Join(root, "42", "0_subdir"), 0755))

	path, err := NewStore(root).Resolve("42")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "42", "a_spots.txt"), path)
}

func TestResolveNoData(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "7"), 0755))
	s := NewStore(root)

	for _, id := range []string{"7", "8"} {
		_, err := s.Resolve(id)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoData))

		var nde *NoDataError
		require.True(t, errors.As(err, &nde))
		assert.Equal(t, id, nde.ID)
		assert.Equal(t, "No data found for id: "+id, err.Error())
	}
}

func TestResolvePathsHaveNoData(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "uploads")
	writeFile(t, filepath.Join(parent, "outside.txt"), "x")
	writeFile(t, filepath.Join(root, "a", "b", "export.txt"), "x")
	s := NewStore(root)

	for _, id := range []string{"", ".", "..", "../uploads", "a/b"} {
		_, err := s.Resolve(id)
		require.Error(t, err, id)
		assert.True(t, errors.Is(err, ErrNoData), id)
		assert.Equal(t, "No data found for id: "+id, err.Error())
	}
}

func TestOpen(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "3", "export.txt"), "dose")

	rc, err := NewStore(root).Open("3")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "dose", string(data))

	_, err = NewStore(root).Open("4")
	assert.True(t, errors.Is(err, ErrNoData))
}
