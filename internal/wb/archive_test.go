package wb

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeContainer(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.mwb")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	return path
}

func TestExtractModelDocument(t *testing.T) {
	path := writeContainer(t, map[string]string{
		"@db/data.db":     "binary junk",
		InnerDocumentName: "<data/>",
	})

	data, err := ExtractModelDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "<data/>", string(data))
}

func TestExtractModelDocumentMissingEntry(t *testing.T) {
	path := writeContainer(t, map[string]string{"@db/data.db": "binary junk"})

	_, err := ExtractModelDocument(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInnerDocumentNotFound)
}

func TestExtractModelDocumentNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.mwb")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip archive"), 0o644))

	_, err := ExtractModelDocument(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFileFormat)
}
