package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/storage"
)

func TestDiskSaveUniqueNames(t *testing.T) {
	d := storage.NewDisk(t.TempDir())

	u1, err := d.Save("photo.png", strings.NewReader("one"))
	require.NoError(t, err)
	u2, err := d.Save("photo.png", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, u1, u2)
	assert.True(t, strings.HasPrefix(u1, "/media/products/"))
	assert.True(t, strings.HasSuffix(u1, "_photo.png"))

	b, err := os.ReadFile(filepath.Join(d.Root, "products", filepath.Base(u2)))
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
}

func TestDiskSaveStripsPathsAndRejectsTypes(t *testing.T) {
	d := storage.NewDisk(t.TempDir())

	u, err := d.Save("../../etc/evil name.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotContains(t, u, "..")
	assert.True(t, strings.HasSuffix(u, "_evil_name.jpg"))

	_, err = d.Save("script.sh", strings.NewReader("x"))
	assert.ErrorIs(t, err, storage.ErrUnsupportedType)
}

func TestDiskDelete(t *testing.T) {
	d := storage.NewDisk(t.TempDir())
	u, err := d.Save("photo.png", strings.NewReader("x"))
	require.NoError(t, err)
	file := filepath.Join(d.Root, "products", filepath.Base(u))

	require.NoError(t, d.Delete(u))
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, d.Delete(u), "already gone")
	assert.NoError(t, d.Delete("/media/products/../../secret"))
	assert.NoError(t, d.Delete("https://cdn.example.com/photo.png"))
}
