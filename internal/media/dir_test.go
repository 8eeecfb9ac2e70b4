package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
}

func TestDelete_Idempotent(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(d.Root(), "image_1.jpg")
	writeFile(t, path)

	require.NoError(t, d.Delete(path, true))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, d.Delete(path, true))
	assert.Error(t, d.Delete(path, false))
}

func TestDelete_FileURI(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)

	path := filepath.Join(d.Root(), "audio_1.m4a")
	writeFile(t, path)

	require.NoError(t, d.Delete("file://"+filepath.ToSlash(path), false))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalPath(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("/data/user/image_1.jpg"), LocalPath("file:///data/user/image_1.jpg"))
	assert.Equal(t, "relative/x.jpg", LocalPath("relative/x.jpg"))
}

func TestImport_CopiesUnderFreshName(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "media"))
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "capture.png")
	writeFile(t, src)

	ref, err := d.Import(src, "image", ".jpg")
	require.NoError(t, err)

	assert.Equal(t, d.Root(), filepath.Dir(ref))
	assert.True(t, strings.HasPrefix(filepath.Base(ref), "image_"))
	assert.Equal(t, ".jpg", filepath.Ext(ref))

	assert.FileExists(t, ref)
	assert.FileExists(t, src, "the user's file stays where it was")
	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestImport_KeepsSourceExtension(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "memo.m4a")
	writeFile(t, src)

	ref, err := d.Import(src, "audio", "")
	require.NoError(t, err)
	assert.Equal(t, ".m4a", filepath.Ext(ref))
}

func TestImport_MissingSource(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = d.Import(filepath.Join(t.TempDir(), "nope.jpg"), "image", ".jpg")
	assert.Error(t, err)
}

func TestFiles(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)

	writeFile(t, filepath.Join(d.Root(), "image_a.jpg"))
	writeFile(t, filepath.Join(d.Root(), "audio_b.m4a"))
	writeFile(t, filepath.Join(d.Root(), "old", "image_c.jpg"))

	all, err := d.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(d.Root(), "audio_b.m4a"),
		filepath.Join(d.Root(), "image_a.jpg"),
		filepath.Join(d.Root(), "old", "image_c.jpg"),
	}, all)

	images, err := d.Files("**/image_*", "image_*")
	require.NoError(t, err)
	assert.Len(t, images, 2)

	_, err = d.Files("[")
	assert.Error(t, err)
}
