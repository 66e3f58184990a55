package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errpkg "github.com/goeslapse/goesdown/internal/errors"
)

func TestResolver_DerivesDestinationFromLastSegment(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	res, err := r.Resolve("https://cdn.example.com/GOES16/ABI/20243350830_GOES16.jpg")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "20243350830_GOES16.jpg"), res.Task.DestPath)
	assert.False(t, res.AlreadyComplete)
}

func TestResolver_ExistingFileIsAlreadyComplete(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "done.jpg"), []byte("jpegdata"), 0o644))

	r := New(dir)
	res, err := r.Resolve("https://cdn.example.com/images/done.jpg")
	require.NoError(t, err)

	assert.True(t, res.AlreadyComplete)
}

func TestResolver_EmptyExistingFileIsNotComplete(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.jpg"), nil, 0o644))

	r := New(dir)
	res, err := r.Resolve("https://cdn.example.com/images/empty.jpg")
	require.NoError(t, err)

	assert.False(t, res.AlreadyComplete)
}

func TestResolver_CollisionIsAnError(t *testing.T) {
	r := New(t.TempDir())

	_, err := r.Resolve("https://a.example.com/img/frame.jpg")
	require.NoError(t, err)

	_, err = r.Resolve("https://b.example.com/other/frame.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errpkg.ErrDestinationCollision))
}

func TestResolver_NoUsableFileName(t *testing.T) {
	r := New(t.TempDir())

	for _, u := range []string{
		"https://example.com/",
		"https://example.com",
	} {
		_, err := r.Resolve(u)
		if err == nil {
			t.Errorf("expected error for %q, got nil", u)
		}
	}
}
