package batch

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hzbd/imagekit/internal/geometry"
	"github.com/hzbd/imagekit/internal/pipeline"
)

func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := imaging.New(w, h, color.NRGBA{90, 120, 150, 255})
	require.NoError(t, imaging.Save(img, path))
}

func TestRunMirrorsTree(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	writeTestImage(t, filepath.Join(in, "photo.jpg"), 2000, 1000)
	writeTestImage(t, filepath.Join(in, "albums", "summer", "beach.png"), 64, 64)
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("skip me"), 0o644))

	pipe := pipeline.New(geometry.ResizeSpec{Width: 1000}, nil, 85, zerolog.Nop())
	o := New(in, out, 2, pipe, zerolog.Nop())

	results, err := o.Run()
	require.NoError(t, err)
	require.Len(t, results, 2)

	s := Summarize(results)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 0, s.Failed)

	img, err := imaging.Open(filepath.Join(out, "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 1000, img.Bounds().Dx())
	assert.Equal(t, 500, img.Bounds().Dy())

	_, err = os.Stat(filepath.Join(out, "albums", "summer", "beach.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "notes.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunIsolatesCorruptFile(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writeTestImage(t, filepath.Join(in, name), 32, 32)
	}
	require.NoError(t, os.WriteFile(filepath.Join(in, "corrupt.jpg"), []byte("garbage"), 0o644))

	pipe := pipeline.New(geometry.ResizeSpec{}, nil, 85, zerolog.Nop())
	o := New(in, out, 4, pipe, zerolog.Nop())

	results, err := o.Run()
	require.NoError(t, err)
	require.Len(t, results, 4)

	s := Summarize(results)
	assert.Equal(t, 3, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	require.Len(t, s.Failures, 1)
	assert.Equal(t, pipeline.FailureDecode, s.Failures[0].Kind)
	assert.Contains(t, s.Failures[0].Job.InputPath, "corrupt.jpg")

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, "valid file %s should be unaffected", name)
	}
	_, err = os.Stat(filepath.Join(out, "corrupt.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunMissingInputDir(t *testing.T) {
	pipe := pipeline.New(geometry.ResizeSpec{}, nil, 85, zerolog.Nop())
	o := New(filepath.Join(t.TempDir(), "does-not-exist"), t.TempDir(), 1, pipe, zerolog.Nop())

	_, err := o.Run()
	assert.Error(t, err)
}

func TestRunEmptyInputDir(t *testing.T) {
	pipe := pipeline.New(geometry.ResizeSpec{}, nil, 85, zerolog.Nop())
	o := New(t.TempDir(), t.TempDir(), 1, pipe, zerolog.Nop())

	results, err := o.Run()
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestMirrorName(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "b.jpg"), mirrorName(filepath.Join("a", "b.jpg")))
	assert.Equal(t, "pic.png", mirrorName("pic.webp"))
	assert.Equal(t, "pic.png", mirrorName("pic.WEBP"))
}
