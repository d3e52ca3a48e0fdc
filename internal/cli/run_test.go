package cli

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	fatihcolor "github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hzbd/imagekit/internal/batch"
	"github.com/hzbd/imagekit/internal/pipeline"
)

func validOptions(t *testing.T) options {
	t.Helper()
	return options{
		inputDir:  t.TempDir(),
		outputDir: filepath.Join(t.TempDir(), "out"),
		position:  "se",
		fontSize:  24,
		colorHex:  "FFFFFF80",
		quality:   85,
	}
}

func TestOptionsValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validOptions(t).validate())
	})

	t.Run("missing input dir flag", func(t *testing.T) {
		o := validOptions(t)
		o.inputDir = ""
		assert.Error(t, o.validate())
	})

	t.Run("missing output dir flag", func(t *testing.T) {
		o := validOptions(t)
		o.outputDir = ""
		assert.Error(t, o.validate())
	})

	t.Run("nonexistent input dir", func(t *testing.T) {
		o := validOptions(t)
		o.inputDir = filepath.Join(o.inputDir, "missing")
		assert.Error(t, o.validate())
	})

	t.Run("input path is a file", func(t *testing.T) {
		o := validOptions(t)
		f := filepath.Join(o.inputDir, "file.txt")
		require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
		o.inputDir = f
		assert.Error(t, o.validate())
	})

	t.Run("negative width", func(t *testing.T) {
		o := validOptions(t)
		o.width = -1
		assert.Error(t, o.validate())
	})

	t.Run("quality out of range", func(t *testing.T) {
		for _, q := range []int{0, -5, 101} {
			o := validOptions(t)
			o.quality = q
			assert.Error(t, o.validate(), "quality %d", q)
		}
	})

	t.Run("font size checked only with watermark text", func(t *testing.T) {
		o := validOptions(t)
		o.fontSize = 0
		assert.NoError(t, o.validate())
		o.text = "mark"
		assert.Error(t, o.validate())
	})
}

func TestLoadFonts(t *testing.T) {
	t.Run("defaults to embedded face", func(t *testing.T) {
		chain, err := loadFonts(nil)
		require.NoError(t, err)
		assert.Equal(t, 1, chain.Len())
	})

	t.Run("missing file is fatal", func(t *testing.T) {
		_, err := loadFonts([]string{filepath.Join(t.TempDir(), "nope.ttf")})
		assert.Error(t, err)
	})

	t.Run("unparseable font is fatal", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "bad.ttf")
		require.NoError(t, os.WriteFile(p, []byte("not a font"), 0o644))
		_, err := loadFonts([]string{p})
		assert.Error(t, err)
	})
}

func TestPrintSummary(t *testing.T) {
	fatihcolor.NoColor = true
	defer func() { fatihcolor.NoColor = false }()

	var buf bytes.Buffer
	printSummary(&buf, batch.Summary{})
	assert.Contains(t, buf.String(), "No images found")

	buf.Reset()
	printSummary(&buf, batch.Summary{
		Succeeded: 2,
		Failed:    1,
		Failures: []pipeline.Result{
			{Job: pipeline.Job{InputPath: "in/bad.jpg"}, Kind: pipeline.FailureDecode, Err: assert.AnError},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "Processed 2 image(s)")
	assert.Contains(t, out, "Failed 1 image(s)")
	assert.Contains(t, out, "in/bad.jpg")
	assert.Contains(t, out, "DecodeError")
}

func TestRootCommandEndToEnd(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	img := imaging.New(2000, 1000, color.NRGBA{80, 90, 100, 255})
	require.NoError(t, imaging.Save(img, filepath.Join(in, "photo.jpg")))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{
		"-i", in,
		"-o", out,
		"--width", "1000",
		"--watermark-text", "imagekit demo",
	})

	require.NoError(t, rootCmd.Execute())

	saved, err := imaging.Open(filepath.Join(out, "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 1000, saved.Bounds().Dx())
	assert.Equal(t, 500, saved.Bounds().Dy())
	assert.Contains(t, buf.String(), "Processed 1 image(s)")
}
