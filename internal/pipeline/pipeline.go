// Package pipeline processes a single image file end to end: decode,
// resize, watermark, encode, write. Each step can fail independently and a
// failure is captured in the job's Result instead of propagating; a failed
// job never leaves a partial output file behind.
package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	// Decode-only WebP support; imaging routes through image.Decode.
	_ "golang.org/x/image/webp"

	"github.com/hzbd/imagekit/internal/geometry"
	"github.com/hzbd/imagekit/internal/watermark"
)

// FailureKind tags the stage a job failed in.
type FailureKind string

const (
	FailureDecode FailureKind = "DecodeError"
	FailureEncode FailureKind = "EncodeError"
	FailureWrite  FailureKind = "WriteError"
)

// Job is one input-to-output file pair. Jobs are independent of each other;
// no ordering is guaranteed between them.
type Job struct {
	InputPath  string
	OutputPath string
}

// Result is the outcome of one Job: either the written byte count and final
// dimensions, or a tagged failure.
type Result struct {
	Job          Job
	Kind         FailureKind
	Err          error
	BytesWritten int64
	Width        int
	Height       int
}

// OK reports whether the job succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Pipeline holds the shared read-only processing configuration. One
// Pipeline drives all jobs of a run concurrently; all per-image state is
// local to Process.
type Pipeline struct {
	resize  geometry.ResizeSpec
	comp    *watermark.Compositor
	quality int
	log     zerolog.Logger
}

// New builds a pipeline. comp may be nil, which disables the watermark step
// entirely. quality applies to JPEG encoding only.
func New(resize geometry.ResizeSpec, comp *watermark.Compositor, quality int, log zerolog.Logger) *Pipeline {
	return &Pipeline{resize: resize, comp: comp, quality: quality, log: log}
}

// Process runs one job to completion and returns its Result. It never
// panics or aborts the run; all failures are captured in the result.
func (p *Pipeline) Process(job Job) Result {
	log := p.log.With().Str("path", job.InputPath).Logger()
	log.Debug().Msg("processing image")

	img, err := imaging.Open(job.InputPath)
	if err != nil {
		return fail(job, FailureDecode, fmt.Errorf("decode %s: %w", job.InputPath, err))
	}

	bounds := img.Bounds()
	w, h := p.resize.Resolve(bounds.Dx(), bounds.Dy())
	img = applyResize(img, w, h)

	if p.comp != nil {
		canvas := imaging.Clone(img)
		applied, err := p.comp.Apply(canvas)
		if err != nil {
			return fail(job, FailureEncode, fmt.Errorf("render watermark for %s: %w", job.InputPath, err))
		}
		if !applied {
			log.Debug().Msg("watermark skipped: text does not fit inside margins")
		}
		img = canvas
	}

	data, err := p.encode(img, filepath.Ext(job.OutputPath))
	if err != nil {
		return fail(job, FailureEncode, err)
	}

	n, err := atomicWrite(job.OutputPath, data)
	if err != nil {
		return fail(job, FailureWrite, err)
	}

	log.Debug().Str("output", job.OutputPath).Int("width", w).Int("height", h).Msg("saved")
	return Result{Job: job, BytesWritten: n, Width: w, Height: h}
}

func fail(job Job, kind FailureKind, err error) Result {
	return Result{Job: job, Kind: kind, Err: err}
}

// applyResize resamples img to w x h with Lanczos. Matching dimensions pass
// the source buffer through untouched so an identity resize stays
// byte-identical.
func applyResize(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// encode serializes img in the format implied by the output extension.
// JPEG output is flattened onto a white background first since the format
// has no alpha channel.
func (p *Pipeline) encode(img image.Image, ext string) ([]byte, error) {
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, fmt.Errorf("unsupported output format %q: %w", ext, err)
	}
	if format == imaging.JPEG {
		img = flattenToRGB(img, color.NRGBA{255, 255, 255, 255})
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// atomicWrite creates the output directory, writes to a temporary file next
// to the destination and renames it into place, so a write failure leaves
// no partial output.
func atomicWrite(path string, data []byte) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".imagekit-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("finalize %s: %w", path, err)
	}
	return int64(len(data)), nil
}

func flattenToRGB(img image.Image, bg color.NRGBA) image.Image {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, &image.Uniform{C: bg}, image.Point{}, draw.Src)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Over)
	return rgba
}
