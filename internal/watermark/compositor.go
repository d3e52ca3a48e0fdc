// Package watermark composites a text watermark onto an image canvas. The
// requested font size is treated as an upper bound: text that would not fit
// inside the canvas margins is shrunk proportionally, and a canvas too small
// to hold any text at all is left untouched. The text is never cropped.
package watermark

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/math/fixed"

	"github.com/hzbd/imagekit/internal/fontchain"
	"github.com/hzbd/imagekit/internal/text"
)

const (
	// DefaultMargin is the fixed inset, in pixels, between the text
	// bounding box and any canvas edge the anchor touches.
	DefaultMargin = 10

	// minFontSize is the floor of the auto-fit shrink loop; below it the
	// watermark is omitted instead of rendered unreadably small.
	minFontSize = 4

	// maxFitIterations bounds the shrink-and-remeasure loop. One ratio
	// step normally lands exactly; the bound guards against faces whose
	// metrics do not scale linearly with size.
	maxFitIterations = 8
)

// Spec describes the watermark to apply. Built once per run and shared
// read-only across all workers.
type Spec struct {
	Text     string
	Position Position
	FontSize int
	Color    color.NRGBA
	Margin   int
}

// Compositor renders a Spec onto canvases. Safe for concurrent use: all
// mutable rasterization state lives in the per-call text.Run.
type Compositor struct {
	spec   Spec
	shaper *text.Shaper
}

// NewCompositor builds a compositor for the given spec over a shared
// fallback chain. A zero spec margin falls back to DefaultMargin.
func NewCompositor(spec Spec, chain *fontchain.Chain) *Compositor {
	if spec.Margin == 0 {
		spec.Margin = DefaultMargin
	}
	return &Compositor{spec: spec, shaper: text.NewShaper(chain)}
}

// Apply alpha-blends the watermark onto canvas in place. It reports whether
// anything was drawn: false means the canvas was too small for the text at
// any usable size and was left unmodified.
func (c *Compositor) Apply(canvas *image.NRGBA) (bool, error) {
	if c.spec.Text == "" {
		return false, nil
	}
	b := canvas.Bounds()
	fitW := b.Dx() - 2*c.spec.Margin
	fitH := b.Dy() - 2*c.spec.Margin
	if fitW <= 0 || fitH <= 0 {
		return false, nil
	}

	run, ok, err := c.fit(fitW, fitH)
	if err != nil || !ok {
		return false, err
	}
	defer run.Close()

	x, y := place(c.spec.Position, b.Dx(), b.Dy(), c.spec.Margin, run.Width(), run.Height())
	c.draw(canvas, run, b.Min.X+x, b.Min.Y+y)
	return true, nil
}

// fit measures the text at the requested size and shrinks it until the
// bounding box fits the region, taking the tighter of the width and height
// ratios each step. Returns ok=false when no usable size fits.
func (c *Compositor) fit(fitW, fitH int) (*text.Run, bool, error) {
	size := float64(c.spec.FontSize)
	for i := 0; i < maxFitIterations && size >= minFontSize; i++ {
		run, err := c.shaper.Shape(c.spec.Text, size)
		if err != nil {
			return nil, false, err
		}
		bw, bh := run.Width(), run.Height()
		if bw <= fitW && bh <= fitH {
			return run, true, nil
		}
		run.Close()

		ratio := math.Min(float64(fitW)/float64(bw), float64(fitH)/float64(bh))
		next := math.Floor(size * ratio)
		if next >= size {
			next = size - 1
		}
		size = next
	}
	return nil, false, nil
}

// place maps the anchor's alignment factors onto canvas coordinates,
// returning the top-left corner of the text bounding box. Each edge the
// anchor touches is inset by margin; e.g. "se" puts the box's bottom-right
// corner at (w-margin, h-margin).
func place(pos Position, w, h, margin, boxW, boxH int) (int, int) {
	ax, ay := pos.factors()
	x := margin + int(math.Round(ax*float64(w-2*margin-boxW)))
	y := margin + int(math.Round(ay*float64(h-2*margin-boxH)))
	return x, y
}

// draw rasterizes each glyph at the fitted size and blends its coverage
// mask over the canvas, left to right. A uniform non-premultiplied source
// under draw.Over gives dst = src*(1-a') + color*a' with
// a' = coverage * alpha/255, independently per channel.
func (c *Compositor) draw(canvas *image.NRGBA, run *text.Run, x, y int) {
	src := image.NewUniform(c.spec.Color)
	baseline := fixed.I(y) + run.Ascent
	for _, g := range run.Glyphs {
		if g.FaceIndex == fontchain.Missing {
			continue
		}
		dot := fixed.Point26_6{X: fixed.I(x) + g.Offset, Y: baseline}
		dr, mask, maskp, _, ok := run.Face(g.FaceIndex).Glyph(dot, g.Rune)
		if !ok {
			continue
		}
		draw.DrawMask(canvas, dr, src, image.Point{}, mask, maskp, draw.Over)
	}
}
