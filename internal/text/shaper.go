// Package text lays out and measures watermark strings against a font
// fallback chain. Layout is deliberately simple: code points are placed
// left-to-right in input order, one advance slot each, with no bidi
// reordering, ligatures or combining-mark shaping.
package text

import (
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/hzbd/imagekit/internal/fontchain"
)

// Glyph is one laid-out code point within a Run.
type Glyph struct {
	Rune      rune
	FaceIndex int            // chain position, or fontchain.Missing
	Offset    fixed.Int26_6  // pen x relative to the run origin
	Advance   fixed.Int26_6
}

// Run is the measured layout of one string at one size. It owns sized
// font.Face values and is confined to the goroutine that shaped it; a new
// Run is produced whenever the text or size changes.
type Run struct {
	Size    float64
	Glyphs  []Glyph
	Advance fixed.Int26_6
	Ascent  fixed.Int26_6
	Descent fixed.Int26_6

	faces []font.Face
}

// Width returns the bounding-box width in whole pixels: the sum of all
// glyph advances, rounded up.
func (r *Run) Width() int { return r.Advance.Ceil() }

// Height returns the bounding-box height in whole pixels: the largest
// ascent plus the largest descent across the faces the run used.
func (r *Run) Height() int { return (r.Ascent + r.Descent).Ceil() }

// Face returns the sized face for a glyph's FaceIndex.
func (r *Run) Face(i int) font.Face { return r.faces[i] }

// Close releases the sized faces backing the run.
func (r *Run) Close() {
	for _, f := range r.faces {
		if f != nil {
			f.Close()
		}
	}
	r.faces = nil
}

// Shaper produces Runs from a shared read-only fallback chain.
type Shaper struct {
	chain *fontchain.Chain
}

// NewShaper returns a shaper over the given chain.
func NewShaper(chain *fontchain.Chain) *Shaper {
	return &Shaper{chain: chain}
}

// Shape resolves each code point of s through the fallback chain and
// accumulates a horizontal layout at the given pixel size. A code point no
// face covers still occupies one slot: it renders nothing and advances half
// an em, so mixed-script strings keep their length and spacing. The glyph
// count of the result always equals the code-point count of s.
func (sh *Shaper) Shape(s string, size float64) (*Run, error) {
	run := &Run{
		Size:  size,
		faces: make([]font.Face, sh.chain.Len()),
	}
	missingAdvance := fixed.Int26_6(math.Round(size * 32)) // half an em

	var pen fixed.Int26_6
	for _, r := range s {
		g := Glyph{Rune: r, FaceIndex: sh.chain.Resolve(r), Offset: pen}
		if g.FaceIndex == fontchain.Missing {
			g.Advance = missingAdvance
		} else {
			face, err := sh.sizedFace(run, g.FaceIndex)
			if err != nil {
				return nil, err
			}
			adv, ok := face.GlyphAdvance(r)
			if !ok {
				// The chain said the glyph exists; treat a disagreeing
				// rasterizer like a missing glyph.
				g.FaceIndex = fontchain.Missing
				adv = missingAdvance
			}
			g.Advance = adv
		}
		pen += g.Advance
		run.Glyphs = append(run.Glyphs, g)
	}
	run.Advance = pen

	for _, f := range run.faces {
		if f == nil {
			continue
		}
		m := f.Metrics()
		if m.Ascent > run.Ascent {
			run.Ascent = m.Ascent
		}
		if m.Descent > run.Descent {
			run.Descent = m.Descent
		}
	}
	if run.Ascent == 0 && run.Descent == 0 {
		// Every code point was missing; give the placeholder boxes an
		// em-sized line so the run still has a measurable height.
		run.Ascent = fixed.Int26_6(math.Round(size * 64))
	}
	return run, nil
}

func (sh *Shaper) sizedFace(run *Run, i int) (font.Face, error) {
	if run.faces[i] != nil {
		return run.faces[i], nil
	}
	face, err := sh.chain.Face(i).NewSized(run.Size)
	if err != nil {
		return nil, err
	}
	run.faces[i] = face
	return face, nil
}
