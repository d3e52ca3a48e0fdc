// Package fontchain owns the parsed font resources and implements the
// priority-ordered fallback lookup used to render mixed-script watermark
// text: for every code point the first face in the chain that carries a
// glyph for it wins.
package fontchain

import (
	"errors"
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Face is one immutable parsed font. Sized font.Face values derived from it
// are per-worker; the Face itself is shared read-only.
type Face struct {
	font  *sfnt.Font
	label string
}

// Label returns the identifier the face was loaded under (file path, or
// "goregular" for the embedded default).
func (f *Face) Label() string { return f.label }

// Contains reports whether the face has a real glyph for r. The .notdef
// glyph at index zero does not count.
func (f *Face) Contains(r rune) bool {
	idx, err := f.font.GlyphIndex(nil, r)
	return err == nil && idx != 0
}

// NewSized builds a rasterizable face at the given pixel size. The returned
// font.Face buffers glyph data internally and must not be shared between
// goroutines; callers create their own per image.
func (f *Face) NewSized(size float64) (font.Face, error) {
	return opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Chain is a priority-ordered sequence of faces. It is built once at startup
// and never mutated afterwards, so concurrent lookups from the worker pool
// need no locking.
type Chain struct {
	faces []*Face
}

// Missing marks a code point no face in the chain can render.
const Missing = -1

// Load parses each font byte buffer in priority order. Any buffer that fails
// to parse fails the whole load; a watermark run with a broken font chain is
// aborted rather than silently degraded.
func Load(sources [][]byte, labels []string) (*Chain, error) {
	if len(sources) == 0 {
		return nil, errors.New("no font sources given")
	}
	c := &Chain{faces: make([]*Face, 0, len(sources))}
	for i, data := range sources {
		label := fmt.Sprintf("font[%d]", i)
		if i < len(labels) {
			label = labels[i]
		}
		fnt, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", label, err)
		}
		c.faces = append(c.faces, &Face{font: fnt, label: label})
	}
	return c, nil
}

// Default returns a chain holding only the embedded Go Regular face. Used
// when the operator supplies no font files.
func Default() *Chain {
	c, err := Load([][]byte{goregular.TTF}, []string{"goregular"})
	if err != nil {
		// The embedded font is known-good; a parse failure here means a
		// corrupted build.
		panic(err)
	}
	return c
}

// Resolve returns the index of the first face containing a glyph for r, or
// Missing when no face covers it.
func (c *Chain) Resolve(r rune) int {
	for i, f := range c.faces {
		if f.Contains(r) {
			return i
		}
	}
	return Missing
}

// Len returns the number of faces in the chain.
func (c *Chain) Len() int { return len(c.faces) }

// Face returns the face at chain position i.
func (c *Chain) Face(i int) *Face { return c.faces[i] }
