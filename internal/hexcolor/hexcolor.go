// Package hexcolor parses watermark color specifications of the form
// RRGGBB or RRGGBBAA, with an optional leading '#'.
package hexcolor

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strings"
)

// DefaultAlpha is applied when the spec carries no alpha byte. Watermarks
// default to half transparency.
const DefaultAlpha = 0x80

// Parse converts a hex color string into an NRGBA color. Exactly six hex
// digits yield R, G, B with alpha fixed at DefaultAlpha; exactly eight
// digits carry an explicit alpha byte. Anything else is an error, there is
// no best-effort parse.
func Parse(s string) (color.NRGBA, error) {
	str := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(str) != 6 && len(str) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want 6 or 8 hex digits, got %d", s, len(str))
	}
	raw, err := hex.DecodeString(str)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	c := color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: DefaultAlpha}
	if len(raw) == 4 {
		c.A = raw[3]
	}
	return c, nil
}
