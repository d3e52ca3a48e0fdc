package watermark

import "fmt"

// Position names one of the nine watermark anchor points, compass-style
// plus center.
type Position string

const (
	NorthWest Position = "nw"
	North     Position = "north"
	NorthEast Position = "ne"
	West      Position = "west"
	Center    Position = "center"
	East      Position = "east"
	SouthWest Position = "sw"
	South     Position = "south"
	SouthEast Position = "se"
)

var alignments = map[Position][2]float64{
	NorthWest: {0, 0},
	North:     {0.5, 0},
	NorthEast: {1, 0},
	West:      {0, 0.5},
	Center:    {0.5, 0.5},
	East:      {1, 0.5},
	SouthWest: {0, 1},
	South:     {0.5, 1},
	SouthEast: {1, 1},
}

// ParsePosition validates a user-supplied position name.
func ParsePosition(s string) (Position, error) {
	p := Position(s)
	if _, ok := alignments[p]; !ok {
		return "", fmt.Errorf("invalid watermark position %q: valid values are nw, north, ne, west, center, east, sw, south, se", s)
	}
	return p, nil
}

// factors returns the normalized horizontal and vertical alignment of the
// anchor, each in {0, 0.5, 1}.
func (p Position) factors() (float64, float64) {
	a := alignments[p]
	return a[0], a[1]
}
