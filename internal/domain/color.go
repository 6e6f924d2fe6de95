package domain

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// MixColors averages the RGB channels of the given hex colours. Unparseable
// colours count as black. An empty list yields black, a single colour is
// returned unchanged.
func MixColors(colors []string) string {
	switch len(colors) {
	case 0:
		return "#000000"
	case 1:
		return colors[0]
	}

	var r, g, b float64
	for _, hex := range colors {
		c, err := colorful.Hex(hex)
		if err != nil {
			continue
		}
		r += math.Round(c.R * 255)
		g += math.Round(c.G * 255)
		b += math.Round(c.B * 255)
	}
	n := float64(len(colors))
	mixed := colorful.Color{
		R: math.Round(r/n) / 255,
		G: math.Round(g/n) / 255,
		B: math.Round(b/n) / 255,
	}
	return mixed.Clamped().Hex()
}
