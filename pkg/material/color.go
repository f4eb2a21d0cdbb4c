package material

import (
	"fmt"
	"image/color"
	"math/rand"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Display colors.
const (
	ColorAdded        = "#00ff00"
	ColorRemoved      = "#ff0000"
	ColorIntersection = "#0000ff"
	ColorDefault      = "#999999"
	ColorBackground   = "#a9b5bf"
	ColorGrid         = "#111111"
	ColorLight        = "#ffffff"
	ColorBoundingBox  = "#ffff00"
)

// White is the default material color.
var White = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// ParseColor parses "#rgb", "#rrggbb", "0xrrggbb" or a CSS color name.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	var hex string
	switch {
	case strings.HasPrefix(s, "#"):
		hex = s[1:]
	case strings.HasPrefix(s, "0x"):
		hex = s[2:]
	default:
		if c, ok := colornames.Map[s]; ok {
			return c, nil
		}
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return FromUint(uint32(v)), nil
}

// ParseColorValue accepts a color string or a packed 0xRRGGBB number, as
// found in decoded YAML or JSON.
func ParseColorValue(v any) (color.RGBA, error) {
	switch c := v.(type) {
	case string:
		return ParseColor(c)
	case int:
		return fromNumber(int64(c))
	case int64:
		return fromNumber(c)
	case uint64:
		return fromNumber(int64(c))
	case float64:
		return fromNumber(int64(c))
	case color.RGBA:
		return c, nil
	default:
		return color.RGBA{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidColor, v)
	}
}

func fromNumber(n int64) (color.RGBA, error) {
	if n < 0 || n > 0xffffff {
		return color.RGBA{}, fmt.Errorf("%w: 0x%x out of range", ErrInvalidColor, n)
	}
	return FromUint(uint32(n)), nil
}

// FromUint unpacks 0xRRGGBB.
func FromUint(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// Hex formats a color as "#rrggbb".
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RandomColor returns a random "#rrggbb" color.
func RandomColor(rng *rand.Rand) string {
	return fmt.Sprintf("#%06x", rng.Intn(0xffffff+1))
}

// DisplaySettings returns the settings used to show objectCount plain meshes
// side by side: a random semi-transparent color each when there is more than
// one, the neutral default color otherwise.
func DisplaySettings(s Settings, objectCount int, rng *rand.Rand) Settings {
	if objectCount > 1 {
		return s.WithOverrides(RandomColor(rng), 0.5)
	}
	return s.WithOverrides(ColorDefault, 1)
}
