package scale

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Neutral is the low end of the bin color gradient.
var Neutral = color.RGBA{R: 244, G: 244, B: 244, A: 255}

// ParseColor parses a CSS color: "rgb(r, g, b)", "#rrggbb", "#rgb" or a CSS color name.
func ParseColor(s string) (color.RGBA, error) {
	in := strings.ToLower(strings.TrimSpace(s))

	switch {
	case in == "":
		return color.RGBA{}, fmt.Errorf("empty color")
	case strings.HasPrefix(in, "rgb(") && strings.HasSuffix(in, ")"):
		return parseRGB(strings.TrimSuffix(strings.TrimPrefix(in, "rgb("), ")"), s)
	case strings.HasPrefix(in, "#"):
		return parseHex(in[1:], s)
	default:
		c, ok := colornames.Map[in]
		if !ok {
			return color.RGBA{}, fmt.Errorf("unknown color name: %q", s)
		}

		return c, nil
	}
}

func parseRGB(in, original string) (color.RGBA, error) {
	parts := strings.Split(in, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("invalid rgb color: %q", original)
	}

	var channels [3]uint8
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 || v > math.MaxUint8 {
			return color.RGBA{}, fmt.Errorf("invalid rgb channel in %q: %q", original, part)
		}
		channels[i] = uint8(v)
	}

	return color.RGBA{R: channels[0], G: channels[1], B: channels[2], A: math.MaxUint8}, nil
}

func parseHex(in, original string) (color.RGBA, error) {
	if len(in) == 3 {
		in = string([]byte{in[0], in[0], in[1], in[1], in[2], in[2]})
	}

	if len(in) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color: %q", original)
	}

	v, err := strconv.ParseUint(in, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color: %q: %w", original, err)
	}

	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: math.MaxUint8}, nil
}

// FormatColor renders a color as "rgb(r, g, b)".
func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// HexColor renders a color as "#rrggbb".
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ColorScale maps a statistic linearly onto a two-color gradient, interpolated in CIELAB.
type ColorScale struct {
	Min  float64
	Max  float64
	From color.RGBA
	To   color.RGBA
}

// NewColorScale builds a gradient from [Neutral] to fill, with a domain fitted to the
// "nice" extent of values.
func NewColorScale(values []float64, fill color.RGBA) ColorScale {
	s := ColorScale{
		From: Neutral,
		To:   fill,
	}

	if len(values) == 0 {
		return s
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = min(lo, v), max(hi, v)
	}
	s.Min, s.Max = nice(lo, hi)

	return s
}

// Map returns the color for v. Values outside of the domain are clamped.
//
// With a degenerate domain, every value maps to the high end of the gradient.
func (s ColorScale) Map(v float64) color.RGBA {
	if s.Max == s.Min {
		return s.To
	}

	t := (v - s.Min) / (s.Max - s.Min)
	switch {
	case t <= 0:
		return s.From
	case t >= 1:
		return s.To
	}

	r, g, b := toColorful(s.From).BlendLab(toColorful(s.To), t).Clamped().RGB255()

	return color.RGBA{R: r, G: g, B: b, A: math.MaxUint8}
}

func toColorful(c color.RGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / math.MaxUint8,
		G: float64(c.G) / math.MaxUint8,
		B: float64(c.B) / math.MaxUint8,
	}
}
