package chart

import (
	"time"

	"github.com/fredbi/hexbinviz/internal/pkg/scale"
)

// Theme constants from go-echarts.
const (
	ThemeRoma = "roma"
)

const (
	defaultWidth  = 800
	defaultHeight = 600
	defaultDot    = 4
)

// Option configures a [Chart].
type Option func(*options)

type options struct {
	Title      string
	Subtitle   string
	XAxisLabel string
	YAxisLabel string
	Theme      string
	Width      float64
	Height     float64
	DotSize    int
	Gradient   scale.ColorScale
	Animation  time.Duration
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(c *options) {
		c.Title = title
	}
}

// WithSubtitle sets the chart subtitle.
func WithSubtitle(subtitle string) Option {
	return func(c *options) {
		c.Subtitle = subtitle
	}
}

// WithTheme sets the color theme.
func WithTheme(theme string) Option {
	return func(c *options) {
		if theme == "" {
			return
		}

		c.Theme = theme
	}
}

// WithAxisLabels sets the names displayed along the X and Y axes.
func WithAxisLabels(xlabel, ylabel string) Option {
	return func(c *options) {
		c.XAxisLabel = xlabel
		c.YAxisLabel = ylabel
	}
}

// WithSize sets the size of the chart canvas, in pixels. Non-positive values are ignored.
func WithSize(width, height float64) Option {
	return func(c *options) {
		if width > 0 {
			c.Width = width
		}

		if height > 0 {
			c.Height = height
		}
	}
}

// WithDotSize sets the symbol size of individual points.
func WithDotSize(size int) Option {
	return func(c *options) {
		if size <= 0 {
			return
		}

		c.DotSize = size
	}
}

// WithGradient sets the color gradient of hexagons.
func WithGradient(gradient scale.ColorScale) Option {
	return func(c *options) {
		c.Gradient = gradient
	}
}

// WithAnimation sets the duration of hexagon animations. Zero disables them.
func WithAnimation(d time.Duration) Option {
	return func(c *options) {
		c.Animation = max(0, d)
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		Theme:   ThemeRoma,
		Width:   defaultWidth,
		Height:  defaultHeight,
		DotSize: defaultDot,
		Gradient: scale.ColorScale{
			From: scale.Neutral,
			To:   scale.Neutral,
		},
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
