// Package scale maps data-space values to screen space: coordinate projections and colors.
package scale

import (
	"math"

	"github.com/aclements/go-moremath/scale"
	"github.com/fredbi/hexbinviz/internal/pkg/model"
	"github.com/golang/geo/r2"
)

const niceTicks = 10

// Projection is a monotonic linear mapping from a data coordinate to a pixel coordinate.
type Projection struct {
	domain   scale.Linear
	r0, r1   float64
	identity bool
}

// Identity returns a projection that leaves coordinates untouched.
func Identity() Projection {
	return Projection{identity: true}
}

// NewLinear builds a projection from the data extent [lo, hi] to the pixel range [r0, r1].
//
// The domain is expanded to "nice" round values. A degenerate domain (lo == hi) maps
// every value to r0.
func NewLinear(lo, hi, r0, r1 float64) Projection {
	if lo > hi {
		lo, hi = hi, lo
	}
	lo, hi = nice(lo, hi)

	return Projection{
		domain: scale.Linear{Min: lo, Max: hi},
		r0:     r0,
		r1:     r1,
	}
}

// Map projects a data value to a pixel coordinate.
func (p Projection) Map(v float64) float64 {
	if p.identity {
		return v
	}

	if p.domain.Min == p.domain.Max {
		return p.r0
	}

	return p.r0 + p.domain.Map(v)*(p.r1-p.r0)
}

// Invert maps a pixel coordinate back to data space.
func (p Projection) Invert(px float64) float64 {
	if p.identity {
		return px
	}

	if p.r0 == p.r1 {
		return p.domain.Min
	}

	return p.domain.Min + (px-p.r0)/(p.r1-p.r0)*(p.domain.Max-p.domain.Min)
}

// Domain returns the (niced) data extent of the projection.
func (p Projection) Domain() (lo, hi float64) {
	return p.domain.Min, p.domain.Max
}

// Range returns the pixel range of the projection.
func (p Projection) Range() (r0, r1 float64) {
	return p.r0, p.r1
}

// IsIdentity reports whether the projection leaves coordinates untouched.
func (p Projection) IsIdentity() bool {
	return p.identity
}

// Ticks returns at most n round values within the domain, suitable for an axis.
func (p Projection) Ticks(n int) []float64 {
	if p.identity || p.domain.Min == p.domain.Max || n <= 0 {
		return nil
	}

	major, _ := p.domain.Ticks(scale.TickOptions{Max: n})

	return major
}

// Fit builds the x and y projections for a point set and a viewport.
//
// The plot area is the viewport minus margins: x maps onto [0, w - left] with w = width - left,
// and y maps onto [h - bottom, 0] with h = height - bottom, so that larger values are drawn higher.
func Fit(points []model.Point, viewport model.Viewport, margin model.Margin) (x, y Projection) {
	rect := Extent(points)

	w := viewport.Width - margin.Left
	h := viewport.Height - margin.Bottom
	xRange := math.Max(0, w-margin.Left)
	yRange := math.Max(0, h-margin.Bottom)

	x = NewLinear(rect.X.Lo, rect.X.Hi, 0, xRange)
	y = NewLinear(rect.Y.Lo, rect.Y.Hi, yRange, 0)

	return x, y
}

// Extent returns the bounding rectangle of a point set in data space.
//
// An empty point set yields a zero rectangle.
func Extent(points []model.Point) r2.Rect {
	if len(points) == 0 {
		return r2.Rect{}
	}

	pts := make([]r2.Point, 0, len(points))
	for _, p := range points {
		pts = append(pts, r2.Point{X: p.X, Y: p.Y})
	}

	return r2.RectFromPoints(pts...)
}

// nice expands [lo, hi] outward to multiples of a round step of 1, 2 or 5 times a power of ten.
//
// The step is chosen for about niceTicks intervals: the power of ten below span/niceTicks,
// scaled up by 10, 5 or 2 when that leaves too many intervals.
func nice(lo, hi float64) (float64, float64) {
	span := hi - lo
	if !(span > 0) || math.IsInf(span, 0) {
		return lo, hi
	}

	exp := math.Floor(math.Log10(span / niceTicks))
	step := math.Pow(10, exp)

	mult := 1.0
	switch ratio := niceTicks / span * step; {
	case ratio <= .15:
		mult = 10
	case ratio <= .35:
		mult = 5
	case ratio <= .75:
		mult = 2
	}

	if exp >= 0 {
		step *= mult

		return math.Floor(lo/step) * step, math.Ceil(hi/step) * step
	}

	// fractional steps go through the integer inverse: 1.3/0.1 is not 13 in floating point
	inv := math.Pow(10, -exp)

	return math.Floor(lo*inv/mult) * mult / inv, math.Ceil(hi*inv/mult) * mult / inv
}
