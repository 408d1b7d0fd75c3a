// Package hexbin assigns points to the cells of a regular hexagonal grid and
// computes per-cell statistics.
//
// The grid is pointy-top, addressed with offset coordinates (i, j): j is the row and
// odd rows are shifted right by half a cell.
package hexbin

import (
	"log/slog"
	"math"
	"slices"

	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"
	"github.com/fredbi/hexbinviz/internal/pkg/model"
)

// Projector maps a data coordinate to a screen coordinate.
type Projector interface {
	Map(float64) float64
}

// ProjectorFunc adapts a plain function to a [Projector].
type ProjectorFunc func(float64) float64

// Map calls f(v).
func (f ProjectorFunc) Map(v float64) float64 {
	return f(v)
}

// Binner buckets points into hexagonal bins of a fixed radius.
type Binner struct {
	options

	dx float64
	dy float64
}

// New builds a [Binner]. See [WithRadius].
func New(opts ...Option) *Binner {
	o := optionsWithDefaults(opts)
	o.l = o.l.With(slog.String("module", "hexbin"))

	return &Binner{
		options: o,
		dx:      o.radius * 2 * math.Sin(math.Pi/3),
		dy:      o.radius * 1.5,
	}
}

// Radius returns the bin radius in use.
func (b *Binner) Radius() float64 {
	return b.radius
}

// Spacing returns the horizontal distance between adjacent bin centers and the vertical
// distance between rows.
func (b *Binner) Spacing() (dx, dy float64) {
	return b.dx, b.dy
}

// Bin assigns every point to exactly one bin and computes the statistics of each bin.
//
// Screen coordinates are obtained by projecting each point through sx and sy.
// Bins are returned in the order in which they first receive a point.
func (b *Binner) Bin(points []model.Point, sx, sy Projector) []model.Bin {
	if len(points) == 0 {
		return []model.Bin{}
	}

	index := make(map[model.BinKey]int)
	bins := make([]model.Bin, 0)

	for _, point := range points {
		key := b.Locate(sx.Map(point.X), sy.Map(point.Y))

		pos, ok := index[key]
		if !ok {
			pos = len(bins)
			index[key] = pos
			x, y := b.Center(key)
			bins = append(bins, model.Bin{
				Key: key,
				X:   x,
				Y:   y,
			})
		}

		bins[pos].Members = append(bins[pos].Members, point)
	}

	for i := range bins {
		bins[i].Stats = Summarize(bins[i].Members)
	}

	b.l.Info("points binned",
		slog.Int("points", len(points)),
		slog.Int("bins", len(bins)),
		slog.Float64("radius", b.radius),
	)

	return bins
}

// Locate returns the key of the bin containing the screen position (x, y).
func (b *Binner) Locate(x, y float64) model.BinKey {
	py := y / b.dy
	pj := round(py)
	px := x/b.dx - oddShift(pj)
	pi := round(px)
	py1 := py - pj

	// Near the top or bottom of a row band, the nearest center may lie in the adjacent row.
	if math.Abs(py1)*3 > 1 {
		px1 := px - pi
		pi2 := pi + sign(px < pi)/2
		pj2 := pj + sign(py < pj)
		px2 := px - pi2
		py2 := py - pj2

		if px1*px1+py1*py1 > px2*px2+py2*py2 {
			pi = pi2 + oddSign(pj)/2
			pj = pj2
		}
	}

	return model.BinKey{I: int(pi), J: int(pj)}
}

// Center returns the screen position of the center of a bin.
func (b *Binner) Center(key model.BinKey) (x, y float64) {
	return (float64(key.I) + oddShift(float64(key.J))) * b.dx, float64(key.J) * b.dy
}

// Summarize computes the statistics of a set of bin members.
func Summarize(members []model.Point) model.BinStats {
	if len(members) == 0 {
		return model.BinStats{}
	}

	values := make([]float64, 0, len(members))
	xs := make([]float64, 0, len(members))
	ys := make([]float64, 0, len(members))
	for _, p := range members {
		values = append(values, p.Value)
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
	}

	lo, hi := stats.Bounds(values)

	return model.BinStats{
		Count:       len(members),
		ValueSum:    vec.Sum(values),
		ValueMean:   stats.Mean(values),
		ValueMedian: median(values),
		ValueMin:    lo,
		ValueMax:    hi,
		XMean:       stats.Mean(xs),
		YMean:       stats.Mean(ys),
	}
}

// median of a non-empty sample. The input is left untouched.
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}

	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// round rounds half up, toward +Inf.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}

func isOdd(v float64) bool {
	return int64(v)&1 == 1
}

func oddShift(j float64) float64 {
	if isOdd(j) {
		return 0.5
	}

	return 0
}

func oddSign(j float64) float64 {
	if isOdd(j) {
		return 1
	}

	return -1
}

func sign(negative bool) float64 {
	if negative {
		return -1
	}

	return 1
}

func validRadius(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}
