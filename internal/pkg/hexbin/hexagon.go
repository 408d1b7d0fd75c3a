package hexbin

import (
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
)

const sides = 6

// Outline is the shape of a hexagon centered at the origin, expressed as relative moves.
//
// Deltas[0] moves from the origin to the first vertex; each following delta moves from
// the previous vertex to the next one.
type Outline struct {
	Radius float64
	Deltas [sides]r2.Point
}

// Hexagon builds the outline of a regular hexagon of radius r.
//
// Vertices sit at angles 0°, 60°, ..., 300° measured clockwise from the top: the first
// vertex is straight above the center. A non-positive radius falls back to [DefaultRadius].
func Hexagon(r float64) Outline {
	if !validRadius(r) {
		r = DefaultRadius
	}

	o := Outline{Radius: r}
	var x0, y0 float64

	for i := range sides {
		angle := float64(i) * math.Pi / 3
		x1 := math.Sin(angle) * r
		y1 := -math.Cos(angle) * r
		o.Deltas[i] = r2.Point{X: x1 - x0, Y: y1 - y0}
		x0, y0 = x1, y1
	}

	return o
}

// Vertices returns the absolute positions of the six vertices.
func (o Outline) Vertices() []r2.Point {
	vertices := make([]r2.Point, 0, sides)
	var at r2.Point

	for _, d := range o.Deltas {
		at = at.Add(d)
		vertices = append(vertices, at)
	}

	return vertices
}

// Edges returns the six edge vectors of the closed outline, including the closing edge
// from the last vertex back to the first one.
func (o Outline) Edges() []r2.Point {
	edges := make([]r2.Point, 0, sides)
	edges = append(edges, o.Deltas[1:]...)

	vertices := o.Vertices()

	return append(edges, vertices[0].Sub(vertices[sides-1]))
}

// Path renders the outline as relative SVG path data: "m dx,dy l dx,dy ... z".
func (o Outline) Path() string {
	var b strings.Builder

	for i, d := range o.Deltas {
		if i == 0 {
			b.WriteByte('m')
		} else {
			b.WriteByte('l')
		}
		b.WriteString(formatCoord(d.X))
		b.WriteByte(',')
		b.WriteString(formatCoord(d.Y))
	}
	b.WriteByte('z')

	return b.String()
}

// AbsolutePath renders the outline as absolute SVG path data, for renderers that do not
// support relative moves.
func (o Outline) AbsolutePath() string {
	var b strings.Builder

	for i, v := range o.Vertices() {
		if i == 0 {
			b.WriteByte('M')
		} else {
			b.WriteByte('L')
		}
		b.WriteString(formatCoord(v.X))
		b.WriteByte(',')
		b.WriteString(formatCoord(v.Y))
	}
	b.WriteByte('Z')

	return b.String()
}

func formatCoord(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0 // normalizes -0
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}
