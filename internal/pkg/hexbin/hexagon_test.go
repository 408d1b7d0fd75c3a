package hexbin

import (
	"math"
	"testing"

	"github.com/fredbi/hexbinviz/internal/pkg/model"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestHexagon(t *testing.T) {
	o := Hexagon(20)

	assert.InDelta(t, 20, o.Radius, epsilon)
	assert.Equal(t, "m0,-20l17.321,10l0,20l-17.321,10l-17.321,-10l0,-20z", o.Path())
	assert.Equal(t, "M0,-20L17.321,-10L17.321,10L0,20L-17.321,10L-17.321,-10Z", o.AbsolutePath())
}

func TestHexagonClosure(t *testing.T) {
	for _, r := range []float64{1, 7.5, 20, 123.4} {
		o := Hexagon(r)

		edges := o.Edges()
		require.Len(t, edges, sides)

		var sx, sy float64
		for _, e := range edges {
			sx += e.X
			sy += e.Y
			assert.InDelta(t, r, math.Hypot(e.X, e.Y), 1e-9, "every edge of a regular hexagon has the length of its radius")
		}

		assert.InDelta(t, 0, sx, epsilon)
		assert.InDelta(t, 0, sy, epsilon)
	}
}

func TestHexagonVertices(t *testing.T) {
	o := Hexagon(10)
	vertices := o.Vertices()
	require.Len(t, vertices, sides)

	for _, v := range vertices {
		assert.InDelta(t, 10, math.Hypot(v.X, v.Y), epsilon)
	}

	assert.InDelta(t, 0, vertices[0].X, epsilon)
	assert.InDelta(t, -10, vertices[0].Y, epsilon)
}

func TestHexagonInvalidRadius(t *testing.T) {
	for _, r := range []float64{0, -1, math.NaN()} {
		assert.Equal(t, Hexagon(DefaultRadius), Hexagon(r))
	}
}

func TestHexagonMatchesGrid(t *testing.T) {
	// adjacent centers in a row are exactly two apothems apart
	b := New(WithRadius(20))
	x0, _ := b.Center(model.BinKey{I: 0, J: 0})
	x1, _ := b.Center(model.BinKey{I: 1, J: 0})

	vertices := Hexagon(20).Vertices()
	assert.InDelta(t, 2*vertices[1].X, x1-x0, epsilon)
}
