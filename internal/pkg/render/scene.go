// Package render draws hexbin scenes as SVG documents.
//
// A [Scene] is long-lived: it remembers the bins drawn by the previous pass so that
// each new pass can tell entering, updated and exiting bins apart.
package render

import (
	"bytes"
	"cmp"
	"fmt"
	"html"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"time"

	svg "github.com/ajstarks/svgo"
	"github.com/fredbi/hexbinviz/internal/pkg/hexbin"
	"github.com/fredbi/hexbinviz/internal/pkg/model"
	"github.com/fredbi/hexbinviz/internal/pkg/scale"
	"golang.org/x/text/message"
)

// CSS classes and element states of the scene.
const (
	ClassContainer = "svgHexbinContainer"
	ClassMain      = "mainChartGroup"
	ClassHexGroup  = "hexGroup"
	ClassDotGroup  = "dotGroup"
	ClassHexagon   = "hexagon"
	ClassDot       = "dot"
	ClassXAxis     = "xAxis"
	ClassYAxis     = "yAxis"
	ClassAxisLabel = "axisLabel"

	StateEnter  = "enter"
	StateUpdate = "update"
	StateExit   = "exit"
)

const tickSpacing = 80 // pixels between axis ticks

// Saturation selects the bin statistic mapped onto the color scale.
type Saturation func(model.Bin) float64

// BySum colors bins by the sum of their values.
func BySum(bin model.Bin) float64 {
	return bin.Stats.ValueSum
}

// ByCount colors bins by their number of points.
func ByCount(bin model.Bin) float64 {
	return float64(bin.Stats.Count)
}

// Frame is everything needed to draw one pass.
type Frame struct {
	Bins       []model.Bin
	Points     []model.Point
	Outline    hexbin.Outline
	X          scale.Projection
	Y          scale.Projection
	Colors     scale.ColorScale
	Saturation Saturation
	Names      model.Names
	Viewport   model.Viewport
	Margin     model.Margin
	ShowPoints bool
}

// Transition reports which bins entered, stayed or left the scene during a pass.
type Transition struct {
	Entered []model.BinKey
	Updated []model.BinKey
	Exited  []model.BinKey
}

type drawn struct {
	x, y float64
	fill string
}

// Scene renders successive frames, keyed by bin.
type Scene struct {
	options

	previous map[model.BinKey]drawn
	printer  *message.Printer
}

// NewScene builds an empty [Scene].
func NewScene(opts ...Option) *Scene {
	o := optionsWithDefaults(opts)
	o.l = o.l.With(slog.String("module", "render"))

	return &Scene{
		options:  o,
		previous: make(map[model.BinKey]drawn),
		printer:  message.NewPrinter(o.lang),
	}
}

// Clear forgets the bins of the previous pass.
func (s *Scene) Clear() {
	clear(s.previous)
}

// Render writes the SVG document of a frame to w.
//
// A frame without bins clears the scene: nothing but the empty container is drawn and
// no exit animation is played.
func (s *Scene) Render(w io.Writer, f Frame) (Transition, error) {
	var (
		buf bytes.Buffer
		t   Transition
	)

	canvas := svg.New(&buf)
	width, height := pixels(f.Viewport.Width), pixels(f.Viewport.Height)
	canvas.Start(width, height, attr("class", ClassContainer))

	if len(f.Bins) == 0 {
		s.drawEmpty(canvas)
		canvas.End()
		s.Clear()

		if _, err := buf.WriteTo(w); err != nil {
			return t, fmt.Errorf("writing svg scene: %w", err)
		}

		s.l.Info("scene cleared")

		return t, nil
	}

	if s.transition > 0 {
		canvas.Style("text/css", s.stylesheet())
	}

	saturation := f.Saturation
	if saturation == nil {
		saturation = BySum
	}

	current := make(map[model.BinKey]drawn, len(f.Bins))
	path := f.Outline.Path()

	canvas.Group(attr("class", ClassMain))
	canvas.Group(attr("class", ClassHexGroup))

	for _, bin := range f.Bins {
		d := drawn{
			x:    bin.X + f.Margin.Left,
			y:    bin.Y,
			fill: scale.FormatColor(f.Colors.Map(saturation(bin))),
		}
		current[bin.Key] = d

		state := StateUpdate
		if _, ok := s.previous[bin.Key]; ok {
			t.Updated = append(t.Updated, bin.Key)
		} else {
			state = StateEnter
			t.Entered = append(t.Entered, bin.Key)
		}

		canvas.Group(
			attr("class", ClassHexagon+" "+state),
			attr("data-key", bin.Key.String()),
			attr("data-state", state),
			attr("transform", translate(d.x, d.y)),
		)
		canvas.Title(TooltipText(tooltip(s.printer, bin, f.Names)))
		canvas.Path(path, attr("fill", d.fill), attr("stroke", "#fff"), attr("stroke-width", "1px"))
		canvas.Gend()
	}

	t.Exited = s.exited(current)
	if s.transition > 0 {
		for _, key := range t.Exited {
			d := s.previous[key]
			canvas.Group(
				attr("class", ClassHexagon+" "+StateExit),
				attr("data-key", key.String()),
				attr("data-state", StateExit),
				attr("transform", translate(d.x, d.y)),
			)
			canvas.Path(path, attr("fill", d.fill), attr("stroke", "#fff"), attr("stroke-width", "1px"))
			canvas.Gend()
		}
	}

	canvas.Gend() // hexGroup

	canvas.Group(attr("class", ClassDotGroup))
	if f.ShowPoints {
		s.drawPoints(canvas, f)
	}
	canvas.Gend()

	s.drawAxes(canvas, f)

	canvas.Gend() // mainChartGroup
	canvas.End()

	s.previous = current

	if _, err := buf.WriteTo(w); err != nil {
		return t, fmt.Errorf("writing svg scene: %w", err)
	}

	s.l.Info("scene rendered",
		slog.Int("entered", len(t.Entered)),
		slog.Int("updated", len(t.Updated)),
		slog.Int("exited", len(t.Exited)),
	)

	return t, nil
}

func (s *Scene) drawEmpty(canvas *svg.SVG) {
	canvas.Group(attr("class", ClassMain))
	canvas.Group(attr("class", ClassHexGroup))
	canvas.Gend()
	canvas.Group(attr("class", ClassDotGroup))
	canvas.Gend()
	canvas.Gend()
}

func (s *Scene) drawPoints(canvas *svg.SVG, f Frame) {
	for _, p := range f.Points {
		canvas.Circle(
			pixels(f.X.Map(p.X)+f.Margin.Left),
			pixels(f.Y.Map(p.Y)),
			s.dotRadius,
			attr("class", ClassDot),
			attr("data-identity", string(p.Identity)),
		)
	}
}

func (s *Scene) drawAxes(canvas *svg.SVG, f Frame) {
	x0, x1 := f.X.Range()
	y0, y1 := f.Y.Range()
	left := f.Margin.Left

	canvas.Group(attr("class", ClassXAxis), attr("transform", translate(left, y0)))
	canvas.Line(pixels(x0), 0, pixels(x1), 0, "stroke:#888")
	for _, tick := range f.X.Ticks(tickCount(x1 - x0)) {
		at := pixels(f.X.Map(tick))
		canvas.Line(at, 0, at, 6, "stroke:#888")
		canvas.Text(at, 18, s.printer.Sprint(tick), attr("text-anchor", "middle"), attr("fill", "#666"))
	}
	canvas.Text(pixels((x0+x1)/2), 36, f.Names.X, attr("class", ClassAxisLabel), attr("text-anchor", "middle"))
	canvas.Gend()

	canvas.Group(attr("class", ClassYAxis), attr("transform", translate(left, 0)))
	canvas.Line(0, pixels(y0), 0, pixels(y1), "stroke:#888")
	for _, tick := range f.Y.Ticks(tickCount(y0 - y1)) {
		at := pixels(f.Y.Map(tick))
		canvas.Line(-6, at, 0, at, "stroke:#888")
		canvas.Text(-9, at, s.printer.Sprint(tick), attr("text-anchor", "end"), attr("dy", ".3em"), attr("fill", "#666"))
	}
	mid := pixels((y0 + y1) / 2)
	canvas.Text(-pixels(left)+14, mid, f.Names.Y,
		attr("class", ClassAxisLabel),
		attr("text-anchor", "middle"),
		attr("transform", fmt.Sprintf("rotate(-90 %d %d)", -pixels(left)+14, mid)),
	)
	canvas.Gend()
}

// exited lists the bins of the previous pass that are absent from the current one, in grid order.
func (s *Scene) exited(current map[model.BinKey]drawn) []model.BinKey {
	var keys []model.BinKey
	for key := range s.previous {
		if _, ok := current[key]; !ok {
			keys = append(keys, key)
		}
	}

	slices.SortFunc(keys, func(a, b model.BinKey) int {
		return cmp.Or(cmp.Compare(a.J, b.J), cmp.Compare(a.I, b.I))
	})

	return keys
}

func (s *Scene) stylesheet() string {
	d := strconv.FormatFloat(s.transition.Seconds(), 'f', -1, 64) + "s"

	return fmt.Sprintf(`.%[1]s.%[2]s { animation: fadein %[4]s ease-in; }
.%[1]s.%[3]s { animation: fadeout %[4]s ease-out forwards; pointer-events: none; }
@keyframes fadein { from { opacity: 0; } to { opacity: 1; } }
@keyframes fadeout { from { opacity: 1; } to { opacity: 0; } }`,
		ClassHexagon, StateEnter, StateExit, d,
	)
}

// TransitionDuration returns the configured animation duration.
func (s *Scene) TransitionDuration() time.Duration {
	return s.transition
}

func tickCount(extent float64) int {
	return max(2, int(math.Abs(extent)/tickSpacing))
}

func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

func translate(x, y float64) string {
	return "translate(" + coord(x) + "," + coord(y) + ")"
}

func coord(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

func pixels(v float64) int {
	return int(math.Round(v))
}
