package chart

import (
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/fredbi/hexbinviz/internal/pkg/hexbin"
	"github.com/fredbi/hexbinviz/internal/pkg/model"
	"github.com/fredbi/hexbinviz/internal/pkg/render"
	"github.com/fredbi/hexbinviz/internal/pkg/scale"
	"github.com/go-echarts/go-echarts/v2/charts"
	echartsopts "github.com/go-echarts/go-echarts/v2/opts"
)

const (
	defaultFontSize = 12
	axisNameGap     = 32

	seriesHexagons = "Hexagons"
	seriesPoints   = "Points"

	symbolPathPrefix = "path://"
)

// Chart represents a hexbin scatter chart.
//
// Hexagons are positioned in data space: [Chart.AddBins] maps bin centers back through
// the projections used for binning.
type Chart struct {
	options

	Hexagons []echartsopts.ScatterData
	Points   []echartsopts.ScatterData

	xDomain [2]float64
	yDomain [2]float64
	bounded bool
	hexSize []int
}

// NewChart creates a new chart.
func NewChart(opts ...Option) *Chart {
	return &Chart{
		options: optionsWithDefaults(opts),
	}
}

// AddBins adds one hexagon symbol per bin.
//
// The value of each hexagon is [x, y, saturation], so the visual map colors the third dimension.
// Symbols are sized on the series as [width, height] of the outline: √3·r by 2r.
func (c *Chart) AddBins(bins []model.Bin, outline hexbin.Outline, x, y scale.Projection, names model.Names, saturation render.Saturation) {
	symbol := symbolPathPrefix + outline.AbsolutePath()
	c.hexSize = []int{
		int(math.Round(math.Sqrt(3) * outline.Radius)),
		int(math.Round(2 * outline.Radius)),
	}

	for _, bin := range bins {
		c.Hexagons = append(c.Hexagons, echartsopts.ScatterData{
			Name:   tooltipHTML(render.Tooltip(bin, names)),
			Value:  []float64{x.Invert(bin.X), y.Invert(bin.Y), saturation(bin)},
			Symbol: symbol,
		})
	}

	if x.IsIdentity() || y.IsIdentity() {
		return
	}

	c.xDomain[0], c.xDomain[1] = x.Domain()
	c.yDomain[0], c.yDomain[1] = y.Domain()
	c.bounded = c.xDomain[0] < c.xDomain[1] && c.yDomain[0] < c.yDomain[1]
}

// AddPoints adds the individual points, drawn on top of the hexagons.
func (c *Chart) AddPoints(points []model.Point) {
	for _, p := range points {
		c.Points = append(c.Points, echartsopts.ScatterData{
			Name:       html.EscapeString(p.Category),
			Value:      []float64{p.X, p.Y},
			Symbol:     "circle",
			SymbolSize: c.DotSize,
		})
	}
}

// Build creates the ECharts scatter chart from the accumulated configuration.
func (c *Chart) Build() *charts.Scatter {
	scatter := charts.NewScatter()

	titleOpts := echartsopts.Title{
		Title: c.Title,
	}
	if c.Subtitle != "" {
		titleOpts.Subtitle = c.Subtitle
		titleOpts.SubtitleStyle = &echartsopts.TextStyle{
			FontStyle: "italic",
			FontSize:  defaultFontSize,
		}
	}

	toolboxOpts := echartsopts.Toolbox{
		Left: "right",
		Feature: &echartsopts.ToolBoxFeature{
			SaveAsImage: &echartsopts.ToolBoxFeatureSaveAsImage{
				Title: "Save as image",
			},
		},
	}

	xAxisOpts, yAxisOpts := c.setAxes()

	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(echartsopts.Initialization{
			Theme:  c.Theme,
			Width:  pixels(c.Width),
			Height: pixels(c.Height),
		}),
		charts.WithToolboxOpts(toolboxOpts),
		charts.WithTitleOpts(titleOpts),
		charts.WithLegendOpts(echartsopts.Legend{
			Show: echartsopts.Bool(false),
		}),
		charts.WithXAxisOpts(xAxisOpts),
		charts.WithYAxisOpts(yAxisOpts),
		charts.WithTooltipOpts(echartsopts.Tooltip{
			Show:      echartsopts.Bool(true),
			Trigger:   "item",
			Formatter: echartsopts.FuncOpts("function (params) { return params.name; }"),
		}),
		charts.WithVisualMapOpts(c.visualMap()),
	)

	hexagonOpts := []charts.SeriesOpts{
		charts.WithItemStyleOpts(echartsopts.ItemStyle{
			BorderColor: "#fff",
			BorderWidth: 1,
		}),
		c.animation(),
	}
	if len(c.hexSize) > 0 {
		hexagonOpts = append(hexagonOpts, charts.WithScatterChartOpts(echartsopts.ScatterChart{
			SymbolSize: c.hexSize,
		}))
	}

	scatter.AddSeries(seriesHexagons, c.Hexagons, hexagonOpts...)

	if len(c.Points) > 0 {
		scatter.AddSeries(seriesPoints, c.Points,
			charts.WithItemStyleOpts(echartsopts.ItemStyle{
				Color: "#000",
			}),
		)
	}

	return scatter
}

// visualMap colors by the third dimension, which only hexagons carry.
func (c *Chart) animation() charts.SeriesOpts {
	if c.Animation <= 0 {
		return charts.WithSeriesAnimation(false)
	}

	ms := int(c.Animation.Milliseconds())

	return charts.WithAnimationOpts(echartsopts.Animation{
		Animation:               echartsopts.Bool(true),
		AnimationDuration:       ms,
		AnimationDurationUpdate: ms,
	})
}

func (c *Chart) visualMap() echartsopts.VisualMap {
	return echartsopts.VisualMap{
		Type:       "continuous",
		Calculable: echartsopts.Bool(true),
		Min:        float32(c.Gradient.Min),
		Max:        float32(c.Gradient.Max),
		Dimension:  "2",
		InRange: &echartsopts.VisualMapInRange{
			Color: []string{scale.HexColor(c.Gradient.From), scale.HexColor(c.Gradient.To)},
		},
		Right:  "10",
		Bottom: "10",
	}
}

func (c *Chart) setAxes() (echartsopts.XAxis, echartsopts.YAxis) {
	const (
		valueType    = "value"
		axisPosition = "bottom"
	)

	xAxisOpts := echartsopts.XAxis{
		Name:         c.XAxisLabel,
		Type:         valueType,
		Position:     axisPosition,
		NameLocation: "center",
		NameGap:      axisNameGap,
		SplitLine: &echartsopts.SplitLine{
			Show: echartsopts.Bool(false),
		},
	}

	yAxisOpts := echartsopts.YAxis{
		Name:         c.YAxisLabel,
		Type:         valueType,
		NameLocation: "center",
		NameGap:      axisNameGap * 2,
		SplitLine: &echartsopts.SplitLine{
			Show: echartsopts.Bool(false),
		},
	}

	if c.bounded {
		xAxisOpts.Min, xAxisOpts.Max = c.xDomain[0], c.xDomain[1]
		yAxisOpts.Min, yAxisOpts.Max = c.yDomain[0], c.yDomain[1]
	}

	return xAxisOpts, yAxisOpts
}

func tooltipHTML(items []render.TooltipItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, html.EscapeString(item.DisplayName)+": "+html.EscapeString(item.Value))
	}

	return strings.Join(lines, "<br/>")
}

func pixels(v float64) string {
	return strconv.Itoa(int(math.Round(v))) + "px"
}
