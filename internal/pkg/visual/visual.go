// Package visual runs the update cycle of a hexbin scatterplot instance.
package visual

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fredbi/hexbinviz/internal/pkg/config"
	"github.com/fredbi/hexbinviz/internal/pkg/hexbin"
	"github.com/fredbi/hexbinviz/internal/pkg/model"
	"github.com/fredbi/hexbinviz/internal/pkg/normalizer"
	"github.com/fredbi/hexbinviz/internal/pkg/render"
	"github.com/fredbi/hexbinviz/internal/pkg/scale"
)

// UpdateOptions is what the host delivers on every update.
type UpdateOptions struct {
	Table    *model.Table
	Objects  map[string]any // Objects defaults to the options bag of the configuration
	Viewport model.Viewport // Viewport defaults to the configured viewport
}

// Pass holds the results of one update cycle.
type Pass struct {
	Options    config.Options
	Dataset    model.Dataset
	Bins       []model.Bin
	Outline    hexbin.Outline
	X          scale.Projection
	Y          scale.Projection
	Colors     scale.ColorScale
	Viewport   model.Viewport
	Transition render.Transition
	Animation  time.Duration // Animation is the duration of enter and exit transitions
}

// Visual is one scatterplot instance.
//
// Updates are serialized: a new update waits for the previous one to complete.
type Visual struct {
	options

	mu         sync.Mutex
	cfg        *config.Config
	normalizer *normalizer.Normalizer
	scene      *render.Scene
	current    config.Options
	last       *Pass
}

// New builds a [Visual] from a configuration.
func New(cfg *config.Config, opts ...Option) *Visual {
	o := optionsWithDefaults(opts)
	o.l = o.l.With(slog.String("module", "visual"))

	return &Visual{
		options:    o,
		cfg:        cfg,
		normalizer: normalizer.New(),
		scene: render.NewScene(
			render.WithTransition(cfg.Render.TransitionDuration()),
			render.WithDotRadius(cfg.Render.DotRadius),
			render.WithLanguage(o.lang),
		),
		current: cfg.Options(),
	}
}

// Update runs one update cycle and writes the resulting SVG scene to w.
func (v *Visual) Update(w io.Writer, in UpdateOptions) (*Pass, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	objects := in.Objects
	if objects == nil {
		objects = v.cfg.Objects
	}

	viewport := in.Viewport
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = v.cfg.Render.Viewport
	}

	opts := config.ResolveOptions(objects)
	dataset := v.normalizer.Normalize(in.Table)
	x, y := scale.Fit(dataset.Points, viewport, v.cfg.Render.Margin)

	binner := hexbin.New(hexbin.WithRadius(opts.HexRadius))
	bins := binner.Bin(dataset.Points, x, y)

	saturation := Saturation(v.cfg.Render.ColorBy)
	values := make([]float64, 0, len(bins))
	for _, bin := range bins {
		values = append(values, saturation(bin))
	}

	fill, err := scale.ParseColor(opts.Fill)
	if err != nil {
		// resolved options always hold a valid color
		return nil, fmt.Errorf("resolving fill color: %w", err)
	}

	pass := &Pass{
		Options:   opts,
		Dataset:   dataset,
		Bins:      bins,
		Outline:   hexbin.Hexagon(opts.HexRadius),
		X:         x,
		Y:         y,
		Colors:    scale.NewColorScale(values, fill),
		Viewport:  viewport,
		Animation: v.scene.TransitionDuration(),
	}

	pass.Transition, err = v.scene.Render(w, render.Frame{
		Bins:       pass.Bins,
		Points:     dataset.Points,
		Outline:    pass.Outline,
		X:          x,
		Y:          y,
		Colors:     pass.Colors,
		Saturation: saturation,
		Names:      dataset.Names,
		Viewport:   viewport,
		Margin:     v.cfg.Render.Margin,
		ShowPoints: v.cfg.Render.ShowPoints,
	})
	if err != nil {
		return nil, err
	}

	v.current = opts
	v.last = pass

	v.l.Info("update completed",
		slog.Int("points", len(dataset.Points)),
		slog.Int("bins", len(bins)),
		slog.Float64("width", viewport.Width),
		slog.Float64("height", viewport.Height),
	)

	return pass, nil
}

// Enumerate echoes the current values of a formatting object.
func (v *Visual) Enumerate(objectName string) []config.ObjectInstance {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.current.Enumerate(objectName)
}

// Last returns the most recent pass, or nil before the first update.
func (v *Visual) Last() *Pass {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.last
}

// Destroy drops the state retained across updates.
func (v *Visual) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.scene.Clear()
	v.last = nil
	v.current = v.cfg.Options()
}

// Saturation returns the statistic used to color bins for a color-by setting.
func Saturation(colorBy config.ColorBy) render.Saturation {
	if colorBy == config.ColorByCount {
		return render.ByCount
	}

	return render.BySum
}
