package chart

import (
	"log/slog"

	"github.com/fredbi/hexbinviz/internal/pkg/config"
	"github.com/fredbi/hexbinviz/internal/pkg/visual"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Builder constructs charts from the result of an update cycle.
type Builder struct {
	cfg  *config.Config
	pass *visual.Pass
	l    *slog.Logger
}

// New creates a new chart [Builder], given a [config.Config] and a completed [visual.Pass].
//
// The builder embeds a [slog.Logger] to croak about warnings and issues.
func New(cfg *config.Config, pass *visual.Pass) *Builder {
	return &Builder{
		cfg:  cfg,
		pass: pass,
		l:    slog.Default().With(slog.String("module", "chart")),
	}
}

// BuildPage creates a page with the hexbin chart of the pass.
//
// A missing or empty pass yields a page with an empty chart.
func (b *Builder) BuildPage() *Page {
	page := NewPage(b.cfg.Render.Title, b.cfg.Render.AssetsHost)
	page.AddChart(b.buildChart())

	b.l.Info("added charts", slog.Int("charts", len(page.Charts)))

	return page
}

func (b *Builder) buildChart() *Chart {
	if b.pass == nil {
		b.l.Warn("no update cycle to chart")

		return NewChart(WithTitle(b.cfg.Render.Title), WithTheme(b.cfg.Render.Theme))
	}

	names := b.pass.Dataset.Names
	chart := NewChart(
		WithTitle(b.cfg.Render.Title),
		WithSubtitle(b.subtitle()),
		WithTheme(b.cfg.Render.Theme),
		WithAxisLabels(names.X, names.Y),
		WithSize(b.pass.Viewport.Width, b.pass.Viewport.Height),
		WithGradient(b.pass.Colors),
		WithDotSize(2*b.cfg.Render.DotRadius),
		WithAnimation(b.pass.Animation),
	)

	if len(b.pass.Bins) == 0 {
		b.l.Warn("empty chart", slog.String("title", b.cfg.Render.Title))

		return chart
	}

	chart.AddBins(b.pass.Bins, b.pass.Outline, b.pass.X, b.pass.Y, names, visual.Saturation(b.cfg.Render.ColorBy))
	b.l.Info("added hexagons", slog.Int("bins", len(b.pass.Bins)))

	if b.cfg.Render.ShowPoints {
		chart.AddPoints(b.pass.Dataset.Points)
		b.l.Info("added points", slog.Int("points", len(b.pass.Dataset.Points)))
	}

	return chart
}

func (b *Builder) subtitle() string {
	p := message.NewPrinter(language.English)

	return p.Sprintf("%d points in %d bins, colored by %s", len(b.pass.Dataset.Points), len(b.pass.Bins), b.cfg.Render.ColorBy)
}
