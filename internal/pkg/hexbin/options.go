package hexbin

import "log/slog"

// DefaultRadius is the bin radius used when none, or an invalid one, is configured.
const DefaultRadius = 20.0

// Option configures a [Binner].
type Option func(*options)

type options struct {
	radius float64
	l      *slog.Logger
}

// WithRadius sets the bin radius, i.e. the center-to-vertex distance of a hexagon in pixels.
//
// Defaults to 20. Zero, negative, NaN or infinite radii are ignored.
func WithRadius(radius float64) Option {
	return func(o *options) {
		o.radius = radius
	}
}

// WithLogger injects a logger. Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			return
		}

		o.l = l
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		radius: DefaultRadius,
		l:      slog.Default(),
	}

	for _, apply := range opts {
		apply(&o)
	}

	if !validRadius(o.radius) {
		o.l.Warn("invalid bin radius, falling back to default",
			slog.Float64("radius", o.radius),
			slog.Float64("default", DefaultRadius),
		)
		o.radius = DefaultRadius
	}

	return o
}
