package normalizer

import "log/slog"

// Option configures a [Normalizer].
type Option func(*options)

type options struct {
	defaultValue float64
	l            *slog.Logger
}

// WithDefaultValue sets the value given to rows with no usable value cell.
//
// Defaults to 1, so that a bin's value sum counts its points.
func WithDefaultValue(v float64) Option {
	return func(o *options) {
		o.defaultValue = v
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
		defaultValue: 1,
		l:            slog.Default(),
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
