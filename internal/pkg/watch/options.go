package watch

import (
	"log/slog"
	"time"
)

const defaultDebounce = 100 * time.Millisecond

// Option configures a [Watcher].
type Option func(*options)

type options struct {
	debounce time.Duration
	l        *slog.Logger
}

// WithDebounce sets the quiet period after a change before a reload is triggered.
//
// Editors often write a file in several steps: bursts of events within this period
// trigger a single reload. Defaults to 100ms.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d < 0 {
			return
		}

		o.debounce = d
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
		debounce: defaultDebounce,
		l:        slog.Default(),
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
