package render

import (
	"log/slog"
	"time"

	"golang.org/x/text/language"
)

// Option configures a [Scene].
type Option func(*options)

type options struct {
	transition time.Duration
	dotRadius  int
	lang       language.Tag
	l          *slog.Logger
}

// WithTransition sets the duration of enter and exit animations.
//
// A zero duration disables animations: bins that disappear are dropped immediately.
func WithTransition(d time.Duration) Option {
	return func(o *options) {
		if d < 0 {
			d = 0
		}

		o.transition = d
	}
}

// WithDotRadius sets the radius of the dots drawn for individual points. Defaults to 2.
func WithDotRadius(r int) Option {
	return func(o *options) {
		if r <= 0 {
			return
		}

		o.dotRadius = r
	}
}

// WithLanguage sets the language used to format numbers in tooltips and axis ticks.
func WithLanguage(tag language.Tag) Option {
	return func(o *options) {
		o.lang = tag
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
		dotRadius: 2,
		lang:      language.English,
		l:         slog.Default(),
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
