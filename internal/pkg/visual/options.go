package visual

import (
	"log/slog"

	"golang.org/x/text/language"
)

// Option configures a [Visual].
type Option func(*options)

type options struct {
	lang language.Tag
	l    *slog.Logger
}

// WithLanguage sets the language used to format numbers in the rendered scene.
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
		lang: language.English,
		l:    slog.Default(),
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
