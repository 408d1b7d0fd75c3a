package image //nolint:revive // it's okay for an internal package to use this name

import (
	"log/slog"
	"math"
	"time"

	"github.com/fredbi/hexbinviz/internal/pkg/model"
)

// Media types of the documents a [Renderer] can take a screenshot of.
const (
	MediaHTML = "text/html"
	MediaSVG  = "image/svg+xml"
)

// Option to tune image rendering.
type Option func(*options)

type options struct {
	Height        int64
	Width         int64
	SleepDuration time.Duration
	MediaType     string
	l             *slog.Logger
}

const (
	defaultHeight int64 = 600
	defaultWidth  int64 = 800
	defaultWait         = time.Second
)

func optionsWithDefaults(opts []Option) options {
	o := options{
		Height:        defaultHeight,
		Width:         defaultWidth,
		SleepDuration: defaultWait,
		MediaType:     MediaHTML,
		l:             slog.Default(),
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}

// WithViewport sets the size of the browser window from a scene viewport.
//
// Defaults to 800x600. Non-positive dimensions are ignored.
func WithViewport(viewport model.Viewport) Option {
	return func(o *options) {
		if w := int64(math.Ceil(viewport.Width)); w > 0 {
			o.Width = w
		}

		if h := int64(math.Ceil(viewport.Height)); h > 0 {
			o.Height = h
		}
	}
}

// WithSleep sets the time to wait for the chrome headless engine to render the page.
//
// Defaults to 1s.
func WithSleep(sleep time.Duration) Option {
	return func(o *options) {
		if sleep <= 0 {
			return
		}

		o.SleepDuration = sleep
	}
}

// WithMediaType sets the media type of the source document: [MediaHTML] or [MediaSVG].
//
// Defaults to [MediaHTML].
func WithMediaType(mediaType string) Option {
	return func(o *options) {
		if mediaType != MediaHTML && mediaType != MediaSVG {
			return
		}

		o.MediaType = mediaType
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
