package server

import (
	"log/slog"
	"time"
)

const (
	defaultAddr            = "localhost:8080"
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// Option configures a [Server].
type Option func(*options)

type options struct {
	addr            string
	shutdownTimeout time.Duration
	l               *slog.Logger
}

// WithAddr sets the listening address. Defaults to "localhost:8080".
func WithAddr(addr string) Option {
	return func(o *options) {
		if addr == "" {
			return
		}

		o.addr = addr
	}
}

// WithShutdownTimeout sets how long in-flight requests may take to complete after
// the context passed to [Server.Run] is cancelled. Defaults to 5s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d <= 0 {
			return
		}

		o.shutdownTimeout = d
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
		addr:            defaultAddr,
		shutdownTimeout: defaultShutdownTimeout,
		l:               slog.Default(),
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
