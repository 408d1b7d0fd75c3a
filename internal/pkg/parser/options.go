package parser //nolint:revive // it's okay for an internal package to use this name

import "github.com/fredbi/hexbinviz/internal/pkg/config"

// Option configures a [TableParser].
type Option func(*options)

type options struct {
	format config.Format
	query  string
}

// WithFormat overrides the input format set in the configuration.
func WithFormat(format config.Format) Option {
	return func(o *options) {
		if format == "" {
			return
		}

		o.format = format
	}
}

// WithQuery overrides the SQL query used to read SQLite inputs.
func WithQuery(query string) Option {
	return func(o *options) {
		if query == "" {
			return
		}

		o.query = query
	}
}

func optionsWithDefaults(cfg *config.Config, opts []Option) options {
	o := options{
		format: config.FormatCSV,
	}

	if cfg != nil {
		if cfg.Input.Format != "" {
			o.format = cfg.Input.Format
		}
		o.query = cfg.Input.Query
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
