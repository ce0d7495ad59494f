package event

import (
	"log/slog"

	"github.com/dshills/rover/internal/logging"
	"github.com/dshills/rover/internal/metrics"
)

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for swallowed handler errors.
func WithLogger(log *slog.Logger) Option {
	return func(b *Bus) {
		b.log = logging.Component(log, "event")
	}
}

// WithMetrics records emissions and handler outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

// WithDebug disables panic recovery and error swallowing.
func WithDebug(debug bool) Option {
	return func(b *Bus) {
		b.debug = debug
	}
}

// WithIDGenerator replaces the uuid binding ID source.
func WithIDGenerator(gen func() string) Option {
	return func(b *Bus) {
		if gen != nil {
			b.newID = gen
		}
	}
}
