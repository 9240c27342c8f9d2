package zen

import (
	"go.uber.org/zap"

	"zenjournal/internal/metrics"
)

type options struct {
	logger   *zap.Logger
	recorder *metrics.Recorder
}

// Option configures an Engine or a History.
type Option func(*options)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records cycles and finalized sessions on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
