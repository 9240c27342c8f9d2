package kv

import (
	"context"
	"time"

	"go.uber.org/zap"

	"zenjournal/internal/metrics"
)

// Instrumented decorates a Store with structured logging and Prometheus timings.
type Instrumented struct {
	next     Store
	logger   *zap.Logger
	recorder *metrics.Recorder
}

// Instrument wraps next. A nil logger or recorder disables that concern.
func Instrument(next Store, logger *zap.Logger, recorder *metrics.Recorder) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{
		next:     next,
		logger:   logger.With(zap.String("driver", string(next.Driver()))),
		recorder: recorder,
	}
}

// Driver returns the wrapped backend identifier.
func (i *Instrumented) Driver() Driver { return i.next.Driver() }

// Unwrap returns the wrapped store.
func (i *Instrumented) Unwrap() Store { return i.next }

// Get delegates and records the outcome.
func (i *Instrumented) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	v, ok, err := i.next.Get(ctx, key)
	i.observe(ctx, "get", key, start, err)
	return v, ok, err
}

// Set delegates and records the outcome.
func (i *Instrumented) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := i.next.Set(ctx, key, value)
	i.observe(ctx, "set", key, start, err)
	if err == nil {
		i.logger.Debug("kv set", zap.String("key", key), zap.Int("bytes", len(value)))
	}
	return err
}

// Remove delegates and records the outcome.
func (i *Instrumented) Remove(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	existed, err := i.next.Remove(ctx, key)
	i.observe(ctx, "remove", key, start, err)
	return existed, err
}

// Close closes the wrapped store.
func (i *Instrumented) Close() error { return i.next.Close() }

func (i *Instrumented) observe(ctx context.Context, op, key string, start time.Time, err error) {
	elapsed := time.Since(start)
	i.recorder.Observe(ctx, string(i.next.Driver()), op, err == nil, elapsed)
	if err != nil {
		i.logger.Warn("kv operation failed",
			zap.String("op", op),
			zap.String("key", key),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	}
}
