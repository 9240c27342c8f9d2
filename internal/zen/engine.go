// Package zen runs guided box-breathing sessions and keeps the count of
// sessions completed.
//
// An Engine drives a four-phase automaton from a single goroutine per
// session. The goroutine owns the phase timer, queues events for the consumer
// and answers stop requests, so no state is shared with callers except through
// channels.
package zen

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSessionActive is returned by Start while a session is running.
var ErrSessionActive = errors.New("zen session already running")

// Engine runs at most one breathing session at a time.
type Engine struct {
	opts options

	mu      sync.Mutex
	current *session
}

type session struct {
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	// result is written before done is closed.
	result SessionResult
}

// NewEngine returns an idle engine.
func NewEngine(opts ...Option) *Engine {
	return &Engine{opts: buildOptions(opts)}
}

// Start begins a session at PhaseInhale with zero cycles. The returned channel
// receives the first event immediately and every phase change after it, in
// order. It is closed when the session ends through Stop or ctx.
func (e *Engine) Start(ctx context.Context) (<-chan PhaseEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil && !e.current.finished() {
		return nil, ErrSessionActive
	}
	s := &session{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	out := make(chan PhaseEvent)
	e.current = s
	e.opts.logger.Debug("zen session started")
	go e.run(ctx, s, out)
	return out, nil
}

// Stop ends the running session and returns its cycle count. When Stop returns
// the event channel is closed. Without a session to collect Stop returns a zero
// result.
func (e *Engine) Stop() SessionResult {
	e.mu.Lock()
	s := e.current
	e.current = nil
	e.mu.Unlock()
	if s == nil {
		return SessionResult{}
	}
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	e.opts.logger.Debug("zen session stopped", zap.Int("cycles", s.result.CyclesCompleted))
	return s.result
}

// Running reports whether a session is in progress.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil && !e.current.finished()
}

func (s *session) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (e *Engine) run(ctx context.Context, s *session, out chan<- PhaseEvent) {
	defer close(s.done)
	defer close(out)

	phase, cycles := PhaseInhale, 0
	pending := []PhaseEvent{{Phase: phase, Duration: phase.Duration()}}
	timer := time.NewTimer(phase.Duration())
	defer timer.Stop()

	for {
		// A nil send channel disables delivery while nothing is queued.
		var send chan<- PhaseEvent
		var next PhaseEvent
		if len(pending) > 0 {
			send, next = out, pending[0]
		}
		select {
		case send <- next:
			pending = pending[1:]
		case <-timer.C:
			if phase == PhaseHoldOut {
				cycles++
				e.opts.recorder.Cycle()
			}
			phase = phase.Next()
			pending = append(pending, PhaseEvent{Phase: phase, CyclesCompleted: cycles, Duration: phase.Duration()})
			timer.Reset(phase.Duration())
		case <-s.stop:
			s.result = SessionResult{CyclesCompleted: cycles}
			return
		case <-ctx.Done():
			s.result = SessionResult{CyclesCompleted: cycles}
			e.opts.logger.Debug("zen session cancelled", zap.Int("cycles", cycles), zap.Error(ctx.Err()))
			return
		}
	}
}
