package zen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"zenjournal/internal/kv"
)

// KeySessionsCompleted holds the number of credited sessions.
const KeySessionsCompleted = "zenSessionsCompleted"

// Completion is the outcome of finalizing a session.
type Completion struct {
	CreditedAsComplete bool
	TotalSessions      int
}

// History persists how many sessions reached CompletionThreshold.
type History struct {
	opts options
	kv   kv.Store
	mu   sync.Mutex
}

// NewHistory returns a History backed by store.
func NewHistory(store kv.Store, opts ...Option) *History {
	return &History{opts: buildOptions(opts), kv: store}
}

// Total returns the number of completed sessions. A corrupt value counts as 0.
func (h *History) Total(ctx context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.read(ctx)
}

// Finalize credits r when it reached CompletionThreshold and persists the new
// total. A rejected write is reported in the kv.Result and the incremented
// total is still returned. Sessions below the threshold cause no write.
func (h *History) Finalize(ctx context.Context, r SessionResult) (Completion, kv.Result, error) {
	var res kv.Result
	h.mu.Lock()
	defer h.mu.Unlock()

	total, err := h.read(ctx)
	if err != nil {
		return Completion{}, res, err
	}
	credited := r.Credited()
	h.opts.recorder.Session(credited)
	if !credited {
		return Completion{TotalSessions: total}, res, nil
	}
	total++
	if err := h.kv.Set(ctx, KeySessionsCompleted, strconv.Itoa(total)); err != nil {
		h.opts.logger.Warn("write rejected, session credit not persisted",
			zap.String("key", KeySessionsCompleted), zap.Error(err))
		res.Warn(KeySessionsCompleted, err)
	}
	h.opts.logger.Info("zen session completed",
		zap.Int("cycles", r.CyclesCompleted), zap.Int("total_sessions", total))
	return Completion{CreditedAsComplete: true, TotalSessions: total}, res, nil
}

func (h *History) read(ctx context.Context) (int, error) {
	raw, ok, err := h.kv.Get(ctx, KeySessionsCompleted)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", KeySessionsCompleted, err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err == nil && n < 0 {
		err = errors.New("negative count")
	}
	if err != nil {
		h.opts.logger.Warn("resetting unreadable session counter",
			zap.Error(&kv.CorruptionError{Key: KeySessionsCompleted, Err: err}))
		return 0, nil
	}
	return n, nil
}
