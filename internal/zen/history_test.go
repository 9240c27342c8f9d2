package zen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenjournal/internal/kv"
	"zenjournal/internal/metrics"
)

type failingSet struct {
	kv.Store
	err error
}

func (f failingSet) Set(context.Context, string, string) error { return f.err }

type failingGet struct{ kv.Store }

func (failingGet) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection reset")
}

func TestFinalizeBelowThreshold(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	h := NewHistory(store)

	c, res, err := h.Finalize(ctx, SessionResult{CyclesCompleted: 2})
	require.NoError(t, err)
	assert.False(t, res.HasWarnings())
	assert.Equal(t, Completion{CreditedAsComplete: false, TotalSessions: 0}, c)

	_, ok, err := store.Get(ctx, KeySessionsCompleted)
	require.NoError(t, err)
	assert.False(t, ok, "uncredited sessions never write")
}

func TestFinalizeCreditsAndPersists(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	h := NewHistory(store)

	c, _, err := h.Finalize(ctx, SessionResult{CyclesCompleted: 3})
	require.NoError(t, err)
	assert.Equal(t, Completion{CreditedAsComplete: true, TotalSessions: 1}, c)

	c, _, err = h.Finalize(ctx, SessionResult{CyclesCompleted: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, c.TotalSessions)

	c, _, err = h.Finalize(ctx, SessionResult{CyclesCompleted: 1})
	require.NoError(t, err)
	assert.Equal(t, Completion{TotalSessions: 2}, c)

	raw, ok, err := store.Get(ctx, KeySessionsCompleted)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", raw)

	total, err := NewHistory(store).Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestHistoryCorruptCounter(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, KeySessionsCompleted, "NaN"))
	h := NewHistory(store)

	total, err := h.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	c, _, err := h.Finalize(ctx, SessionResult{CyclesCompleted: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, c.TotalSessions)
}

func TestFinalizeWriteFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, KeySessionsCompleted, "4"))
	h := NewHistory(failingSet{Store: store, err: errors.New("read-only volume")})

	c, res, err := h.Finalize(ctx, SessionResult{CyclesCompleted: 3})
	require.NoError(t, err)
	assert.Equal(t, Completion{CreditedAsComplete: true, TotalSessions: 5}, c)
	require.True(t, res.HasWarnings())
	assert.ErrorIs(t, res.Err(), kv.ErrStorageWrite)
	assert.Equal(t, KeySessionsCompleted, res.Warnings[0].Key)
}

func TestFinalizeReadFailure(t *testing.T) {
	h := NewHistory(failingGet{Store: kv.NewMemory()})
	_, _, err := h.Finalize(context.Background(), SessionResult{CyclesCompleted: 3})
	assert.Error(t, err)
	_, err = h.Total(context.Background())
	assert.Error(t, err)
}

func TestFinalizeConcurrent(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	h := NewHistory(store)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := h.Finalize(ctx, SessionResult{CyclesCompleted: CompletionThreshold})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	total, err := h.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, total)
}

func TestFinalizeRecordsSessions(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHistory(kv.NewMemory(), WithMetrics(metrics.NewRecorder(reg)))
	ctx := context.Background()
	_, _, _ = h.Finalize(ctx, SessionResult{CyclesCompleted: 3})
	_, _, _ = h.Finalize(ctx, SessionResult{CyclesCompleted: 0})
	_, _, _ = h.Finalize(ctx, SessionResult{CyclesCompleted: 4})

	expected := `
# HELP zenjournal_zen_sessions_total Finalized zen sessions by whether they were credited as complete.
# TYPE zenjournal_zen_sessions_total counter
zenjournal_zen_sessions_total{credited="false"} 1
zenjournal_zen_sessions_total{credited="true"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "zenjournal_zen_sessions_total"))
}
