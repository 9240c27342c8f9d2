package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.Observe(context.Background(), "fs", "get", true, time.Millisecond)
	r.Thought("add")
	r.Cycle()
	r.Session(true)
}

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.Thought("add")
	r.Thought("add")
	r.Thought("remove")
	r.Cycle()
	r.Session(false)

	expected := `
# HELP zenjournal_thoughts_total Thought store mutations by operation.
# TYPE zenjournal_thoughts_total counter
zenjournal_thoughts_total{op="add"} 2
zenjournal_thoughts_total{op="remove"} 1
# HELP zenjournal_zen_cycles_total Completed breathing cycles across all sessions.
# TYPE zenjournal_zen_cycles_total counter
zenjournal_zen_cycles_total 1
# HELP zenjournal_zen_sessions_total Finalized zen sessions by whether they were credited as complete.
# TYPE zenjournal_zen_sessions_total counter
zenjournal_zen_sessions_total{credited="false"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"zenjournal_thoughts_total", "zenjournal_zen_cycles_total", "zenjournal_zen_sessions_total"))
}

func TestObserveLabelsStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.Observe(context.Background(), "sqlite", "set", true, 2*time.Millisecond)
	r.Observe(context.Background(), "sqlite", "set", false, time.Millisecond)
	r.Observe(context.Background(), "sqlite", "", true, time.Millisecond)

	n, err := testutil.GatherAndCount(reg, "zenjournal_kv_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewRecorderWithoutRegistry(t *testing.T) {
	r := NewRecorder(nil)
	r.Cycle()
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles))
}
