package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goalias/internal/reconcile"
	"github.com/dbsmedya/goalias/internal/replay"
	"github.com/dbsmedya/goalias/internal/types"
)

func sampleDataset() *reconcile.Dataset {
	return reconcile.Reconcile(types.OrganizationalUnit,
		[]types.ParsedEntry{{ID: "1", Key: "alpha"}, {ID: "2", Key: "beta"}},
		[]types.ParsedEntry{{ID: "100", Key: "alpha"}},
	)
}

func TestObserveDataset(t *testing.T) {
	r := NewRecorder()
	r.ObserveDataset(sampleDataset())

	assert.Equal(t, float64(1), testutil.ToFloat64(r.entries.WithLabelValues("organizational_unit", "complete")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.entries.WithLabelValues("organizational_unit", "incomplete")))
}

func TestObserveOutcome(t *testing.T) {
	r := NewRecorder()
	r.ObserveOutcome(types.User, replay.Outcome{Status: replay.StatusAliased})
	r.ObserveOutcome(types.User, replay.Outcome{Status: replay.StatusAliased})
	r.ObserveOutcome(types.User, replay.Outcome{Status: replay.StatusSkipped})

	assert.Equal(t, float64(2), testutil.ToFloat64(r.outcomes.WithLabelValues("user", "aliased")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.outcomes.WithLabelValues("user", "skipped")))
}

func TestInstrument(t *testing.T) {
	r := NewRecorder()
	boom := errors.New("boom")
	calls := 0
	inner := replay.AliasFunc(func(ctx context.Context, previousID, userID string) error {
		calls++
		if previousID == "2" {
			return boom
		}
		return nil
	})

	a := r.Instrument(types.User, inner)
	require.NoError(t, a.Alias(context.Background(), "1", "10"))
	assert.ErrorIs(t, a.Alias(context.Background(), "2", "20"), boom)
	assert.Equal(t, 2, calls)

	assert.Equal(t, 2, testutil.CollectAndCount(r.aliasLatency, "goalias_alias_latency_seconds"))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveDataset(sampleDataset())
	r.ObserveOutcome(types.OrganizationalUnit, replay.Outcome{Status: replay.StatusFailed})

	path := filepath.Join(t.TempDir(), "goalias.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `goalias_dataset_entries{kind="organizational_unit",state="complete"} 1`)
	assert.Contains(t, out, `goalias_replay_outcomes_total{kind="organizational_unit",status="failed"} 1`)
	assert.Contains(t, out, "goalias_last_run_timestamp_seconds")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	r := NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "goalias.prom"))
	assert.Error(t, err)
}
