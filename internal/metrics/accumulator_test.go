package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aura-ops/aura/internal/ledger"
	"github.com/aura-ops/aura/internal/storage"
	"github.com/aura-ops/aura/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAccumulator(t *testing.T) (*Accumulator, *storage.Store) {
	t.Helper()
	store := storage.New(filepath.Join(t.TempDir(), "operational_metrics.json"), zap.NewNop())
	acc := NewAccumulator(store, 5*time.Minute, zap.NewNop())
	t.Cleanup(acc.Close)
	return acc, store
}

func loadSnapshot(t *testing.T, store *storage.Store) Snapshot {
	t.Helper()
	var snap Snapshot
	require.NoError(t, store.Load(&snap))
	return snap
}

func TestRecordJoinLeavePersistImmediately(t *testing.T) {
	acc, store := newTestAccumulator(t)

	require.NoError(t, acc.RecordJoin())
	require.NoError(t, acc.RecordJoin())
	require.NoError(t, acc.RecordLeave())

	snap := loadSnapshot(t, store)
	assert.Len(t, snap.MembersJoined, 2)
	assert.Len(t, snap.MembersLeft, 1)

	// Stamps parse in the store layout.
	_, err := utils.ParseStamp(snap.MembersJoined[0])
	assert.NoError(t, err)
}

func TestCheckpointSnapshotConsistency(t *testing.T) {
	acc, store := newTestAccumulator(t)

	require.NoError(t, acc.Checkpoint())
	before := loadSnapshot(t, store).MessagesByChannel["chan-k"]

	const c = 17
	for range c {
		acc.RecordMessage("chan-k", "author-1")
	}

	// Channel counts are not persisted until a checkpoint runs.
	assert.Equal(t, before, loadSnapshot(t, store).MessagesByChannel["chan-k"])

	require.NoError(t, acc.Checkpoint())
	assert.Equal(t, before+c, loadSnapshot(t, store).MessagesByChannel["chan-k"])
}

func TestChannelCountsSurviveRestart(t *testing.T) {
	acc, store := newTestAccumulator(t)
	acc.RecordMessage("general", "u1")
	acc.RecordMessage("general", "u2")
	require.NoError(t, acc.Checkpoint())

	reloaded := NewAccumulator(store, 5*time.Minute, zap.NewNop())
	defer reloaded.Close()

	reloaded.RecordMessage("general", "u3")
	assert.Equal(t, int64(3), reloaded.View().MessagesByChannel["general"])
}

func TestMonthlyRollover(t *testing.T) {
	acc, _ := newTestAccumulator(t)

	// Seed counters as if the last reset happened in a prior month.
	now := time.Date(2024, 4, 2, 10, 0, 0, 0, time.Local)
	acc.now = func() time.Time { return now }
	acc.mu.Lock()
	acc.snap.MonthlySummary = MonthlySummary{
		TotalMutes: 4,
		TotalBans:  2,
		TotalKicks: 9,
		LastReset:  "2024-03-15",
	}
	acc.mu.Unlock()

	require.NoError(t, acc.RecordAction(ledger.ActionBan))

	summary := acc.MonthlyCounters()
	assert.Equal(t, 0, summary.TotalMutes)
	assert.Equal(t, 0, summary.TotalKicks)
	assert.Equal(t, 1, summary.TotalBans)
	assert.Equal(t, "2024-04-02", summary.LastReset)
}

func TestRecordActionSameMonth(t *testing.T) {
	acc, _ := newTestAccumulator(t)

	require.NoError(t, acc.RecordAction(ledger.ActionMute))
	require.NoError(t, acc.RecordAction(ledger.ActionMute))
	require.NoError(t, acc.RecordAction(ledger.ActionKick))

	summary := acc.MonthlyCounters()
	assert.Equal(t, 2, summary.TotalMutes)
	assert.Equal(t, 1, summary.TotalKicks)
	assert.Equal(t, 0, summary.TotalBans)
}

func TestRecordActionFlagLeavesCountersAlone(t *testing.T) {
	acc, _ := newTestAccumulator(t)

	require.NoError(t, acc.RecordAction(ledger.ActionFlag))

	summary := acc.MonthlyCounters()
	assert.Zero(t, summary.TotalMutes)
	assert.Zero(t, summary.TotalBans)
	assert.Zero(t, summary.TotalKicks)
}

func TestViewReturnsIndependentCopy(t *testing.T) {
	acc, _ := newTestAccumulator(t)
	acc.RecordMessage("general", "u1")

	view := acc.View()
	view.MessagesByChannel["general"] = 999
	view.MembersJoined = append(view.MembersJoined, "tampered")

	fresh := acc.View()
	assert.Equal(t, int64(1), fresh.MessagesByChannel["general"])
	assert.Empty(t, fresh.MembersJoined)
}

func TestChatterTrackerWindow(t *testing.T) {
	tracker := NewChatterTracker(5 * time.Minute)
	defer tracker.Stop()

	now := time.Date(2024, 4, 2, 12, 0, 0, 0, time.Local)
	tracker.now = func() time.Time { return now }

	tracker.Touch("u1")
	tracker.Touch("u2")
	tracker.Touch("u1") // idempotent: same identity counted once
	assert.Equal(t, 2, tracker.Count())

	// Advance past the window: entries age out of the count.
	now = now.Add(6 * time.Minute)
	assert.Equal(t, 0, tracker.Count())

	// Fresh activity re-enters the window.
	tracker.Touch("u1")
	assert.Equal(t, 1, tracker.Count())
}

func TestReporterFlushesOnShutdown(t *testing.T) {
	acc, store := newTestAccumulator(t)
	acc.RecordMessage("general", "u1")

	reporter := NewReporter(acc, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reporter.Run(ctx)
		close(done)
	}()

	cancel()
	<-done

	// The final checkpoint captured the un-flushed channel count.
	assert.Equal(t, int64(1), loadSnapshot(t, store).MessagesByChannel["general"])
}
