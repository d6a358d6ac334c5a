package kpi

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/aura-ops/aura/internal/ledger"
	"github.com/aura-ops/aura/internal/metrics"
	"github.com/aura-ops/aura/internal/storage"
	"github.com/aura-ops/aura/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc    *Service
	ledger *ledger.Ledger
	acc    *metrics.Accumulator
	store  *storage.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	metricsStore := storage.New(filepath.Join(dir, "operational_metrics.json"), zap.NewNop())
	acc := metrics.NewAccumulator(metricsStore, 5*time.Minute, zap.NewNop())
	t.Cleanup(acc.Close)

	l := ledger.Open(storage.New(filepath.Join(dir, "permanent_record.json"), zap.NewNop()), zap.NewNop())

	return &fixture{
		svc:    New(l, acc),
		ledger: l,
		acc:    acc,
		store:  metricsStore,
	}
}

// seedChurn persists a metrics file with the given join/leave offsets from
// now, then reloads the accumulator so the service reads it like any other
// checkpoint.
func (f *fixture) seedChurn(t *testing.T, joinOffsets, leaveOffsets []time.Duration) {
	t.Helper()

	snap := f.acc.View()
	now := time.Now()
	for _, off := range joinOffsets {
		snap.MembersJoined = append(snap.MembersJoined, utils.FormatStamp(now.Add(-off)))
	}
	for _, off := range leaveOffsets {
		snap.MembersLeft = append(snap.MembersLeft, utils.FormatStamp(now.Add(-off)))
	}
	require.NoError(t, f.store.Save(&snap))

	reloaded := metrics.NewAccumulator(f.store, 5*time.Minute, zap.NewNop())
	t.Cleanup(reloaded.Close)
	f.acc = reloaded
	f.svc = New(f.ledger, reloaded)
}

const day = 24 * time.Hour

func TestNetMembershipChange(t *testing.T) {
	f := newFixture(t)
	f.seedChurn(t,
		[]time.Duration{1 * day, 3 * day, 5 * day, 40 * day}, // last join outside both windows
		[]time.Duration{2 * day, 10 * day},                   // second leave outside the 7d window
	)

	sevenDay := f.svc.NetMembershipChange(7 * day)
	assert.Equal(t, 3, sevenDay.Joined)
	assert.Equal(t, 1, sevenDay.Left)
	assert.Equal(t, 2, sevenDay.Net)

	thirtyDay := f.svc.NetMembershipChange(30 * day)
	assert.Equal(t, 3, thirtyDay.Joined)
	assert.Equal(t, 2, thirtyDay.Left)
	assert.Equal(t, 1, thirtyDay.Net)
}

func TestChurnRate(t *testing.T) {
	t.Run("three joins one leave is 33.3 percent", func(t *testing.T) {
		f := newFixture(t)
		f.seedChurn(t,
			[]time.Duration{1 * day, 2 * day, 3 * day},
			[]time.Duration{1 * day},
		)

		rate := f.svc.ChurnRate(7 * day)
		assert.InDelta(t, 33.3, math.Round(rate*10)/10, 0.001)
	})

	t.Run("zero joins is zero by policy", func(t *testing.T) {
		// With leaves but no joins the rate is defined as 0 — a policy
		// choice to keep the dashboard free of division errors, not a
		// mathematically derived value.
		f := newFixture(t)
		f.seedChurn(t, nil, []time.Duration{1 * day, 2 * day})

		assert.Zero(t, f.svc.ChurnRate(7*day))
	})

	t.Run("fresh state is zero", func(t *testing.T) {
		f := newFixture(t)
		assert.Zero(t, f.svc.ChurnRate(7*day))
	})
}

func TestTopChannels(t *testing.T) {
	f := newFixture(t)

	record := func(channel string, n int) {
		for range n {
			f.acc.RecordMessage(channel, "author")
		}
	}
	record("chan-a", 5)
	record("chan-b", 12)
	record("chan-c", 1)

	top := f.svc.TopChannels(2)
	require.Len(t, top, 2)
	assert.Equal(t, ChannelCount{ChannelID: "chan-b", Count: 12}, top[0])
	assert.Equal(t, ChannelCount{ChannelID: "chan-a", Count: 5}, top[1])
}

func TestTopChannelsTieBreak(t *testing.T) {
	f := newFixture(t)
	f.acc.RecordMessage("zulu", "a")
	f.acc.RecordMessage("alpha", "a")
	f.acc.RecordMessage("mike", "a")

	top := f.svc.TopChannels(3)
	require.Len(t, top, 3)
	assert.Equal(t, "alpha", top[0].ChannelID)
	assert.Equal(t, "mike", top[1].ChannelID)
	assert.Equal(t, "zulu", top[2].ChannelID)
}

func TestTopChannelsFewerThanRequested(t *testing.T) {
	f := newFixture(t)
	f.acc.RecordMessage("only", "a")

	assert.Len(t, f.svc.TopChannels(5), 1)
	assert.Empty(t, newFixture(t).svc.TopChannels(5))
}

func TestSearchLedger(t *testing.T) {
	f := newFixture(t)

	appendRec := func(action ledger.Action, target, username, reason string) {
		require.NoError(t, f.ledger.Append(ledger.Record{
			Timestamp:      utils.FormatStamp(time.Now()),
			Action:         action,
			TargetID:       target,
			ModeratorID:    "mod",
			Reason:         reason,
			TargetUsername: username,
		}))
	}
	appendRec(ledger.ActionBan, "111", "Spammer", "posted spam links")
	appendRec(ledger.ActionMute, "222", "Loudmouth", "flooding general")
	appendRec(ledger.ActionKick, "333", "SpamBot", "spam again")

	t.Run("matches reason and username", func(t *testing.T) {
		results := f.svc.SearchLedger("spam")
		require.Len(t, results, 2)
		// Ledger order: most recent first.
		assert.Equal(t, "333", results[0].TargetID)
		assert.Equal(t, "111", results[1].TargetID)
	})

	t.Run("matches id", func(t *testing.T) {
		results := f.svc.SearchLedger("222")
		require.Len(t, results, 1)
		assert.Equal(t, ledger.ActionMute, results[0].Action)
	})

	t.Run("no results", func(t *testing.T) {
		assert.Empty(t, f.svc.SearchLedger("nobody"))
	})
}

func TestActiveChatterCount(t *testing.T) {
	f := newFixture(t)
	f.acc.RecordMessage("general", "u1")
	f.acc.RecordMessage("general", "u2")
	f.acc.RecordMessage("random", "u1")

	assert.Equal(t, 2, f.svc.ActiveChatterCount())
}
