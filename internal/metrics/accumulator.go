// Package metrics accumulates live operational counters and checkpoints
// them to the durable store.
package metrics

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/aura-ops/aura/internal/ledger"
	"github.com/aura-ops/aura/internal/storage"
	"github.com/aura-ops/aura/pkg/utils"
	"go.uber.org/zap"
)

// MonthlySummary holds the punitive action counters, reset at each
// calendar month boundary.
type MonthlySummary struct {
	TotalMutes int    `json:"total_mutes"`
	TotalBans  int    `json:"total_bans"`
	TotalKicks int    `json:"total_kicks"`
	LastReset  string `json:"last_reset"`
}

// Snapshot is the on-disk shape of the operational metrics file. Timestamps
// are stored as strings in the store's stamp layout; channel counts are
// keyed by channel ID string.
type Snapshot struct {
	MembersJoined     []string         `json:"members_joined"`
	MembersLeft       []string         `json:"members_left"`
	MessagesByChannel map[string]int64 `json:"messages_by_channel"`
	MonthlySummary    MonthlySummary   `json:"monthly_summary"`
}

// defaultSnapshot returns the structure written when no metrics file exists.
func defaultSnapshot(now time.Time) Snapshot {
	return Snapshot{
		MembersJoined:     []string{},
		MembersLeft:       []string{},
		MessagesByChannel: map[string]int64{},
		MonthlySummary: MonthlySummary{
			LastReset: utils.FormatDay(now),
		},
	}
}

// Accumulator owns the live metric state. The moderation engine is the
// sole mutator; the web responder and KPI service read concurrently
// through copying accessors. Join, leave, and punitive-action events
// checkpoint immediately; channel activity is only persisted by the
// periodic checkpoint, so a crash loses at most one interval of counts.
type Accumulator struct {
	mu              sync.RWMutex
	snap            Snapshot
	channelActivity map[string]int64
	chatters        *ChatterTracker
	store           *storage.Store
	logger          *zap.Logger
	now             func() time.Time
}

// NewAccumulator loads the metrics snapshot from the store (or defaults)
// and seeds the live channel counters from the last checkpoint.
func NewAccumulator(store *storage.Store, chatterWindow time.Duration, logger *zap.Logger) *Accumulator {
	a := &Accumulator{
		chatters: NewChatterTracker(chatterWindow),
		store:    store,
		logger:   logger.Named("metrics"),
		now:      time.Now,
	}

	a.snap = defaultSnapshot(a.now())
	if err := store.Load(&a.snap); err != nil {
		a.logger.Error("Failed to load metrics snapshot, starting from defaults", zap.Error(err))
		a.snap = defaultSnapshot(a.now())
	}
	a.normalize()

	// Restore last known channel activity so counts keep climbing across
	// restarts instead of resetting to zero.
	a.channelActivity = make(map[string]int64, len(a.snap.MessagesByChannel))
	maps.Copy(a.channelActivity, a.snap.MessagesByChannel)

	return a
}

func (a *Accumulator) normalize() {
	if a.snap.MembersJoined == nil {
		a.snap.MembersJoined = []string{}
	}
	if a.snap.MembersLeft == nil {
		a.snap.MembersLeft = []string{}
	}
	if a.snap.MessagesByChannel == nil {
		a.snap.MessagesByChannel = map[string]int64{}
	}
	if a.snap.MonthlySummary.LastReset == "" {
		a.snap.MonthlySummary.LastReset = utils.FormatDay(a.now())
	}
}

// RecordMessage counts a qualifying message against its channel and marks
// the author as an active chatter. Not persisted until the next checkpoint.
func (a *Accumulator) RecordMessage(channelID, authorID string) {
	a.mu.Lock()
	a.channelActivity[channelID]++
	a.mu.Unlock()

	a.chatters.Touch(authorID)
}

// RecordJoin appends a join timestamp and checkpoints immediately. Joins
// are low-frequency, high-value churn signal; deferring persistence would
// risk losing it on crash.
func (a *Accumulator) RecordJoin() error {
	a.mu.Lock()
	a.snap.MembersJoined = append(a.snap.MembersJoined, utils.FormatStamp(a.now()))
	a.mu.Unlock()

	return a.Checkpoint()
}

// RecordLeave appends a leave timestamp and checkpoints immediately.
func (a *Accumulator) RecordLeave() error {
	a.mu.Lock()
	a.snap.MembersLeft = append(a.snap.MembersLeft, utils.FormatStamp(a.now()))
	a.mu.Unlock()

	return a.Checkpoint()
}

// RecordAction increments the monthly counter for a punitive action and
// checkpoints. When the current calendar month differs from the last
// reset, all three counters are zeroed first. Non-punitive actions (flags)
// leave the counters untouched but still checkpoint the rollover if one
// was due.
func (a *Accumulator) RecordAction(action ledger.Action) error {
	a.mu.Lock()

	today := a.now()
	lastReset, err := utils.ParseDay(a.snap.MonthlySummary.LastReset)
	if err != nil || !utils.SameCalendarMonth(today, lastReset) {
		a.logger.Info("Monthly metric reset triggered",
			zap.String("last_reset", a.snap.MonthlySummary.LastReset))
		a.snap.MonthlySummary = MonthlySummary{
			LastReset: utils.FormatDay(today),
		}
	}

	switch action {
	case ledger.ActionMute:
		a.snap.MonthlySummary.TotalMutes++
	case ledger.ActionBan:
		a.snap.MonthlySummary.TotalBans++
	case ledger.ActionKick:
		a.snap.MonthlySummary.TotalKicks++
	default:
		// Flags are recorded in the ledger only.
	}

	a.mu.Unlock()

	return a.Checkpoint()
}

// Checkpoint mirrors the live channel counters into the snapshot and
// rewrites the metrics file. The write happens on a point-in-time copy so
// concurrent mutation never reaches the encoder mid-update.
func (a *Accumulator) Checkpoint() error {
	a.mu.Lock()
	maps.Copy(a.snap.MessagesByChannel, a.channelActivity)
	snapshot := a.copySnapshotLocked()
	a.mu.Unlock()

	if err := a.store.Save(&snapshot); err != nil {
		return fmt.Errorf("checkpoint metrics: %w", err)
	}

	return nil
}

// View returns a consistent copy of the snapshot with live channel counts
// merged in, for read-side consumers.
func (a *Accumulator) View() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := a.copySnapshotLocked()
	maps.Copy(snap.MessagesByChannel, a.channelActivity)

	return snap
}

// MonthlyCounters returns the current monthly summary.
func (a *Accumulator) MonthlyCounters() MonthlySummary {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.snap.MonthlySummary
}

// ActiveChatterCount returns the number of distinct identities seen
// chatting within the tracker's window.
func (a *Accumulator) ActiveChatterCount() int {
	return a.chatters.Count()
}

// Close stops the chatter compaction loop.
func (a *Accumulator) Close() {
	a.chatters.Stop()
}

// copySnapshotLocked deep-copies the snapshot. Callers must hold the lock.
func (a *Accumulator) copySnapshotLocked() Snapshot {
	snap := Snapshot{
		MembersJoined:     make([]string, len(a.snap.MembersJoined)),
		MembersLeft:       make([]string, len(a.snap.MembersLeft)),
		MessagesByChannel: make(map[string]int64, len(a.snap.MessagesByChannel)),
		MonthlySummary:    a.snap.MonthlySummary,
	}
	copy(snap.MembersJoined, a.snap.MembersJoined)
	copy(snap.MembersLeft, a.snap.MembersLeft)
	maps.Copy(snap.MessagesByChannel, a.snap.MessagesByChannel)

	return snap
}
