// Package ledger holds the permanent record: an append-only, most-recent-first
// collection of disciplinary action entries backed by the durable store.
package ledger

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/aura-ops/aura/internal/storage"
	"go.uber.org/zap"
)

// Action identifies the kind of disciplinary action recorded.
type Action string

const (
	ActionBan  Action = "BAN"
	ActionKick Action = "KICK"
	ActionMute Action = "MUTE"
	ActionFlag Action = "FLAG"
)

// Punitive reports whether the action counts as an incident when rendering
// a member's disciplinary history. Flags stay in the ledger but are not
// shown as incidents.
func (a Action) Punitive() bool {
	switch a {
	case ActionBan, ActionKick, ActionMute:
		return true
	default:
		return false
	}
}

var (
	// ErrInvalidRecord indicates a record missing its action or subject.
	ErrInvalidRecord = errors.New("ledger: record requires action and target")
)

// Record is a single immutable ledger entry. Field names follow the
// permanent record file layout.
type Record struct {
	Timestamp      string `json:"timestamp"`
	Action         Action `json:"action"`
	TargetID       string `json:"target_id"`
	ModeratorID    string `json:"moderator_id"`
	Reason         string `json:"reason"`
	TargetUsername string `json:"target_username"`
}

// Matches performs the case-insensitive substring search used by the staff
// dashboard, covering the subject identity, username, reason text, and
// action kind.
func (r Record) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}

	return strings.Contains(strings.ToLower(r.TargetID), q) ||
		strings.Contains(strings.ToLower(r.TargetUsername), q) ||
		strings.Contains(strings.ToLower(r.Reason), q) ||
		strings.Contains(strings.ToLower(string(r.Action)), q)
}

// ledgerFile is the on-disk shape of the permanent record.
type ledgerFile struct {
	Logs []Record `json:"logs"`
}

// Ledger is the in-memory permanent record. The moderation engine is the
// sole writer; the web responder reads concurrently, so all access goes
// through the lock. Persistence is best-effort: an append that fails to
// reach disk still succeeds in memory.
type Ledger struct {
	mu     sync.RWMutex
	file   ledgerFile
	store  *storage.Store
	logger *zap.Logger
}

// Open loads the permanent record from the store, falling back to an empty
// ledger when the file is absent or undecodable.
func Open(store *storage.Store, logger *zap.Logger) *Ledger {
	l := &Ledger{
		file:   ledgerFile{Logs: []Record{}},
		store:  store,
		logger: logger.Named("ledger"),
	}

	if err := store.Load(&l.file); err != nil {
		l.logger.Error("Failed to load permanent record, starting empty", zap.Error(err))
		l.file = ledgerFile{Logs: []Record{}}
	}
	if l.file.Logs == nil {
		l.file.Logs = []Record{}
	}

	return l
}

// Append inserts a record at the head of the ledger and rewrites the
// backing file. The in-memory insertion always takes effect; a store
// failure is returned (wrapping storage.ErrWriteFailed) so the caller can
// report it, but the record is not rolled back.
func (l *Ledger) Append(rec Record) error {
	if rec.Action == "" || rec.TargetID == "" {
		return ErrInvalidRecord
	}

	l.mu.Lock()
	l.file.Logs = append([]Record{rec}, l.file.Logs...)
	snapshot := ledgerFile{Logs: make([]Record, len(l.file.Logs))}
	copy(snapshot.Logs, l.file.Logs)
	l.mu.Unlock()

	if err := l.store.Save(&snapshot); err != nil {
		return fmt.Errorf("persist permanent record: %w", err)
	}

	return nil
}

// Find returns a restartable sequence over the records matching pred, in
// ledger order (most recent first). The sequence iterates a point-in-time
// copy, so it stays consistent while the engine appends.
func (l *Ledger) Find(pred func(Record) bool) iter.Seq[Record] {
	records := l.Records()

	return func(yield func(Record) bool) {
		for _, rec := range records {
			if !pred(rec) {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// HasAction reports whether any record exists for the subject with the
// given action kind. Used by ban-evasion enforcement; a full scan is fine
// at the expected ledger size.
func (l *Ledger) HasAction(targetID string, action Action) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, rec := range l.file.Logs {
		if rec.TargetID == targetID && rec.Action == action {
			return true
		}
	}

	return false
}

// Records returns a copy of every record, most recent first.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, len(l.file.Logs))
	copy(out, l.file.Logs)

	return out
}

// Recent returns up to n of the newest records.
func (l *Ledger) Recent(n int) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n > len(l.file.Logs) {
		n = len(l.file.Logs)
	}

	out := make([]Record, n)
	copy(out, l.file.Logs[:n])

	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.file.Logs)
}
