// Package kpi derives dashboard figures from the ledger and the live
// metrics accumulator. The service is stateless and read-only: it never
// mutates shared state, only computes views over consistent copies.
package kpi

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/aura-ops/aura/internal/ledger"
	"github.com/aura-ops/aura/internal/metrics"
	"github.com/aura-ops/aura/pkg/utils"
)

// MembershipChange summarizes joins and leaves within a window.
type MembershipChange struct {
	Joined int
	Left   int
	Net    int
}

// ChannelCount pairs a channel identity with its message count.
type ChannelCount struct {
	ChannelID string
	Count     int64
}

// Service computes KPI views for the staff dashboard.
type Service struct {
	ledger  *ledger.Ledger
	metrics *metrics.Accumulator
	now     func() time.Time
}

// New creates a KPI service over the given ledger and accumulator.
func New(l *ledger.Ledger, m *metrics.Accumulator) *Service {
	return &Service{
		ledger:  l,
		metrics: m,
		now:     time.Now,
	}
}

// NetMembershipChange counts joins and leaves newer than the window cutoff.
// Timestamps that fail to parse are skipped rather than failing the whole
// report.
func (s *Service) NetMembershipChange(window time.Duration) MembershipChange {
	snap := s.metrics.View()
	cutoff := s.now().Add(-window)

	change := MembershipChange{
		Joined: countAfter(snap.MembersJoined, cutoff),
		Left:   countAfter(snap.MembersLeft, cutoff),
	}
	change.Net = change.Joined - change.Left

	return change
}

// ChurnRate returns departures as a percentage of arrivals within the
// window. When nobody joined, the rate is 0 by policy, not a derived
// value: there is no churn to speak of against an empty cohort, and the
// dashboard must never render a division error.
func (s *Service) ChurnRate(window time.Duration) float64 {
	change := s.NetMembershipChange(window)
	if change.Joined == 0 {
		return 0
	}

	return float64(change.Left) / float64(change.Joined) * 100
}

// TopChannels returns the n busiest channels, ordered by descending count
// with ties broken by channel identity so the ordering is stable across
// renders.
func (s *Service) TopChannels(n int) []ChannelCount {
	snap := s.metrics.View()

	channels := make([]ChannelCount, 0, len(snap.MessagesByChannel))
	for id, count := range snap.MessagesByChannel {
		channels = append(channels, ChannelCount{ChannelID: id, Count: count})
	}

	slices.SortFunc(channels, func(a, b ChannelCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.ChannelID, b.ChannelID)
	})

	if n < len(channels) {
		channels = channels[:n]
	}

	return channels
}

// ActiveChatterCount returns the distinct identities seen chatting within
// the accumulator's activity window.
func (s *Service) ActiveChatterCount() int {
	return s.metrics.ActiveChatterCount()
}

// SearchLedger returns records matching the query, in ledger order.
func (s *Service) SearchLedger(query string) []ledger.Record {
	var results []ledger.Record
	for rec := range s.ledger.Find(func(r ledger.Record) bool { return r.Matches(query) }) {
		results = append(results, rec)
	}

	return results
}

// RecentRecords returns up to n of the newest ledger entries.
func (s *Service) RecentRecords(n int) []ledger.Record {
	return s.ledger.Recent(n)
}

func countAfter(stamps []string, cutoff time.Time) int {
	count := 0
	for _, stamp := range stamps {
		t, err := utils.ParseStamp(stamp)
		if err != nil {
			continue
		}
		if t.After(cutoff) {
			count++
		}
	}

	return count
}
