package engine

import (
	"context"
	"time"
)

// Severity classifies staff alerts for rendering.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// AlertField is a labeled detail attached to a staff alert.
type AlertField struct {
	Name  string
	Value string
}

// Alert is a structured notification for the staff alert channel.
type Alert struct {
	Title    string
	Body     string
	Fields   []AlertField
	Severity Severity
}

// Effector issues moderation effects back to the chat platform. Calls may
// fail or time out; the engine reports failures but never retries, and a
// failed effect does not roll back in-memory state already mutated.
type Effector interface {
	// BanMember permanently removes a member and blocks rejoining.
	BanMember(ctx context.Context, memberID, reason string) error
	// KickMember removes a member without blocking rejoining.
	KickMember(ctx context.Context, memberID, reason string) error
	// AssignRole grants a named role to a member.
	AssignRole(ctx context.Context, memberID, role, reason string) error
	// RemoveRole revokes a named role from a member.
	RemoveRole(ctx context.Context, memberID, role, reason string) error
	// HasRole reports whether a member currently holds a named role.
	HasRole(ctx context.Context, memberID, role string) (bool, error)
	// DeleteMessage removes a single message from a channel.
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	// PurgeMessages bulk-deletes up to limit recent messages from a
	// channel and returns how many were removed.
	PurgeMessages(ctx context.Context, channelID string, limit int) (int, error)
	// SendMessage posts a message to a channel.
	SendMessage(ctx context.Context, channelID, content string) error
	// SendTransientNotice posts a message that self-removes after ttl.
	SendTransientNotice(ctx context.Context, channelID, content string, ttl time.Duration) error
	// SendDirectMessage delivers a private message to a member.
	SendDirectMessage(ctx context.Context, memberID, content string) error
	// AlertStaff posts a structured alert to the staff alert channel.
	AlertStaff(ctx context.Context, alert Alert) error
}
