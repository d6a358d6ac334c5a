// Package engine implements the moderation engine: it consumes platform
// events and moderator commands, applies content and admission policy,
// mutates the ledger and metrics accumulator, and issues effects back to
// the chat platform.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aura-ops/aura/internal/ledger"
	"github.com/aura-ops/aura/internal/metrics"
	"github.com/aura-ops/aura/pkg/utils"
	"go.uber.org/zap"
)

var (
	// ErrPermissionDenied indicates the actor lacks moderation privilege
	// for the attempted command. No state is mutated.
	ErrPermissionDenied = errors.New("engine: permission denied")
	// ErrUnknownCommand indicates an unrecognized command name.
	ErrUnknownCommand = errors.New("engine: unknown command")
	// ErrMissingTarget indicates a command that requires a member mention
	// arrived without one.
	ErrMissingTarget = errors.New("engine: missing target member")
)

// evasionReason is the fixed reason code applied when a previously banned
// identity rejoins.
const evasionReason = "Ban evasion: prior BAN on permanent record."

// noticeTTL is how long transient policy notices stay visible.
const noticeTTL = 5 * time.Second

// Config carries the engine's policy knobs.
type Config struct {
	CommandPrefix         string
	VerificationChannelID string
	VerificationEmoji     string
	MemberRole            string
	MutedRole             string
	LinkDenylist          []string
	KeywordDenylist       []string
}

// Engine orchestrates moderation. It is the sole writer of the ledger and
// the sole mutator of the live accumulator; events are handled to
// completion one at a time by the consuming context.
type Engine struct {
	cfg     Config
	ledger  *ledger.Ledger
	metrics *metrics.Accumulator
	fx      Effector
	logger  *zap.Logger
	now     func() time.Time
}

// New wires an engine to its ledger, accumulator, and platform effector.
func New(cfg Config, l *ledger.Ledger, m *metrics.Accumulator, fx Effector, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		ledger:  l,
		metrics: m,
		fx:      fx,
		logger:  logger.Named("engine"),
		now:     time.Now,
	}
}

// HandleMemberJoin enforces ban evasion before recording churn. A member
// with a prior BAN record is re-banned with a fixed reason, staff are
// alerted, and no join metric is recorded — re-banned members do not count
// as churn no matter how often the platform redelivers the join.
func (e *Engine) HandleMemberJoin(ctx context.Context, ev MemberJoined) {
	if e.ledger.HasAction(ev.MemberID, ledger.ActionBan) {
		if err := e.fx.BanMember(ctx, ev.MemberID, evasionReason); err != nil {
			e.logger.Error("Failed to re-ban returning member",
				zap.String("member_id", ev.MemberID), zap.Error(err))
			return
		}

		e.alertStaff(ctx, Alert{
			Title:    "Auto-eviction enforced",
			Body:     "A previously banned member attempted to rejoin and was re-banned.",
			Severity: SeverityCritical,
			Fields: []AlertField{
				{Name: "Member", Value: memberRef(ev.MemberID, ev.Username)},
				{Name: "Reason", Value: evasionReason},
			},
		})
		return
	}

	if err := e.metrics.RecordJoin(); err != nil {
		e.logger.Error("Failed to persist join metric", zap.Error(err))
	}
}

// HandleMemberLeave records the departure unconditionally.
func (e *Engine) HandleMemberLeave(ctx context.Context, ev MemberLeft) {
	_ = ctx

	if err := e.metrics.RecordLeave(); err != nil {
		e.logger.Error("Failed to persist leave metric", zap.Error(err))
	}
}

// HandleMessage records activity metrics, applies the content filters in
// fixed order (first match wins and short-circuits command dispatch), and
// finally dispatches moderator commands.
func (e *Engine) HandleMessage(ctx context.Context, ev Message) {
	if ev.AuthorIsAutomated || strings.TrimSpace(ev.Content) == "" {
		return
	}

	e.metrics.RecordMessage(ev.ChannelID, ev.AuthorID)

	if e.filterContent(ctx, ev) {
		return
	}

	if cmd, ok := parseCommand(e.cfg.CommandPrefix, ev); ok {
		e.Dispatch(ctx, cmd)
	}
}

// HandleReactionAdd grants the member role for the configured reaction in
// the verification channel. Idempotent: members already holding the role
// are left alone, and no ledger entry is written.
func (e *Engine) HandleReactionAdd(ctx context.Context, ev ReactionAdded) {
	if ev.MemberIsAutomated ||
		ev.ChannelID != e.cfg.VerificationChannelID ||
		ev.Emoji != e.cfg.VerificationEmoji {
		return
	}

	held, err := e.fx.HasRole(ctx, ev.MemberID, e.cfg.MemberRole)
	if err != nil {
		e.logger.Error("Failed to check member role", zap.Error(err))
		return
	}
	if held {
		return
	}

	if err := e.fx.AssignRole(ctx, ev.MemberID, e.cfg.MemberRole, "Reaction verification."); err != nil {
		e.logger.Error("Failed to grant member role via reaction",
			zap.String("member_id", ev.MemberID), zap.Error(err))
		return
	}

	e.logger.Info("Granted member role via reaction", zap.String("member_id", ev.MemberID))
}

// filterContent applies the denylists in fixed order: link patterns first,
// then prohibited keywords. A match from an author without moderation
// privilege deletes the message and posts a transient warning; the match
// is handled locally and never propagates.
func (e *Engine) filterContent(ctx context.Context, ev Message) bool {
	if ev.AuthorCanModerate {
		return false
	}

	content := strings.ToLower(ev.Content)

	for _, pattern := range e.cfg.LinkDenylist {
		if pattern != "" && strings.Contains(content, strings.ToLower(pattern)) {
			e.removeFiltered(ctx, ev, "unauthorized links are filtered for community safety.")
			return true
		}
	}

	for _, keyword := range e.cfg.KeywordDenylist {
		if keyword != "" && strings.Contains(content, strings.ToLower(keyword)) {
			e.removeFiltered(ctx, ev, "that phrase is not allowed here. Message removed.")
			return true
		}
	}

	return false
}

func (e *Engine) removeFiltered(ctx context.Context, ev Message, notice string) {
	if err := e.fx.DeleteMessage(ctx, ev.ChannelID, ev.MessageID); err != nil {
		e.logger.Warn("Failed to delete filtered message",
			zap.String("channel_id", ev.ChannelID), zap.Error(err))
		return
	}

	e.transient(ctx, ev.ChannelID, memberRef(ev.AuthorID, ev.AuthorUsername)+", "+notice)
	e.logger.Info("Filtered message removed",
		zap.String("author_id", ev.AuthorID),
		zap.String("channel_id", ev.ChannelID))
}

// recordAction writes the ledger entry and monthly counter for a completed
// punitive effect. Persistence failures are logged to operator output;
// in-memory state stays authoritative.
func (e *Engine) recordAction(action ledger.Action, targetID, targetUsername, actorID, reason string) {
	err := e.ledger.Append(ledger.Record{
		Timestamp:      utils.FormatStamp(e.now()),
		Action:         action,
		TargetID:       targetID,
		ModeratorID:    actorID,
		Reason:         reason,
		TargetUsername: targetUsername,
	})
	if err != nil {
		e.logger.Error("Failed to persist ledger entry",
			zap.String("action", string(action)),
			zap.String("target_id", targetID),
			zap.Error(err))
	}

	if err := e.metrics.RecordAction(action); err != nil {
		e.logger.Error("Failed to persist action metric", zap.Error(err))
	}
}

func (e *Engine) alertStaff(ctx context.Context, alert Alert) {
	if err := e.fx.AlertStaff(ctx, alert); err != nil {
		e.logger.Warn("Failed to deliver staff alert", zap.String("title", alert.Title), zap.Error(err))
	}
}

func (e *Engine) transient(ctx context.Context, channelID, content string) {
	if err := e.fx.SendTransientNotice(ctx, channelID, content, noticeTTL); err != nil {
		e.logger.Warn("Failed to send transient notice", zap.Error(err))
	}
}

func memberRef(id, username string) string {
	if username != "" {
		return username + " (" + id + ")"
	}
	return id
}
