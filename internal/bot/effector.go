package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/aura-ops/aura/internal/engine"
)

// Embed colors per alert severity, matching the dashboard's palette.
const (
	infoEmbedColor     = 0x3273DC
	warningEmbedColor  = 0xFFDD57
	criticalEmbedColor = 0xFF3860
)

func withCtx(ctx context.Context) []rest.RequestOpt {
	return []rest.RequestOpt{rest.WithCtx(ctx)}
}

func withCtxReason(ctx context.Context, reason string) []rest.RequestOpt {
	return []rest.RequestOpt{rest.WithCtx(ctx), rest.WithReason(reason)}
}

func (b *Bot) guild() (snowflake.ID, error) {
	guildID := snowflake.ID(b.guildID.Load())
	if guildID == 0 {
		return 0, fmt.Errorf("guild not ready")
	}
	return guildID, nil
}

// BanMember bans the member without pruning their message history; the
// permanent record is the audit trail, not message deletion.
func (b *Bot) BanMember(ctx context.Context, memberID, reason string) error {
	guildID, err := b.guild()
	if err != nil {
		return err
	}

	userID, err := snowflake.Parse(memberID)
	if err != nil {
		return fmt.Errorf("parse member id: %w", err)
	}

	return b.client.Rest().AddBan(guildID, userID, 0, withCtxReason(ctx, reason)...)
}

func (b *Bot) KickMember(ctx context.Context, memberID, reason string) error {
	guildID, err := b.guild()
	if err != nil {
		return err
	}

	userID, err := snowflake.Parse(memberID)
	if err != nil {
		return fmt.Errorf("parse member id: %w", err)
	}

	return b.client.Rest().RemoveMember(guildID, userID, withCtxReason(ctx, reason)...)
}

func (b *Bot) AssignRole(ctx context.Context, memberID, role, reason string) error {
	guildID, err := b.guild()
	if err != nil {
		return err
	}

	userID, err := snowflake.Parse(memberID)
	if err != nil {
		return fmt.Errorf("parse member id: %w", err)
	}

	roleID, ok := b.roleByName(ctx, role)
	if !ok {
		return fmt.Errorf("role %q not found in guild", role)
	}

	return b.client.Rest().AddMemberRole(guildID, userID, roleID, withCtxReason(ctx, reason)...)
}

func (b *Bot) RemoveRole(ctx context.Context, memberID, role, reason string) error {
	guildID, err := b.guild()
	if err != nil {
		return err
	}

	userID, err := snowflake.Parse(memberID)
	if err != nil {
		return fmt.Errorf("parse member id: %w", err)
	}

	roleID, ok := b.roleByName(ctx, role)
	if !ok {
		return fmt.Errorf("role %q not found in guild", role)
	}

	return b.client.Rest().RemoveMemberRole(guildID, userID, roleID, withCtxReason(ctx, reason)...)
}

func (b *Bot) HasRole(ctx context.Context, memberID, role string) (bool, error) {
	guildID, err := b.guild()
	if err != nil {
		return false, err
	}

	userID, err := snowflake.Parse(memberID)
	if err != nil {
		return false, fmt.Errorf("parse member id: %w", err)
	}

	roleID, ok := b.roleByName(ctx, role)
	if !ok {
		return false, fmt.Errorf("role %q not found in guild", role)
	}

	member, err := b.client.Rest().GetMember(guildID, userID, withCtx(ctx)...)
	if err != nil {
		return false, fmt.Errorf("get member: %w", err)
	}

	for _, id := range member.RoleIDs {
		if id == roleID {
			return true, nil
		}
	}

	return false, nil
}

func (b *Bot) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	chanID, err := snowflake.Parse(channelID)
	if err != nil {
		return fmt.Errorf("parse channel id: %w", err)
	}

	msgID, err := snowflake.Parse(messageID)
	if err != nil {
		return fmt.Errorf("parse message id: %w", err)
	}

	return b.client.Rest().DeleteMessage(chanID, msgID, withCtx(ctx)...)
}

// PurgeMessages fetches up to limit recent messages and bulk-deletes them.
// Discord refuses bulk deletes of a single message, so that case falls
// back to a plain delete.
func (b *Bot) PurgeMessages(ctx context.Context, channelID string, limit int) (int, error) {
	chanID, err := snowflake.Parse(channelID)
	if err != nil {
		return 0, fmt.Errorf("parse channel id: %w", err)
	}

	messages, err := b.client.Rest().GetMessages(chanID, 0, 0, 0, limit, withCtx(ctx)...)
	if err != nil {
		return 0, fmt.Errorf("list messages: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	if len(messages) == 1 {
		if err := b.client.Rest().DeleteMessage(chanID, messages[0].ID, withCtx(ctx)...); err != nil {
			return 0, fmt.Errorf("delete message: %w", err)
		}
		return 1, nil
	}

	messageIDs := make([]snowflake.ID, 0, len(messages))
	for _, msg := range messages {
		messageIDs = append(messageIDs, msg.ID)
	}

	if err := b.client.Rest().BulkDeleteMessages(chanID, messageIDs, withCtx(ctx)...); err != nil {
		return 0, fmt.Errorf("bulk delete messages: %w", err)
	}

	return len(messageIDs), nil
}

func (b *Bot) SendMessage(ctx context.Context, channelID, content string) error {
	chanID, err := snowflake.Parse(channelID)
	if err != nil {
		return fmt.Errorf("parse channel id: %w", err)
	}

	_, err = b.client.Rest().CreateMessage(chanID, discord.NewMessageCreateBuilder().
		SetContent(content).
		Build(), withCtx(ctx)...)
	return err
}

// SendTransientNotice posts a message and schedules its removal after ttl.
// The delete is best-effort and runs off the event goroutine.
func (b *Bot) SendTransientNotice(ctx context.Context, channelID, content string, ttl time.Duration) error {
	chanID, err := snowflake.Parse(channelID)
	if err != nil {
		return fmt.Errorf("parse channel id: %w", err)
	}

	msg, err := b.client.Rest().CreateMessage(chanID, discord.NewMessageCreateBuilder().
		SetContent(content).
		Build(), withCtx(ctx)...)
	if err != nil {
		return err
	}

	time.AfterFunc(ttl, func() {
		if err := b.client.Rest().DeleteMessage(chanID, msg.ID); err != nil {
			b.logger.Debug("Failed to remove transient notice",
				zap.Error(err),
				zap.String("channel_id", channelID))
		}
	})

	return nil
}

func (b *Bot) SendDirectMessage(ctx context.Context, memberID, content string) error {
	userID, err := snowflake.Parse(memberID)
	if err != nil {
		return fmt.Errorf("parse member id: %w", err)
	}

	channel, err := b.client.Rest().CreateDMChannel(userID, withCtx(ctx)...)
	if err != nil {
		return fmt.Errorf("create dm channel: %w", err)
	}

	_, err = b.client.Rest().CreateMessage(channel.ID(), discord.NewMessageCreateBuilder().
		SetContent(content).
		Build(), withCtx(ctx)...)
	return err
}

// AlertStaff renders the alert as an embed in the configured alert
// channel. With no alert channel configured the alert is logged instead
// of dropped silently.
func (b *Bot) AlertStaff(ctx context.Context, alert engine.Alert) error {
	if b.cfg.AlertChannelID == "" {
		b.logger.Info("Staff alert (no alert channel configured)",
			zap.String("title", alert.Title),
			zap.String("body", alert.Body))
		return nil
	}

	chanID, err := snowflake.Parse(b.cfg.AlertChannelID)
	if err != nil {
		return fmt.Errorf("parse alert channel id: %w", err)
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(alert.Title).
		SetDescription(alert.Body).
		SetColor(embedColor(alert.Severity)).
		SetTimestamp(time.Now())
	for _, field := range alert.Fields {
		embed.AddField(field.Name, field.Value, true)
	}

	_, err = b.client.Rest().CreateMessage(chanID, discord.NewMessageCreateBuilder().
		SetEmbeds(embed.Build()).
		Build(), withCtx(ctx)...)
	return err
}

func embedColor(severity engine.Severity) int {
	switch severity {
	case engine.SeverityCritical:
		return criticalEmbedColor
	case engine.SeverityWarning:
		return warningEmbedColor
	default:
		return infoEmbedColor
	}
}
