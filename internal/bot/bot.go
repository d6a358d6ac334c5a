// Package bot adapts the Discord gateway to the moderation engine: it
// translates gateway events into the engine's typed events and implements
// the engine's platform-effect interface over the Discord REST API.
package bot

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/cenkalti/backoff/v4"
	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/aura-ops/aura/internal/engine"
	"github.com/aura-ops/aura/internal/setup/config"
)

// Bot owns the gateway connection and feeds events to the engine. Events
// are handled inline on the gateway dispatch goroutine so each one
// completes before the next is admitted, which is what the engine's
// single-writer ownership of the ledger and accumulator relies on.
type Bot struct {
	client    bot.Client
	engine    *engine.Engine
	cfg       *config.DiscordConfig
	logger    *zap.Logger
	connected atomic.Bool
	guildID   atomic.Uint64
}

// New builds the Discord client with the gateway intents and event
// listeners the engine needs. The engine is attached afterwards via
// AttachEngine because the effector (this bot) is one of the engine's
// dependencies.
func New(cfg *config.DiscordConfig, logger *zap.Logger) (*Bot, error) {
	b := &Bot{
		cfg:    cfg,
		logger: logger.Named("bot"),
	}

	client, err := disgo.New(cfg.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMembers,
				gateway.IntentGuildMessages,
				gateway.IntentMessageContent,
				gateway.IntentGuildMessageReactions,
			),
		),
		// Role permissions back the moderator capability check on every
		// message, so roles must be cached rather than fetched per event.
		bot.WithCacheConfigOpts(
			cache.WithCaches(cache.FlagRoles),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnReady:                   b.onReady,
			OnGuildReady:              b.onGuildReady,
			OnGuildMemberJoin:         b.onMemberJoin,
			OnGuildMemberLeave:        b.onMemberLeave,
			OnMessageCreate:           b.onMessageCreate,
			OnGuildMessageReactionAdd: b.onReactionAdd,
		}),
	)
	if err != nil {
		return nil, err
	}

	b.client = client
	return b, nil
}

// AttachEngine wires the moderation engine that consumes this bot's events.
func (b *Bot) AttachEngine(e *engine.Engine) {
	b.engine = e
}

// Start opens the gateway connection, retrying with exponential backoff;
// once open, disgo's own reconnect logic owns the connection.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Opening gateway connection")

	open := func() error {
		return b.client.OpenGateway(ctx)
	}

	return backoff.Retry(open, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx))
}

// Close shuts down the gateway connection.
func (b *Bot) Close(ctx context.Context) {
	b.logger.Info("Closing gateway connection")
	b.connected.Store(false)
	b.client.Close(ctx)
}

// Connected reports whether the event consumer is connected to the
// platform; the public status page reads this.
func (b *Bot) Connected() bool {
	return b.connected.Load()
}

func (b *Bot) onReady(*events.Ready) {
	b.connected.Store(true)
	b.logger.Info("Gateway connection ready")
}

func (b *Bot) onGuildReady(event *events.GuildReady) {
	// Single-community deployment: remember the guild for REST effects.
	b.guildID.Store(uint64(event.GuildID))
	b.logger.Info("Guild ready", zap.Uint64("guild_id", uint64(event.GuildID)))
}

func (b *Bot) onMemberJoin(event *events.GuildMemberJoin) {
	if b.engine == nil {
		return
	}

	b.engine.HandleMemberJoin(context.Background(), engine.MemberJoined{
		MemberID: event.Member.User.ID.String(),
		Username: event.Member.User.Username,
	})
}

func (b *Bot) onMemberLeave(event *events.GuildMemberLeave) {
	if b.engine == nil {
		return
	}

	b.engine.HandleMemberLeave(context.Background(), engine.MemberLeft{
		MemberID: event.User.ID.String(),
		Username: event.User.Username,
	})
}

func (b *Bot) onMessageCreate(event *events.MessageCreate) {
	if b.engine == nil || event.GuildID == nil {
		return
	}

	msg := event.Message
	b.engine.HandleMessage(context.Background(), engine.Message{
		MessageID:         msg.ID.String(),
		ChannelID:         msg.ChannelID.String(),
		AuthorID:          msg.Author.ID.String(),
		AuthorUsername:    msg.Author.Username,
		Content:           msg.Content,
		AuthorIsAutomated: msg.Author.Bot || msg.Author.System,
		AuthorCanModerate: b.canModerate(*event.GuildID, msg.Member),
	})
}

func (b *Bot) onReactionAdd(event *events.GuildMessageReactionAdd) {
	if b.engine == nil {
		return
	}

	emoji := ""
	if event.Emoji.Name != nil {
		emoji = *event.Emoji.Name
	}

	b.engine.HandleReactionAdd(context.Background(), engine.ReactionAdded{
		ChannelID:         event.ChannelID.String(),
		MemberID:          event.UserID.String(),
		Emoji:             emoji,
		MemberIsAutomated: event.Member.User.Bot,
	})
}

// canModerate is the capability predicate injected into the engine's
// events: a member may moderate when any of their roles grants manage
// messages or administrator.
func (b *Bot) canModerate(guildID snowflake.ID, member *discord.Member) bool {
	if member == nil {
		return false
	}

	for _, roleID := range member.RoleIDs {
		role, ok := b.client.Caches().Role(guildID, roleID)
		if !ok {
			continue
		}
		if role.Permissions.Has(discord.PermissionAdministrator) ||
			role.Permissions.Has(discord.PermissionManageMessages) {
			return true
		}
	}

	return false
}

// roleByName resolves a configured role name to its ID within the guild.
func (b *Bot) roleByName(ctx context.Context, name string) (snowflake.ID, bool) {
	guildID := snowflake.ID(b.guildID.Load())
	if guildID == 0 {
		return 0, false
	}

	roles, err := b.client.Rest().GetRoles(guildID, withCtx(ctx)...)
	if err != nil {
		b.logger.Error("Failed to list guild roles", zap.Error(err))
		return 0, false
	}

	for _, role := range roles {
		if strings.EqualFold(role.Name, name) {
			return role.ID, true
		}
	}

	return 0, false
}
