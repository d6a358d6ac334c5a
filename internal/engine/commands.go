package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aura-ops/aura/internal/ledger"
	"go.uber.org/zap"
)

// Command is a parsed moderator command. The actor's capability flag is
// computed by the platform adapter before the command reaches the engine.
type Command struct {
	Name             string
	ActorID          string
	ActorUsername    string
	ActorCanModerate bool
	ChannelID        string
	MessageID        string
	Args             []string
}

// parseCommand extracts a command from a prefixed message. Returns false
// for anything that is not a command invocation.
func parseCommand(prefix string, ev Message) (Command, bool) {
	if prefix == "" || !strings.HasPrefix(ev.Content, prefix) {
		return Command{}, false
	}

	fields := strings.Fields(ev.Content[len(prefix):])
	if len(fields) == 0 {
		return Command{}, false
	}

	return Command{
		Name:             strings.ToLower(fields[0]),
		ActorID:          ev.AuthorID,
		ActorUsername:    ev.AuthorUsername,
		ActorCanModerate: ev.AuthorCanModerate,
		ChannelID:        ev.ChannelID,
		MessageID:        ev.MessageID,
		Args:             fields[1:],
	}, true
}

// target returns the member referenced by the first argument: a platform
// mention (<@id> or <@!id>) or a raw numeric ID.
func (c Command) target() (string, bool) {
	if len(c.Args) == 0 {
		return "", false
	}
	return parseMention(c.Args[0])
}

// reason joins the arguments after the target into free text.
func (c Command) reason() string {
	if len(c.Args) < 2 {
		return "No reason provided"
	}
	return strings.Join(c.Args[1:], " ")
}

func parseMention(arg string) (string, bool) {
	if id, ok := strings.CutPrefix(arg, "<@!"); ok {
		id, ok = strings.CutSuffix(id, ">")
		return id, ok && id != ""
	}
	if id, ok := strings.CutPrefix(arg, "<@"); ok {
		id, ok = strings.CutSuffix(id, ">")
		return id, ok && id != ""
	}
	if _, err := strconv.ParseUint(arg, 10, 64); err == nil {
		return arg, true
	}
	return "", false
}

func parseChannelMention(arg string) (string, bool) {
	if id, ok := strings.CutPrefix(arg, "<#"); ok {
		id, ok = strings.CutSuffix(id, ">")
		return id, ok && id != ""
	}
	if _, err := strconv.ParseUint(arg, 10, 64); err == nil {
		return arg, true
	}
	return "", false
}

// Dispatch routes a parsed command to its handler. Failures are reported
// to the invoking actor by the handlers; unknown names are ignored the way
// the platform ignores unregistered commands.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) {
	var err error

	switch cmd.Name {
	case "kick":
		err = e.cmdKick(ctx, cmd)
	case "ban":
		err = e.cmdBan(ctx, cmd)
	case "mute":
		err = e.cmdMute(ctx, cmd)
	case "unmute":
		err = e.cmdUnmute(ctx, cmd)
	case "flag", "report":
		err = e.cmdFlag(ctx, cmd)
	case "whois":
		err = e.cmdWhois(ctx, cmd)
	case "say":
		err = e.cmdSay(ctx, cmd)
	case "purge":
		err = e.cmdPurge(ctx, cmd)
	case "verify":
		err = e.cmdVerify(ctx, cmd)
	case "commands":
		err = e.cmdCommands(ctx, cmd)
	default:
		return
	}

	if err != nil {
		e.logger.Info("Command did not complete",
			zap.String("command", cmd.Name),
			zap.String("actor_id", cmd.ActorID),
			zap.Error(err))
	}
}

// requireModerator enforces the capability check for privileged commands.
// The denial is reported to the invoking actor only.
func (e *Engine) requireModerator(ctx context.Context, cmd Command) error {
	if cmd.ActorCanModerate {
		return nil
	}

	e.transient(ctx, cmd.ChannelID, "You lack the clearance for that command.")
	return ErrPermissionDenied
}

// punitive runs a platform effect and, only when it succeeds, writes the
// ledger entry and monthly counter. A rejected effect is surfaced to the
// invoking actor and produces no ledger record.
func (e *Engine) punitive(
	ctx context.Context, cmd Command, action ledger.Action, title string, effect func(target string) error,
) error {
	if err := e.requireModerator(ctx, cmd); err != nil {
		return err
	}

	target, ok := cmd.target()
	if !ok {
		e.transient(ctx, cmd.ChannelID, "Usage: "+e.cfg.CommandPrefix+cmd.Name+" @member reason")
		return ErrMissingTarget
	}
	reason := cmd.reason()

	if err := effect(target); err != nil {
		e.transient(ctx, cmd.ChannelID, fmt.Sprintf("Could not %s that member: %v", cmd.Name, err))
		return fmt.Errorf("%s %s: %w", cmd.Name, target, err)
	}

	e.recordAction(action, target, "", cmd.ActorID, reason)

	e.alertStaff(ctx, Alert{
		Title:    title,
		Severity: SeverityWarning,
		Fields: []AlertField{
			{Name: "Member", Value: target},
			{Name: "Moderator", Value: memberRef(cmd.ActorID, cmd.ActorUsername)},
			{Name: "Reason", Value: reason},
		},
	})
	e.transient(ctx, cmd.ChannelID, fmt.Sprintf("Done. %s applied to %s.", strings.ToUpper(cmd.Name), target))

	return nil
}

func (e *Engine) cmdKick(ctx context.Context, cmd Command) error {
	return e.punitive(ctx, cmd, ledger.ActionKick, "Member kicked", func(target string) error {
		return e.fx.KickMember(ctx, target, cmd.reason())
	})
}

func (e *Engine) cmdBan(ctx context.Context, cmd Command) error {
	return e.punitive(ctx, cmd, ledger.ActionBan, "Member banned", func(target string) error {
		return e.fx.BanMember(ctx, target, cmd.reason())
	})
}

func (e *Engine) cmdMute(ctx context.Context, cmd Command) error {
	return e.punitive(ctx, cmd, ledger.ActionMute, "Member muted", func(target string) error {
		return e.fx.AssignRole(ctx, target, e.cfg.MutedRole, cmd.reason())
	})
}

// cmdUnmute lifts a suspension. Non-punitive: no ledger entry, no counter.
func (e *Engine) cmdUnmute(ctx context.Context, cmd Command) error {
	if err := e.requireModerator(ctx, cmd); err != nil {
		return err
	}

	target, ok := cmd.target()
	if !ok {
		e.transient(ctx, cmd.ChannelID, "Usage: "+e.cfg.CommandPrefix+"unmute @member")
		return ErrMissingTarget
	}

	if err := e.fx.RemoveRole(ctx, target, e.cfg.MutedRole, "Suspension lifted by moderator."); err != nil {
		e.transient(ctx, cmd.ChannelID, fmt.Sprintf("Could not unmute that member: %v", err))
		return fmt.Errorf("unmute %s: %w", target, err)
	}

	e.transient(ctx, cmd.ChannelID, "Suspension lifted for "+target+".")
	return nil
}

// cmdFlag files a discreet report: any member may invoke it. The invoking
// message is removed to keep the report private and the actor is
// acknowledged by direct message.
func (e *Engine) cmdFlag(ctx context.Context, cmd Command) error {
	target, ok := cmd.target()
	if !ok {
		e.transient(ctx, cmd.ChannelID, "Usage: "+e.cfg.CommandPrefix+"flag @member reason")
		return ErrMissingTarget
	}
	reason := cmd.reason()

	e.recordAction(ledger.ActionFlag, target, "", cmd.ActorID, reason)

	e.alertStaff(ctx, Alert{
		Title:    "Violation report submitted",
		Severity: SeverityInfo,
		Fields: []AlertField{
			{Name: "Reported member", Value: target},
			{Name: "Reported by", Value: memberRef(cmd.ActorID, cmd.ActorUsername)},
			{Name: "Details", Value: reason},
		},
	})

	if err := e.fx.DeleteMessage(ctx, cmd.ChannelID, cmd.MessageID); err != nil {
		e.logger.Warn("Failed to delete report command message", zap.Error(err))
	}
	if err := e.fx.SendDirectMessage(ctx, cmd.ActorID, "Report submitted to staff discreetly. Thank you."); err != nil {
		e.logger.Warn("Failed to acknowledge report", zap.Error(err))
	}

	return nil
}

// cmdWhois renders a member's disciplinary history. Only punitive actions
// count as visible incidents; flags stay in the ledger but are excluded
// from the summary.
func (e *Engine) cmdWhois(ctx context.Context, cmd Command) error {
	if err := e.requireModerator(ctx, cmd); err != nil {
		return err
	}

	target, ok := cmd.target()
	if !ok {
		e.transient(ctx, cmd.ChannelID, "Usage: "+e.cfg.CommandPrefix+"whois @member")
		return ErrMissingTarget
	}

	var history []ledger.Record
	for rec := range e.ledger.Find(func(r ledger.Record) bool {
		return r.TargetID == target && r.Action.Punitive()
	}) {
		history = append(history, rec)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Background check for %s\n", target)
	if len(history) == 0 {
		b.WriteString("Clean profile. No infractions found.")
	} else {
		fmt.Fprintf(&b, "Disciplinary history (%d incidents):\n", len(history))
		for i, rec := range history {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- [%s] %s — %s\n", rec.Action, rec.Timestamp, rec.Reason)
		}
	}

	if err := e.fx.SendMessage(ctx, cmd.ChannelID, b.String()); err != nil {
		return fmt.Errorf("whois reply: %w", err)
	}
	return nil
}

// cmdSay broadcasts a message to a channel on the moderator's behalf. The
// command message is removed and the moderator gets a private receipt.
func (e *Engine) cmdSay(ctx context.Context, cmd Command) error {
	if err := e.requireModerator(ctx, cmd); err != nil {
		return err
	}

	if len(cmd.Args) < 2 {
		e.transient(ctx, cmd.ChannelID, "Usage: "+e.cfg.CommandPrefix+"say #channel message")
		return ErrMissingTarget
	}

	channelID, ok := parseChannelMention(cmd.Args[0])
	if !ok {
		e.transient(ctx, cmd.ChannelID, "Usage: "+e.cfg.CommandPrefix+"say #channel message")
		return ErrMissingTarget
	}
	text := strings.Join(cmd.Args[1:], " ")

	if err := e.fx.DeleteMessage(ctx, cmd.ChannelID, cmd.MessageID); err != nil {
		e.logger.Warn("Failed to delete broadcast command message", zap.Error(err))
	}

	if err := e.fx.SendMessage(ctx, channelID, text); err != nil {
		if dmErr := e.fx.SendDirectMessage(ctx, cmd.ActorID, fmt.Sprintf("Broadcast failed: %v", err)); dmErr != nil {
			e.logger.Warn("Failed to report broadcast failure", zap.Error(dmErr))
		}
		return fmt.Errorf("broadcast to %s: %w", channelID, err)
	}

	if err := e.fx.SendDirectMessage(ctx, cmd.ActorID, "Broadcast delivered."); err != nil {
		e.logger.Warn("Failed to acknowledge broadcast", zap.Error(err))
	}
	return nil
}

// cmdPurge bulk-deletes recent messages. The triggering command message is
// deleted too but excluded from the reported count.
func (e *Engine) cmdPurge(ctx context.Context, cmd Command) error {
	if err := e.requireModerator(ctx, cmd); err != nil {
		return err
	}

	count := 0
	if len(cmd.Args) > 0 {
		count, _ = strconv.Atoi(cmd.Args[0])
	}
	if count < 1 {
		e.transient(ctx, cmd.ChannelID, "Purge requires a number greater than 0.")
		return ErrMissingTarget
	}

	deleted, err := e.fx.PurgeMessages(ctx, cmd.ChannelID, count+1)
	if err != nil {
		e.transient(ctx, cmd.ChannelID, fmt.Sprintf("Purge failed: %v", err))
		return fmt.Errorf("purge %s: %w", cmd.ChannelID, err)
	}

	reported := max(deleted-1, 0)
	e.transient(ctx, cmd.ChannelID, fmt.Sprintf("Deleted %d messages.", reported))
	return nil
}

// cmdVerify is the self-service role claim: any member may invoke it.
func (e *Engine) cmdVerify(ctx context.Context, cmd Command) error {
	held, err := e.fx.HasRole(ctx, cmd.ActorID, e.cfg.MemberRole)
	if err != nil {
		e.transient(ctx, cmd.ChannelID, "Verification is unavailable right now.")
		return fmt.Errorf("verify role check: %w", err)
	}
	if held {
		e.transient(ctx, cmd.ChannelID, "You already have access.")
		return nil
	}

	if err := e.fx.AssignRole(ctx, cmd.ActorID, e.cfg.MemberRole, "Manual verification command."); err != nil {
		e.transient(ctx, cmd.ChannelID, fmt.Sprintf("Could not grant access: %v", err))
		return fmt.Errorf("verify %s: %w", cmd.ActorID, err)
	}

	e.transient(ctx, cmd.ChannelID, "Access granted. Welcome in.")
	return nil
}

var helpText = strings.TrimSpace(`
Staff commands:
  kick @member reason — remove a member
  ban @member reason — permanently remove a member
  mute @member reason — suspend a member's messages
  unmute @member — lift a suspension
  whois @member — show disciplinary history
  say #channel message — broadcast as the assistant
  purge N — delete the last N messages
Everyone:
  flag @member reason — discreetly report a member
  verify — claim the member role
`)

func (e *Engine) cmdCommands(ctx context.Context, cmd Command) error {
	if err := e.requireModerator(ctx, cmd); err != nil {
		return err
	}

	if err := e.fx.SendMessage(ctx, cmd.ChannelID, helpText); err != nil {
		return fmt.Errorf("help reply: %w", err)
	}
	return nil
}
