// Package commands implements the chat command surface. It is transport free:
// the Discord adapter turns a message into a Message and posts the returned Reply.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"voicetime/internal/config"
	"voicetime/internal/metrics"
	"voicetime/internal/report"
	"voicetime/internal/tracker"
	"voicetime/pkg/utils"
)

// Reply texts
const (
	NoPermission = "No permission."
	NotFound     = "User not found in the database to remove time from."
	Failure      = "Something went wrong, please try again later."
)

// Ledger is the part of the tracker the commands read and adjust
type Ledger interface {
	report.Source
	CurrentTotal(ctx context.Context, userID string, now time.Time) (int64, error)
	AddTime(ctx context.Context, userID string, ms int64, now time.Time) error
	RemoveTime(ctx context.Context, userID string, ms int64, now time.Time) error
}

// User is a mentioned user
type User struct {
	ID       string
	Username string
}

// Message is an incoming chat message
type Message struct {
	AuthorID    string
	AuthorIsBot bool
	Content     string
	Mentions    []User
}

// Reply is what the bot posts back.
// A zero TTL keeps the reply in the channel.
type Reply struct {
	Chunks        []string
	TTL           time.Duration
	AsReply       bool // reference the triggering message
	DeleteTrigger bool
}

// IsAdmin decides whether a user may correct totals
type IsAdmin func(userID string) bool

// StaticAdmins allows exactly the given user IDs
func StaticAdmins(ids ...string) IsAdmin {
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			allowed[id] = struct{}{}
		}
	}
	return func(userID string) bool {
		_, ok := allowed[userID]
		return ok
	}
}

// Handler dispatches commands
type Handler struct {
	ledger  Ledger
	reports *report.Builder
	isAdmin IsAdmin
	clock   tracker.Clock
	prefix  string
	replies config.RepliesConfig
	logger  zerolog.Logger
}

// NewHandler creates a command handler
func NewHandler(ledger Ledger, isAdmin IsAdmin, clock tracker.Clock, cfg *config.Config, logger zerolog.Logger) *Handler {
	if clock == nil {
		clock = tracker.RealClock{}
	}
	if isAdmin == nil {
		isAdmin = StaticAdmins(cfg.Discord.AdminIDs...)
	}
	prefix := cfg.Discord.CommandPrefix
	if prefix == "" {
		prefix = "!"
	}
	return &Handler{
		ledger:  ledger,
		reports: report.NewBuilder(ledger, cfg.Report.MaxChunkLength),
		isAdmin: isAdmin,
		clock:   clock,
		prefix:  prefix,
		replies: cfg.Replies,
		logger:  logger.With().Str("component", "commands").Logger(),
	}
}

// Handle runs the command in msg. It returns nil when msg is not a command.
func (h *Handler) Handle(ctx context.Context, msg Message) *Reply {
	if msg.AuthorIsBot {
		return nil
	}

	args := strings.Fields(msg.Content)
	if len(args) == 0 || !strings.HasPrefix(args[0], h.prefix) {
		return nil
	}

	switch name := strings.ToLower(strings.TrimPrefix(args[0], h.prefix)); name {
	case "rank":
		metrics.CommandsTotal.WithLabelValues("rank").Inc()
		return h.handleRank(ctx)
	case "mytime", "meutempo":
		metrics.CommandsTotal.WithLabelValues("mytime").Inc()
		return h.handleMyTime(ctx, msg)
	case "addtime", "removetime":
		metrics.CommandsTotal.WithLabelValues(name).Inc()
		return h.handleAdjust(ctx, msg, args, name)
	default:
		return nil
	}
}

// handleRank handles the !rank command
func (h *Handler) handleRank(ctx context.Context) *Reply {
	chunks, err := h.reports.FullReport(ctx, h.clock.Now())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build ranking")
		return &Reply{Chunks: []string{Failure}, TTL: h.replies.Usage, DeleteTrigger: true}
	}
	return &Reply{Chunks: chunks, TTL: h.replies.Rank, DeleteTrigger: true}
}

// handleMyTime handles the !mytime command
func (h *Handler) handleMyTime(ctx context.Context, msg Message) *Reply {
	total, err := h.ledger.CurrentTotal(ctx, msg.AuthorID, h.clock.Now())
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", msg.AuthorID).Msg("Failed to read voice time")
		return &Reply{Chunks: []string{Failure}, TTL: h.replies.MyTime, DeleteTrigger: true}
	}

	text := fmt.Sprintf("⏱ %s, your total time: **%s**", utils.FormatUserMention(msg.AuthorID), utils.FormatHHMM(total))
	return &Reply{Chunks: []string{text}, TTL: h.replies.MyTime, DeleteTrigger: true}
}

// handleAdjust handles the !addtime and !removetime commands
func (h *Handler) handleAdjust(ctx context.Context, msg Message, args []string, name string) *Reply {
	if !h.isAdmin(msg.AuthorID) {
		h.logger.Warn().Str("user_id", msg.AuthorID).Str("command", name).Msg("Rejected command from non-admin")
		return &Reply{Chunks: []string{NoPermission}, AsReply: true}
	}

	target, found := targetUser(msg, args)
	ms, ok := utils.ParseHoursMinutes(arg(args, 2), arg(args, 3))
	if !found || !ok {
		return &Reply{Chunks: []string{h.usage(name)}, TTL: h.replies.Usage, AsReply: true}
	}

	now := h.clock.Now()
	var err error
	if name == "addtime" {
		err = h.ledger.AddTime(ctx, target.ID, ms, now)
	} else {
		err = h.ledger.RemoveTime(ctx, target.ID, ms, now)
	}

	switch {
	case errors.Is(err, tracker.ErrTargetNotFound):
		return &Reply{Chunks: []string{NotFound}, TTL: h.replies.NotFound, AsReply: true}
	case err != nil:
		h.logger.Error().Err(err).
			Str("admin_id", msg.AuthorID).
			Str("user_id", target.ID).
			Str("command", name).
			Msg("Failed to adjust voice time")
		return &Reply{Chunks: []string{Failure}, TTL: h.replies.Usage, AsReply: true}
	}

	h.logger.Info().
		Str("admin_id", msg.AuthorID).
		Str("user_id", target.ID).
		Str("command", name).
		Int64("ms", ms).
		Msg("Admin adjusted voice time")

	action := "added to"
	if name == "removetime" {
		action = "removed from"
	}
	text := fmt.Sprintf("%s %s %s.", utils.FormatHoursMinutes(ms), action, target.Username)
	return &Reply{Chunks: []string{text}, TTL: h.replies.Confirm, AsReply: true}
}

func (h *Handler) usage(name string) string {
	return fmt.Sprintf("Usage: %[1]s%[2]s @user <hours minutes>  or  <hours:minutes>\nE.g.: %[1]s%[2]s @someone 2 30  |  %[1]s%[2]s @someone 2:30", h.prefix, name)
}

// targetUser returns the first mentioned user, falling back to a raw
// mention in the first argument
func targetUser(msg Message, args []string) (User, bool) {
	if len(msg.Mentions) > 0 && msg.Mentions[0].ID != "" {
		user := msg.Mentions[0]
		if user.Username == "" {
			user.Username = utils.FormatUserMention(user.ID)
		}
		return user, true
	}

	if mention := arg(args, 1); utils.IsUserMention(mention) {
		id := utils.ExtractUserIDFromMention(mention)
		if !utils.IsSnowflake(id) {
			return User{}, false
		}
		return User{ID: id, Username: utils.FormatUserMention(id)}, true
	}

	return User{}, false
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
