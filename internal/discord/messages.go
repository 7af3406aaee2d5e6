package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"voicetime/internal/commands"
)

// messageCreate routes messages to the command handler and schedules cleanup
// of user messages in the ranking channel
func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	name, ok := b.channelName(s, m.GuildID, m.ChannelID)
	if !ok {
		return
	}

	if name == b.cfg.AllowedChannel && b.cfg.CleanupUserMessages {
		b.scheduleUserCleanup(s, m.Message)
	}

	// Direct messages have no channel name and are always accepted
	if name != "" && name != b.cfg.AllowedChannel {
		return
	}
	if !strings.HasPrefix(strings.TrimSpace(m.Content), b.cfg.CommandPrefix) {
		return
	}

	// Off the gateway goroutine
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.handleCommand(s, m.Message)
	}()
}

func (b *Bot) handleCommand(s *discordgo.Session, m *discordgo.Message) {
	ctx, cancel := context.WithTimeout(b.ctx, 30*time.Second)
	defer cancel()

	reply := b.commands.Handle(ctx, toCommandMessage(m))
	if reply == nil {
		return
	}

	if reply.DeleteTrigger {
		if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
			b.logger.Debug().Err(err).Str("message_id", m.ID).Msg("Failed to delete command message")
		}
	}

	for _, chunk := range reply.Chunks {
		var (
			sent *discordgo.Message
			err  error
		)
		if reply.AsReply && !reply.DeleteTrigger {
			sent, err = s.ChannelMessageSendReply(m.ChannelID, chunk, m.Reference())
		} else {
			sent, err = s.ChannelMessageSend(m.ChannelID, chunk)
		}
		if err != nil {
			b.logger.Error().Err(err).Str("channel_id", m.ChannelID).Msg("Failed to send reply")
			return
		}

		if reply.TTL > 0 {
			b.deleteAfter(s, sent.ChannelID, sent.ID, reply.TTL)
		}
	}
}

// scheduleUserCleanup deletes a user message after the configured delay unless it is pinned by then
func (b *Bot) scheduleUserCleanup(s *discordgo.Session, m *discordgo.Message) {
	b.timers.After(b.replies.UserMessage, func() {
		pinned, err := s.ChannelMessagesPinned(m.ChannelID)
		if err != nil {
			b.logger.Debug().Err(err).Str("channel_id", m.ChannelID).Msg("Failed to fetch pinned messages")
			return
		}
		if isPinned(m.ID, pinned) {
			return
		}
		if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
			b.logger.Debug().Err(err).Str("message_id", m.ID).Msg("Failed to delete user message")
		}
	})
}

func (b *Bot) deleteAfter(s *discordgo.Session, channelID, messageID string, ttl time.Duration) {
	b.timers.After(ttl, func() {
		if err := s.ChannelMessageDelete(channelID, messageID); err != nil {
			b.logger.Debug().Err(err).Str("message_id", messageID).Msg("Failed to delete reply")
		}
	})
}

// channelName resolves the name of a text channel, "" for direct messages.
// ok is false when a guild channel could not be resolved.
func (b *Bot) channelName(s *discordgo.Session, guildID, channelID string) (string, bool) {
	if guildID == "" {
		return "", true
	}
	if name, ok := b.channels.Get(channelID); ok {
		return name, true
	}

	channel, err := s.State.Channel(channelID)
	if err != nil {
		channel, err = s.Channel(channelID)
	}
	if err != nil {
		b.logger.Warn().Err(err).Str("channel_id", channelID).Msg("Failed to resolve channel")
		return "", false
	}

	b.channels.Add(channelID, channel.Name)
	return channel.Name, true
}

func isPinned(messageID string, pinned []*discordgo.Message) bool {
	for _, p := range pinned {
		if p.ID == messageID {
			return true
		}
	}
	return false
}

// toCommandMessage maps a gateway message to the command handler's input
func toCommandMessage(m *discordgo.Message) commands.Message {
	msg := commands.Message{Content: m.Content}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorIsBot = m.Author.Bot
	}
	for _, u := range m.Mentions {
		if u == nil {
			continue
		}
		msg.Mentions = append(msg.Mentions, commands.User{ID: u.ID, Username: u.Username})
	}
	return msg
}
