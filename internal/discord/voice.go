package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"voicetime/internal/models"
)

// voiceStateUpdate queues the presence change. Storage is never touched on the gateway goroutine.
func (b *Bot) voiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs.VoiceState == nil || vs.UserID == "" {
		return
	}

	ev := toVoiceEvent(vs, b.tracker.Now())
	select {
	case b.voice <- ev:
	case <-b.ctx.Done():
		b.logger.Warn().Str("user_id", vs.UserID).Msg("Dropped voice event during shutdown")
	}
}

// processVoiceEvents applies queued transitions one at a time, in arrival order
func (b *Bot) processVoiceEvents() {
	defer b.wg.Done()

	for {
		select {
		case ev := <-b.voice:
			b.applyTransition(ev)
		case <-b.ctx.Done():
			// Apply what the gateway already delivered
			for {
				select {
				case ev := <-b.voice:
					b.applyTransition(ev)
				default:
					return
				}
			}
		}
	}
}

func (b *Bot) applyTransition(event voiceEvent) {
	// Detached from b.ctx so the drain after Stop still reaches storage
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ev := event.transition
	if !event.oldKnown {
		// The state cache had no previous voice state (e.g. after a restart),
		// so the persisted session is the best knowledge of the old channel
		old, err := b.tracker.ActiveChannel(ctx, ev.UserID)
		if err != nil {
			b.logger.Error().Err(err).Str("user_id", ev.UserID).Msg("Failed to read active session")
			return
		}
		ev.OldChannelID = old
	}

	if err := b.tracker.HandleTransition(ctx, ev); err != nil {
		b.logger.Error().Err(err).
			Str("user_id", ev.UserID).
			Str("old_channel", ev.OldChannelID).
			Str("new_channel", ev.NewChannelID).
			Msg("Failed to apply voice transition")
		return
	}

	b.logger.Debug().
		Str("user_id", ev.UserID).
		Str("old_channel", ev.OldChannelID).
		Str("new_channel", ev.NewChannelID).
		Msg("Voice transition")
}

// voiceEvent is a queued transition. oldKnown is false when the gateway
// state cache had no previous voice state for the user.
type voiceEvent struct {
	transition models.VoiceTransition
	oldKnown   bool
}

// toVoiceEvent maps a gateway voice update to a transition stamped at now
func toVoiceEvent(vs *discordgo.VoiceStateUpdate, now time.Time) voiceEvent {
	ev := voiceEvent{
		transition: models.VoiceTransition{
			UserID:       vs.UserID,
			NewChannelID: vs.ChannelID,
			At:           now,
		},
	}
	if vs.BeforeUpdate != nil {
		ev.transition.OldChannelID = vs.BeforeUpdate.ChannelID
		ev.oldKnown = true
	}
	return ev
}
