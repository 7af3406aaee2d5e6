package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"voicetime/internal/commands"
	"voicetime/internal/config"
	"voicetime/internal/tracker"
)

const (
	voiceQueueSize   = 256
	channelCacheSize = 512
)

// Bot connects the tracker and the command handler to the Discord gateway
type Bot struct {
	session  *discordgo.Session
	tracker  *tracker.Tracker
	commands *commands.Handler
	cfg      config.DiscordConfig
	replies  config.RepliesConfig

	// channel ID -> channel name
	channels *lru.Cache[string, string]
	voice    chan voiceEvent
	timers   *scheduler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// New creates a new Discord bot
func New(cfg *config.Config, tr *tracker.Tracker, handler *commands.Handler, logger zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	// Voice events must reach the queue in gateway order
	session.SyncEvents = true

	channels, err := lru.New[string, string](channelCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create channel cache: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bot := &Bot{
		session:  session,
		tracker:  tr,
		commands: handler,
		cfg:      cfg.Discord,
		replies:  cfg.Replies,
		channels: channels,
		voice:    make(chan voiceEvent, voiceQueueSize),
		timers:   newScheduler(),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.With().Str("component", "discord").Logger(),
	}

	// Add event handlers
	session.AddHandler(bot.ready)
	session.AddHandler(bot.voiceStateUpdate)
	session.AddHandler(bot.messageCreate)
	session.AddHandler(bot.channelUpdate)

	return bot, nil
}

// Start starts the voice worker and opens the gateway connection
func (b *Bot) Start() error {
	b.wg.Add(1)
	go b.processVoiceEvents()

	if err := b.session.Open(); err != nil {
		b.cancel()
		b.wg.Wait()
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	b.logger.Info().Msg("Bot is running")
	return nil
}

// Stop closes the gateway connection, drains queued voice events and
// cancels pending reply deletions
func (b *Bot) Stop() error {
	err := b.session.Close()

	b.cancel()
	b.timers.Stop()
	b.wg.Wait()

	b.logger.Info().Msg("Bot stopped")
	return err
}

// ready logs the gateway identity
func (b *Bot) ready(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("Logged in")
}

// channelUpdate keeps cached channel names current after a rename
func (b *Bot) channelUpdate(s *discordgo.Session, c *discordgo.ChannelUpdate) {
	if c.Channel == nil {
		return
	}
	if _, ok := b.channels.Peek(c.ID); ok {
		b.channels.Add(c.ID, c.Name)
	}
}
