package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"voicetime/internal/commands"
	"voicetime/internal/config"
	"voicetime/internal/discord"
	"voicetime/internal/metrics"
	"voicetime/internal/storage"
	"voicetime/internal/storage/bolt"
	"voicetime/internal/storage/postgres"
	"voicetime/internal/storage/redis"
	"voicetime/internal/systemd"
	"voicetime/internal/tracker"
)

func runBot(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting voicetime")

	// Initialize storage
	store, err := openStorage(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().Str("type", cfg.Storage.Type).Msg("Storage initialized")

	tr := tracker.New(store, tracker.RealClock{}, logger)
	if open, err := tr.OpenSessions(cmd.Context()); err != nil {
		logger.Warn().Err(err).Msg("Failed to list open sessions")
	} else if len(open) > 0 {
		logger.Info().Int("count", len(open)).Msg("Resuming open voice sessions")
	}

	handler := commands.NewHandler(tr, commands.StaticAdmins(cfg.Discord.AdminIDs...), tracker.RealClock{}, cfg, logger)

	if len(cfg.Discord.AdminIDs) == 0 {
		logger.Warn().Msg("No admin IDs configured, !addtime and !removetime are disabled")
	}

	// Start metrics server
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Address, logger)
		metricsServer.Start()
	}

	// Initialize Discord bot
	bot, err := discord.New(cfg, tr, handler, logger)
	if err != nil {
		return fmt.Errorf("failed to create Discord bot: %w", err)
	}
	if err := bot.Start(); err != nil {
		return fmt.Errorf("failed to start bot: %w", err)
	}

	logger.Info().
		Str("allowed_channel", cfg.Discord.AllowedChannel).
		Str("prefix", cfg.Discord.CommandPrefix).
		Msg("voicetime startup complete")

	// Notify systemd that we're ready
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else {
		logger.Debug().Msg("Sent systemd ready notification")
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutdown signal received, gracefully stopping...")

	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	if err := bot.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping bot")
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping metrics server")
		}
	}

	logger.Info().Msg("voicetime stopped")

	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch cfg.Storage.Type {
	case config.StoragePostgres:
		return postgres.Open(ctx, cfg.Storage.DSN, logger)
	case config.StorageBolt:
		return bolt.Open(cfg.Storage.Path)
	case config.StorageRedis:
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
