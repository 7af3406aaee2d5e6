package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageBolt     = "bolt"
	StorageRedis    = "redis"
)

// Config holds all configuration for our application
type Config struct {
	Discord DiscordConfig `mapstructure:"discord"`
	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Report  ReportConfig  `mapstructure:"report"`
	Replies RepliesConfig `mapstructure:"replies"`
}

// DiscordConfig defines the bot connection and command channel
type DiscordConfig struct {
	Token               string   `mapstructure:"token"`
	AllowedChannel      string   `mapstructure:"allowed_channel"`
	AdminIDs            []string `mapstructure:"admin_ids"`
	CommandPrefix       string   `mapstructure:"command_prefix"`
	CleanupUserMessages bool     `mapstructure:"cleanup_user_messages"`
}

// StorageConfig selects the storage backend
type StorageConfig struct {
	Type string `mapstructure:"type"`
	DSN  string `mapstructure:"dsn"`  // postgres
	Path string `mapstructure:"path"` // bolt
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Addr        string `mapstructure:"addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	DialTimeout string `mapstructure:"dial_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig defines the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// ReportConfig defines ranking output limits
type ReportConfig struct {
	MaxChunkLength int `mapstructure:"max_chunk_length"`
}

// RepliesConfig defines how long bot replies stay in the channel
type RepliesConfig struct {
	Rank        time.Duration `mapstructure:"rank"`
	MyTime      time.Duration `mapstructure:"my_time"`
	Usage       time.Duration `mapstructure:"usage"`
	NotFound    time.Duration `mapstructure:"not_found"`
	Confirm     time.Duration `mapstructure:"confirm"`
	UserMessage time.Duration `mapstructure:"user_message"`
}

// Load loads configuration from .env, an optional config file and environment variables.
// An empty configPath skips the config file.
func Load(configPath string) (*Config, error) {
	// .env file is optional, continue with environment variables
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VOICETIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Environment names used by earlier deployments
	_ = v.BindEnv("discord.token", "VOICETIME_DISCORD_TOKEN", "DISCORD_TOKEN")
	_ = v.BindEnv("storage.dsn", "VOICETIME_STORAGE_DSN", "DATABASE_DSN")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("discord.allowed_channel", "ranking-de-horas")
	v.SetDefault("discord.admin_ids", []string{})
	v.SetDefault("discord.command_prefix", "!")
	v.SetDefault("discord.cleanup_user_messages", true)

	v.SetDefault("storage.type", StoragePostgres)
	v.SetDefault("storage.path", "voice_time.db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", "5s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", ":9090")

	v.SetDefault("report.max_chunk_length", 1900)

	v.SetDefault("replies.rank", "50s")
	v.SetDefault("replies.my_time", "5s")
	v.SetDefault("replies.usage", "8s")
	v.SetDefault("replies.not_found", "6s")
	v.SetDefault("replies.confirm", "10s")
	v.SetDefault("replies.user_message", "5s")
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return &ConfigError{Field: "DISCORD_TOKEN", Message: "DISCORD_TOKEN is required"}
	}

	if c.Discord.CommandPrefix == "" {
		return &ConfigError{Field: "discord.command_prefix", Message: "command prefix must not be empty"}
	}

	switch c.Storage.Type {
	case StoragePostgres:
		if c.Storage.DSN == "" {
			return &ConfigError{Field: "DATABASE_DSN", Message: "DATABASE_DSN is required"}
		}
	case StorageBolt:
		if c.Storage.Path == "" {
			return &ConfigError{Field: "storage.path", Message: "storage path is required for bolt"}
		}
	case StorageRedis:
		if c.Redis.Addr == "" {
			return &ConfigError{Field: "redis.addr", Message: "redis address is required"}
		}
	default:
		return &ConfigError{
			Field:   "storage.type",
			Message: fmt.Sprintf("unknown storage type %q (must be postgres, bolt or redis)", c.Storage.Type),
		}
	}

	if c.Report.MaxChunkLength <= 0 {
		return &ConfigError{Field: "report.max_chunk_length", Message: "max chunk length must be positive"}
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
