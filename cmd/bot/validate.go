package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"voicetime/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  `Load the configuration from the config file, .env and the environment, and report errors.`,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		red := color.New(color.FgRed, color.Bold)
		red.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
		return err
	}

	_, _ = fmt.Fprintln(os.Stdout, "✅ Configuration is valid")

	bold := color.New(color.Bold)
	printSetting(bold, "storage.type", cfg.Storage.Type)
	switch cfg.Storage.Type {
	case config.StoragePostgres:
		printSetting(bold, "storage.dsn", mask(cfg.Storage.DSN))
	case config.StorageBolt:
		printSetting(bold, "storage.path", cfg.Storage.Path)
	case config.StorageRedis:
		printSetting(bold, "redis.addr", cfg.Redis.Addr)
	}
	printSetting(bold, "discord.token", mask(cfg.Discord.Token))
	printSetting(bold, "discord.allowed_channel", cfg.Discord.AllowedChannel)
	printSetting(bold, "discord.command_prefix", cfg.Discord.CommandPrefix)
	printSetting(bold, "discord.admin_ids", fmt.Sprintf("%d configured", len(cfg.Discord.AdminIDs)))
	printSetting(bold, "report.max_chunk_length", fmt.Sprint(cfg.Report.MaxChunkLength))

	if len(cfg.Discord.AdminIDs) == 0 {
		yellow := color.New(color.FgYellow, color.Bold)
		fmt.Fprintln(os.Stdout)
		yellow.Fprintln(os.Stdout, "⚠️  WARNING: no admin IDs configured, !addtime and !removetime will reject everyone")
	}

	return nil
}

func printSetting(c *color.Color, key, value string) {
	_, _ = fmt.Fprintf(os.Stdout, "  %s = %s\n", c.Sprint(key), value)
}

// mask hides all but the last four characters of a secret
func mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
