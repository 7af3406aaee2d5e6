package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

// rootCmd runs the bot when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voicetime",
	Short: "voicetime - Discord voice channel time tracker",
	Long: `voicetime tracks how long members spend in the voice channels of a Discord
server and publishes lifetime and weekly rankings through chat commands.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd, args)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (optional, environment variables are always read)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
