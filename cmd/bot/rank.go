package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"voicetime/internal/config"
	"voicetime/internal/report"
	"voicetime/internal/tracker"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Print the current rankings",
	Long:  `Read the totals from the configured storage and print the same report the !rank command posts.`,
	RunE:  runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)

	store, err := openStorage(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	tr := tracker.New(store, tracker.RealClock{}, logger)
	chunks, err := report.NewBuilder(tr, cfg.Report.MaxChunkLength).FullReport(cmd.Context(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to build ranking: %w", err)
	}

	for i, chunk := range chunks {
		if i > 0 {
			fmt.Fprintln(os.Stdout, "---")
		}
		fmt.Fprintln(os.Stdout, chunk)
	}
	return nil
}
