package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"uploadagent/internal/app"
	"uploadagent/pkg/config"
)

var clearHistory bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove staged video files",
	Long: `Remove video files left in staging storage by uploads that never
completed. With --history the submission log is cleared too.`,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearHistory, "history", false, "Also clear the submission history")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	keys, err := service.Store().List(ctx)
	if err != nil {
		return fmt.Errorf("list staged videos: %w", err)
	}

	removed := 0
	for _, key := range keys {
		if err := service.Store().Remove(ctx, key); err != nil {
			slog.Warn("Failed to remove staged video", "key", key, "error", err)
			continue
		}
		removed++
	}
	fmt.Printf("Removed %d staged video(s)\n", removed)

	if clearHistory {
		count := service.History().Len()
		if err := service.History().Clear(); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		fmt.Printf("Cleared %d history entr(ies)\n", count)
	}
	return nil
}
