package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"uploadagent/internal/api"
	"uploadagent/internal/history"
	"uploadagent/pkg/config"
)

var (
	historyServer string
	historyJSON   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past submissions",
	Long:  `Show the submission log, newest first, from the local file or a running server.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyServer, "server", "s", "", "Read history from a running server instead of the local file")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print entries as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var entries []history.Entry
	if historyServer != "" {
		var err error
		entries, err = api.NewClient(historyServer, nil).History(ctx)
		if err != nil {
			return err
		}
	} else {
		cfg, err := config.Load(ctx)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		entries = history.Open(cfg.History.Path, cfg.History.Limit).List()
	}

	if historyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println(infoStyle.Render("No submissions yet"))
		return nil
	}

	for _, e := range entries {
		fmt.Println(formatEntry(e))
	}
	return nil
}

func formatEntry(e history.Entry) string {
	status := successStyle.Render("✓")
	detail := e.VideoURL
	if !e.Success {
		status = errorStyle.Render("✗")
		detail = e.Error
	}

	when := e.SubmittedAt.Local().Format(time.DateTime)
	mode := lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("[%s/%s]", e.Mode, e.Category))
	return fmt.Sprintf("%s %s %s %s\n    %s", status, when, mode, e.Title, detail)
}
