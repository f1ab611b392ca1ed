package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/metascope/internal/app"
)

var (
	historyLimit int
	historyJSON  bool
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent searches",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of searches to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print history as JSON")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete all recorded searches")
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	a, closeApp, err := openApp()
	if err != nil {
		return trackCLIError("history", err)
	}
	defer closeApp()

	if historyClear {
		if err := a.DB.ClearHistory(); err != nil {
			return trackCLIError("history", fmt.Errorf("clear history: %w", err))
		}
		_, _ = fmt.Fprintln(out, "Search history cleared.")
		return nil
	}

	rows, err := a.DB.RecentSearches(historyLimit)
	if err != nil {
		return trackCLIError("history", fmt.Errorf("load history: %w", err))
	}
	telemetryClient.TrackHistoryViewed(len(rows), "cli")

	if historyJSON {
		return writeJSON(cmd, app.NewHistoryView(rows))
	}

	if len(rows) == 0 {
		_, _ = fmt.Fprintln(out, "No searches yet.")
		_, _ = fmt.Fprintln(out, "\nUse 'metascope search <term>' to search your org.")
		return nil
	}

	_, _ = fmt.Fprintf(out, "RECENT SEARCHES (%d)\n", len(rows))
	_, _ = fmt.Fprintln(out, rule)
	for _, h := range rows {
		flag := ""
		if h.Partial {
			flag = warnStyle.Render(" partial")
		}
		_, _ = fmt.Fprintf(out, "  %-30q %3d results%s  %s\n",
			h.Term, h.ResultCount, flag, dimStyle.Render(formatTimeSince(h.CreatedAt)))
		if h.TopResult != "" {
			_, _ = fmt.Fprintf(out, "    top: %s\n", labelStyle.Render(h.TopResult))
		}
	}
	return nil
}
