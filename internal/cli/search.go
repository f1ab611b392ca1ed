package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/asteroid-belt/metascope/internal/app"
	"github.com/asteroid-belt/metascope/internal/search"
)

var (
	searchCategories []string
	searchLimit      int
	searchJSON       bool
	searchCopy       bool
)

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

var searchCmd = &cobra.Command{
	Use:     "search <term>",
	Aliases: []string{"s"},
	Short:   "Search org metadata for a term (alias: s)",
	Long: `Search Apex, Flows, Lightning and Aura components, validation rules,
layouts and record types for a term. Matching is case-insensitive and
literal.

Categories can be narrowed with --category, repeated or comma separated:

  metascope search Account --category apex-class --category flow
  metascope search "Billing Street" --category layout,validation-rule

Run 'metascope categories' for the full list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchCategories, "category", "c", nil, "Limit the search to these categories")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum number of results (default: configured max_results)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print results as JSON")
	searchCmd.Flags().BoolVar(&searchCopy, "copy", false, "Copy the top result's file name to the clipboard")
}

func runSearch(cmd *cobra.Command, args []string) error {
	term := strings.TrimSpace(strings.Join(args, " "))
	out := cmd.OutOrStdout()

	cats, err := app.ParseCategories(searchCategories)
	if err != nil {
		return trackCLIError("search", err)
	}
	if searchLimit < 0 {
		return trackCLIError("search", fmt.Errorf("invalid limit %d: must be positive", searchLimit))
	}

	if utf8.RuneCountInString(term) < search.MinTermLength {
		if searchJSON {
			return writeJSON(cmd, app.NewSearchView(&search.Response{Term: term}))
		}
		_, _ = fmt.Fprintf(out, "Enter at least %d characters to search.\n", search.MinTermLength)
		return nil
	}

	a, closeApp, err := openApp()
	if err != nil {
		return trackCLIError("search", err)
	}
	defer closeApp()

	resp, err := a.RunSearch(cmd.Context(), term, search.Options{
		Categories: cats,
		Limit:      searchLimit,
	}, "cli")
	if err != nil {
		return trackCLIError("search", err)
	}

	if searchJSON {
		if err := writeJSON(cmd, app.NewSearchView(resp)); err != nil {
			return trackCLIError("search", err)
		}
	} else {
		renderResponse(out, resp)
	}

	if searchCopy && len(resp.Results) > 0 {
		top := resp.Results[0]
		if err := copyToClipboard(top.FileName); err != nil {
			return trackCLIError("search", fmt.Errorf("copy to clipboard: %w", err))
		}
		telemetryClient.TrackResultCopied(string(top.Category))
		if !searchJSON {
			_, _ = fmt.Fprintf(out, "\nCopied %s to clipboard.\n", top.FileName)
		}
	}

	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
