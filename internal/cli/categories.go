package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/metascope/internal/search"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the metadata categories metascope searches",
	Long: `List every searchable category with the name accepted by
'search --category' and the file name results are shown under.`,
	Args: cobra.NoArgs,
	RunE: runCategories,
}

func runCategories(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	specs := search.Categories()

	telemetryClient.TrackCategoriesListed("cli")

	_, _ = fmt.Fprintf(out, "CATEGORIES (%d)\n", len(specs))
	_, _ = fmt.Fprintln(out, rule)
	for _, spec := range specs {
		_, _ = fmt.Fprintf(out, "  %-26s %-18s %s\n",
			spec.DisplayName,
			categoryStyle.Render(spec.Alias),
			labelStyle.Render(spec.FileTemplate))
	}
	_, _ = fmt.Fprintln(out, "\nApex classes and triggers are also matched by a full-text search.")
	return nil
}
