package cli

import (
	"strings"

	"tour_guide_rag/internal/vectorstore"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Similarity search over the knowledge table",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}
	cmd.Flags().IntP("limit", "l", vectorstore.DefaultLimit, "Max results (capped at 20)")
	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Search == nil {
		return vectorstore.ErrNotConfigured
	}
	contents, err := a.Search.Search(cmd.Context(), query, limit)
	if err != nil {
		return err
	}
	if contents == nil {
		contents = []string{}
	}
	return printJSON(cmd.OutOrStdout(), contents)
}
