package cli

import (
	"fmt"
	"strings"
	"time"

	"tour_guide_rag/internal/enrich"
	"tour_guide_rag/internal/retriever"
	"tour_guide_rag/pkg"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "enrich [query]",
		Short: "Print the retrieval context for a question",
		Long:  "Runs every configured retriever for one question and prints each outcome followed by the merged reference text.",
		Args:  cobra.ArbitraryArgs,
		RunE:  runEnrich,
	}
	cmd.Flags().StringP("context", "c", "", "Tour context text")
	cmd.Flags().Bool("chat", false, "Also ask the chat model, treating the query as the last user turn")
	RootCmd.AddCommand(cmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	tourContext, _ := cmd.Flags().GetString("context")
	withChat, _ := cmd.Flags().GetBool("chat")
	query := strings.Join(args, " ")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	outcomes := a.Orchestrator.Run(cmd.Context(), query, tourContext)
	fragments := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Skipped {
			fmt.Fprintf(out, "[%s] skipped\n", o.Name)
			continue
		}
		fmt.Fprintf(out, "[%s] %s (%s)\n", o.Name, o.Result.Kind, o.Duration.Round(time.Millisecond))
		if o.Result.Err != nil {
			fmt.Fprintf(out, "  error: %v\n", o.Result.Err)
		}
		if o.Result.Kind == retriever.KindHit {
			fragments = append(fragments, o.Result.Text)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, enrich.Merge(fragments, appConfig.EnrichConfig.MaxChars))

	if withChat {
		history := []pkg.ChatTurn{{Role: pkg.RoleUser, Content: query}}
		resp := a.Chat.Chat(cmd.Context(), tourContext, history)
		fmt.Fprintln(out)
		fmt.Fprintln(out, resp.Text)
	}
	return nil
}
