package cli

import (
	"fmt"

	"tour_guide_rag/internal/ingest"
	"tour_guide_rag/pkg"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest [catalogue-file]",
		Short: "Embed a tour catalogue into the knowledge table",
		Long:  "Reads a YAML or JSON tour catalogue and replaces the stored knowledge rows of every tour in it.",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
	cmd.Flags().Int64("tour", 0, "Only sync the tour with this id")
	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	tourID, _ := cmd.Flags().GetInt64("tour")

	catalogue, err := ingest.LoadCatalogue(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var n int
	if tourID != 0 {
		t := catalogue.Find(tourID)
		if t == nil {
			return fmt.Errorf("tour %d not found in %s", tourID, args[0])
		}
		n, err = a.Syncer.SyncTour(cmd.Context(), *t)
	} else {
		n, err = a.Syncer.SyncAll(cmd.Context(), catalogue)
	}
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), pkg.SyncResponse{EmbeddingsCount: n})
}
