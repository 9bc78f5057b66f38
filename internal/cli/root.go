// Package cli implements the tour guide RAG commands.
package cli

import (
	"context"
	"fmt"
	"io"

	"tour_guide_rag/internal/app"
	"tour_guide_rag/src"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

var appConfig *src.Config

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "tour-guide-rag",
	Short:         "Retrieval augmented tour guide chat",
	Long:          "Answers tourist questions with weather, Tour API and embedded tour knowledge folded into the prompt.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree with the loaded configuration.
func Execute(ctx context.Context, cfg *src.Config) error {
	appConfig = cfg
	return RootCmd.ExecuteContext(ctx)
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	a, err := app.New(cmd.Context(), appConfig)
	if err != nil {
		return nil, fmt.Errorf("init application: %w", err)
	}
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
