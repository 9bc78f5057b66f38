package cli

import (
	"fmt"

	"tour_guide_rag/internal/metrics"
	"tour_guide_rag/internal/server"
	"tour_guide_rag/src/logger"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "Listen address (default: $HOST:$PORT)")
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("close application")
		}
	}()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", appConfig.ServerConfig.Host, appConfig.ServerConfig.Port)
	}

	metrics.Register()
	opt := server.Options{
		Addr:            addr,
		ShutdownTimeout: appConfig.ServerConfig.ShutdownTimeout,
		Chat:            a.Chat,
		Sync:            a.Syncer,
		Log:             logger.With("http"),
	}
	if a.Search != nil {
		opt.Search = a.Search
	}
	return server.New(opt).Run(cmd.Context())
}
