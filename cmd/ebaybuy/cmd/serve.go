package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/ebaybuy/internal/api"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP proxy",
		Long: "Serves /api/v1/search, /api/v1/page and /api/v1/quota in front of the\n" +
			"eBay Browse API, plus /healthz, /readyz, /metrics and /openapi.json.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			srv := api.NewServer(
				newBrowseClient(cfg, logger),
				cfg.Server,
				api.WithLogger(logger),
				api.WithVersion(Version),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			return srv.Shutdown(context.Background(), shutdownTimeout)
		},
	}
}
