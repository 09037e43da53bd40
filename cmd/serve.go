package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/techpathai/learnyst-automator/internal/observability"
	"github.com/techpathai/learnyst-automator/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the automation service.",
	Long: `Starts the HTTP API and the execution engine. A headless browser is
launched lazily when the first action needs an authenticated session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		components, err := service.Build(ctx, appConfig, logger)
		if err != nil {
			return fmt.Errorf("failed to build service: %w", err)
		}
		defer components.Shutdown()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return components.Server.Start(gctx)
		})

		if err := g.Wait(); err != nil && !isContextCanceled(err) {
			return fmt.Errorf("service exited with error: %w", err)
		}
		logger.Info("Service stopped.")
		return nil
	},
}

func isContextCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
