package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brightpath-labs/mentor-cli/internal/adapters/driven/ai"
	"github.com/brightpath-labs/mentor-cli/internal/adapters/driving/httpapi"
	"github.com/brightpath-labs/mentor-cli/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API over HTTP",
	Long: `Starts the HTTP API used by the course platform's chat widget.
Provider connectivity is checked at startup so a dead provider shows up
in the boot log, not as a degraded first request.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	assistant, err := ensureAssistant()
	if err != nil {
		return err
	}

	// Startup connectivity checks are advisory: the pipeline degrades
	// gracefully, so a dead provider is logged, not fatal.
	if embeddingService != nil {
		if err := ai.ValidateConnectivity(cmd.Context(), "embedding provider", embeddingService); err != nil {
			logger.Warn("%v", err)
		}
	}
	if generatorService != nil {
		if err := ai.ValidateConnectivity(cmd.Context(), "llm provider", generatorService); err != nil {
			logger.Warn("%v", err)
		}
	}

	addr := serveAddr
	if addr == "" {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		addr = settings.Server.Addr
	}

	server := httpapi.New(assistant)

	// Shut down cleanly on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
