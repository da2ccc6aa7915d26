package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/perspectai/perspectai/internal/api"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP verification API",
	Long: `Serve starts the HTTP API:
- GET  /health      service status
- POST /api/verify  structured verification of a single claim
- POST /api/chat    chat-formatted verification (rate limited per client)

Example:
  perspectai serve
  perspectai serve --addr :9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, store, err := buildAgent(ctx, cfg)
	if err != nil {
		return err
	}

	server := api.NewServer(verifier, store.IsEnabled(), cfg.Server, cfg.RateLimit)

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8000"
	}
	fmt.Fprintf(os.Stderr, "Listening on %s\n", addr)

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
