package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coreason/council/archive"
	"github.com/coreason/council/council"
	"github.com/coreason/council/transport"
)

var (
	serveAddr    string
	serveArchive string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve deliberations over HTTP",
	Long: `Start the council HTTP server.

Endpoints:
  POST /v1/session/convene  Run a deliberation and return its verdict
  GET  /health              Liveness probe`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :8080)")
	serveCmd.Flags().StringVar(&serveArchive, "archive", "", "Directory for session traces")
}

func runServe(cmd *cobra.Command, args []string) error {
	tcfg := transport.DefaultConfig()
	if serveAddr != "" {
		tcfg.Addr = serveAddr
	}

	if cfg.Gateway.BaseURL == "" {
		fmt.Fprintln(os.Stderr, "warning: no gateway base URL configured; convene requests will fail")
	}

	var opts []council.Option
	if serveArchive != "" {
		opts = append(opts, council.WithArchive(archive.NewFileStore(serveArchive)))
	}

	srv, err := transport.NewServer(tcfg, transport.ConfigFactory(*cfg, opts...))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("council listening on %s\n", tcfg.Addr)
	return srv.Run(ctx)
}
