package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-recall/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the Face Recall HTTP API.
The API manages people and face samples, identifies new captures and runs
quiz sessions for the UI. The sample index is loaded from HNSW_INDEX_PATH on
start and written back on shutdown.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Connecting to PostgreSQL database...")
	a, err := setupApp(ctx, indexPersisted)
	if err != nil {
		return err
	}
	defer a.close()

	if port := mustGetInt(cmd, "port"); port > 0 {
		a.cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		a.cfg.Web.Host = host
	}

	server := web.NewServer(a.cfg, a.svc, a.logger)
	fmt.Printf("Face Recall API listening on http://%s:%d/api/v1 (Ctrl+C to stop)\n", a.cfg.Web.Host, a.cfg.Web.Port)

	runErr := server.Run(ctx)
	a.saveSampleIndex()
	if runErr != nil {
		return fmt.Errorf("serving API: %w", runErr)
	}
	return nil
}
