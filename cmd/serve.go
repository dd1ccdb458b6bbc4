package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/errmatch/internal/dashboard"
	"github.com/ziadkadry99/errmatch/internal/server"
	"github.com/ziadkadry99/errmatch/internal/unmatched"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web chat and HTTP API",
	Long: `Starts the errmatch HTTP server: the chat page at /, dataset upload, chat
over JSON or websocket, and the unmatched-errors endpoints. Each browser session
uploads its own dataset.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		port := a.cfg.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv := server.New(server.Config{
			Port:     port,
			AllowAll: a.cfg.AllowAllOrigins,
		}, a.logger)

		dash := dashboard.New(a.engine, dashboard.Options{
			MaxRows:        a.cfg.MaxRows,
			MaxUploadBytes: a.cfg.MaxUploadBytes(),
		}, a.logger)
		dash.RegisterRoutes(srv.API())
		dash.RegisterStreaming(srv.Router())
		unmatched.RegisterRoutes(srv.API(), a.unmatched, a.store)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			a.logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error().Err(err).Msg("server shutdown")
			}
		}()

		fmt.Fprintf(os.Stderr, "errmatch %s listening on http://localhost:%d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Unmatched sink: %s\n", a.cfg.UnmatchedSink)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 5000, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
