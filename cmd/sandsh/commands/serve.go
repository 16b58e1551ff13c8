package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/telnet2/go-practice/go-sandsh/api"
	"github.com/telnet2/go-practice/go-sandsh/internal/logging"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start sandsh as a server exposing session management, a stateless
exec endpoint and a WebSocket JSON-RPC REPL.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	exec, err := newExecutor(cfg, logging.Component("executor"))
	if err != nil {
		return err
	}

	serverConfig := api.DefaultConfig()
	serverConfig.Addr = cfg.Server.Addr
	serverConfig.EnableCORS = cfg.Server.EnableCORS
	serverConfig.SessionIdleTimeout = cfg.Server.SessionIdleTimeout
	serverConfig.InitialCwd = initialCwd(cfg)

	srv := api.New(serverConfig, exec, logging.Component("api"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("version", Version).Str("mode", cfg.Sandbox.Mode).Msg("starting sandsh server")
		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}

	logging.Info().Msg("server stopped")
	return nil
}
