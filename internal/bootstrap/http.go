package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lumenplay/presenced/config"
	httpx "github.com/lumenplay/presenced/internal/http"
)

// HTTPServerOptions groups what the HTTP server needs.
type HTTPServerOptions struct {
	HTTP     config.HTTPConfig
	Services httpx.RouterServices
	Logger   *slog.Logger
}

// NewHTTPServer builds the HTTP server with the full middleware chain.
// Read and idle timeouts are deliberately unset: websocket streams live
// on the same listener and must not be cut by request timeouts. Only
// header reads are bounded.
func NewHTTPServer(opts HTTPServerOptions) *http.Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler := httpx.NewRouter(opts.Services)
	handler = httpx.Logging(logger)(handler)
	handler = httpx.Recover(logger)(handler)

	addr := opts.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: opts.HTTP.ReadHeaderTimeout,
	}
}

// ServeHTTP runs the server until the listener fails or Shutdown is called.
func ServeHTTP(server *http.Server, logger *slog.Logger) error {
	logger.Info("starting HTTP server", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ShutdownHTTPServer gracefully drains the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, grace time.Duration, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}
	return nil
}
