package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/pathquiz/pkg/adapters/http"
	"github.com/aretw0/pathquiz/pkg/adapters/mcp"
)

const shutdownTimeout = 5 * time.Second

// Handler builds the HTTP API of app.
func (a *App) Handler(version string) http.Handler {
	return httpadapter.NewHandler(a.Sessions,
		httpadapter.WithCatalog(a.Catalog),
		httpadapter.WithStreams(a.Streams),
		httpadapter.WithMetrics(a.Metrics.Handler()),
		httpadapter.WithLogger(a.Logger),
		httpadapter.WithVersion(version),
		httpadapter.WithAllowedOrigins(a.Config.AllowedOrigins...),
	)
}

// Serve runs the HTTP API on ln until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, app *App, ln net.Listener, version string) error {
	srv := &http.Server{
		Handler:           app.Handler(version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("pathquiz server listening",
			"address", ln.Addr().String(), "quiz", app.Definition.ID, "store", app.Config.Store)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		app.Logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("killing server: %w", err)
			}
		}
		app.Logger.Info("server stopped gracefully")
		return nil
	}
}

// ListenAndServe runs Serve on the configured port.
func ListenAndServe(ctx context.Context, app *App, version string) error {
	ln, err := net.Listen("tcp", app.Config.Addr())
	if err != nil {
		return err
	}
	return Serve(ctx, app, ln, version)
}

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServeMCP runs the MCP server over the given transport.
func ServeMCP(ctx context.Context, app *App, transport, version string) error {
	srv := mcp.NewServer(app.Sessions, version,
		mcp.WithCatalog(app.Catalog),
		mcp.WithLogger(app.Logger),
	)

	switch transport {
	case TransportStdio:
		app.Logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	case TransportSSE:
		ln, err := net.Listen("tcp", app.Config.Addr())
		if err != nil {
			return err
		}
		return srv.ServeSSE(ctx, ln)
	default:
		return fmt.Errorf("unknown transport %q, supported: %s, %s", transport, TransportStdio, TransportSSE)
	}
}
