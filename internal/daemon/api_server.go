package daemon

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"

	"github.com/mozilla-ai/mcpfleet/internal/api"
	"github.com/mozilla-ai/mcpfleet/internal/cmd"
	"github.com/mozilla-ai/mcpfleet/internal/contracts"
	"github.com/mozilla-ai/mcpfleet/internal/errors"
)

// APIServer serves the fleet's HTTP API.
// Use NewAPIServer to create one.
type APIServer struct {
	logger          hclog.Logger
	servers         contracts.ServerManager
	tools           contracts.ToolExecutor
	health          contracts.HealthReporter
	addr            string
	cors            CORSConfig
	shutdownTimeout time.Duration
}

// NewAPIServer creates an API server, applying options over the defaults.
func NewAPIServer(deps APIDependencies, opt ...APIOption) (*APIServer, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for API server: %w", err)
	}

	apiOpts, err := NewAPIOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid API options: %w", err)
	}

	return &APIServer{
		logger:          deps.Logger.Named("api"),
		servers:         deps.Servers,
		tools:           deps.Tools,
		health:          deps.Health,
		addr:            deps.Addr,
		cors:            apiOpts.CORS,
		shutdownTimeout: apiOpts.ShutdownTimeout,
	}, nil
}

// Handler builds the router serving the API and returns it with the versioned path prefix.
func (a *APIServer) Handler() (http.Handler, string, error) {
	mux := chi.NewMux()
	mux.Use(middleware.StripSlashes)
	if a.cors.Enabled {
		a.logger.Info("Enabling CORS", "origins", a.cors.AllowOrigins)
		mux.Use(cors.Handler(corsOptions(a.cors)))
	}

	config := huma.DefaultConfig("mcpfleet docs", cmd.Version())
	config.Transformers = append(api.Transformers(), config.Transformers...)
	router := humachi.New(mux, config)

	huma.NewErrorWithContext = errorHandler(a.logger)

	prefix, err := api.RegisterRoutes(router, a.servers, a.tools, a.health)
	if err != nil {
		return nil, "", fmt.Errorf("failed to register API routes: %w", err)
	}

	return mux, prefix, nil
}

// Start serves the API and blocks until the context is canceled or the listener fails.
func (a *APIServer) Start(ctx context.Context) error {
	handler, prefix, err := a.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("Starting API server", "address", a.addr, "prefix", prefix)
		if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
		defer cancel()
		a.logger.Info("Shutting down API server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("API server did not shut down cleanly", "error", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// corsOptions converts the configuration for go-chi/cors.
// A wildcard origin replaces every other origin and disables credentials.
func corsOptions(c CORSConfig) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   slices.Clone(c.AllowOrigins),
		AllowedMethods:   c.AllowMethods,
		AllowedHeaders:   c.AllowedHeaders,
		ExposedHeaders:   c.ExposedHeaders,
		AllowCredentials: c.AllowCredentials,
		MaxAge:           int(c.MaxAge.Seconds()),
	}
	if slices.Contains(opts.AllowedOrigins, "*") {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}
	return opts
}

// errorStatus pairs a domain error with the HTTP status it is reported as.
// Server side failures carry a fixed message and are logged.
type errorStatus struct {
	target  error
	status  int
	message string
}

// errorStatuses is checked in order, the first match wins.
// Errors in internal/errors without an entry are reported as 500.
var errorStatuses = []errorStatus{
	{target: errors.ErrBadRequest, status: http.StatusBadRequest},
	{target: errors.ErrInvalidToolID, status: http.StatusBadRequest},
	{target: errors.ErrServerNotFound, status: http.StatusNotFound},
	{target: errors.ErrToolNotFound, status: http.StatusNotFound},
	{target: errors.ErrHealthNotTracked, status: http.StatusNotFound},
	{target: errors.ErrGroupNotFound, status: http.StatusNotFound},
	{target: errors.ErrAlreadyRegistered, status: http.StatusConflict},
	{target: errors.ErrServerUnavailable, status: http.StatusServiceUnavailable},
	{target: errors.ErrTransportNotReady, status: http.StatusServiceUnavailable},
	{target: errors.ErrConnectFailed, status: http.StatusBadGateway, message: "MCP server connect failed"},
	{target: errors.ErrToolCallFailed, status: http.StatusBadGateway, message: "MCP server error calling tool"},
}

// mapError converts a domain error into the status error returned to API clients.
func mapError(logger hclog.Logger, err error) huma.StatusError {
	for _, m := range errorStatuses {
		if !stdErrors.Is(err, m.target) {
			continue
		}
		if m.message == "" {
			return huma.NewError(m.status, err.Error())
		}
		logger.Error(m.message, "error", err)
		return huma.NewError(m.status, m.message, err)
	}

	logger.Error("Unexpected error interacting with MCP server", "error", err)
	return huma.Error500InternalServerError("Internal server error", err)
}

// errorHandler lets huma report handler errors through mapError.
// Errors huma raises itself without a cause keep their own status.
func errorHandler(logger hclog.Logger) func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
	return func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if len(errs) == 0 {
			return huma.NewError(status, msg)
		}
		return mapError(logger, stdErrors.Join(errs...))
	}
}
