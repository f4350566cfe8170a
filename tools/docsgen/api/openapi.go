//go:build docsgen_api

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/mozilla-ai/mcpfleet/internal/api"
	"github.com/mozilla-ai/mcpfleet/internal/cmd"
	"github.com/mozilla-ai/mcpfleet/internal/domain"
)

// stubFleet satisfies every API dependency, route registration never calls it.
type stubFleet struct{}

func (stubFleet) Servers() []domain.ServerStatus                       { return nil }
func (stubFleet) ServerStatus(string) (domain.ServerStatus, error)     { return domain.ServerStatus{}, nil }
func (stubFleet) ServersByTag(string) []domain.ServerStatus            { return nil }
func (stubFleet) ServersByGroup(string) ([]domain.ServerStatus, error) { return nil, nil }
func (stubFleet) ServerResources(string) ([]domain.Resource, error)    { return nil, nil }
func (stubFleet) ServerPrompts(string) ([]domain.Prompt, error)        { return nil, nil }
func (stubFleet) Connect(context.Context, string) error                { return nil }
func (stubFleet) Disconnect(context.Context, string) error             { return nil }
func (stubFleet) ListTools(bool) []domain.Tool                         { return nil }
func (stubFleet) HealthSummary() domain.HealthSummary                  { return domain.HealthSummary{} }
func (stubFleet) HealthResults() map[string]domain.HealthCheckResult   { return nil }
func (stubFleet) ServerHealth(string) (domain.HealthCheckResult, error) {
	return domain.HealthCheckResult{}, nil
}
func (stubFleet) RefreshHealth(context.Context, string) (domain.HealthCheckResult, error) {
	return domain.HealthCheckResult{}, nil
}

func (stubFleet) ExecuteToolByID(
	context.Context,
	string,
	map[string]any,
	domain.ExecuteOptions,
) (*domain.ToolResult, error) {
	return nil, nil
}

// main generates the OpenAPI specification for the HTTP API.
// It assumes it is run from the repository root.
func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "mcpfleet.docsgen.api",
		Level:  hclog.Info,
		Output: os.Stderr,
	})

	// Output path for the OpenAPI spec, relative to the repository root.
	outputPath := "./docs/api/openapi.yaml"

	// Router and config match the daemon's API server.
	mux := chi.NewMux()
	mux.Use(middleware.StripSlashes)

	config := huma.DefaultConfig("mcpfleet docs", cmd.Version())
	config.Transformers = append(api.Transformers(), config.Transformers...)
	router := humachi.New(mux, config)

	var fleet stubFleet
	apiPathPrefix, err := api.RegisterRoutes(router, fleet, fleet, fleet)
	if err != nil {
		logger.Error("failed to register API routes", "error", err)
		os.Exit(1)
	}

	logger.Info("Routes registered", "prefix", apiPathPrefix)

	yamlBytes, err := router.OpenAPI().YAML()
	if err != nil {
		logger.Error("failed to generate OpenAPI YAML", "error", err)
		os.Exit(1)
	}

	docsDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		logger.Error("failed to create docs directory", "path", docsDir, "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputPath, yamlBytes, 0o644); err != nil {
		logger.Error("failed to write OpenAPI spec", "path", outputPath, "error", err)
		os.Exit(1)
	}

	logger.Info("OpenAPI spec generated", "path", outputPath, "size", fmt.Sprintf("%d bytes", len(yamlBytes)))
}
