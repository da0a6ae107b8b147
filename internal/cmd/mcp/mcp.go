// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"fathom-mcp/internal/fathom"
	"fathom-mcp/internal/mcp/service"
	"fathom-mcp/internal/platform/config"
	"fathom-mcp/internal/platform/otel"
)

// Config holds MCP command configuration.
type Config struct {
	APIKey       string   `env:"FATHOM_API_KEY"`
	APIBaseURL   string   `env:"FATHOM_API_BASE_URL"      envDefault:"https://api.fathom.ai/external/v1"`
	HTTPAddr     string   `env:"FATHOM_MCP_HTTP_ADDR"     envDefault:"localhost:8080"`
	Transport    string   `env:"FATHOM_MCP_TRANSPORT"     envDefault:"http"`
	AllowedHosts []string `env:"FATHOM_MCP_ALLOWED_HOSTS" envSeparator:","`
	AuthToken    string   `env:"FATHOM_MCP_AUTH_TOKEN"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot serve a single request.
// The API key check runs before any listener binds so a misconfigured
// deployment fails at startup, not on the first tool call.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("FATHOM_API_KEY is required")
	}
	return nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	client := fathom.NewClientWithBaseURL(cfg.APIKey, cfg.APIBaseURL)

	return service.Run(ctx, client, service.Config{
		Transport:    service.TransportKind(cfg.Transport),
		HTTPAddr:     cfg.HTTPAddr,
		AllowedHosts: cfg.AllowedHosts,
		AuthToken:    cfg.AuthToken,
	})
}
