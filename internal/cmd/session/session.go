// Package session parses session command flags and composes transport
// entrypoints.
package session

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/probenraum/souffleur/internal/platform/cmd"
	server "github.com/probenraum/souffleur/internal/session/app"
)

// Config holds session command configuration.
type Config struct {
	HTTPAddr         string `env:"SOUFFLEUR_SESSION_HTTP_ADDR" envDefault:":8086"`
	DirectorPassword string `env:"SOUFFLEUR_DIRECTOR_PASSWORD"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "session HTTP listen address")
	fs.StringVar(&cfg.DirectorPassword, "director-password", cfg.DirectorPassword, "password required for director claims (empty accepts any)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the session app and starts realtime transport behavior.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSession, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:         cfg.HTTPAddr,
			DirectorPassword: cfg.DirectorPassword,
		}); err != nil {
			return fmt.Errorf("serve session: %w", err)
		}
		return nil
	})
}
