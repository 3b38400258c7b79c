// Package script parses script command flags and composes the script source
// service entrypoint.
package script

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/probenraum/souffleur/internal/platform/cmd"
	server "github.com/probenraum/souffleur/internal/script/app"
	storagesqlite "github.com/probenraum/souffleur/internal/storage/sqlite"
)

// Config holds script command configuration.
type Config struct {
	HTTPAddr string `env:"SOUFFLEUR_SCRIPT_HTTP_ADDR" envDefault:":8085"`
	DBPath   string `env:"SOUFFLEUR_SCRIPT_DB_PATH"   envDefault:"data/souffleur.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "script HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "play database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the play store and serves the script API.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScript, func(context.Context) error {
		store, err := storagesqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open play store: %w", err)
		}
		defer store.Close()

		srv, err := server.NewServer(server.Config{HTTPAddr: cfg.HTTPAddr}, store)
		if err != nil {
			return fmt.Errorf("init script server: %w", err)
		}
		if err := srv.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve script: %w", err)
		}
		return nil
	})
}
