// Package scriptimporter loads a play's transcript and roster from CSV
// exports into the play store.
package scriptimporter

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/probenraum/souffleur/internal/script/domain"
	"github.com/probenraum/souffleur/internal/script/mojibake"
	"github.com/probenraum/souffleur/internal/storage"
	storagesqlite "github.com/probenraum/souffleur/internal/storage/sqlite"
)

// Expected transcript CSV header, semicolon-delimited.
var scriptHeader = []string{"Szene", "Kategorie", "Charakter", "Mikrofon", "Text"}

// Config holds importer command configuration.
type Config struct {
	DBPath     string
	PlayID     string
	PlayName   string
	ScriptPath string
	ActorsPath string
	DryRun     bool
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{
		DBPath: filepath.Join("data", "souffleur.db"),
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "play database path")
	fs.StringVar(&cfg.PlayID, "play-id", "", "play identifier")
	fs.StringVar(&cfg.PlayName, "play-name", "", "play display name (defaults to play-id)")
	fs.StringVar(&cfg.ScriptPath, "script", "", "transcript CSV path (Szene;Kategorie;Charakter;Mikrofon;Text)")
	fs.StringVar(&cfg.ActorsPath, "actors", "", "roster CSV path (Rolle;Name), optional")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "validate without writing to the database")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.PlayID) == "" {
		return Config{}, errors.New("play-id is required")
	}
	if strings.TrimSpace(cfg.ScriptPath) == "" {
		return Config{}, errors.New("script is required")
	}
	return cfg, nil
}

// Run executes the importer using the provided Config.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}

	rows, err := readScriptCSV(cfg.ScriptPath)
	if err != nil {
		return err
	}

	var actors []domain.Actor
	if strings.TrimSpace(cfg.ActorsPath) != "" {
		actors, err = readActorsCSV(cfg.ActorsPath)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "parsed %d rows and %d actors from %s\n", len(rows), len(actors), cfg.ScriptPath)
	if cfg.DryRun {
		fmt.Fprintln(out, "dry run, nothing written")
		return nil
	}

	store, err := storagesqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open play store: %w", err)
	}
	defer store.Close()

	playID := strings.TrimSpace(cfg.PlayID)
	playName := strings.TrimSpace(cfg.PlayName)
	if playName == "" {
		playName = playID
	}
	if err := store.PutPlay(ctx, storage.Play{ID: playID, Name: playName}); err != nil {
		return fmt.Errorf("put play: %w", err)
	}
	if err := store.PutScript(ctx, playID, domain.Script{Rows: rows, Actors: actors}); err != nil {
		return fmt.Errorf("put script: %w", err)
	}

	fmt.Fprintf(out, "imported play %q into %s\n", playID, cfg.DBPath)
	return nil
}

func readScriptCSV(path string) ([]domain.Row, error) {
	records, err := readSemicolonCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty transcript", path)
	}
	if err := checkHeader(records[0], scriptHeader); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rows := make([]domain.Row, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < len(scriptHeader) {
			return nil, fmt.Errorf("%s: line %d: expected %d fields, got %d", path, i+2, len(scriptHeader), len(record))
		}
		rows = append(rows, domain.Row{
			Scene:      mojibake.Repair(strings.TrimSpace(record[0])),
			Category:   domain.Category(mojibake.Repair(strings.TrimSpace(record[1]))),
			Character:  mojibake.Repair(strings.TrimSpace(record[2])),
			Microphone: mojibake.Repair(strings.TrimSpace(record[3])),
			Text:       mojibake.Repair(record[4]),
		})
	}
	return rows, nil
}

func readActorsCSV(path string) ([]domain.Actor, error) {
	records, err := readSemicolonCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	// The header row is optional for the roster.
	start := 0
	if strings.EqualFold(strings.TrimSpace(records[0][0]), "Rolle") {
		start = 1
	}

	actors := make([]domain.Actor, 0, len(records)-start)
	for i, record := range records[start:] {
		if len(record) < 2 {
			return nil, fmt.Errorf("%s: line %d: expected 2 fields, got %d", path, start+i+1, len(record))
		}
		actors = append(actors, domain.Actor{
			Role: mojibake.Repair(strings.TrimSpace(record[0])),
			Name: mojibake.Repair(strings.TrimSpace(record[1])),
		})
	}
	return actors, nil
}

func readSemicolonCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

func checkHeader(got, want []string) error {
	if len(got) < len(want) {
		return fmt.Errorf("expected header %v, got %v", want, got)
	}
	for i, column := range want {
		if !strings.EqualFold(strings.TrimSpace(got[i]), column) {
			return fmt.Errorf("expected header column %q, got %q", column, got[i])
		}
	}
	return nil
}
