// Package server hosts the script source service: an HTTP JSON API serving
// plays, transcripts, statistics, and per-line rehearsal notes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/probenraum/souffleur/internal/platform/timeouts"
	"github.com/probenraum/souffleur/internal/script/domain"
	"github.com/probenraum/souffleur/internal/script/stats"
	"github.com/probenraum/souffleur/internal/storage"
)

// Config defines the inputs for the script service.
type Config struct {
	HTTPAddr          string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Store is the persistence surface the script service serves from.
type Store interface {
	storage.PlayStore
	storage.NoteStore
}

// Server hosts the script HTTP process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
}

type playResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type noteBodyPayload struct {
	Body string `json:"body"`
}

// NewHandler creates the script service routes over the given store.
func NewHandler(store Store) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /api/plays", func(w http.ResponseWriter, r *http.Request) {
		handleListPlays(w, r, store)
	})
	mux.HandleFunc("GET /api/script/{playId}", func(w http.ResponseWriter, r *http.Request) {
		handleGetScript(w, r, store)
	})
	mux.HandleFunc("GET /api/stats/{playId}", func(w http.ResponseWriter, r *http.Request) {
		handleGetStats(w, r, store)
	})
	mux.HandleFunc("GET /api/notes/{playId}", func(w http.ResponseWriter, r *http.Request) {
		handleListNotes(w, r, store)
	})
	mux.HandleFunc("GET /api/notes/{playId}/{lineId}", func(w http.ResponseWriter, r *http.Request) {
		handleGetNote(w, r, store)
	})
	mux.HandleFunc("PUT /api/notes/{playId}/{lineId}", func(w http.ResponseWriter, r *http.Request) {
		handlePutNote(w, r, store)
	})
	mux.HandleFunc("DELETE /api/notes/{playId}/{lineId}", func(w http.ResponseWriter, r *http.Request) {
		handleDeleteNote(w, r, store)
	})
	return mux
}

func handleListPlays(w http.ResponseWriter, r *http.Request, store Store) {
	plays, err := store.ListPlays(r.Context())
	if err != nil {
		log.Printf("script: list plays: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	response := make([]playResponse, 0, len(plays))
	for _, play := range plays {
		response = append(response, playResponse{ID: play.ID, Name: play.Name})
	}
	writeJSON(w, response)
}

func handleGetScript(w http.ResponseWriter, r *http.Request, store Store) {
	playID := strings.TrimSpace(r.PathValue("playId"))
	script, err := store.GetScript(r.Context(), playID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "play not found", http.StatusNotFound)
			return
		}
		log.Printf("script: get script %q: %v", playID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if script.Rows == nil {
		script.Rows = []domain.Row{}
	}
	if script.Actors == nil {
		script.Actors = []domain.Actor{}
	}
	writeJSON(w, script)
}

func handleGetStats(w http.ResponseWriter, r *http.Request, store Store) {
	playID := strings.TrimSpace(r.PathValue("playId"))
	script, err := store.GetScript(r.Context(), playID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "play not found", http.StatusNotFound)
			return
		}
		log.Printf("script: get stats %q: %v", playID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats.Calculate(script.Rows))
}

func handleListNotes(w http.ResponseWriter, r *http.Request, store Store) {
	playID := strings.TrimSpace(r.PathValue("playId"))
	notes, err := store.ListNotes(r.Context(), playID)
	if err != nil {
		log.Printf("script: list notes %q: %v", playID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if notes == nil {
		notes = []storage.Note{}
	}
	writeJSON(w, notes)
}

func handleGetNote(w http.ResponseWriter, r *http.Request, store Store) {
	playID := strings.TrimSpace(r.PathValue("playId"))
	lineID := strings.TrimSpace(r.PathValue("lineId"))
	note, err := store.GetNote(r.Context(), playID, lineID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}
		log.Printf("script: get note %q/%q: %v", playID, lineID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, note)
}

func handlePutNote(w http.ResponseWriter, r *http.Request, store Store) {
	playID := strings.TrimSpace(r.PathValue("playId"))
	lineID := strings.TrimSpace(r.PathValue("lineId"))

	var payload noteBodyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid note payload", http.StatusBadRequest)
		return
	}

	note := storage.Note{PlayID: playID, LineID: lineID, Body: payload.Body}
	if err := store.PutNote(r.Context(), note); err != nil {
		log.Printf("script: put note %q/%q: %v", playID, lineID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleDeleteNote(w http.ResponseWriter, r *http.Request, store Store) {
	playID := strings.TrimSpace(r.PathValue("playId"))
	lineID := strings.TrimSpace(r.PathValue("lineId"))
	if err := store.DeleteNote(r.Context(), playID, lineID); err != nil {
		log.Printf("script: delete note %q/%q: %v", playID, lineID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("script: encode response: %v", err)
	}
}

// NewServer builds a configured script server over the given store.
func NewServer(config Config, store Store) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           NewHandler(store),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("script server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("script server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
