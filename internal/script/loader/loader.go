// Package loader fetches scripts from the script source service and keeps
// the loaded, cue-augmented transcript for one consumer.
//
// Loads are superseded rather than cancelled: starting a new load invalidates
// every outstanding one, so a slow response for an old production can never
// overwrite newer state.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/probenraum/souffleur/internal/platform/timeouts"
	"github.com/probenraum/souffleur/internal/script/domain"
	"github.com/probenraum/souffleur/internal/script/miccue"
)

// ErrSuperseded indicates a load finished after a newer one started.
var ErrSuperseded = errors.New("load superseded by a newer load")

// Client fetches scripts over the script source HTTP contract.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a script source client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: timeouts.ScriptFetch,
		},
	}
}

// Fetch retrieves one play's script. A non-OK response is a terminal error
// for this attempt; no partial script is returned.
func (c *Client) Fetch(ctx context.Context, playID string) (domain.Script, error) {
	playID = strings.TrimSpace(playID)
	if playID == "" {
		return domain.Script{}, errors.New("play id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/script/"+playID, nil)
	if err != nil {
		return domain.Script{}, fmt.Errorf("build script request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Script{}, fmt.Errorf("fetch script: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Script{}, fmt.Errorf("script source status %d", resp.StatusCode)
	}

	var script domain.Script
	if err := json.NewDecoder(resp.Body).Decode(&script); err != nil {
		return domain.Script{}, fmt.Errorf("decode script response: %w", err)
	}
	return script, nil
}

// State holds the current transcript for one view. Rows are the cue-augmented
// sequence; consumers must address lines by position in it.
type State struct {
	mu         sync.Mutex
	generation uint64
	playID     string
	rows       []domain.Row
	actors     []domain.Actor
	loading    bool
	err        error
}

// NewState creates an empty script state.
func NewState() *State {
	return &State{}
}

// Load fetches a play and installs the augmented script unless a newer Load
// started in the meantime, in which case ErrSuperseded is returned and the
// newer state is left untouched.
func (s *State) Load(ctx context.Context, client *Client, playID string) error {
	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.playID = playID
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	script, err := client.Fetch(ctx, playID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return ErrSuperseded
	}
	s.loading = false
	if err != nil {
		s.err = err
		s.rows = nil
		s.actors = nil
		return err
	}
	s.rows = miccue.Derive(script.Rows)
	s.actors = script.Actors
	return nil
}

// Rows returns the current augmented transcript.
func (s *State) Rows() []domain.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Actors returns the current roster.
func (s *State) Actors() []domain.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actors
}

// PlayID returns the play the state currently tracks.
func (s *State) PlayID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playID
}

// Loading reports whether the newest load is still in flight.
func (s *State) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the terminal error of the newest finished load, if any.
func (s *State) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
