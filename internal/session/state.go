// Package session keeps the per-project workflow state shared by the
// prompt, session start and stop hooks.
package session

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/emiliopalmerini/hookguard/internal/util"
)

// SessionsDir is where per-session state lives, relative to the project root.
var SessionsDir = filepath.Join(".claude", "data", "sessions")

// State is the persisted record of one session.
type State struct {
	SessionID        string   `json:"session_id"`
	Prompts          []string `json:"prompts,omitempty"`
	CorrectionsCount int      `json:"corrections_count,omitempty"`
	EditCount        int      `json:"edit_count,omitempty"`
	ResponseCount    int      `json:"response_count,omitempty"`
}

// Store reads and updates session state files under a project root.
type Store struct {
	dir string
}

func NewStore(root string) *Store {
	return &Store{dir: filepath.Join(root, SessionsDir)}
}

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Path returns the state file for a session. IDs are sanitized so they
// cannot escape the sessions directory.
func (s *Store) Path(sessionID string) string {
	id := unsafeIDChars.ReplaceAllString(sessionID, "_")
	if id == "" || id == "." || id == ".." {
		id = "unknown"
	}
	return filepath.Join(s.dir, id+".json")
}

// Load returns the state of a session. A missing or corrupt file yields a
// fresh state.
func (s *Store) Load(sessionID string) (*State, error) {
	data, err := os.ReadFile(s.Path(sessionID))
	if os.IsNotExist(err) {
		return &State{SessionID: sessionID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session state: %w", err)
	}
	return decodeState(sessionID, data), nil
}

// Update applies fn to the session state and writes it back while holding
// an exclusive lock on the file.
func (s *Store) Update(sessionID string, fn func(*State)) (*State, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}

	f, err := os.OpenFile(s.Path(sessionID), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open session state: %w", err)
	}
	defer func() { _ = f.Close() }()

	unlock, err := util.LockFile(f)
	if err != nil {
		return nil, fmt.Errorf("lock session state: %w", err)
	}
	defer unlock()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read session state: %w", err)
	}

	state := decodeState(sessionID, data)
	fn(state)

	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal session state: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		return nil, fmt.Errorf("truncate session state: %w", err)
	}
	if _, err := f.WriteAt(out, 0); err != nil {
		return nil, fmt.Errorf("write session state: %w", err)
	}
	return state, nil
}

func decodeState(sessionID string, data []byte) *State {
	state := &State{}
	if len(data) == 0 || json.Unmarshal(data, state) != nil {
		state = &State{}
	}
	if state.SessionID == "" {
		state.SessionID = sessionID
	}
	return state
}
