// internal/store/persist.go
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/mindloom/internal/types"
)

// The whole collection persists as one JSON document under a fixed name.
func sessionsPath(dataDir string) string {
	return filepath.Join(dataDir, "sessions.json")
}

// Load reads the persisted session collection. A missing file yields an
// empty store. Sessions persisted without a conversation state are
// back-filled with the default, and every session's derived state is
// recomputed from its history.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read sessions: %w", err)
	}

	var sessions []*types.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return fmt.Errorf("unmarshal sessions: %w", err)
	}

	s.sessions = sessions
	s.violations = 0
	for _, sess := range s.sessions {
		if sess.State.Depth == "" {
			sess.State = types.DefaultConversationState()
		}
		s.refreshStateLocked(sess)
		s.violations += sess.State.BoundaryViolations
	}
	s.recomputeHealthLocked()

	if len(s.sessions) > 0 {
		s.activeID = s.sessions[0].ID
	} else {
		s.activeID = ""
	}
	return nil
}

// Save persists the session collection now. Mutating operations call this
// internally; it exists publicly for the maintenance snapshot job.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeLocked()
}

// saveLocked persists under the held write lock, logging and swallowing
// failures: in-memory state stays authoritative for the rest of the session.
func (s *Store) saveLocked() {
	if err := s.writeLocked(); err != nil {
		logSaveError(err)
	}
}

func (s *Store) writeLocked() error {
	data, err := json.MarshalIndent(s.sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Atomic write: write to temp file then rename
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp sessions: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp sessions: %w", err)
	}
	return nil
}
