package taker

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hirewell/codeassess/internal/model"
)

// Answer is one problem's locally saved work.
type Answer struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// TimerState is the last countdown snapshot accepted from the server.
// It is advisory only: on the next reconcile the server value wins.
type TimerState struct {
	RemainingAtSync int       `json:"remaining_at_sync"`
	SyncedAt        time.Time `json:"synced_at"`
}

type storeFile struct {
	Answers map[string]Answer `json:"answers"`
	Timer   *TimerState       `json:"timer,omitempty"`
}

// Store is the durable local answer store for one exam session. Every saved
// answer survives process restarts until the attempt is successfully
// submitted. All writes go straight to disk; the in-memory map is a cache
// of the file contents.
//
// The file is keyed by a hash of the session ID so two different sessions
// on one machine never read each other's answers.
type Store struct {
	mu   sync.Mutex
	path string
	data storeFile
}

// OpenStore opens (or creates) the answer store for sessionID under dir.
func OpenStore(dir, sessionID string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	s := &Store{
		path: filepath.Join(dir, "answers-"+sessionKey(sessionID)+".json"),
		data: storeFile{Answers: make(map[string]Answer)},
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read answer store: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		// A corrupt file must not brick the session. Start fresh; the
		// server-side autosave copy still has the answers.
		s.data = storeFile{Answers: make(map[string]Answer)}
	}
	if s.data.Answers == nil {
		s.data.Answers = make(map[string]Answer)
	}
	return s, nil
}

// sessionKey derives a short filesystem-safe key from the session token.
func sessionKey(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:6])
}

// Save writes one problem's answer. Other problems' entries are untouched.
func (s *Store) Save(problemID, code, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Answers[problemID] = Answer{Code: code, Language: language}
	return s.persist()
}

// Get returns the saved answer for problemID, if any.
func (s *Store) Get(problemID string) (Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.data.Answers[problemID]
	return a, ok
}

// All flattens the store into the submission shape, sorted by problem ID so
// the payload is deterministic.
func (s *Store) All() []model.SubmittedAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make([]model.SubmittedAnswer, 0, len(s.data.Answers))
	for id, a := range s.data.Answers {
		answers = append(answers, model.SubmittedAnswer{
			ProblemID: id,
			Code:      a.Code,
			Language:  a.Language,
		})
	}
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].ProblemID < answers[j].ProblemID
	})
	return answers
}

// Len returns the number of saved answers.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.Answers)
}

// SaveTimer records the latest server countdown snapshot.
func (s *Store) SaveTimer(remaining int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Timer = &TimerState{RemainingAtSync: remaining, SyncedAt: time.Now()}
	return s.persist()
}

// Timer returns the last recorded countdown snapshot, if any.
func (s *Store) Timer() (TimerState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Timer == nil {
		return TimerState{}, false
	}
	return *s.data.Timer, true
}

// Clear wipes all answers and the timer snapshot and removes the backing
// file. Called only after the server acknowledged the submission.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = storeFile{Answers: make(map[string]Answer)}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove answer store: %w", err)
	}
	return nil
}

// persist writes the store atomically. Callers must hold s.mu.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode answer store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write answer store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace answer store: %w", err)
	}
	return nil
}
