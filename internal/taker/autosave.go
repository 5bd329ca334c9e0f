package taker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SaveAPI is the remote side of autosave. Satisfied by *Client.
type SaveAPI interface {
	SaveAnswer(ctx context.Context, problemID, code, language string) error
}

// Saver debounces editor keystrokes into answer store writes. Each problem
// has its own debounce window: a burst of edits to one problem collapses
// into a single save, while edits to different problems never delay each
// other. The latest edit always wins.
//
// Saves land in the local Store first; the remote save is best effort and
// a failure only logs (the server copy catches up on the next save or at
// submit time).
type Saver struct {
	store    *Store
	remote   SaveAPI
	debounce time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	pending map[string]*pendingEdit
	closed  bool
}

type pendingEdit struct {
	timer    *time.Timer
	code     string
	language string
}

// NewSaver creates a Saver. remote may be nil for offline use.
func NewSaver(store *Store, remote SaveAPI, debounce time.Duration, log zerolog.Logger) *Saver {
	return &Saver{
		store:    store,
		remote:   remote,
		debounce: debounce,
		log:      log.With().Str("component", "autosaver").Logger(),
		pending:  make(map[string]*pendingEdit),
	}
}

// Edit records a keystroke-level change to one problem's answer and
// (re)starts that problem's debounce window.
func (s *Saver) Edit(problemID, code, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if p, ok := s.pending[problemID]; ok {
		p.code = code
		p.language = language
		p.timer.Reset(s.debounce)
		return
	}

	p := &pendingEdit{code: code, language: language}
	p.timer = time.AfterFunc(s.debounce, func() {
		s.flushOne(problemID)
	})
	s.pending[problemID] = p
}

// flushOne persists the pending edit for problemID, if still pending.
func (s *Saver) flushOne(problemID string) {
	s.mu.Lock()
	p, ok := s.pending[problemID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, problemID)
	code, language := p.code, p.language
	s.mu.Unlock()

	s.persist(problemID, code, language)
}

// persist writes one answer locally and mirrors it to the server.
func (s *Saver) persist(problemID, code, language string) {
	if err := s.store.Save(problemID, code, language); err != nil {
		s.log.Error().Err(err).Str("problem_id", problemID).Msg("Local save failed")
	}

	if s.remote == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.remote.SaveAnswer(ctx, problemID, code, language); err != nil {
		s.log.Warn().Err(err).Str("problem_id", problemID).Msg("Remote save failed")
	}
}

// Flush cancels all debounce windows and persists every pending edit now.
// Called on teardown (leaving the problem page, submitting) so no trailing
// keystrokes are lost.
func (s *Saver) Flush() {
	s.mu.Lock()
	edits := make(map[string]*pendingEdit, len(s.pending))
	for id, p := range s.pending {
		p.timer.Stop()
		edits[id] = p
	}
	s.pending = make(map[string]*pendingEdit)
	s.mu.Unlock()

	for id, p := range edits {
		s.persist(id, p.code, p.language)
	}
}

// Pending returns how many problems have an unflushed edit.
func (s *Saver) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close flushes pending edits and rejects further ones.
func (s *Saver) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.Flush()
}
