package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Toast is a one-shot message shown on the next page render.
type Toast struct {
	Title       string
	Description string
	Destructive bool
	// Copy is text the page should put on the clipboard.
	Copy string
}

// Session pairs a wizard with its pending toast.
type Session struct {
	ID     string
	Wizard *Wizard

	mu       sync.Mutex
	toast    *Toast
	lastSeen time.Time
}

func (s *Session) SetToast(t Toast) {
	s.mu.Lock()
	s.toast = &t
	s.mu.Unlock()
}

// TakeToast returns the pending toast and clears it.
func (s *Session) TakeToast() *Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.toast
	s.toast = nil
	return t
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Manager keeps one in-memory session per browser.
type Manager struct {
	newWizard func() *Wizard
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(newWizard func() *Wizard) *Manager {
	return &Manager{
		newWizard: newWizard,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Session returns the session for id, creating a fresh one under a new id
// when id is unknown. The bool reports whether a session was created.
func (m *Manager) Session(id string) (*Session, bool) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.touch(now)
		return s, false
	}
	s := &Session{ID: uuid.NewString(), Wizard: m.newWizard(), lastSeen: now}
	m.sessions[s.ID] = s
	return s, true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many went.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.idleSince(now) > maxIdle {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Sweep(maxIdle)
		}
	}
}
