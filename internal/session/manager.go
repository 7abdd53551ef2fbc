// Package session holds the per-user workflow state: one verification and
// one issuance orchestrator per session.
package session

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"credguard/internal/issuance"
	"credguard/internal/platform/logger"
	"credguard/internal/verification"
	dErrors "credguard/pkg/domain-errors"
)

// Session pairs the two workflows of one user.
type Session struct {
	ID           string
	Verification *verification.Orchestrator
	Issuance     *issuance.Orchestrator
	CreatedAt    time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen reports when the session was last looked up.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = at
}

// reset discards both workflows and stops any polling job.
func (s *Session) reset() {
	s.Verification.Reset()
	s.Issuance.Reset()
}

// Factory builds the orchestrators of a new session.
type Factory interface {
	NewVerification() *verification.Orchestrator
	NewIssuance() *issuance.Orchestrator
}

// Manager stores sessions in memory.
type Manager struct {
	factory Factory
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures Manager.
type Option func(*Manager)

// WithLogger overrides the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs an empty Manager.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory:  factory,
		logger:   logger.Discard(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a session with fresh, idle workflows.
func (m *Manager) Open() *Session {
	now := m.now()
	s := &Session{
		ID:           uuid.NewString(),
		Verification: m.factory.NewVerification(),
		Issuance:     m.factory.NewIssuance(),
		CreatedAt:    now,
		lastSeen:     now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session opened", "session_id", s.ID)
	return s
}

// Get returns the session and marks it as seen.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	s.touch(m.now())
	return s, nil
}

// Reset returns both workflows of the session to Idle.
func (m *Manager) Reset(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.reset()
	m.logger.Info("session reset", "session_id", id)
	return nil
}

// Close resets the session and forgets it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	s.reset()
	m.logger.Info("session closed", "session_id", id)
	return nil
}

// CloseIdle closes every session not seen since before cutoff and reports how many were closed.
func (m *Manager) CloseIdle(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	idle := make([]*Session, 0)
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.reset()
	}
	return len(idle), nil
}

// CloseAll stops every session, e.g. on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := maps.Clone(m.sessions)
	clear(m.sessions)
	m.mu.Unlock()

	for _, s := range all {
		s.reset()
	}
}

// Len reports the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Orchestrators builds both workflows on shared collaborators.
type Orchestrators struct {
	VerificationClient  verification.Client
	IssuanceClient      issuance.Client
	VerificationOptions []verification.Option
	IssuanceOptions     []issuance.Option
}

func (o Orchestrators) NewVerification() *verification.Orchestrator {
	return verification.New(o.VerificationClient, o.VerificationOptions...)
}

func (o Orchestrators) NewIssuance() *issuance.Orchestrator {
	return issuance.New(o.IssuanceClient, o.IssuanceOptions...)
}
