package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/pantry/internal/apperr"
	"github.com/starford/pantry/internal/debounce"
	"github.com/starford/pantry/internal/models"
)

// Option configures a Manager.
type Option func(*Manager)

// WithDelay sets the debounce quiet window of new sessions.
func WithDelay(d time.Duration) Option {
	return func(m *Manager) {
		m.delay = d
	}
}

// WithPublisher sets the callback that receives every pass result.
func WithPublisher(p PublishFunc) Option {
	return func(m *Manager) {
		m.publish = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithSchedulerOptions passes options through to every session scheduler.
func WithSchedulerOptions(opts ...debounce.Option) Option {
	return func(m *Manager) {
		m.schedOpts = append(m.schedOpts, opts...)
	}
}

// Manager owns the live sessions.
type Manager struct {
	delay     time.Duration
	publish   PublishFunc
	logger    *slog.Logger
	schedOpts []debounce.Option

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

// NewManager returns an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		delay:    debounce.DefaultDelay,
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a session over a snapshot of records and runs the initial
// pass, the way a page filters once as soon as it loads.
func (m *Manager) Create(page string, records []models.Record) (*Session, error) {
	s := newSession(uuid.NewString(), page, records, m.delay, m.publish, m.logger, m.schedOpts...)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("session: create: %w", apperr.ErrClosed)
	}
	m.sessions[s.id] = s
	m.mu.Unlock()

	s.sched.Fire()
	m.logger.Info("session: created", slog.String("session", s.id), slog.String("page", page))
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, apperr.ErrNotFound)
	}
	return s, nil
}

// Delete stops and forgets the session with id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %q: %w", id, apperr.ErrNotFound)
	}
	s.Stop()
	m.logger.Info("session: deleted", slog.String("session", id))
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops every session. Create fails afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.closed = true
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}
