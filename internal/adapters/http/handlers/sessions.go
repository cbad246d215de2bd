package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jsamuelsen/quote-viewmodel/internal/domain"
)

var (
	// ErrTooManySessions is returned by Open when the registry is full.
	ErrTooManySessions = errors.New("too many stream sessions")

	// ErrSessionNotFound is returned for an unknown or ended session.
	ErrSessionNotFound = errors.New("stream session not found")

	// ErrDuplicateSession is returned by Open for an ID already in use.
	ErrDuplicateSession = errors.New("duplicate stream session")
)

// Session is the intent side of one open stream. The stream handler owns the
// view-model reading Intents; other requests reach it through Push.
type Session struct {
	id      string
	intents chan domain.Intent
	ended   chan struct{}
	end     sync.Once
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Intents is the input stream of the session's view-model.
func (s *Session) Intents() <-chan domain.Intent {
	return s.intents
}

// Push hands intent to the view-model. It blocks until the view-model reads
// it, the session ends or ctx is done.
func (s *Session) Push(ctx context.Context, intent domain.Intent) error {
	select {
	case s.intents <- intent:
		return nil
	case <-s.ended:
		return ErrSessionNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) close() {
	s.end.Do(func() { close(s.ended) })
}

// SessionRegistry tracks open stream sessions, bounded by a maximum.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	max      int
	active   prometheus.Gauge
}

// NewSessionRegistry creates a registry allowing up to maxSessions sessions.
// The active-session gauge is registered with reg; a nil reg leaves it
// unregistered.
func NewSessionRegistry(maxSessions int, reg prometheus.Registerer) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		max:      maxSessions,
		active: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "quote_stream_sessions_active",
			Help: "Number of open quote stream sessions.",
		}),
	}
}

// Open registers a new session under id.
func (r *SessionRegistry) Open(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return nil, ErrDuplicateSession
	}

	if len(r.sessions) >= r.max {
		return nil, ErrTooManySessions
	}

	s := &Session{
		id:      id,
		intents: make(chan domain.Intent),
		ended:   make(chan struct{}),
	}
	r.sessions[id] = s
	r.active.Inc()

	return s, nil
}

// Get returns the session registered under id.
func (r *SessionRegistry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return s, nil
}

// Remove ends the session and forgets it. Pending Push calls return
// ErrSessionNotFound. Removing an unknown id is a no-op.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return
	}

	delete(r.sessions, id)
	r.active.Dec()
	s.close()
}

// Max returns the session limit.
func (r *SessionRegistry) Max() int {
	return r.max
}

// Len returns the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
