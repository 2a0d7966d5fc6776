package session

import (
	"fmt"
	"sync"
	"time"

	"fruitbid/internal/biddingerrors"
	model "fruitbid/internal/models"
	"fruitbid/utils"
)

// DefaultTTL is how long a session lives without being ended
const DefaultTTL = 12 * time.Hour

// Session is the identity entered on the Home page
type Session struct {
	ID        string
	UserID    int64
	UserName  string
	Phone     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Manager keeps sessions in memory and evicts expired ones in the background
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Option customises a Manager
type Option func(*Manager)

// WithClock overrides the time source used for expiry
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithJanitorInterval sets how often expired sessions are evicted
func WithJanitorInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// NewManager creates a Manager and starts its janitor; call Close to stop it
func NewManager(ttl time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		sessions: make(map[string]Session),
		ttl:      ttl,
		interval: time.Minute,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.janitor()
	return m
}

// TTL returns the configured session lifetime
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Start opens a session for a registered user
func (m *Manager) Start(user model.User) Session {
	now := m.now()
	s := Session{
		ID:        utils.GenerateID(),
		UserID:    user.ID,
		UserName:  user.Name,
		Phone:     user.Phone,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns a live session by token
func (m *Manager) Get(id string) (Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || !m.now().Before(s.ExpiresAt) {
		return Session{}, fmt.Errorf("session: %w", biddingerrors.ErrSessionNotFound)
	}
	return s, nil
}

// End removes a session; unknown tokens are ignored
func (m *Manager) End(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of stored sessions, expired ones included until evicted
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the janitor and waits for it to exit
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
}

func (m *Manager) janitor() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if n := m.evictExpired(); n > 0 {
				utils.Debug("expired sessions evicted", map[string]any{"count": n})
			}
		}
	}
}

func (m *Manager) evictExpired() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
