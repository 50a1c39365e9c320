package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ikkim/storefront-bff/pkg/cartapi"
	"github.com/ikkim/storefront-bff/pkg/logger"
	"github.com/ikkim/storefront-bff/pkg/util"
)

// CredentialStore holds the bearer token of one session and answers the
// cart client's "is a usable credential present" check.
type CredentialStore struct {
	mu     sync.RWMutex
	token  string
	secret string
}

func NewCredentialStore(secret string) *CredentialStore {
	return &CredentialStore{secret: secret}
}

// Credential returns the token only while it is still valid.
func (c *CredentialStore) Credential() (string, bool) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token == "" {
		return "", false
	}
	if _, err := util.InspectToken(token, c.secret); err != nil {
		return "", false
	}
	return token, true
}

// Set stores token and returns its claims. An invalid token is not stored.
func (c *CredentialStore) Set(token string) (*util.Claims, error) {
	claims, err := util.InspectToken(token, c.secret)
	if err != nil {
		c.Clear()
		return nil, err
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return claims, nil
}

func (c *CredentialStore) Clear() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// SessionBackend is what one session needs from the commerce backend.
type SessionBackend interface {
	RemoteCart
	OrderPlacer
}

// BackendFactory binds a backend to a session's credentials.
type BackendFactory func(credentials cartapi.CredentialSource) SessionBackend

// ClientBackend binds sessions to a shared cartapi.Client.
func ClientBackend(client *cartapi.Client) BackendFactory {
	return func(credentials cartapi.CredentialSource) SessionBackend {
		return client.WithCredentials(credentials)
	}
}

// Session is everything the storefront keeps for one browser.
type Session struct {
	ID          string
	Cart        *CartReconciler
	Guest       *GuestCart
	Credentials *CredentialStore
	Orders      OrderPlacer

	mu       sync.Mutex
	userID   uint
	lastSeen time.Time
}

// UserID is the authenticated user, or zero.
func (s *Session) UserID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type SessionManagerConfig struct {
	LoginPath   string
	JWTSecret   string
	IdleTimeout time.Duration
}

// SessionManager owns the per-browser engines. Each session gets its own
// store and engine; nothing is shared between sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	backend  BackendFactory
	notifier Notifier
	guests   GuestCartPersister
	config   SessionManagerConfig
	now      func() time.Time
}

func NewSessionManager(backend BackendFactory, notifier Notifier, guests GuestCartPersister, config SessionManagerConfig) *SessionManager {
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 30 * time.Minute
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		backend:  backend,
		notifier: notifier,
		guests:   guests,
		config:   config,
		now:      time.Now,
	}
}

// Acquire returns the session for id, creating it when unknown. A well-formed
// unknown id is kept so a persisted guest cart can be restored under it.
func (m *SessionManager) Acquire(ctx context.Context, id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		sess.touch(m.now())
		return sess, false
	}

	m.mu.Lock()
	if sess, ok = m.sessions[id]; ok {
		m.mu.Unlock()
		sess.touch(m.now())
		return sess, false
	}
	sess = m.newSession(id)
	m.sessions[id] = sess
	m.mu.Unlock()

	sess.Guest.Restore(ctx)
	logger.Info("Session created", map[string]interface{}{
		"session_id": id,
	})
	return sess, true
}

// Get returns an existing session without creating one.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

func (m *SessionManager) newSession(id string) *Session {
	creds := NewCredentialStore(m.config.JWTSecret)
	backend := m.backend(creds)

	return &Session{
		ID: id,
		Cart: NewCartReconciler(backend, m.notifier, ReconcilerConfig{
			SessionID: id,
			LoginPath: m.config.LoginPath,
		}),
		Guest:       NewGuestCart(id, m.guests),
		Credentials: creds,
		Orders:      backend,
		lastSeen:    m.now(),
	}
}

// Authenticate records the request's bearer token. When the resulting user
// differs from the previous one the local cart is discarded. An empty or
// invalid token leaves the session unauthenticated.
func (m *SessionManager) Authenticate(sess *Session, token string) (uint, error) {
	var (
		userID uint
		err    error
	)
	if token == "" {
		sess.Credentials.Clear()
	} else {
		var claims *util.Claims
		claims, err = sess.Credentials.Set(token)
		if err == nil {
			userID = claims.UserID
		}
	}

	// The cart is reset before the new user becomes visible, so no request
	// authenticated as that user can read the previous user's cart.
	sess.mu.Lock()
	previous := sess.userID
	if previous != userID {
		sess.Cart.Reset()
		sess.userID = userID
	}
	sess.mu.Unlock()

	if previous != userID {
		logger.Info("Session user changed, cart reset", map[string]interface{}{
			"session_id":    sess.ID,
			"previous_user": previous,
			"user_id":       userID,
		})
	}
	return userID, err
}

// Logout drops the credential and the local cart.
func (m *SessionManager) Logout(sess *Session) {
	sess.Credentials.Clear()

	sess.mu.Lock()
	sess.Cart.Reset()
	sess.userID = 0
	sess.mu.Unlock()

	logger.Info("Session logged out", map[string]interface{}{
		"session_id": sess.ID,
	})
}

// Sweep evicts sessions idle for longer than the idle timeout and returns
// how many were removed. Guest carts stay in their persister.
func (m *SessionManager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.config.IdleTimeout)

	var evicted []*Session
	m.mu.Lock()
	for id, sess := range m.sessions {
		if sess.idleSince().Before(cutoff) {
			evicted = append(evicted, sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, sess := range evicted {
		sess.Credentials.Clear()
		sess.Cart.Reset()
	}
	if len(evicted) > 0 {
		logger.Info("Idle sessions evicted", map[string]interface{}{
			"count": len(evicted),
		})
	}
	return len(evicted)
}

func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
