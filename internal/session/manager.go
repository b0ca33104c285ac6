package session

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"careattend/internal/config"
	apperrors "careattend/internal/errors"
	"careattend/internal/repository"
)

// kvStore is the slice of the secure store the manager persists through.
type kvStore interface {
	Get(ctx context.Context, key string, out interface{}) bool
	Set(ctx context.Context, key string, value interface{}) bool
	GetDirect(ctx context.Context, key string, out interface{}) bool
	SetDirect(ctx context.Context, key string, value interface{}) bool
	Delete(ctx context.Context, key string) bool
}

// eventLogger receives security events.
type eventLogger interface {
	Event(eventType string, details map[string]string)
}

// Manager issues, validates and expires sessions and keeps the per-username
// login attempt counters.
type Manager struct {
	store  kvStore
	users  repository.UserRepository
	events eventLogger
	cfg    config.SecurityConfig
	log    *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	active    map[string]struct{} // tokens under expiry monitoring
	onExpired func(Session)
}

// NewManager creates a session manager.
func NewManager(store kvStore, users repository.UserRepository, events eventLogger, cfg config.SecurityConfig, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		store:  store,
		users:  users,
		events: events,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		active: map[string]struct{}{},
	}
}

// SetExpiryHandler registers a callback invoked when the monitor force-logs
// a session out.
func (m *Manager) SetExpiryHandler(fn func(Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpired = fn
}

// Login authenticates username/password and issues a session.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, apperrors.Invalid("MISSING_CREDENTIALS", "user id and password are required")
	}

	if m.IsAccountLocked(ctx, username) {
		remaining := m.lockRemaining(ctx, username)
		return nil, apperrors.New(423, "ACCOUNT_LOCKED",
			fmt.Sprintf("account is locked, retry in %d minutes", remaining))
	}

	user, err := m.users.FindByID(ctx, username)
	if err != nil || user.IsRetired || user.PasswordHash == "" {
		// Unknown and retired users get the same generic rejection as a
		// wrong password so the login surface cannot enumerate accounts.
		m.recordFailedLogin(ctx, username, "USER_NOT_FOUND")
		return nil, apperrors.Unauthorized("INVALID_CREDENTIALS", "user id or password is incorrect")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		m.recordFailedLogin(ctx, username, "INVALID_PASSWORD")
		return nil, apperrors.Unauthorized("INVALID_CREDENTIALS", "user id or password is incorrect")
	}

	m.clearFailedLogins(ctx, username)

	now := m.now()
	sess := &Session{
		User: UserSnapshot{
			ID:          user.ID,
			Name:        user.Name,
			Role:        user.Role,
			Permissions: user.Role.Permissions(),
			LoginAt:     now,
		},
		Token:          uuid.NewString(),
		CreatedAt:      now,
		LastActivityAt: now,
	}

	if !m.store.Set(ctx, sessionKey(sess.Token), sess) {
		return nil, apperrors.New(500, "SESSION_PERSIST_FAILED", "failed to persist session")
	}
	m.register(sess.Token)

	m.events.Event("LOGIN_SUCCESS", map[string]string{
		"key":     "session_data",
		"user_id": user.ID,
	})
	return sess, nil
}

// Logout destroys the session identified by token.
func (m *Manager) Logout(ctx context.Context, token string) {
	var sess Session
	if m.store.GetDirect(ctx, sessionKey(token), &sess) {
		m.events.Event("LOGOUT", map[string]string{
			"user_id":          sess.User.ID,
			"session_duration": m.now().Sub(sess.CreatedAt).String(),
		})
	}
	m.store.Delete(ctx, sessionKey(token))
	m.unregister(token)
}

// Restore adopts a persisted session on startup. A present but invalid
// session is deleted and reported as expired.
func (m *Manager) Restore(ctx context.Context, token string) (*Session, error) {
	var sess Session
	if !m.store.GetDirect(ctx, sessionKey(token), &sess) {
		return nil, apperrors.Unauthorized("SESSION_EXPIRED", "session has expired, please log in again")
	}
	if !sess.ValidAt(m.now(), m.cfg.MaxSessionAge, m.cfg.IdleTimeout) {
		m.expire(ctx, &sess)
		return nil, apperrors.Unauthorized("SESSION_EXPIRED", "session has expired, please log in again")
	}

	m.touch(ctx, &sess)
	m.register(sess.Token)
	m.events.Event("SESSION_RESTORED", map[string]string{
		"key":     "session_data",
		"user_id": sess.User.ID,
	})
	return &sess, nil
}

// Validate checks the session identified by token and refreshes its activity
// window. Called on every authenticated request, the service analog of
// user-interaction activity tracking. Sessions that survived a restart are
// re-registered with the expiry monitor here.
func (m *Manager) Validate(ctx context.Context, token string) (*Session, error) {
	var sess Session
	if !m.store.GetDirect(ctx, sessionKey(token), &sess) {
		return nil, apperrors.Unauthorized("SESSION_EXPIRED", "session has expired, please log in again")
	}
	if !sess.ValidAt(m.now(), m.cfg.MaxSessionAge, m.cfg.IdleTimeout) {
		m.expire(ctx, &sess)
		return nil, apperrors.Unauthorized("SESSION_EXPIRED", "session has expired, please log in again")
	}
	m.touch(ctx, &sess)
	m.register(sess.Token)
	return &sess, nil
}

// RequirePermission returns an authorization fault unless the session holds p.
func (m *Manager) RequirePermission(sess *Session, p string) error {
	if !sess.HasPermission(p) {
		return apperrors.Forbidden("INSUFFICIENT_PERMISSIONS", "not allowed to perform this operation")
	}
	return nil
}

// StartMonitoring revalidates every registered session once per minute until
// ctx is cancelled. Invalid sessions are force-logged-out and reported
// through the expiry handler.
func (m *Manager) StartMonitoring(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(ctx)
			}
		}
	}()
}

// IsAccountLocked reports whether the username is currently locked out.
// Expired locks are cleared lazily.
func (m *Manager) IsAccountLocked(ctx context.Context, username string) bool {
	var attempts attemptCounter
	if !m.store.Get(ctx, attemptsKey(username), &attempts) {
		return false
	}
	if attempts.LockedUntil == nil {
		return false
	}
	if m.now().After(*attempts.LockedUntil) {
		m.clearFailedLogins(ctx, username)
		return false
	}
	return true
}

func (m *Manager) sweep(ctx context.Context) {
	m.mu.Lock()
	tokens := make([]string, 0, len(m.active))
	for t := range m.active {
		tokens = append(tokens, t)
	}
	m.mu.Unlock()

	for _, token := range tokens {
		var sess Session
		if !m.store.GetDirect(ctx, sessionKey(token), &sess) {
			m.unregister(token)
			continue
		}
		if !sess.ValidAt(m.now(), m.cfg.MaxSessionAge, m.cfg.IdleTimeout) {
			m.expire(ctx, &sess)
			m.mu.Lock()
			fn := m.onExpired
			m.mu.Unlock()
			if fn != nil {
				fn(sess)
			}
		}
	}
}

func (m *Manager) expire(ctx context.Context, sess *Session) {
	m.store.Delete(ctx, sessionKey(sess.Token))
	m.unregister(sess.Token)
	m.events.Event("SESSION_EXPIRED", map[string]string{
		"key":     "session_data",
		"user_id": sess.User.ID,
	})
}

func (m *Manager) touch(ctx context.Context, sess *Session) {
	sess.LastActivityAt = m.now()
	m.store.Set(ctx, sessionKey(sess.Token), sess)
}

func (m *Manager) register(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[token] = struct{}{}
}

func (m *Manager) unregister(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, token)
}

func (m *Manager) recordFailedLogin(ctx context.Context, username, reason string) {
	key := attemptsKey(username)
	var attempts attemptCounter
	m.store.Get(ctx, key, &attempts)

	attempts.Count++
	attempts.LastAttemptAt = m.now()

	if attempts.Count >= m.cfg.MaxLoginAttempts {
		until := m.now().Add(m.cfg.LockoutDuration)
		attempts.LockedUntil = &until
		m.events.Event("ACCOUNT_LOCKED", map[string]string{
			"key":      "login_attempts",
			"user_id":  username,
			"reason":   reason,
			"attempts": fmt.Sprintf("%d", attempts.Count),
		})
	}

	m.store.Set(ctx, key, attempts)
	m.events.Event("LOGIN_FAILED", map[string]string{
		"key":      "login_attempts",
		"user_id":  username,
		"reason":   reason,
		"attempts": fmt.Sprintf("%d", attempts.Count),
	})
}

func (m *Manager) clearFailedLogins(ctx context.Context, username string) {
	m.store.Delete(ctx, attemptsKey(username))
}

func (m *Manager) lockRemaining(ctx context.Context, username string) int {
	var attempts attemptCounter
	if !m.store.Get(ctx, attemptsKey(username), &attempts) || attempts.LockedUntil == nil {
		return 0
	}
	mins := attempts.LockedUntil.Sub(m.now()).Minutes()
	return int(math.Ceil(mins))
}

func sessionKey(token string) string     { return "session_data_" + token }
func attemptsKey(username string) string { return "login_attempts_" + username }
