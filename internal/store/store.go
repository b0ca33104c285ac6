package store

import (
	"context"
	"encoding/json"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Version is recorded in the system_initialized marker.
const Version = "4.0.0"

// DefaultPrefix namespaces every key to avoid collisions with unrelated data
// sharing the same Redis database.
const DefaultPrefix = "att_sys:"

const securityLogKey = "security_log"

// sensitivePatterns marks keys whose values are sealed at rest.
var sensitivePatterns = []string{
	"login_attempts",
	"session_data",
	"security_log",
	"user_activity",
}

// Backend is the flat string-keyed bucket the store persists into. The
// production implementation is the fail-safe Redis client wrapper.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Auditor receives data-access events for non-direct operations.
type Auditor interface {
	Event(eventType string, details map[string]string)
}

// envelope wraps sealed values so reads can tell them apart from plain JSON.
type envelope struct {
	Sealed    bool      `json:"sealed"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is a namespaced key-value store with at-rest sealing for sensitive
// keys and per-key audit logging. Every operation swallows internal faults
// and reports them as a miss or a failed write; the store never crashes the
// caller.
type Store struct {
	backend Backend
	prefix  string
	sealer  *Sealer
	auditor Auditor
	log     *zap.Logger
}

// New creates a Store. sealer may be nil to disable sealing; log may be nil.
func New(backend Backend, prefix string, sealer *Sealer, log *zap.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: backend, prefix: prefix, sealer: sealer, log: log}
}

// SetAuditor attaches the security event logger. Wired after construction
// because the logger itself persists through this store.
func (s *Store) SetAuditor(a Auditor) {
	s.auditor = a
}

// Init refreshes the startup stats and writes the one-time bootstrap marker.
func (s *Store) Init(ctx context.Context) {
	// The stats key is rewritten on every start; its timestamp is the base
	// for uptime reporting.
	s.SetDirect(ctx, "system_stats", map[string]string{
		"version":   Version,
		"runtime":   runtime.Version(),
		"timestamp": time.Now().Format(time.RFC3339),
	})

	var marker map[string]string
	if s.GetDirect(ctx, "system_initialized", &marker) {
		return
	}
	s.SetDirect(ctx, "system_initialized", map[string]string{
		"version":    Version,
		"created_at": time.Now().Format(time.RFC3339),
	})
}

// Get reads key into out and reports whether a value was found. Reads are
// audited unless the target is the security log itself.
func (s *Store) Get(ctx context.Context, key string, out interface{}) bool {
	found := s.GetDirect(ctx, key, out)
	if found && key != securityLogKey && s.auditor != nil {
		s.auditor.Event("DATA_ACCESS", map[string]string{"key": key})
	}
	return found
}

// GetDirect reads key without emitting an audit event. Used for internal
// bookkeeping to prevent log recursion.
func (s *Store) GetDirect(ctx context.Context, key string, out interface{}) bool {
	raw, err := s.backend.Get(ctx, s.prefix+key)
	if err != nil || raw == nil {
		return false
	}

	var env envelope
	if json.Unmarshal(raw, &env) == nil && env.Sealed {
		plain, ok := s.sealer.Open(env.Data)
		if !ok {
			s.log.Warn("unseal failed, passing value through", zap.String("key", key))
			plain = raw
		}
		raw = plain
	}

	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Warn("store value decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set writes value under key and reports success. Writes are audited unless
// the target is the security log itself.
func (s *Store) Set(ctx context.Context, key string, value interface{}) bool {
	ok := s.SetDirect(ctx, key, value)
	if ok && key != securityLogKey && s.auditor != nil {
		s.auditor.Event("DATA_WRITE", map[string]string{"key": key})
	}
	return ok
}

// SetDirect writes key without emitting an audit event.
func (s *Store) SetDirect(ctx context.Context, key string, value interface{}) bool {
	plain, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("store value encode failed", zap.String("key", key), zap.Error(err))
		return false
	}

	payload := plain
	if s.isSensitive(key) {
		if sealed, ok := s.sealer.Seal(plain); ok {
			env, err := json.Marshal(envelope{Sealed: true, Data: sealed, Timestamp: time.Now()})
			if err == nil {
				payload = env
			}
		} else if s.sealer != nil {
			s.log.Warn("seal failed, storing value unsealed", zap.String("key", key))
		}
	}

	if err := s.backend.Set(ctx, s.prefix+key, payload, 0); err != nil {
		return false
	}
	return true
}

// Delete removes key and reports success.
func (s *Store) Delete(ctx context.Context, key string) bool {
	if err := s.backend.Delete(ctx, s.prefix+key); err != nil {
		return false
	}
	if s.auditor != nil {
		s.auditor.Event("DATA_DELETE", map[string]string{"key": key})
	}
	return true
}

func (s *Store) isSensitive(key string) bool {
	for _, p := range sensitivePatterns {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}
