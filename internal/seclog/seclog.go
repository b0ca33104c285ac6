// Package seclog keeps an append-only, bounded audit trail of security
// events. Logging never raises: internal faults are reported through the
// diagnostic logger only.
package seclog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"careattend/internal/lease"
)

const (
	logKey = "security_log"

	// maxEntries caps the persisted log; oldest entries drop first.
	maxEntries = 1000
	// retention is the age cutoff applied by Cleanup.
	retention = 7 * 24 * time.Hour

	// throttleWindow suppresses identical (event, key) pairs.
	throttleWindow = time.Second
	// throttleCap bounds the throttle table; the oldest half is evicted
	// past this size.
	throttleCap = 100
)

// Entry is one recorded security event.
type Entry struct {
	Timestamp time.Time         `json:"timestamp"`
	Event     string            `json:"event"`
	Details   map[string]string `json:"details,omitempty"`
}

// directStore is the unaudited slice of the KV store the logger persists
// through. Direct access avoids the store auditing its own log writes.
type directStore interface {
	GetDirect(ctx context.Context, key string, out interface{}) bool
	SetDirect(ctx context.Context, key string, value interface{}) bool
}

// Logger records security events.
type Logger struct {
	store    directStore
	throttle *lease.Table
	log      *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

// New creates a Logger and ensures the persisted list exists.
func New(store directStore, log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Logger{
		store:    store,
		throttle: lease.NewBoundedTable(throttleWindow, throttleCap),
		log:      log,
		now:      time.Now,
	}
	var existing []Entry
	if !store.GetDirect(context.Background(), logKey, &existing) {
		store.SetDirect(context.Background(), logKey, []Entry{})
	}
	return l
}

// Event records a security event. Identical (event, details key) pairs are
// throttled to one per second. Implements the store's Auditor.
func (l *Logger) Event(event string, details map[string]string) {
	now := l.now()
	throttleKey := event + "_" + details["key"]
	if _, held := l.throttle.Holder(throttleKey, now); held {
		return
	}
	l.throttle.Acquire(throttleKey, "seclog", "", now)

	l.mu.Lock()
	defer l.mu.Unlock()

	ctx := context.Background()
	var entries []Entry
	l.store.GetDirect(ctx, logKey, &entries)
	entries = append(entries, Entry{Timestamp: now, Event: event, Details: details})
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
	if !l.store.SetDirect(ctx, logKey, entries) {
		l.log.Warn("security log write failed", zap.String("event", event))
	}
}

// Cleanup drops entries older than the retention cutoff.
func (l *Logger) Cleanup(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-retention)
	var entries []Entry
	if !l.store.GetDirect(ctx, logKey, &entries) {
		return
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	if !l.store.SetDirect(ctx, logKey, kept) {
		l.log.Warn("security log cleanup write failed")
	}
}

// Recent returns the newest n entries, newest first.
func (l *Logger) Recent(ctx context.Context, n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var entries []Entry
	l.store.GetDirect(ctx, logKey, &entries)
	if n <= 0 || n > len(entries) {
		n = len(entries)
	}
	out := make([]Entry, 0, n)
	for i := len(entries) - 1; i >= len(entries)-n; i-- {
		out = append(out, entries[i])
	}
	return out
}
