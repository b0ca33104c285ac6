// Package lease provides a small in-memory table of expiring advisory leases.
// A lease is a key held by some party until it is released or its TTL lapses;
// expiry is checked lazily on access, never by a background sweep. The same
// table backs the staff comment locks and the security log throttle.
package lease

import (
	"sync"
	"time"
)

// Lease records who holds a key and since when.
type Lease struct {
	Holder     string
	HolderName string
	Since      time.Time
}

// Table maps keys to live leases. The zero value is not usable; use NewTable.
type Table struct {
	mu     sync.Mutex
	ttl    time.Duration
	cap    int // 0 means unbounded
	leases map[string]Lease
}

// NewTable creates an unbounded table with the given TTL.
func NewTable(ttl time.Duration) *Table {
	return &Table{ttl: ttl, leases: map[string]Lease{}}
}

// NewBoundedTable creates a table that evicts its oldest half once it grows
// past cap entries, bounding memory for high-churn keys.
func NewBoundedTable(ttl time.Duration, cap int) *Table {
	return &Table{ttl: ttl, cap: cap, leases: map[string]Lease{}}
}

// Acquire takes or refreshes the lease on key for holder. If another party
// holds an unexpired lease, Acquire reports false and returns that lease.
func (t *Table) Acquire(key, holder, holderName string, now time.Time) (Lease, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.leases[key]; ok {
		if now.Sub(cur.Since) <= t.ttl && cur.Holder != holder {
			return cur, false
		}
	}

	l := Lease{Holder: holder, HolderName: holderName, Since: now}
	t.leases[key] = l
	if t.cap > 0 && len(t.leases) > t.cap {
		t.evictOldest(t.cap / 2)
	}
	return l, true
}

// Holder returns the unexpired lease on key, if any. Expired leases are
// dropped on the way out.
func (t *Table) Holder(key string, now time.Time) (Lease, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.leases[key]
	if !ok {
		return Lease{}, false
	}
	if now.Sub(cur.Since) > t.ttl {
		delete(t.leases, key)
		return Lease{}, false
	}
	return cur, true
}

// Release drops the lease on key if holder owns it.
func (t *Table) Release(key, holder string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.leases[key]; ok && cur.Holder == holder {
		delete(t.leases, key)
	}
}

// Len reports the number of tracked leases, expired or not.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.leases)
}

// evictOldest removes the n leases with the earliest Since. Caller holds mu.
func (t *Table) evictOldest(n int) {
	for ; n > 0; n-- {
		oldestKey := ""
		var oldest time.Time
		for k, l := range t.leases {
			if oldestKey == "" || l.Since.Before(oldest) {
				oldestKey, oldest = k, l.Since
			}
		}
		if oldestKey == "" {
			return
		}
		delete(t.leases, oldestKey)
	}
}
