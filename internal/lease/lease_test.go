package lease

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAcquireBlocksOtherHolder(t *testing.T) {
	table := NewTable(5 * time.Minute)
	now := time.Now()

	_, ok := table.Acquire("client1", "staff1", "Alice", now)
	assert.True(t, ok)

	cur, ok := table.Acquire("client1", "staff2", "Bob", now.Add(time.Minute))
	assert.False(t, ok)
	assert.Equal(t, "staff1", cur.Holder)
	assert.Equal(t, "Alice", cur.HolderName)
}

func TestAcquireRefreshesOwnLease(t *testing.T) {
	table := NewTable(5 * time.Minute)
	now := time.Now()

	_, ok := table.Acquire("client1", "staff1", "Alice", now)
	assert.True(t, ok)

	later := now.Add(4 * time.Minute)
	l, ok := table.Acquire("client1", "staff1", "Alice", later)
	assert.True(t, ok)
	assert.Equal(t, later, l.Since)

	// The refreshed lease still blocks others past the original TTL.
	_, ok = table.Acquire("client1", "staff2", "Bob", now.Add(6*time.Minute))
	assert.False(t, ok)
}

func TestAcquireAfterExpiry(t *testing.T) {
	table := NewTable(5 * time.Minute)
	now := time.Now()

	table.Acquire("client1", "staff1", "Alice", now)

	_, ok := table.Acquire("client1", "staff2", "Bob", now.Add(5*time.Minute+time.Second))
	assert.True(t, ok)
}

func TestHolderDropsExpiredLease(t *testing.T) {
	table := NewTable(time.Second)
	now := time.Now()

	table.Acquire("k", "h", "", now)

	_, held := table.Holder("k", now.Add(500*time.Millisecond))
	assert.True(t, held)

	_, held = table.Holder("k", now.Add(2*time.Second))
	assert.False(t, held)
	assert.Equal(t, 0, table.Len())
}

func TestReleaseIgnoresNonOwner(t *testing.T) {
	table := NewTable(5 * time.Minute)
	now := time.Now()

	table.Acquire("client1", "staff1", "Alice", now)
	table.Release("client1", "staff2")

	_, held := table.Holder("client1", now)
	assert.True(t, held)

	table.Release("client1", "staff1")
	_, held = table.Holder("client1", now)
	assert.False(t, held)
}

func TestBoundedTableEvictsOldestHalf(t *testing.T) {
	table := NewBoundedTable(time.Hour, 4)
	now := time.Now()

	for i := 0; i < 5; i++ {
		key := string(rune('a' + i))
		table.Acquire(key, "h", "", now.Add(time.Duration(i)*time.Second))
	}

	// Exceeding the cap drops the oldest half.
	assert.Equal(t, 3, table.Len())
	_, held := table.Holder("a", now.Add(time.Minute))
	assert.False(t, held)
	_, held = table.Holder("e", now.Add(time.Minute))
	assert.True(t, held)
}
