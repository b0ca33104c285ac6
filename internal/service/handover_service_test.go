package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "careattend/internal/errors"
	"careattend/internal/store"
)

func newTestHandover() (*handoverService, *recordingEvents) {
	events := &recordingEvents{}
	kv := store.New(store.NewMemoryBackend(), "", nil, nil)
	svc := NewHandoverService(kv, events).(*handoverService)
	return svc, events
}

func TestHandoverEmptyByDefault(t *testing.T) {
	svc, _ := newTestHandover()

	notice := svc.Get(context.Background())
	assert.Empty(t, notice.Content)
	assert.Empty(t, notice.UpdatedBy)
}

func TestHandoverUpdateAppendsAttribution(t *testing.T) {
	svc, events := newTestHandover()
	base := time.Date(2025, 6, 2, 10, 30, 0, 0, time.Local)
	svc.now = func() time.Time { return base }

	notice, err := svc.Update(context.Background(), "staff1", "Support Staff", "  door code changes Friday  ")
	assert.NoError(t, err)
	assert.Equal(t, "door code changes Friday (updated by Support Staff at 2025-06-02 10:30)", notice.Content)
	assert.Equal(t, "Support Staff", notice.UpdatedBy)
	assert.Equal(t, []string{"HANDOVER_UPDATED"}, events.types)

	got := svc.Get(context.Background())
	assert.Equal(t, notice.Content, got.Content)
}

func TestHandoverRejectsBlankContent(t *testing.T) {
	svc, _ := newTestHandover()
	base := time.Now()
	svc.now = func() time.Time { return base }

	ctx := context.Background()
	_, err := svc.Update(ctx, "staff1", "Support Staff", "initial notice")
	assert.NoError(t, err)

	_, err = svc.Update(ctx, "staff1", "Support Staff", "   \n\t ")
	assert.Equal(t, "EMPTY_HANDOVER", apperrors.CodeOf(err))

	// The previous content survives the rejected clear.
	assert.Contains(t, svc.Get(ctx).Content, "initial notice")
}

func TestHandoverCooldown(t *testing.T) {
	svc, _ := newTestHandover()
	base := time.Now()
	svc.now = func() time.Time { return base }
	ctx := context.Background()

	_, err := svc.Update(ctx, "staff1", "Support Staff", "first")
	assert.NoError(t, err)

	svc.now = func() time.Time { return base.Add(4 * time.Minute) }
	_, err = svc.Update(ctx, "staff1", "Support Staff", "second")
	assert.Equal(t, "HANDOVER_COOLDOWN", apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "1 minute")

	svc.now = func() time.Time { return base.Add(5*time.Minute + time.Second) }
	notice, err := svc.Update(ctx, "staff1", "Support Staff", "second")
	assert.NoError(t, err)
	assert.Contains(t, notice.Content, "second")
}

func TestRejectedUpdateDoesNotResetCooldown(t *testing.T) {
	svc, _ := newTestHandover()
	base := time.Now()
	svc.now = func() time.Time { return base }
	ctx := context.Background()

	svc.Update(ctx, "staff1", "Support Staff", "first")

	// A rejected attempt inside the window must not push the window out.
	svc.now = func() time.Time { return base.Add(3 * time.Minute) }
	_, err := svc.Update(ctx, "staff1", "Support Staff", "too soon")
	assert.Equal(t, "HANDOVER_COOLDOWN", apperrors.CodeOf(err))

	svc.now = func() time.Time { return base.Add(5*time.Minute + time.Second) }
	_, err = svc.Update(ctx, "staff1", "Support Staff", "after window")
	assert.NoError(t, err)
}
