package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "careattend/internal/errors"
)

const (
	handoverKey         = "handover_data"
	handoverCooldownKey = "last_handover_update"
	handoverCooldown    = 5 * time.Minute
)

// HandoverNotice is the single shared bulletin edited by staff.
type HandoverNotice struct {
	Content       string    `json:"content"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	UpdatedBy     string    `json:"updated_by"`
}

// noticeStore is the slice of the secure store the gate persists through.
type noticeStore interface {
	Get(ctx context.Context, key string, out interface{}) bool
	Set(ctx context.Context, key string, value interface{}) bool
}

// HandoverService guards the shared handover notice: content may never be
// cleared, and successful updates are separated by a cooldown.
type HandoverService interface {
	Get(ctx context.Context) *HandoverNotice
	Update(ctx context.Context, actorID, actorName, content string) (*HandoverNotice, error)
}

type handoverService struct {
	store  noticeStore
	events eventLogger
	now    func() time.Time
}

// NewHandoverService creates the handover notice gate.
func NewHandoverService(store noticeStore, events eventLogger) HandoverService {
	return &handoverService{store: store, events: events, now: time.Now}
}

func (s *handoverService) Get(ctx context.Context) *HandoverNotice {
	var notice HandoverNotice
	if !s.store.Get(ctx, handoverKey, &notice) {
		return &HandoverNotice{}
	}
	return &notice
}

func (s *handoverService) Update(ctx context.Context, actorID, actorName, content string) (*HandoverNotice, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, apperrors.Invalid("EMPTY_HANDOVER", "the handover notice cannot be cleared; existing content is kept")
	}

	// The cooldown timestamp lives under its own key and only moves on a
	// successful update, so rejected attempts never reset the timer.
	now := s.now()
	var lastMillis int64
	if s.store.Get(ctx, handoverCooldownKey, &lastMillis) {
		elapsed := now.Sub(time.UnixMilli(lastMillis))
		if elapsed < handoverCooldown {
			remaining := int(math.Ceil((handoverCooldown - elapsed).Minutes()))
			return nil, apperrors.Conflict("HANDOVER_COOLDOWN",
				fmt.Sprintf("the handover notice can be updated again in %d minutes", remaining))
		}
	}

	notice := &HandoverNotice{
		Content:       fmt.Sprintf("%s (updated by %s at %s)", trimmed, actorName, now.Format("2006-01-02 15:04")),
		LastUpdatedAt: now,
		UpdatedBy:     actorName,
	}
	if !s.store.Set(ctx, handoverKey, notice) {
		return nil, apperrors.New(500, "HANDOVER_PERSIST_FAILED", "failed to persist the handover notice")
	}
	s.store.Set(ctx, handoverCooldownKey, now.UnixMilli())

	s.events.Event("HANDOVER_UPDATED", map[string]string{
		"user_id":        actorID,
		"content_length": fmt.Sprintf("%d", len(notice.Content)),
	})
	return notice, nil
}
