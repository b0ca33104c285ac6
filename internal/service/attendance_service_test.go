package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"careattend/internal/config"
	apperrors "careattend/internal/errors"
	"careattend/internal/model"
)

// fakeAttendanceRepo keeps records in memory, mimicking the unique
// (user, date) constraint of the real table.
type fakeAttendanceRepo struct {
	records map[string]model.AttendanceRecord
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: map[string]model.AttendanceRecord{}}
}

func (f *fakeAttendanceRepo) key(userID, date string) string { return userID + "|" + date }

func (f *fakeAttendanceRepo) Save(_ context.Context, rec *model.AttendanceRecord) error {
	cp := *rec
	cp.Breaks = append(model.BreakList{}, rec.Breaks...)
	f.records[f.key(rec.UserID, rec.Date)] = cp
	return nil
}

func (f *fakeAttendanceRepo) FindByUserAndDate(_ context.Context, userID, date string) (*model.AttendanceRecord, error) {
	rec, ok := f.records[f.key(userID, date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := rec
	cp.Breaks = append(model.BreakList{}, rec.Breaks...)
	return &cp, nil
}

func (f *fakeAttendanceRepo) ListByDate(_ context.Context, date string) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	for _, rec := range f.records {
		if rec.Date == date {
			cp := rec
			cp.Breaks = append(model.BreakList{}, rec.Breaks...)
			out = append(out, cp)
		}
	}
	return out, nil
}

type stubGate struct {
	names []string
}

func (g *stubGate) UncommentedClients(context.Context, string) ([]string, error) {
	return g.names, nil
}

type recordingEvents struct {
	types []string
}

func (e *recordingEvents) Event(eventType string, _ map[string]string) {
	e.types = append(e.types, eventType)
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(userID, level, message string) {
	n.messages = append(n.messages, fmt.Sprintf("%s/%s: %s", userID, level, message))
}

func newTestAttendance(repo *fakeAttendanceRepo, gate commentGate) (*attendanceService, *recordingEvents, *recordingNotifier) {
	events := &recordingEvents{}
	notifier := &recordingNotifier{}
	if gate == nil {
		gate = &stubGate{}
	}
	svc := NewAttendanceService(repo, gate, events, notifier, config.DefaultTime(), nil).(*attendanceService)
	return svc, events, notifier
}

func at(clock string) func() time.Time {
	return func() time.Time {
		var h, m int
		fmt.Sscanf(clock, "%d:%d", &h, &m)
		return time.Date(2025, 6, 2, h, m, 0, 0, time.Local)
	}
}

func TestClockInRoundsAndKeepsRaw(t *testing.T) {
	svc, events, _ := newTestAttendance(newFakeAttendanceRepo(), nil)
	svc.now = at("08:50")

	rec, err := svc.ClockIn(context.Background(), "user1")
	assert.NoError(t, err)
	assert.Equal(t, "09:00", rec.ClockIn)
	assert.Equal(t, "08:50", rec.OriginalClockIn)
	assert.Equal(t, []string{"CLOCK_IN"}, events.types)
}

func TestClockInTwiceRejected(t *testing.T) {
	svc, _, _ := newTestAttendance(newFakeAttendanceRepo(), nil)
	svc.now = at("09:10")

	_, err := svc.ClockIn(context.Background(), "user1")
	assert.NoError(t, err)

	_, err = svc.ClockIn(context.Background(), "user1")
	assert.Equal(t, "ALREADY_CLOCKED_IN", apperrors.CodeOf(err))
}

func TestClockOutFullDay(t *testing.T) {
	svc, _, _ := newTestAttendance(newFakeAttendanceRepo(), nil)
	ctx := context.Background()

	svc.now = at("08:50")
	_, err := svc.ClockIn(ctx, "user1")
	assert.NoError(t, err)

	svc.now = at("15:40")
	rec, err := svc.ClockOut(ctx, "user1", model.RoleUser, ClockOutOptions{})
	assert.NoError(t, err)
	assert.Equal(t, "15:45", rec.ClockOut)
	assert.Equal(t, "15:40", rec.OriginalClockOut)
	assert.False(t, rec.IsEarlyLeave)
	assert.NotNil(t, rec.WorkDurationHours)
	assert.InDelta(t, 6.75, *rec.WorkDurationHours, 1e-9)
}

func TestClockOutWithoutClockIn(t *testing.T) {
	svc, _, _ := newTestAttendance(newFakeAttendanceRepo(), nil)
	svc.now = at("15:40")

	_, err := svc.ClockOut(context.Background(), "user1", model.RoleUser, ClockOutOptions{})
	assert.Equal(t, "NOT_CLOCKED_IN", apperrors.CodeOf(err))
}

func TestClockOutTwiceRejected(t *testing.T) {
	svc, _, _ := newTestAttendance(newFakeAttendanceRepo(), nil)
	ctx := context.Background()

	svc.now = at("09:00")
	svc.ClockIn(ctx, "user1")
	svc.now = at("15:40")
	_, err := svc.ClockOut(ctx, "user1", model.RoleUser, ClockOutOptions{})
	assert.NoError(t, err)

	_, err = svc.ClockOut(ctx, "user1", model.RoleUser, ClockOutOptions{})
	assert.Equal(t, "ALREADY_CLOCKED_OUT", apperrors.CodeOf(err))
}

func TestEarlyLeaveNeedsConfirmation(t *testing.T) {
	svc, _, _ := newTestAttendance(newFakeAttendanceRepo(), nil)
	ctx := context.Background()

	svc.now = at("09:00")
	svc.ClockIn(ctx, "user1")

	svc.now = at("09:30")
	_, err := svc.ClockOut(ctx, "user1", model.RoleUser, ClockOutOptions{})
	assert.Equal(t, "EARLY_LEAVE_CONFIRMATION_REQUIRED", apperrors.CodeOf(err))

	rec, err := svc.ClockOut(ctx, "user1", model.RoleUser, ClockOutOptions{AcceptEarlyLeave: true})
	assert.NoError(t, err)
	assert.True(t, rec.IsEarlyLeave)
	assert.InDelta(t, 0.5, *rec.WorkDurationHours, 1e-9)
}

func TestClockOutBlockedByOpenBreak(t *testing.T) {
	svc, _, _ := newTestAttendance(newFakeAttendanceRepo(), nil)
	ctx := context.Background()

	svc.now = at("09:00")
	svc.ClockIn(ctx, "user1")
	svc.now = at("12:00")
	_, err := svc.StartBreak(ctx, "user1")
	assert.NoError(t, err)

	svc.now = at("15:40")
	_, err = svc.ClockOut(ctx, "user1", model.RoleUser, ClockOutOptions{})
	assert.Equal(t, "OPEN_BREAK", apperrors.CodeOf(err))

	rec, err := svc.ClockOut(ctx, "user1", model.RoleUser, ClockOutOptions{ForceEndOpenBreak: true})
	assert.NoError(t, err)
	assert.Equal(t, -1, rec.OpenBreak())
	// The break ran past the cap and was clamped.
	assert.Equal(t, 60, *rec.Breaks[0].DurationMinutes)
}

func TestStaffClockOutGatedOnUncommentedReports(t *testing.T) {
	gate := &stubGate{names: []string{"Commuting Client", "Home Client"}}
	svc, _, _ := newTestAttendance(newFakeAttendanceRepo(), gate)
	ctx := context.Background()

	svc.now = at("09:00")
	svc.ClockIn(ctx, "staff1")

	svc.now = at("15:40")
	_, err := svc.ClockOut(ctx, "staff1", model.RoleStaff, ClockOutOptions{})
	assert.Equal(t, "UNCOMMENTED_REPORTS", apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "Commuting Client, Home Client")

	_, err = svc.ClockOut(ctx, "staff1", model.RoleStaff, ClockOutOptions{AcknowledgeUncommented: true})
	assert.NoError(t, err)
}

func TestClientClockOutIgnoresCommentGate(t *testing.T) {
	gate := &stubGate{names: []string{"Someone"}}
	svc, _, _ := newTestAttendance(newFakeAttendanceRepo(), gate)
	ctx := context.Background()

	svc.now = at("09:00")
	svc.ClockIn(ctx, "user1")
	svc.now = at("15:40")
	_, err := svc.ClockOut(ctx, "user1", model.RoleUser, ClockOutOptions{})
	assert.NoError(t, err)
}

func TestOneBreakPerDay(t *testing.T) {
	svc, _, _ := newTestAttendance(newFakeAttendanceRepo(), nil)
	ctx := context.Background()

	svc.now = at("09:00")
	svc.ClockIn(ctx, "user1")

	svc.now = at("12:00")
	_, err := svc.StartBreak(ctx, "user1")
	assert.NoError(t, err)

	_, err = svc.StartBreak(ctx, "user1")
	assert.Equal(t, "BREAK_IN_PROGRESS", apperrors.CodeOf(err))

	svc.now = at("12:30")
	result, err := svc.EndBreak(ctx, "user1")
	assert.NoError(t, err)
	assert.Equal(t, 30, result.DurationMinutes)
	assert.False(t, result.Truncated)

	svc.now = at("13:00")
	_, err = svc.StartBreak(ctx, "user1")
	assert.Equal(t, "BREAK_ALREADY_TAKEN", apperrors.CodeOf(err))
}

func TestEndBreakWithoutBreak(t *testing.T) {
	svc, _, _ := newTestAttendance(newFakeAttendanceRepo(), nil)
	ctx := context.Background()

	svc.now = at("09:00")
	svc.ClockIn(ctx, "user1")

	svc.now = at("12:00")
	_, err := svc.EndBreak(ctx, "user1")
	assert.Equal(t, "NOT_ON_BREAK", apperrors.CodeOf(err))
}

func TestBreakRequiresOpenDay(t *testing.T) {
	svc, _, _ := newTestAttendance(newFakeAttendanceRepo(), nil)
	ctx := context.Background()

	svc.now = at("12:00")
	_, err := svc.StartBreak(ctx, "user1")
	assert.Equal(t, "NOT_CLOCKED_IN", apperrors.CodeOf(err))
}

func TestEndBreakTruncatesOverCap(t *testing.T) {
	svc, _, _ := newTestAttendance(newFakeAttendanceRepo(), nil)
	ctx := context.Background()

	svc.now = at("09:00")
	svc.ClockIn(ctx, "user1")
	svc.now = at("12:00")
	svc.StartBreak(ctx, "user1")

	svc.now = at("13:10")
	result, err := svc.EndBreak(ctx, "user1")
	assert.NoError(t, err)
	assert.Equal(t, 60, result.DurationMinutes)
	assert.True(t, result.Truncated)
}

func TestSweepForceClosesBreakAtCap(t *testing.T) {
	repo := newFakeAttendanceRepo()
	svc, events, notifier := newTestAttendance(repo, nil)
	ctx := context.Background()

	svc.now = at("09:00")
	svc.ClockIn(ctx, "user1")
	svc.now = at("12:00")
	svc.StartBreak(ctx, "user1")

	// The sweep runs late; the break still closes at exactly the cap.
	svc.now = at("13:05")
	svc.sweepBreaks(ctx)

	rec, err := repo.FindByUserAndDate(ctx, "user1", "2025-06-02")
	assert.NoError(t, err)
	assert.Equal(t, "13:00", rec.Breaks[0].End)
	assert.Equal(t, 60, *rec.Breaks[0].DurationMinutes)
	assert.Contains(t, events.types, "BREAK_AUTO_ENDED")
	assert.NotEmpty(t, notifier.messages)
}

func TestSweepWarnsNearCap(t *testing.T) {
	repo := newFakeAttendanceRepo()
	svc, events, notifier := newTestAttendance(repo, nil)
	ctx := context.Background()

	svc.now = at("09:00")
	svc.ClockIn(ctx, "user1")
	svc.now = at("12:00")
	svc.StartBreak(ctx, "user1")

	svc.now = at("12:56")
	svc.sweepBreaks(ctx)

	// Warned but not closed.
	rec, _ := repo.FindByUserAndDate(ctx, "user1", "2025-06-02")
	assert.True(t, rec.Breaks[0].Open())
	assert.NotContains(t, events.types, "BREAK_AUTO_ENDED")
	assert.NotEmpty(t, notifier.messages)
}
