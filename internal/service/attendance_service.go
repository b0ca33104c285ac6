package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"careattend/internal/config"
	apperrors "careattend/internal/errors"
	"careattend/internal/model"
	"careattend/internal/repository"
)

// Notifier surfaces operator-facing warnings raised by background policy
// checks (break limits, forced terminations).
type Notifier interface {
	Notify(userID, level, message string)
}

// commentGate reports which clients still lack a staff comment on a
// submitted report; it feeds the staff clock-out confirmation.
type commentGate interface {
	UncommentedClients(ctx context.Context, date string) ([]string, error)
}

// eventLogger receives security events.
type eventLogger interface {
	Event(eventType string, details map[string]string)
}

// ClockOutOptions carries the explicit confirmations a clock-out may need.
type ClockOutOptions struct {
	// ForceEndOpenBreak closes an unterminated break at the current time
	// before clocking out.
	ForceEndOpenBreak bool
	// AcceptEarlyLeave confirms recording a day shorter than the minimum.
	AcceptEarlyLeave bool
	// AcknowledgeUncommented lets a commenting role clock out despite
	// clients with uncommented reports.
	AcknowledgeUncommented bool
}

// BreakResult reports the outcome of ending a break.
type BreakResult struct {
	Record          *model.AttendanceRecord
	DurationMinutes int
	Truncated       bool // duration exceeded the cap and was clamped
}

// AttendanceService drives the per-user-per-day clock state machine.
type AttendanceService interface {
	ClockIn(ctx context.Context, userID string) (*model.AttendanceRecord, error)
	ClockOut(ctx context.Context, userID string, role model.Role, opts ClockOutOptions) (*model.AttendanceRecord, error)
	StartBreak(ctx context.Context, userID string) (*model.AttendanceRecord, error)
	EndBreak(ctx context.Context, userID string) (*BreakResult, error)
	Today(ctx context.Context, userID string) (*model.AttendanceRecord, error)
	StartBreakWatcher(ctx context.Context)
}

type attendanceService struct {
	records  repository.AttendanceRepository
	gate     commentGate
	events   eventLogger
	notifier Notifier
	tc       config.TimeConfig
	log      *zap.Logger
	now      func() time.Time
}

// NewAttendanceService creates the attendance state machine. notifier may be
// nil when no warning channel exists.
func NewAttendanceService(records repository.AttendanceRepository, gate commentGate, events eventLogger, notifier Notifier, tc config.TimeConfig, log *zap.Logger) AttendanceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &attendanceService{
		records:  records,
		gate:     gate,
		events:   events,
		notifier: notifier,
		tc:       tc,
		log:      log,
		now:      time.Now,
	}
}

func (s *attendanceService) ClockIn(ctx context.Context, userID string) (*model.AttendanceRecord, error) {
	now := s.now()
	date := now.Format("2006-01-02")

	if existing, err := s.records.FindByUserAndDate(ctx, userID, date); err == nil && existing != nil {
		return nil, apperrors.Conflict("ALREADY_CLOCKED_IN", "already clocked in today")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load attendance: %w", err)
	}

	raw := now.Format("15:04")
	rec := &model.AttendanceRecord{
		UserID:          userID,
		Date:            date,
		ClockIn:         AdjustClockIn(raw, s.tc),
		OriginalClockIn: raw,
		Breaks:          model.BreakList{},
	}
	if err := s.records.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save attendance: %w", err)
	}

	s.events.Event("CLOCK_IN", map[string]string{
		"user_id":       userID,
		"time":          rec.ClockIn,
		"original_time": raw,
	})
	return rec, nil
}

func (s *attendanceService) ClockOut(ctx context.Context, userID string, role model.Role, opts ClockOutOptions) (*model.AttendanceRecord, error) {
	now := s.now()
	date := now.Format("2006-01-02")

	rec, err := s.records.FindByUserAndDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("NOT_CLOCKED_IN", "no attendance record for today")
		}
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	if rec.ClockedOut() {
		return nil, apperrors.Conflict("ALREADY_CLOCKED_OUT", "already clocked out today")
	}

	raw := now.Format("15:04")

	if idx := rec.OpenBreak(); idx >= 0 {
		if !opts.ForceEndOpenBreak {
			return nil, apperrors.Conflict("OPEN_BREAK", "an unterminated break exists; end it or confirm force-ending it")
		}
		s.closeBreak(rec, idx, raw)
	}

	// The uncommented-report gate applies to commenting roles only.
	if role.CanComment() && !opts.AcknowledgeUncommented {
		names, err := s.gate.UncommentedClients(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("check uncommented reports: %w", err)
		}
		if len(names) > 0 {
			return nil, apperrors.Conflict("UNCOMMENTED_REPORTS",
				fmt.Sprintf("reports without a staff comment: %s", strings.Join(names, ", ")))
		}
	}

	adjusted := AdjustClockOut(raw, s.tc)
	hours := workHours(rec.ClockIn, adjusted)
	earlyLeave := hours < s.tc.MinWorkHours
	if earlyLeave && !opts.AcceptEarlyLeave {
		return nil, apperrors.Conflict("EARLY_LEAVE_CONFIRMATION_REQUIRED",
			fmt.Sprintf("work duration %.2fh is below the minimum; confirm to record as early leave", hours))
	}

	rec.ClockOut = adjusted
	rec.OriginalClockOut = raw
	rec.IsEarlyLeave = earlyLeave
	rec.WorkDurationHours = &hours
	if err := s.records.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save attendance: %w", err)
	}

	s.events.Event("CLOCK_OUT", map[string]string{
		"user_id":       userID,
		"time":          adjusted,
		"original_time": raw,
		"work_duration": fmt.Sprintf("%.2f", hours),
	})
	return rec, nil
}

func (s *attendanceService) StartBreak(ctx context.Context, userID string) (*model.AttendanceRecord, error) {
	now := s.now()
	date := now.Format("2006-01-02")

	rec, err := s.records.FindByUserAndDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Conflict("NOT_CLOCKED_IN", "breaks are only allowed while clocked in")
		}
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	if rec.ClockedOut() {
		return nil, apperrors.Conflict("NOT_CLOCKED_IN", "breaks are only allowed while clocked in")
	}
	if rec.OpenBreak() >= 0 {
		return nil, apperrors.Conflict("BREAK_IN_PROGRESS", "a break is already in progress")
	}
	if rec.HasCompletedBreak() {
		return nil, apperrors.Conflict("BREAK_ALREADY_TAKEN", "only one break is allowed per day")
	}

	start := now.Format("15:04")
	rec.Breaks = append(rec.Breaks, model.BreakInterval{Start: start})
	if err := s.records.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save attendance: %w", err)
	}

	s.events.Event("BREAK_START", map[string]string{
		"user_id": userID,
		"time":    start,
	})
	return rec, nil
}

func (s *attendanceService) EndBreak(ctx context.Context, userID string) (*BreakResult, error) {
	now := s.now()
	date := now.Format("2006-01-02")

	rec, err := s.records.FindByUserAndDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Conflict("NOT_ON_BREAK", "no break is in progress")
		}
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	idx := rec.OpenBreak()
	if idx < 0 {
		return nil, apperrors.Conflict("NOT_ON_BREAK", "no break is in progress")
	}

	end := now.Format("15:04")
	truncated := s.closeBreak(rec, idx, end)
	if err := s.records.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save attendance: %w", err)
	}

	duration := *rec.Breaks[idx].DurationMinutes
	s.events.Event("BREAK_END", map[string]string{
		"user_id":  userID,
		"time":     end,
		"duration": fmt.Sprintf("%d", duration),
	})
	return &BreakResult{Record: rec, DurationMinutes: duration, Truncated: truncated}, nil
}

func (s *attendanceService) Today(ctx context.Context, userID string) (*model.AttendanceRecord, error) {
	date := s.now().Format("2006-01-02")
	rec, err := s.records.FindByUserAndDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("NOT_CLOCKED_IN", "no attendance record for today")
		}
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	return rec, nil
}

// StartBreakWatcher sweeps open breaks once per minute until ctx is
// cancelled: breaks past the warning threshold raise an escalating warning,
// breaks at the cap are force-closed so no interval ever exceeds it.
func (s *attendanceService) StartBreakWatcher(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepBreaks(ctx)
			}
		}
	}()
}

func (s *attendanceService) sweepBreaks(ctx context.Context) {
	now := s.now()
	date := now.Format("2006-01-02")
	clock := now.Format("15:04")

	recs, err := s.records.ListByDate(ctx, date)
	if err != nil {
		s.log.Warn("break sweep failed", zap.Error(err))
		return
	}

	for i := range recs {
		rec := &recs[i]
		idx := rec.OpenBreak()
		if idx < 0 {
			continue
		}
		elapsed := minutesBetween(rec.Breaks[idx].Start, clock)

		if elapsed >= s.tc.MaxBreakMins {
			// Close at exactly the cap so the recorded duration never
			// exceeds it regardless of how late the sweep ran.
			end := addMinutes(rec.Breaks[idx].Start, s.tc.MaxBreakMins)
			s.closeBreak(rec, idx, end)
			if err := s.records.Save(ctx, rec); err != nil {
				s.log.Warn("break auto-termination save failed", zap.String("user_id", rec.UserID), zap.Error(err))
				continue
			}
			s.events.Event("BREAK_AUTO_ENDED", map[string]string{
				"user_id":  rec.UserID,
				"duration": fmt.Sprintf("%d", s.tc.MaxBreakMins),
			})
			if s.notifier != nil {
				s.notifier.Notify(rec.UserID, "warning",
					fmt.Sprintf("break reached %d minutes and was ended automatically", s.tc.MaxBreakMins))
			}
		} else if elapsed >= s.tc.BreakWarnMins && s.notifier != nil {
			s.notifier.Notify(rec.UserID, "warning",
				fmt.Sprintf("break has run %d minutes; it ends automatically at %d", elapsed, s.tc.MaxBreakMins))
		}
	}
}

// closeBreak terminates the break at idx, clamping the duration to the cap.
// Reports whether the duration was truncated.
func (s *attendanceService) closeBreak(rec *model.AttendanceRecord, idx int, end string) bool {
	duration := minutesBetween(rec.Breaks[idx].Start, end)
	truncated := false
	if duration > s.tc.MaxBreakMins {
		duration = s.tc.MaxBreakMins
		truncated = true
	}
	rec.Breaks[idx].End = end
	rec.Breaks[idx].DurationMinutes = &duration
	return truncated
}
