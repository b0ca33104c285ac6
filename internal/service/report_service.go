package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"careattend/internal/config"
	apperrors "careattend/internal/errors"
	"careattend/internal/lease"
	"careattend/internal/model"
	"careattend/internal/repository"
)

// commentLockTTL is how long a comment lock may sit unreleased before it
// expires on its own.
const commentLockTTL = 5 * time.Minute

// ReportInput carries a daily report submission. Temperature arrives as the
// form string and is range-checked on parse.
type ReportInput struct {
	WorkContent      string `json:"work_content" validate:"required"`
	Reflection       string `json:"reflection" validate:"required"`
	Temperature      string `json:"temperature" validate:"required"`
	Appetite         string `json:"appetite" validate:"required"`
	SleepQuality     string `json:"sleep_quality" validate:"required"`
	Bedtime          string `json:"bedtime"`
	WakeupTime       string `json:"wakeup_time"`
	MedicationTime   string `json:"medication_time"`
	InterviewRequest string `json:"interview_request"`
}

// markerStore persists the one-shot login_today markers.
type markerStore interface {
	Get(ctx context.Context, key string, out interface{}) bool
	Set(ctx context.Context, key string, value interface{}) bool
}

// ReportService owns daily report submission and the staff comment workflow.
type ReportService interface {
	Submit(ctx context.Context, userID string, input ReportInput) (*model.DailyReport, error)
	Get(ctx context.Context, userID, date string) (*model.DailyReport, error)
	SaveComment(ctx context.Context, staffID, staffName, userID, date, comment string) (*model.StaffComment, error)
	GetComment(ctx context.Context, userID, date string) (*model.StaffComment, error)
	AcquireCommentLock(staffID, staffName, userID string) error
	ReleaseCommentLock(staffID, userID string)
	UncommentedClients(ctx context.Context, date string) ([]string, error)
	HasSeenCommentToday(ctx context.Context, userID string) bool
	MarkCommentSeen(ctx context.Context, userID string)
}

type reportService struct {
	reports  repository.ReportRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	markers  markerStore
	locks    *lease.Table
	events   eventLogger
	rc       config.ReportConfig
	now      func() time.Time
}

// NewReportService creates the report/comment workflow.
func NewReportService(reports repository.ReportRepository, comments repository.CommentRepository, users repository.UserRepository, markers markerStore, events eventLogger, rc config.ReportConfig) ReportService {
	return &reportService{
		reports:  reports,
		comments: comments,
		users:    users,
		markers:  markers,
		locks:    lease.NewTable(commentLockTTL),
		events:   events,
		rc:       rc,
		now:      time.Now,
	}
}

func (s *reportService) Submit(ctx context.Context, userID string, input ReportInput) (*model.DailyReport, error) {
	temp, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	date := now.Format("2006-01-02")

	report := &model.DailyReport{
		UserID:           userID,
		Date:             date,
		WorkContent:      strings.TrimSpace(input.WorkContent),
		Reflection:       strings.TrimSpace(input.Reflection),
		Temperature:      temp,
		Appetite:         input.Appetite,
		SleepQuality:     input.SleepQuality,
		Bedtime:          input.Bedtime,
		WakeupTime:       input.WakeupTime,
		MedicationTime:   input.MedicationTime,
		InterviewRequest: input.InterviewRequest,
	}

	isUpdate := false
	if existing, err := s.reports.FindByUserAndDate(ctx, userID, date); err == nil {
		// Resubmission overwrites the content but keeps the original
		// submission time.
		report.ID = existing.ID
		report.CreatedAt = existing.CreatedAt
		isUpdate = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load report: %w", err)
	}

	if err := s.reports.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.events.Event("DAILY_REPORT_SUBMIT", map[string]string{
		"user_id":   userID,
		"date":      date,
		"is_update": strconv.FormatBool(isUpdate),
	})
	return report, nil
}

func (s *reportService) Get(ctx context.Context, userID, date string) (*model.DailyReport, error) {
	report, err := s.reports.FindByUserAndDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("REPORT_NOT_FOUND", "no report for that date")
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	return report, nil
}

func (s *reportService) SaveComment(ctx context.Context, staffID, staffName, userID, date, comment string) (*model.StaffComment, error) {
	trimmed := strings.TrimSpace(comment)
	if trimmed == "" {
		return nil, apperrors.Invalid("EMPTY_COMMENT", "comment is required")
	}

	if _, err := s.reports.FindByUserAndDate(ctx, userID, date); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("REPORT_NOT_FOUND", "the client has not submitted a report for that date")
		}
		return nil, fmt.Errorf("load report: %w", err)
	}

	if holder, ok := s.locks.Holder(userID, s.now()); ok && holder.Holder != staffID {
		return nil, apperrors.Conflict("COMMENT_LOCKED",
			fmt.Sprintf("%s is editing this comment right now", holder.HolderName))
	}

	// The author's signature is appended once; resaving the same comment
	// does not stack signatures.
	signature := fmt.Sprintf("(recorded by: %s)", staffName)
	if !strings.Contains(trimmed, signature) {
		trimmed = trimmed + "\n\n" + signature
	}

	record := &model.StaffComment{
		UserID:    userID,
		Date:      date,
		Comment:   trimmed,
		StaffID:   staffID,
		StaffName: staffName,
	}

	isUpdate := false
	if existing, err := s.comments.FindByUserAndDate(ctx, userID, date); err == nil {
		if existing.StaffID != staffID {
			return nil, apperrors.Forbidden("NOT_COMMENT_OWNER",
				fmt.Sprintf("only %s may edit this comment", existing.StaffName))
		}
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		isUpdate = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load comment: %w", err)
	}

	if err := s.comments.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save comment: %w", err)
	}
	s.locks.Release(userID, staffID)

	s.events.Event("STAFF_COMMENT_SAVED", map[string]string{
		"user_id":   userID,
		"staff_id":  staffID,
		"is_update": strconv.FormatBool(isUpdate),
	})
	return record, nil
}

func (s *reportService) GetComment(ctx context.Context, userID, date string) (*model.StaffComment, error) {
	comment, err := s.comments.FindByUserAndDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("COMMENT_NOT_FOUND", "no staff comment for that date")
		}
		return nil, fmt.Errorf("load comment: %w", err)
	}
	return comment, nil
}

// AcquireCommentLock takes the advisory editing lock on a client's comment.
// Held locks auto-expire; re-acquiring one's own lock refreshes it.
func (s *reportService) AcquireCommentLock(staffID, staffName, userID string) error {
	if holder, ok := s.locks.Acquire(userID, staffID, staffName, s.now()); !ok {
		return apperrors.Conflict("COMMENT_LOCKED",
			fmt.Sprintf("%s is editing this comment right now", holder.HolderName))
	}
	return nil
}

// ReleaseCommentLock drops the lock if the caller holds it.
func (s *reportService) ReleaseCommentLock(staffID, userID string) {
	s.locks.Release(userID, staffID)
}

// UncommentedClients lists active clients who submitted a report on date but
// have no staff comment yet.
func (s *reportService) UncommentedClients(ctx context.Context, date string) ([]string, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	reports, err := s.reports.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	comments, err := s.comments.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	reported := make(map[string]bool, len(reports))
	for _, r := range reports {
		reported[r.UserID] = true
	}
	commented := make(map[string]bool, len(comments))
	for _, c := range comments {
		if c.Comment != "" {
			commented[c.UserID] = true
		}
	}

	var names []string
	for _, u := range users {
		if u.Role != model.RoleUser {
			continue
		}
		if reported[u.ID] && !commented[u.ID] {
			names = append(names, u.Name)
		}
	}
	return names, nil
}

// HasSeenCommentToday reports whether the one-shot marker for surfacing the
// latest staff comment has been consumed today.
func (s *reportService) HasSeenCommentToday(ctx context.Context, userID string) bool {
	var marker map[string]string
	return s.markers.Get(ctx, s.markerKey(userID), &marker)
}

// MarkCommentSeen consumes the one-shot marker for today.
func (s *reportService) MarkCommentSeen(ctx context.Context, userID string) {
	s.markers.Set(ctx, s.markerKey(userID), map[string]string{
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *reportService) markerKey(userID string) string {
	return fmt.Sprintf("login_today_%s_%s", userID, s.now().Format("2006-01-02"))
}

// validate enforces the mandatory report fields and value ranges.
func (s *reportService) validate(input ReportInput) (float64, error) {
	required := []struct {
		name, value string
	}{
		{"work_content", input.WorkContent},
		{"reflection", input.Reflection},
		{"temperature", input.Temperature},
		{"appetite", input.Appetite},
		{"sleep_quality", input.SleepQuality},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return 0, apperrors.Invalid("MISSING_REQUIRED_FIELD", fmt.Sprintf("%s is required", f.name))
		}
	}

	if len(input.WorkContent) > s.rc.MaxTextLength || len(input.Reflection) > s.rc.MaxTextLength {
		return 0, apperrors.Invalid("TEXT_TOO_LONG",
			fmt.Sprintf("free text must be at most %d characters", s.rc.MaxTextLength))
	}

	temp, err := strconv.ParseFloat(input.Temperature, 64)
	if err != nil || temp < s.rc.MinTempC || temp > s.rc.MaxTempC {
		return 0, apperrors.Invalid("INVALID_TEMPERATURE",
			fmt.Sprintf("temperature must be between %.1f and %.1f", s.rc.MinTempC, s.rc.MaxTempC))
	}

	switch input.Appetite {
	case model.AppetiteGood, model.AppetiteNone:
	default:
		return 0, apperrors.Invalid("INVALID_APPETITE", "appetite must be good or none")
	}

	switch input.SleepQuality {
	case model.SleepGood, model.SleepPoor, model.SleepBad:
	default:
		return 0, apperrors.Invalid("INVALID_SLEEP_QUALITY", "sleep quality must be good, poor or bad")
	}

	return temp, nil
}
