package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// BreakInterval is one break window within a work day. Times are "HH:MM"
// clock strings; DurationMinutes is set when the interval closes and never
// exceeds the configured cap.
type BreakInterval struct {
	Start           string `json:"start"`
	End             string `json:"end,omitempty"`
	DurationMinutes *int   `json:"duration_minutes,omitempty"`
}

// Open reports whether the interval has not been terminated yet.
func (b BreakInterval) Open() bool { return b.End == "" }

// BreakList is stored as a JSON column on the attendance record.
type BreakList []BreakInterval

// Value implements driver.Valuer.
func (l BreakList) Value() (driver.Value, error) {
	if l == nil {
		l = BreakList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *BreakList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = BreakList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported break list source %T", src)
}

// AttendanceRecord is the per-user-per-day clock record. Raw clock events are
// kept alongside the rounded times the duration is computed from.
type AttendanceRecord struct {
	ID                uint      `json:"-" gorm:"primaryKey"`
	UserID            string    `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_attendance_user_date"`
	Date              string    `json:"date" gorm:"size:10;not null;uniqueIndex:idx_attendance_user_date"`
	ClockIn           string    `json:"clock_in" gorm:"size:5;not null"`
	OriginalClockIn   string    `json:"original_clock_in" gorm:"size:5;not null"`
	ClockOut          string    `json:"clock_out,omitempty" gorm:"size:5"`
	OriginalClockOut  string    `json:"original_clock_out,omitempty" gorm:"size:5"`
	IsEarlyLeave      bool      `json:"is_early_leave"`
	WorkDurationHours *float64  `json:"work_duration_hours,omitempty"`
	Breaks            BreakList `json:"breaks" gorm:"type:json"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ClockedOut reports whether the day has been closed.
func (a *AttendanceRecord) ClockedOut() bool { return a.ClockOut != "" }

// OpenBreak returns the index of the unterminated break, or -1. The state
// machine permits at most one.
func (a *AttendanceRecord) OpenBreak() int {
	for i, b := range a.Breaks {
		if b.Open() {
			return i
		}
	}
	return -1
}

// HasCompletedBreak reports whether any break has already been closed today.
func (a *AttendanceRecord) HasCompletedBreak() bool {
	for _, b := range a.Breaks {
		if !b.Open() {
			return true
		}
	}
	return false
}
