package model

import "time"

// Appetite values accepted on a daily report.
const (
	AppetiteGood = "good"
	AppetiteNone = "none"
)

// Sleep quality values accepted on a daily report.
const (
	SleepGood = "good"
	SleepPoor = "poor"
	SleepBad  = "bad"
)

// DailyReport is a client's end-of-day self report. One exists per user per
// day; resubmission overwrites the content but keeps CreatedAt.
type DailyReport struct {
	ID               uint      `json:"-" gorm:"primaryKey"`
	UserID           string    `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_report_user_date"`
	Date             string    `json:"date" gorm:"size:10;not null;uniqueIndex:idx_report_user_date"`
	WorkContent      string    `json:"work_content" gorm:"type:text;not null"`
	Reflection       string    `json:"reflection" gorm:"type:text;not null"`
	Temperature      float64   `json:"temperature" gorm:"not null"`
	Appetite         string    `json:"appetite" gorm:"size:8;not null"`
	SleepQuality     string    `json:"sleep_quality" gorm:"size:8;not null"`
	Bedtime          string    `json:"bedtime" gorm:"size:5"`
	WakeupTime       string    `json:"wakeup_time" gorm:"size:5"`
	MedicationTime   string    `json:"medication_time,omitempty" gorm:"size:5"`
	InterviewRequest string    `json:"interview_request,omitempty" gorm:"size:32"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
