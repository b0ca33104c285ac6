package model

import "time"

// StaffComment is a staff response to a client's daily report. At most one
// exists per (user, date); only the authoring staff member may edit it.
type StaffComment struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_comment_user_date"`
	Date      string    `json:"date" gorm:"size:10;not null;uniqueIndex:idx_comment_user_date"`
	Comment   string    `json:"comment" gorm:"type:text;not null"`
	StaffID   string    `json:"staff_id" gorm:"size:64;not null"`
	StaffName string    `json:"staff_name" gorm:"size:255;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
