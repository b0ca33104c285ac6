package repository

import (
	"context"

	"gorm.io/gorm"

	"careattend/internal/model"
)

// AttendanceRepository persists per-user-per-day clock records.
type AttendanceRepository interface {
	Save(ctx context.Context, rec *model.AttendanceRecord) error
	FindByUserAndDate(ctx context.Context, userID, date string) (*model.AttendanceRecord, error)
	ListByDate(ctx context.Context, date string) ([]model.AttendanceRecord, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository builds a GORM-backed repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Save(ctx context.Context, rec *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *attendanceRepository) FindByUserAndDate(ctx context.Context, userID, date string) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *attendanceRepository) ListByDate(ctx context.Context, date string) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	if err := r.db.WithContext(ctx).Where("date = ?", date).Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
