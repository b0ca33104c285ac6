package repository

import (
	"context"

	"gorm.io/gorm"

	"careattend/internal/model"
)

// ReportRepository persists daily self reports.
type ReportRepository interface {
	Save(ctx context.Context, report *model.DailyReport) error
	FindByUserAndDate(ctx context.Context, userID, date string) (*model.DailyReport, error)
	ListByDate(ctx context.Context, date string) ([]model.DailyReport, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository builds a GORM-backed repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Save(ctx context.Context, report *model.DailyReport) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *reportRepository) FindByUserAndDate(ctx context.Context, userID, date string) (*model.DailyReport, error) {
	var report model.DailyReport
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) ListByDate(ctx context.Context, date string) ([]model.DailyReport, error) {
	var reports []model.DailyReport
	if err := r.db.WithContext(ctx).Where("date = ?", date).Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}
