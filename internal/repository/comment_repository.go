package repository

import (
	"context"

	"gorm.io/gorm"

	"careattend/internal/model"
)

// CommentRepository persists staff comments on daily reports.
type CommentRepository interface {
	Save(ctx context.Context, comment *model.StaffComment) error
	FindByUserAndDate(ctx context.Context, userID, date string) (*model.StaffComment, error)
	ListByDate(ctx context.Context, date string) ([]model.StaffComment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository builds a GORM-backed repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Save(ctx context.Context, comment *model.StaffComment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *commentRepository) FindByUserAndDate(ctx context.Context, userID, date string) (*model.StaffComment, error) {
	var comment model.StaffComment
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByDate(ctx context.Context, date string) ([]model.StaffComment, error) {
	var comments []model.StaffComment
	if err := r.db.WithContext(ctx).Where("date = ?", date).Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
