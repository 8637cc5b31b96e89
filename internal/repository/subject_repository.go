// internal/repository/subject_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"study_wala_backend/internal/middleware"
	"study_wala_backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubjectRepository はユーザーごとの科目カタログへのアクセスを提供する。
// パイプラインからは読み取りのみ。書き込みはカタログAPI経由。
type SubjectRepository interface {
	Create(ctx context.Context, tx *gorm.DB, subject *model.Subject) error
	FindByID(ctx context.Context, db *gorm.DB, userID, subjectID uuid.UUID) (*model.Subject, error)
	// FindByIDs は指定IDの科目を一括取得する (1クエリ)。ユーザー外の科目は返らない。
	FindByIDs(ctx context.Context, db *gorm.DB, userID uuid.UUID, subjectIDs []uuid.UUID) ([]*model.Subject, error)
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Subject, error)
}

type gormSubjectRepository struct{}

func NewGormSubjectRepository() SubjectRepository {
	return &gormSubjectRepository{}
}

func (r *gormSubjectRepository) Create(ctx context.Context, tx *gorm.DB, subject *model.Subject) error {
	result := tx.WithContext(ctx).Create(subject)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error creating subject in DB",
			"error", result.Error,
			"user_id", subject.UserID.String(),
			"name", subject.Name,
		)
		return fmt.Errorf("gormSubjectRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormSubjectRepository) FindByID(ctx context.Context, db *gorm.DB, userID, subjectID uuid.UUID) (*model.Subject, error) {
	var subject model.Subject
	result := db.WithContext(ctx).Where("user_id = ? AND subject_id = ?", userID, subjectID).First(&subject)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		middleware.GetLogger(ctx).Error("Error finding subject by ID in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"subject_id", subjectID.String(),
		)
		return nil, fmt.Errorf("gormSubjectRepository.FindByID: %w", result.Error)
	}
	return &subject, nil
}

func (r *gormSubjectRepository) FindByIDs(ctx context.Context, db *gorm.DB, userID uuid.UUID, subjectIDs []uuid.UUID) ([]*model.Subject, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	var subjects []*model.Subject
	result := db.WithContext(ctx).Where("user_id = ? AND subject_id IN ?", userID, subjectIDs).Find(&subjects)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error finding subjects by IDs in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormSubjectRepository.FindByIDs: %w", result.Error)
	}
	return subjects, nil
}

func (r *gormSubjectRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Subject, error) {
	var subjects []*model.Subject
	result := db.WithContext(ctx).Where("user_id = ?", userID).Order("priority DESC, created_at ASC").Find(&subjects)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error finding subjects by user in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormSubjectRepository.FindByUser: %w", result.Error)
	}
	return subjects, nil
}
