// internal/repository/plan_repository.go
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

// PlanRepository は学習プラン文書へのアクセスを提供する。
// 全クエリが (plan_id, user_id) で所有者スコープされる。
// 存在しないプランと他ユーザーのプランはどちらも ErrNotFound になる (存在の非開示)。
type PlanRepository interface {
	Create(ctx context.Context, tx *gorm.DB, plan *model.StudyPlan) error
	FindByID(ctx context.Context, db *gorm.DB, userID, planID uuid.UUID) (*model.StudyPlan, error)
	// FindByUser は作成日時の降順で返す。同時刻はIDで安定ソート。
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.StudyPlan, error)
	Update(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) error
}

type gormPlanRepository struct{}

func NewGormPlanRepository() PlanRepository {
	return &gormPlanRepository{}
}

func (r *gormPlanRepository) Create(ctx context.Context, tx *gorm.DB, plan *model.StudyPlan) error {
	result := tx.WithContext(ctx).Create(plan)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error creating study plan in DB",
			"error", result.Error,
			"user_id", plan.UserID.String(),
		)
		return fmt.Errorf("gormPlanRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormPlanRepository) FindByID(ctx context.Context, db *gorm.DB, userID, planID uuid.UUID) (*model.StudyPlan, error) {
	var plan model.StudyPlan
	result := db.WithContext(ctx).Where("user_id = ? AND plan_id = ?", userID, planID).First(&plan)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		middleware.GetLogger(ctx).Error("Error finding study plan by ID in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"plan_id", planID.String(),
		)
		return nil, fmt.Errorf("gormPlanRepository.FindByID: %w", result.Error)
	}
	return &plan, nil
}

func (r *gormPlanRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.StudyPlan, error) {
	var plans []*model.StudyPlan
	result := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, plan_id ASC").
		Find(&plans)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error finding study plans by user in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormPlanRepository.FindByUser: %w", result.Error)
	}
	return plans, nil
}

func (r *gormPlanRepository) Update(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.StudyPlan{}).
		Where("user_id = ? AND plan_id = ?", userID, planID).
		Updates(updates)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error updating study plan in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"plan_id", planID.String(),
		)
		return fmt.Errorf("gormPlanRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormPlanRepository) Delete(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) error {
	// プランの削除は物理削除。カタログ (Subject/Topic) はプランの所有物ではないため連鎖削除しない。
	result := tx.WithContext(ctx).Unscoped().
		Where("user_id = ? AND plan_id = ?", userID, planID).
		Delete(&model.StudyPlan{})
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error deleting study plan in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"plan_id", planID.String(),
		)
		return fmt.Errorf("gormPlanRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
