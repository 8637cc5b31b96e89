// internal/repository/topic_repository.go
package repository

import (
	"context"
	"fmt"

	"study_wala_backend/internal/middleware"
	"study_wala_backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TopicRepository interface {
	Create(ctx context.Context, tx *gorm.DB, topic *model.Topic) error
	// FindBySubjectIDs は指定科目群に属するトピックを一括取得する (1クエリ)
	FindBySubjectIDs(ctx context.Context, db *gorm.DB, userID uuid.UUID, subjectIDs []uuid.UUID) ([]*model.Topic, error)
	FindByIDs(ctx context.Context, db *gorm.DB, userID uuid.UUID, topicIDs []uuid.UUID) ([]*model.Topic, error)
	FindBySubject(ctx context.Context, db *gorm.DB, userID, subjectID uuid.UUID) ([]*model.Topic, error)
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Topic, error)
}

type gormTopicRepository struct{}

func NewGormTopicRepository() TopicRepository {
	return &gormTopicRepository{}
}

func (r *gormTopicRepository) Create(ctx context.Context, tx *gorm.DB, topic *model.Topic) error {
	result := tx.WithContext(ctx).Create(topic)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error creating topic in DB",
			"error", result.Error,
			"user_id", topic.UserID.String(),
			"subject_id", topic.SubjectID.String(),
			"name", topic.Name,
		)
		return fmt.Errorf("gormTopicRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormTopicRepository) FindBySubjectIDs(ctx context.Context, db *gorm.DB, userID uuid.UUID, subjectIDs []uuid.UUID) ([]*model.Topic, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	var topics []*model.Topic
	result := db.WithContext(ctx).Where("user_id = ? AND subject_id IN ?", userID, subjectIDs).Find(&topics)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error finding topics by subject IDs in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormTopicRepository.FindBySubjectIDs: %w", result.Error)
	}
	return topics, nil
}

func (r *gormTopicRepository) FindByIDs(ctx context.Context, db *gorm.DB, userID uuid.UUID, topicIDs []uuid.UUID) ([]*model.Topic, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}
	var topics []*model.Topic
	result := db.WithContext(ctx).Where("user_id = ? AND topic_id IN ?", userID, topicIDs).Find(&topics)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error finding topics by IDs in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormTopicRepository.FindByIDs: %w", result.Error)
	}
	return topics, nil
}

func (r *gormTopicRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Topic, error) {
	var topics []*model.Topic
	result := db.WithContext(ctx).Where("user_id = ?", userID).Order("priority DESC, created_at ASC").Find(&topics)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error finding topics by user in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormTopicRepository.FindByUser: %w", result.Error)
	}
	return topics, nil
}

func (r *gormTopicRepository) FindBySubject(ctx context.Context, db *gorm.DB, userID, subjectID uuid.UUID) ([]*model.Topic, error) {
	var topics []*model.Topic
	result := db.WithContext(ctx).Where("user_id = ? AND subject_id = ?", userID, subjectID).Order("priority DESC, created_at ASC").Find(&topics)
	if result.Error != nil {
		middleware.GetLogger(ctx).Error("Error finding topics by subject in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"subject_id", subjectID.String(),
		)
		return nil, fmt.Errorf("gormTopicRepository.FindBySubject: %w", result.Error)
	}
	return topics, nil
}
