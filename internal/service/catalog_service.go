// internal/service/catalog_service.go
package service

import (
	"context"

	"study_wala_backend/internal/model"
	"study_wala_backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogService は科目・トピックのカタログ管理を提供します
type CatalogService interface {
	CreateSubject(ctx context.Context, userID uuid.UUID, req *model.CreateSubjectRequest) (*model.Subject, error)
	ListSubjects(ctx context.Context, userID uuid.UUID) ([]*model.Subject, error)
	CreateTopic(ctx context.Context, userID uuid.UUID, req *model.CreateTopicRequest) (*model.Topic, error)
	ListTopics(ctx context.Context, userID uuid.UUID, subjectID uuid.UUID) ([]*model.Topic, error)
}

type catalogService struct {
	db          *gorm.DB
	subjectRepo repository.SubjectRepository
	topicRepo   repository.TopicRepository
}

func NewCatalogService(db *gorm.DB, subjectRepo repository.SubjectRepository, topicRepo repository.TopicRepository) CatalogService {
	return &catalogService{db: db, subjectRepo: subjectRepo, topicRepo: topicRepo}
}

func (s *catalogService) CreateSubject(ctx context.Context, userID uuid.UUID, req *model.CreateSubjectRequest) (*model.Subject, error) {
	subject := &model.Subject{
		SubjectID: uuid.New(),
		UserID:    userID,
		Name:      req.Name,
		Color:     req.Color,
		Priority:  req.Priority,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.subjectRepo.Create(ctx, tx, subject)
	})
	if err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *catalogService) ListSubjects(ctx context.Context, userID uuid.UUID) ([]*model.Subject, error) {
	return s.subjectRepo.FindByUser(ctx, s.db, userID)
}

func (s *catalogService) CreateTopic(ctx context.Context, userID uuid.UUID, req *model.CreateTopicRequest) (*model.Topic, error) {
	// 参照先科目の所有確認。他ユーザーの科目は NotFound として扱う。
	if _, err := s.subjectRepo.FindByID(ctx, s.db, userID, req.SubjectID); err != nil {
		return nil, err
	}

	topic := &model.Topic{
		TopicID:        uuid.New(),
		UserID:         userID,
		SubjectID:      req.SubjectID,
		Name:           req.Name,
		EstimatedHours: req.EstimatedHours,
		Priority:       req.Priority,
		Completed:      false,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.topicRepo.Create(ctx, tx, topic)
	})
	if err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *catalogService) ListTopics(ctx context.Context, userID uuid.UUID, subjectID uuid.UUID) ([]*model.Topic, error) {
	if subjectID == uuid.Nil {
		return s.topicRepo.FindByUser(ctx, s.db, userID)
	}
	return s.topicRepo.FindBySubject(ctx, s.db, userID, subjectID)
}
