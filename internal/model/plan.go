// internal/model/plan.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanStatus は学習プランの状態
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "ACTIVE"
	PlanStatusCompleted PlanStatus = "COMPLETED"
	PlanStatusArchived  PlanStatus = "ARCHIVED"
)

// StudyPlan は永続化される学習プラン文書。
// Subject / Topic はIDのみ保持し、読み取り時にカタログから解決する。
type StudyPlan struct {
	PlanID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"-"`
	Title          string         `gorm:"not null" json:"title"`
	Description    string         `json:"description"`
	StartDate      Date           `gorm:"not null" json:"startDate"`
	EndDate        Date           `gorm:"not null" json:"endDate"`
	SubjectRefs    []uuid.UUID    `gorm:"serializer:json" json:"subjectIds"`
	TopicRefs      []uuid.UUID    `gorm:"serializer:json" json:"topicIds"`
	TotalHours     int            `gorm:"not null" json:"totalHours"`
	CompletedHours int            `gorm:"not null;default:0" json:"completedHours"`
	Status         PlanStatus     `gorm:"not null" json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"-"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (StudyPlan) TableName() string {
	return "study_plans"
}

// CreatePlanRequest はプラン作成APIのリクエストボディ (DTO)。
// 日付の前後関係と科目の実在チェックはサービス層で行う。
type CreatePlanRequest struct {
	Title       string      `json:"title" validate:"required,min=1,max=200"`
	Description string      `json:"description" validate:"max=2000"`
	SubjectIDs  []uuid.UUID `json:"subjectIds" validate:"required,min=1"`
	StartDate   Date        `json:"startDate"`
	EndDate     Date        `json:"endDate"`
	HoursPerDay int         `json:"hoursPerDay" validate:"required,min=1"`
}

// UpdateProgressRequest は進捗更新APIのリクエストボディ
type UpdateProgressRequest struct {
	CompletedHours *int `json:"completedHours" validate:"required,gte=0"`
}

// StudyPlanResponse はクライアントに返すプラン情報。
// userId は含めない。Subject / Topic は解決済みのオブジェクトで返す。
type StudyPlanResponse struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	StartDate      Date       `json:"startDate"`
	EndDate        Date       `json:"endDate"`
	Subjects       []*Subject `json:"subjects"`
	Topics         []*Topic   `json:"topics"`
	TotalHours     int        `json:"totalHours"`
	CompletedHours int        `json:"completedHours"`
	Status         PlanStatus `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
}
