// internal/model/topic.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Topic は科目内の学習トピック。Subject を介してユーザーに帰属する。
// リコンサイラがLLM応答中の未知トピックをここへ新規作成する。
type Topic struct {
	TopicID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"-"`
	SubjectID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"subjectId"`
	Name           string         `gorm:"not null" json:"name"`
	EstimatedHours int            `gorm:"not null;default:0" json:"estimatedHours"`
	Priority       int            `gorm:"not null;default:0" json:"priority"`
	Completed      bool           `gorm:"not null;default:false" json:"completed"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"-"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Topic) TableName() string {
	return "topics"
}

// トピック作成リクエストDTO
type CreateTopicRequest struct {
	SubjectID      uuid.UUID `json:"subjectId" validate:"required"`
	Name           string    `json:"name" validate:"required,min=1,max=200"`
	EstimatedHours int       `json:"estimatedHours" validate:"gte=0"`
	Priority       int       `json:"priority" validate:"gte=0"`
}
