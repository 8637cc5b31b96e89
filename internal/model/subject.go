// internal/model/subject.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subject は学習科目を表す。ユーザーごとのカタログに属し、
// プラン生成パイプラインからは読み取り専用で参照される。
type Subject struct {
	SubjectID uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	Color     string         `json:"color"` // CSSカラートークン (例: "#ff8800")
	Priority  int            `gorm:"not null;default:0" json:"priority"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Subject) TableName() string {
	return "subjects"
}

// 科目作成リクエストDTO
type CreateSubjectRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Color    string `json:"color" validate:"omitempty,max=32"`
	Priority int    `json:"priority" validate:"gte=0"`
}
