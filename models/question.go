package models

import (
	"time"
)

type Question struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	CourseID          uint      `json:"course_id" gorm:"not null;index"`
	COID              uint      `json:"co_id" gorm:"column:co_id;not null"`
	BloomsLevelID     uint      `json:"blooms_level_id" gorm:"not null"`
	DifficultyLevelID uint      `json:"difficulty_level_id" gorm:"not null"`
	UnitID            uint      `json:"unit_id" gorm:"not null"`
	QuestionText      string    `json:"question_text" gorm:"type:text;not null"`
	ImagePath         string    `json:"image_path"`
	Marks             int       `json:"marks" gorm:"not null"`
	IsActive          bool      `json:"is_active" gorm:"default:true"`
	CreatedBy         uint      `json:"created_by" gorm:"not null"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relationships
	Course          Course          `json:"course,omitempty"`
	CourseOutcome   CourseOutcome   `json:"course_outcome,omitempty" gorm:"foreignKey:COID"`
	BloomsLevel     BloomsLevel     `json:"blooms_level,omitempty"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level,omitempty"`
	Unit            Unit            `json:"unit,omitempty"`
	Creator         Faculty         `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}
