package models

import (
	"time"
)

// BloomsLevel classifies the cognitive skill a question targets.
type BloomsLevel struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	LevelName   string    `json:"level_name" gorm:"uniqueIndex;not null"`
	LevelNumber int       `json:"level_number"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DifficultyLevel struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	LevelName   string    `json:"level_name" gorm:"uniqueIndex;not null"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Unit is a syllabus subdivision a question belongs to.
type Unit struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UnitName    string    `json:"unit_name" gorm:"uniqueIndex;not null"`
	UnitNumber  int       `json:"unit_number"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
