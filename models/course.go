package models

import (
	"time"
)

type Course struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CourseName   string    `json:"course_name" gorm:"not null"`
	CourseCode   string    `json:"course_code" gorm:"uniqueIndex;not null"`
	BranchID     uint      `json:"branch_id" gorm:"not null"`
	RegulationID uint      `json:"regulation_id" gorm:"not null"`
	Year         string    `json:"year" gorm:"not null"`
	Semester     string    `json:"semester" gorm:"not null"`
	CourseType   string    `json:"course_type" gorm:"not null"`
	ElectiveType string    `json:"elective_type" gorm:"not null"`
	Credits      int       `json:"credits" gorm:"not null"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Branch     Branch          `json:"branch,omitempty"`
	Regulation Regulation      `json:"regulation,omitempty"`
	Outcomes   []CourseOutcome `json:"outcomes,omitempty" gorm:"foreignKey:CourseID"`
	Questions  []Question      `json:"questions,omitempty" gorm:"foreignKey:CourseID"`
}

// CourseOutcome is a stated learning outcome questions are mapped against.
type CourseOutcome struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CourseID      uint      `json:"course_id" gorm:"not null"`
	CONumber      string    `json:"co_number" gorm:"column:co_number;not null"`
	CODescription string    `json:"co_description" gorm:"column:co_description;not null"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	Course Course `json:"course,omitempty"`
}
