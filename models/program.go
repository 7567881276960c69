package models

import (
	"time"
)

type Program struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ProgramName string    `json:"program_name" gorm:"uniqueIndex;not null"`
	ProgramCode string    `json:"program_code"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	BranchMappings []ProgramBranchMapping `json:"branch_mappings,omitempty" gorm:"foreignKey:ProgramID"`
}

type Branch struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	BranchName  string    `json:"branch_name" gorm:"not null"`
	BranchCode  string    `json:"branch_code" gorm:"uniqueIndex;not null"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Regulation struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	RegulationName string    `json:"regulation_name" gorm:"uniqueIndex;not null"`
	RegulationYear int       `json:"regulation_year"`
	Description    string    `json:"description"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ProgramBranchMapping struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProgramID uint      `json:"program_id" gorm:"not null"`
	BranchID  uint      `json:"branch_id" gorm:"not null"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Program Program `json:"program,omitempty"`
	Branch  Branch  `json:"branch,omitempty"`
}

type BranchCourseMapping struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	PBMappingID  uint      `json:"pb_mapping_id" gorm:"column:pb_mapping_id;not null"`
	RegulationID uint      `json:"regulation_id" gorm:"not null"`
	CourseID     uint      `json:"course_id" gorm:"not null"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	PBMapping  ProgramBranchMapping `json:"pb_mapping,omitempty" gorm:"foreignKey:PBMappingID"`
	Regulation Regulation           `json:"regulation,omitempty"`
	Course     Course               `json:"course,omitempty"`
}
