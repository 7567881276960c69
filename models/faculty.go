package models

import (
	"time"
)

type Faculty struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	BranchID    uint      `json:"branch_id" gorm:"not null"`
	Honorific   string    `json:"honorific" gorm:"default:Mr."`
	FacultyName string    `json:"faculty_name" gorm:"not null"`
	EmpID       string    `json:"emp_id" gorm:"uniqueIndex;not null"`
	PhoneNumber string    `json:"phone_number"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	User           User                   `json:"user,omitempty"`
	Branch         Branch                 `json:"branch,omitempty"`
	CourseMappings []FacultyCourseMapping `json:"course_mappings,omitempty" gorm:"foreignKey:FacultyID"`
}

// FacultyCourseMapping assigns a course to a faculty member for one academic year.
type FacultyCourseMapping struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	FacultyID    uint      `json:"faculty_id" gorm:"not null"`
	CourseID     uint      `json:"course_id" gorm:"not null"`
	CourseType   string    `json:"course_type" gorm:"not null"`
	Year         string    `json:"year" gorm:"not null"`
	Semester     string    `json:"semester" gorm:"not null"`
	AcademicYear string    `json:"academic_year" gorm:"not null"`
	ElectiveType string    `json:"elective_type" gorm:"not null"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	Faculty Faculty `json:"faculty,omitempty"`
	Course  Course  `json:"course,omitempty"`
}
