package models

import (
	"time"
)

const (
	UserTypeAdmin   = "Admin"
	UserTypeFaculty = "Faculty"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	UserType  string    `json:"user_type" gorm:"not null;default:Faculty"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	FacultyProfile *Faculty `json:"faculty_profile,omitempty" gorm:"foreignKey:UserID"`
}
