package models

import (
	"time"

	"gorm.io/datatypes"
)

// Assessment types a paper can be generated for.
const (
	AssessmentMid1    = "MID-1"
	AssessmentMid2    = "MID-2"
	AssessmentRegular = "Regular"
	AssessmentSupply  = "Supply"
)

func ValidAssessmentType(t string) bool {
	switch t {
	case AssessmentMid1, AssessmentMid2, AssessmentRegular, AssessmentSupply:
		return true
	}
	return false
}

// GeneratedPaper is the append-only record of one completed generation run.
// The question set is frozen as JSON so the record survives later edits or
// deactivation of the live question rows. Rows are never updated or deleted;
// regeneration always creates a new row.
type GeneratedPaper struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	ProgramID      uint           `json:"program_id" gorm:"not null"`
	CourseID       uint           `json:"course_id" gorm:"not null;index"`
	AssessmentType string         `json:"assessment_type" gorm:"not null"`
	ExamDate       time.Time      `json:"exam_date" gorm:"not null"`
	RegulationID   uint           `json:"regulation_id" gorm:"not null"`
	Year           string         `json:"year" gorm:"not null"`
	Semester       string         `json:"semester" gorm:"not null"`
	AcademicYear   string         `json:"academic_year" gorm:"not null"`
	QuestionData   datatypes.JSON `json:"question_data" gorm:"column:question_data"`
	PDFPath        string         `json:"pdf_path" gorm:"column:pdf_path"`
	GeneratedBy    uint           `json:"generated_by" gorm:"not null"`
	CreatedAt      time.Time      `json:"created_at"`

	// Relationships
	Course    Course  `json:"course,omitempty"`
	Program   Program `json:"program,omitempty"`
	Generator User    `json:"generator,omitempty" gorm:"foreignKey:GeneratedBy"`
}
