package services

import (
	"fmt"
	"path/filepath"
	"testing"

	"qpgen/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory database with the full schema and the
// shared reference data every test builds on.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "qpgen_test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Program{},
		&models.Branch{},
		&models.Regulation{},
		&models.ProgramBranchMapping{},
		&models.Course{},
		&models.BranchCourseMapping{},
		&models.Faculty{},
		&models.FacultyCourseMapping{},
		&models.BloomsLevel{},
		&models.DifficultyLevel{},
		&models.Unit{},
		&models.CourseOutcome{},
		&models.Question{},
		&models.GeneratedPaper{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// seedReferenceData creates one program/branch/regulation/course with a small
// taxonomy and returns the course.
func seedReferenceData(t *testing.T, db *gorm.DB) *models.Course {
	t.Helper()

	program := models.Program{ProgramName: "B.Tech", ProgramCode: "BT", IsActive: true}
	if err := db.Create(&program).Error; err != nil {
		t.Fatalf("seed program: %v", err)
	}
	branch := models.Branch{BranchName: "Computer Science", BranchCode: "CSE", IsActive: true}
	if err := db.Create(&branch).Error; err != nil {
		t.Fatalf("seed branch: %v", err)
	}
	regulation := models.Regulation{RegulationName: "R22", RegulationYear: 2022, IsActive: true}
	if err := db.Create(&regulation).Error; err != nil {
		t.Fatalf("seed regulation: %v", err)
	}
	pbMapping := models.ProgramBranchMapping{ProgramID: program.ID, BranchID: branch.ID, IsActive: true}
	if err := db.Create(&pbMapping).Error; err != nil {
		t.Fatalf("seed program-branch mapping: %v", err)
	}

	course := models.Course{
		CourseName:   "Operating Systems",
		CourseCode:   "CS301",
		BranchID:     branch.ID,
		RegulationID: regulation.ID,
		Year:         "III",
		Semester:     "I",
		CourseType:   "Theory",
		ElectiveType: "CORE",
		Credits:      4,
		IsActive:     true,
	}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}

	bcMapping := models.BranchCourseMapping{
		PBMappingID:  pbMapping.ID,
		RegulationID: regulation.ID,
		CourseID:     course.ID,
		IsActive:     true,
	}
	if err := db.Create(&bcMapping).Error; err != nil {
		t.Fatalf("seed branch-course mapping: %v", err)
	}

	taxonomy := []interface{}{
		&models.CourseOutcome{CourseID: course.ID, CONumber: "CO1", CODescription: "Explain process management", IsActive: true},
		&models.CourseOutcome{CourseID: course.ID, CONumber: "CO2", CODescription: "Apply scheduling algorithms", IsActive: true},
		&models.BloomsLevel{LevelName: "Remember", LevelNumber: 1, IsActive: true},
		&models.BloomsLevel{LevelName: "Analyze", LevelNumber: 4, IsActive: true},
		&models.DifficultyLevel{LevelName: "Easy", IsActive: true},
		&models.DifficultyLevel{LevelName: "Hard", IsActive: true},
		&models.Unit{UnitName: "Unit 1", UnitNumber: 1, IsActive: true},
		&models.Unit{UnitName: "Unit 2", UnitNumber: 2, IsActive: true},
	}
	for _, row := range taxonomy {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed taxonomy: %v", err)
		}
	}

	return &course
}

// seedQuestions creates n active questions for the course with the given
// taxonomy tuple and marks.
func seedQuestions(t *testing.T, db *gorm.DB, course *models.Course, n int, coID, bloomID, diffID, unitID uint, marks int) []models.Question {
	t.Helper()

	questions := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		q := models.Question{
			CourseID:          course.ID,
			COID:              coID,
			BloomsLevelID:     bloomID,
			DifficultyLevelID: diffID,
			UnitID:            unitID,
			QuestionText:      fmt.Sprintf("Question %d for tuple co=%d unit=%d", i+1, coID, unitID),
			Marks:             marks,
			IsActive:          true,
			CreatedBy:         1,
		}
		if err := db.Create(&q).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
		questions = append(questions, q)
	}
	return questions
}
