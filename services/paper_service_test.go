package services

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"qpgen/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestPaperService(t *testing.T, db *gorm.DB) *PaperService {
	t.Helper()
	renderer := NewRendererService(t.TempDir(), 1, 10*time.Second)
	return NewPaperService(db, nil, NewSelectionService(db), renderer, nil, "Test Institute of Technology")
}

func TestGeneratePipeline(t *testing.T) {
	db := setupTestDB(t)
	course := seedReferenceData(t, db)
	seedQuestions(t, db, course, 6, 1, 1, 1, 1, 5)

	svc := newTestPaperService(t, db)
	paper, err := svc.Generate("gen-1", 42, &GenerateRequest{
		CourseID:       course.ID,
		AssessmentType: models.AssessmentMid1,
		ExamDate:       "2025-11-20",
		Criteria:       []Criterion{{COID: 1, Count: 4}},
	})
	require.NoError(t, err)
	require.NotNil(t, paper)

	assert.NotZero(t, paper.ID)
	assert.Equal(t, course.ID, paper.CourseID)
	assert.Equal(t, models.AssessmentMid1, paper.AssessmentType)
	assert.Equal(t, uint(42), paper.GeneratedBy)
	assert.Equal(t, CurrentAcademicYear(), paper.AcademicYear)
	// year/semester fall back to the course record when the request omits them
	assert.Equal(t, "III", paper.Year)
	assert.Equal(t, "I", paper.Semester)
	assert.Equal(t, course.RegulationID, paper.RegulationID)

	// rendered document exists
	info, err := os.Stat(paper.PDFPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	var snapshot []SnapshotQuestion
	require.NoError(t, json.Unmarshal(paper.QuestionData, &snapshot))
	require.Len(t, snapshot, 4)
	for _, q := range snapshot {
		assert.Equal(t, 5, q.Marks)
		assert.Equal(t, "CO1", q.COLabel)
		assert.NotEmpty(t, q.Text)
	}
}

func TestGenerateFailsBeforeRenderOnEmptyPool(t *testing.T) {
	db := setupTestDB(t)
	course := seedReferenceData(t, db)

	outputDir := t.TempDir()
	renderer := NewRendererService(outputDir, 1, 10*time.Second)
	svc := NewPaperService(db, nil, NewSelectionService(db), renderer, nil, "Test Institute")

	_, err := svc.Generate("gen-2", 1, &GenerateRequest{
		CourseID:       course.ID,
		AssessmentType: models.AssessmentRegular,
		ExamDate:       "2025-11-20",
		Criteria:       []Criterion{{COID: 2, Count: 3}},
	})

	var poolErr *InsufficientPoolError
	require.True(t, errors.As(err, &poolErr))

	// no render work happened and no record was written
	entries, readErr := os.ReadDir(outputDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)

	var count int64
	db.Model(&models.GeneratedPaper{}).Count(&count)
	assert.Zero(t, count)
}

func TestGeneratePersistenceFailureKeepsPDF(t *testing.T) {
	db := setupTestDB(t)
	course := seedReferenceData(t, db)
	seedQuestions(t, db, course, 3, 1, 1, 1, 1, 5)

	outputDir := t.TempDir()
	renderer := NewRendererService(outputDir, 1, 10*time.Second)
	svc := NewPaperService(db, nil, NewSelectionService(db), renderer, nil, "Test Institute")

	// storage is broken but the render stage still succeeds
	require.NoError(t, db.Migrator().DropTable(&models.GeneratedPaper{}))

	_, err := svc.Generate("gen-4", 1, &GenerateRequest{
		CourseID:       course.ID,
		AssessmentType: models.AssessmentMid1,
		ExamDate:       "2025-11-20",
		Criteria:       []Criterion{{Count: 2}},
	})

	var persistErr *PersistenceError
	require.True(t, errors.As(err, &persistErr))

	// the rendered document stays on disk so persistence alone can be retried
	entries, readErr := os.ReadDir(outputDir)
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^QP_CS301_MID-1_\d+-[0-9a-f]{8}\.pdf$`, entries[0].Name())
}

func TestGenerateValidation(t *testing.T) {
	db := setupTestDB(t)
	course := seedReferenceData(t, db)
	svc := newTestPaperService(t, db)

	tests := []struct {
		name string
		req  GenerateRequest
	}{
		{
			name: "bad exam date",
			req:  GenerateRequest{CourseID: course.ID, AssessmentType: models.AssessmentMid1, ExamDate: "20-11-2025", Criteria: []Criterion{{Count: 1}}},
		},
		{
			name: "unknown assessment type",
			req:  GenerateRequest{CourseID: course.ID, AssessmentType: "FINAL", ExamDate: "2025-11-20", Criteria: []Criterion{{Count: 1}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate("", 1, &tt.req)
			var validationErr *ValidationError
			assert.True(t, errors.As(err, &validationErr))
		})
	}
}

func TestGenerateUnknownCourse(t *testing.T) {
	db := setupTestDB(t)
	seedReferenceData(t, db)
	svc := newTestPaperService(t, db)

	_, err := svc.Generate("", 1, &GenerateRequest{
		CourseID:       9999,
		AssessmentType: models.AssessmentMid1,
		ExamDate:       "2025-11-20",
		Criteria:       []Criterion{{Count: 1}},
	})

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestSnapshotSurvivesQuestionEdits(t *testing.T) {
	db := setupTestDB(t)
	course := seedReferenceData(t, db)
	questions := seedQuestions(t, db, course, 3, 1, 1, 1, 1, 5)

	svc := newTestPaperService(t, db)
	paper, err := svc.Generate("gen-3", 1, &GenerateRequest{
		CourseID:       course.ID,
		AssessmentType: models.AssessmentMid2,
		ExamDate:       "2025-12-01",
		Criteria:       []Criterion{{Count: 3}},
	})
	require.NoError(t, err)

	var before []SnapshotQuestion
	require.NoError(t, json.Unmarshal(paper.QuestionData, &before))

	// mutate and deactivate the live rows
	for _, q := range questions {
		require.NoError(t, db.Model(&models.Question{}).Where("id = ?", q.ID).
			Updates(map[string]interface{}{"question_text": "EDITED", "is_active": false}).Error)
	}

	var stored models.GeneratedPaper
	require.NoError(t, db.First(&stored, paper.ID).Error)

	var after []SnapshotQuestion
	require.NoError(t, json.Unmarshal(stored.QuestionData, &after))
	require.Equal(t, before, after)
	for _, q := range after {
		assert.NotEqual(t, "EDITED", q.Text)
	}
}

func TestListByCoursesScoping(t *testing.T) {
	db := setupTestDB(t)
	course := seedReferenceData(t, db)
	seedQuestions(t, db, course, 2, 1, 1, 1, 1, 5)

	otherCourse := models.Course{
		CourseName: "Databases", CourseCode: "CS302",
		BranchID: course.BranchID, RegulationID: course.RegulationID,
		Year: "III", Semester: "I", CourseType: "Theory", ElectiveType: "CORE",
		Credits: 4, IsActive: true,
	}
	require.NoError(t, db.Create(&otherCourse).Error)

	svc := newTestPaperService(t, db)
	_, err := svc.Generate("", 1, &GenerateRequest{
		CourseID:       course.ID,
		AssessmentType: models.AssessmentMid1,
		ExamDate:       "2025-11-20",
		Criteria:       []Criterion{{Count: 1}},
	})
	require.NoError(t, err)

	papers, err := svc.ListByCourses([]uint{course.ID})
	require.NoError(t, err)
	assert.Len(t, papers, 1)

	papers, err = svc.ListByCourses([]uint{otherCourse.ID})
	require.NoError(t, err)
	assert.Empty(t, papers)

	papers, err = svc.ListByCourses(nil)
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestListForFaculty(t *testing.T) {
	db := setupTestDB(t)
	course := seedReferenceData(t, db)
	seedQuestions(t, db, course, 2, 1, 1, 1, 1, 5)

	user := models.User{Email: "f1@test.edu", Password: "x", UserType: models.UserTypeFaculty, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	faculty := models.Faculty{UserID: user.ID, BranchID: course.BranchID, FacultyName: "Test Faculty", EmpID: "EMP001", IsActive: true}
	require.NoError(t, db.Create(&faculty).Error)
	mapping := models.FacultyCourseMapping{
		FacultyID: faculty.ID, CourseID: course.ID, CourseType: "Theory",
		Year: "III", Semester: "I", AcademicYear: CurrentAcademicYear(),
		ElectiveType: "CORE", IsActive: true,
	}
	require.NoError(t, db.Create(&mapping).Error)

	svc := newTestPaperService(t, db)
	_, err := svc.Generate("", user.ID, &GenerateRequest{
		CourseID:       course.ID,
		AssessmentType: models.AssessmentMid1,
		ExamDate:       "2025-11-20",
		Criteria:       []Criterion{{Count: 1}},
	})
	require.NoError(t, err)

	papers, err := svc.ListForFaculty(user.ID)
	require.NoError(t, err)
	assert.Len(t, papers, 1)

	// user without a faculty profile is rejected by scoping
	_, err = svc.ListForFaculty(9999)
	var authErr *AuthorizationError
	require.True(t, errors.As(err, &authErr))
}

func TestPaperForDownloadScoping(t *testing.T) {
	db := setupTestDB(t)
	course := seedReferenceData(t, db)
	seedQuestions(t, db, course, 2, 1, 1, 1, 1, 5)

	mapped := models.User{Email: "f1@test.edu", Password: "x", UserType: models.UserTypeFaculty, IsActive: true}
	require.NoError(t, db.Create(&mapped).Error)
	mappedFaculty := models.Faculty{UserID: mapped.ID, BranchID: course.BranchID, FacultyName: "Mapped Faculty", EmpID: "EMP001", IsActive: true}
	require.NoError(t, db.Create(&mappedFaculty).Error)
	require.NoError(t, db.Create(&models.FacultyCourseMapping{
		FacultyID: mappedFaculty.ID, CourseID: course.ID, CourseType: "Theory",
		Year: "III", Semester: "I", AcademicYear: CurrentAcademicYear(),
		ElectiveType: "CORE", IsActive: true,
	}).Error)

	outsider := models.User{Email: "f2@test.edu", Password: "x", UserType: models.UserTypeFaculty, IsActive: true}
	require.NoError(t, db.Create(&outsider).Error)
	outsiderFaculty := models.Faculty{UserID: outsider.ID, BranchID: course.BranchID, FacultyName: "Other Faculty", EmpID: "EMP002", IsActive: true}
	require.NoError(t, db.Create(&outsiderFaculty).Error)

	svc := newTestPaperService(t, db)
	paper, err := svc.Generate("", mapped.ID, &GenerateRequest{
		CourseID:       course.ID,
		AssessmentType: models.AssessmentMid1,
		ExamDate:       "2025-11-20",
		Criteria:       []Criterion{{Count: 1}},
	})
	require.NoError(t, err)
	fileName := filepath.Base(paper.PDFPath)

	got, err := svc.PaperForDownload(mapped.ID, false, fileName)
	require.NoError(t, err)
	assert.Equal(t, paper.ID, got.ID)

	// a faculty member without a mapping to the course is rejected
	_, err = svc.PaperForDownload(outsider.ID, false, fileName)
	var authErr *AuthorizationError
	require.True(t, errors.As(err, &authErr))

	// admins bypass course scoping
	got, err = svc.PaperForDownload(outsider.ID, true, fileName)
	require.NoError(t, err)
	assert.Equal(t, paper.ID, got.ID)

	_, err = svc.PaperForDownload(mapped.ID, false, "QP_unknown.pdf")
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
}
