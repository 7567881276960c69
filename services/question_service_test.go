package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"qpgen/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuestionChecksTaxonomy(t *testing.T) {
	db := setupTestDB(t)
	course := seedReferenceData(t, db)
	svc := NewQuestionService(db)

	question, err := svc.Create(1, &CreateQuestionRequest{
		CourseID:          course.ID,
		COID:              1,
		BloomsLevelID:     1,
		DifficultyLevelID: 1,
		UnitID:            1,
		QuestionText:      "Define a process control block.",
		Marks:             5,
	})
	require.NoError(t, err)
	assert.Equal(t, "CO1", question.CourseOutcome.CONumber)
	assert.True(t, question.IsActive)

	// CO belonging to another course is rejected
	otherCourse := models.Course{
		CourseName: "Databases", CourseCode: "CS302",
		BranchID: course.BranchID, RegulationID: course.RegulationID,
		Year: "III", Semester: "I", CourseType: "Theory", ElectiveType: "CORE",
		Credits: 4, IsActive: true,
	}
	require.NoError(t, db.Create(&otherCourse).Error)
	otherCO := models.CourseOutcome{CourseID: otherCourse.ID, CONumber: "CO1", CODescription: "Design relational schemas", IsActive: true}
	require.NoError(t, db.Create(&otherCO).Error)

	_, err = svc.Create(1, &CreateQuestionRequest{
		CourseID:          course.ID,
		COID:              otherCO.ID,
		BloomsLevelID:     1,
		DifficultyLevelID: 1,
		UnitID:            1,
		QuestionText:      "Mismatched outcome.",
		Marks:             5,
	})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "co_id", validationErr.Field)
}

func TestUpdateQuestionAuthorization(t *testing.T) {
	db := setupTestDB(t)
	course := seedReferenceData(t, db)
	questions := seedQuestions(t, db, course, 1, 1, 1, 1, 1, 5)
	svc := NewQuestionService(db)

	// CreatedBy is 1 in the seed helper
	_, err := svc.Update(questions[0].ID, 2, false, &UpdateQuestionRequest{QuestionText: "changed"})
	var authErr *AuthorizationError
	require.True(t, errors.As(err, &authErr))

	updated, err := svc.Update(questions[0].ID, 2, true, &UpdateQuestionRequest{QuestionText: "changed by admin"})
	require.NoError(t, err)
	assert.Equal(t, "changed by admin", updated.QuestionText)

	updated, err = svc.Update(questions[0].ID, 1, false, &UpdateQuestionRequest{Marks: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Marks)
}

func TestToggleStatus(t *testing.T) {
	db := setupTestDB(t)
	course := seedReferenceData(t, db)
	questions := seedQuestions(t, db, course, 1, 1, 1, 1, 1, 5)
	svc := NewQuestionService(db)

	toggled, err := svc.ToggleStatus(questions[0].ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = svc.ToggleStatus(questions[0].ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	_, err = svc.ToggleStatus(9999)
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestBulkImport(t *testing.T) {
	db := setupTestDB(t)
	course := seedReferenceData(t, db)
	svc := NewQuestionService(db)

	csvData := "courseId,coId,bloomsLevelId,difficultyLevelId,unitId,questionText,marks\n" +
		fmt.Sprintf("%d,1,1,1,1,What is a semaphore?,5\n", course.ID) +
		fmt.Sprintf("%d,1,2,2,2,Analyze deadlock conditions.,10\n", course.ID) +
		fmt.Sprintf("%d,1,1,1,1,,5\n", course.ID) + // empty question text
		fmt.Sprintf("%d,999,1,1,1,Bad outcome reference.,5\n", course.ID)

	result, err := svc.BulkImport(1, strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 4, result.Errors[0].Line)
	assert.Equal(t, 5, result.Errors[1].Line)

	questions, err := svc.ListByCourse(course.ID)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestBulkImportBadHeader(t *testing.T) {
	db := setupTestDB(t)
	seedReferenceData(t, db)
	svc := NewQuestionService(db)

	_, err := svc.BulkImport(1, strings.NewReader("foo,bar\n1,2\n"))
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
}
