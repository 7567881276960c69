package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"qpgen/models"

	"gorm.io/gorm"
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

type CreateQuestionRequest struct {
	CourseID          uint   `json:"course_id" binding:"required"`
	COID              uint   `json:"co_id" binding:"required"`
	BloomsLevelID     uint   `json:"blooms_level_id" binding:"required"`
	DifficultyLevelID uint   `json:"difficulty_level_id" binding:"required"`
	UnitID            uint   `json:"unit_id" binding:"required"`
	QuestionText      string `json:"question_text" binding:"required"`
	ImagePath         string `json:"image_path"`
	Marks             int    `json:"marks" binding:"required,min=1"`
}

type UpdateQuestionRequest struct {
	COID              uint   `json:"co_id"`
	BloomsLevelID     uint   `json:"blooms_level_id"`
	DifficultyLevelID uint   `json:"difficulty_level_id"`
	UnitID            uint   `json:"unit_id"`
	QuestionText      string `json:"question_text"`
	ImagePath         string `json:"image_path"`
	Marks             int    `json:"marks"`
}

// ListByCourse returns the active questions of a course, newest first, with
// taxonomy labels preloaded.
func (s *QuestionService) ListByCourse(courseID uint) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.Scopes(models.Active).
		Where("course_id = ?", courseID).
		Preload("CourseOutcome").
		Preload("BloomsLevel").
		Preload("DifficultyLevel").
		Preload("Unit").
		Order("created_at DESC").
		Find(&questions).Error
	return questions, err
}

// Create stores a new question after checking the taxonomy references are
// internally consistent with the question's own course.
func (s *QuestionService) Create(creatorID uint, req *CreateQuestionRequest) (*models.Question, error) {
	if err := s.checkTaxonomy(req.CourseID, req.COID, req.BloomsLevelID, req.DifficultyLevelID, req.UnitID); err != nil {
		return nil, err
	}

	question := models.Question{
		CourseID:          req.CourseID,
		COID:              req.COID,
		BloomsLevelID:     req.BloomsLevelID,
		DifficultyLevelID: req.DifficultyLevelID,
		UnitID:            req.UnitID,
		QuestionText:      req.QuestionText,
		ImagePath:         req.ImagePath,
		Marks:             req.Marks,
		IsActive:          true,
		CreatedBy:         creatorID,
	}

	if err := s.db.Create(&question).Error; err != nil {
		return nil, &PersistenceError{Detail: "could not store question", Err: err}
	}

	err := s.db.
		Preload("CourseOutcome").
		Preload("BloomsLevel").
		Preload("DifficultyLevel").
		Preload("Unit").
		First(&question, question.ID).Error
	return &question, err
}

// Update modifies a question. Only the creator or an admin may edit.
func (s *QuestionService) Update(questionID, actorID uint, isAdmin bool, req *UpdateQuestionRequest) (*models.Question, error) {
	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "question", ID: questionID}
		}
		return nil, err
	}

	if !isAdmin && question.CreatedBy != actorID {
		return nil, &AuthorizationError{Detail: "only the creator or an admin may edit this question"}
	}

	if req.COID != 0 {
		question.COID = req.COID
	}
	if req.BloomsLevelID != 0 {
		question.BloomsLevelID = req.BloomsLevelID
	}
	if req.DifficultyLevelID != 0 {
		question.DifficultyLevelID = req.DifficultyLevelID
	}
	if req.UnitID != 0 {
		question.UnitID = req.UnitID
	}
	if req.QuestionText != "" {
		question.QuestionText = req.QuestionText
	}
	if req.ImagePath != "" {
		question.ImagePath = req.ImagePath
	}
	if req.Marks != 0 {
		question.Marks = req.Marks
	}

	if err := s.checkTaxonomy(question.CourseID, question.COID, question.BloomsLevelID, question.DifficultyLevelID, question.UnitID); err != nil {
		return nil, err
	}

	if err := s.db.Save(&question).Error; err != nil {
		return nil, &PersistenceError{Detail: "could not update question", Err: err}
	}
	return &question, nil
}

// ToggleStatus flips the soft-delete flag.
func (s *QuestionService) ToggleStatus(questionID uint) (*models.Question, error) {
	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "question", ID: questionID}
		}
		return nil, err
	}

	question.IsActive = !question.IsActive
	if err := s.db.Save(&question).Error; err != nil {
		return nil, &PersistenceError{Detail: "could not toggle question status", Err: err}
	}
	return &question, nil
}

// BulkImportResult summarizes one CSV ingestion run.
type BulkImportResult struct {
	Created int               `json:"created"`
	Errors  []BulkImportError `json:"errors,omitempty"`
}

type BulkImportError struct {
	Line   int    `json:"line"`
	Detail string `json:"detail"`
}

// BulkImport ingests questions from a CSV stream with header
// courseId,coId,bloomsLevelId,difficultyLevelId,unitId,questionText,marks.
// Bad rows are collected and skipped; the import continues.
func (s *QuestionService) BulkImport(creatorID uint, r io.Reader) (*BulkImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &ValidationError{Field: "file", Detail: "could not read CSV header"}
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"courseId", "coId", "bloomsLevelId", "difficultyLevelId", "unitId", "questionText", "marks"} {
		if _, ok := col[required]; !ok {
			return nil, &ValidationError{Field: "file", Detail: "missing CSV column " + required}
		}
	}

	result := &BulkImportResult{}
	line := 1
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, BulkImportError{Line: line, Detail: err.Error()})
			continue
		}

		req, err := parseQuestionRow(row, col)
		if err != nil {
			result.Errors = append(result.Errors, BulkImportError{Line: line, Detail: err.Error()})
			continue
		}

		if _, err := s.Create(creatorID, req); err != nil {
			result.Errors = append(result.Errors, BulkImportError{Line: line, Detail: err.Error()})
			continue
		}
		result.Created++
	}

	return result, nil
}

func parseQuestionRow(row []string, col map[string]int) (*CreateQuestionRequest, error) {
	get := func(name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}
	getUint := func(name string) (uint, error) {
		n, err := strconv.ParseUint(get(name), 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %q", name, get(name))
		}
		return uint(n), nil
	}

	courseID, err := getUint("courseId")
	if err != nil {
		return nil, err
	}
	coID, err := getUint("coId")
	if err != nil {
		return nil, err
	}
	bloomID, err := getUint("bloomsLevelId")
	if err != nil {
		return nil, err
	}
	diffID, err := getUint("difficultyLevelId")
	if err != nil {
		return nil, err
	}
	unitID, err := getUint("unitId")
	if err != nil {
		return nil, err
	}
	marks, err := strconv.Atoi(get("marks"))
	if err != nil || marks < 1 {
		return nil, fmt.Errorf("invalid marks: %q", get("marks"))
	}
	text := get("questionText")
	if text == "" {
		return nil, fmt.Errorf("empty questionText")
	}

	return &CreateQuestionRequest{
		CourseID:          courseID,
		COID:              coID,
		BloomsLevelID:     bloomID,
		DifficultyLevelID: diffID,
		UnitID:            unitID,
		QuestionText:      text,
		Marks:             marks,
	}, nil
}

// checkTaxonomy verifies the CO belongs to the course and the shared
// taxonomy rows exist and are active.
func (s *QuestionService) checkTaxonomy(courseID, coID, bloomID, diffID, unitID uint) error {
	var co models.CourseOutcome
	err := s.db.Scopes(models.Active).Where("course_id = ?", courseID).First(&co, coID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationError{Field: "co_id", Detail: fmt.Sprintf("course outcome %d does not belong to course %d", coID, courseID)}
		}
		return err
	}

	var bloom models.BloomsLevel
	if err := s.db.Scopes(models.Active).First(&bloom, bloomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "blooms level", ID: bloomID}
		}
		return err
	}
	var diff models.DifficultyLevel
	if err := s.db.Scopes(models.Active).First(&diff, diffID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "difficulty level", ID: diffID}
		}
		return err
	}
	var unit models.Unit
	if err := s.db.Scopes(models.Active).First(&unit, unitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "unit", ID: unitID}
		}
		return err
	}
	return nil
}
