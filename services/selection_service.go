package services

import (
	"errors"
	"fmt"
	"math/rand"

	"qpgen/models"

	"gorm.io/gorm"
)

type SelectionService struct {
	db *gorm.DB
}

func NewSelectionService(db *gorm.DB) *SelectionService {
	return &SelectionService{db: db}
}

// Criterion is one set of filter constraints plus a desired question count.
// A zero filter field is a wildcard and matches every value along that
// dimension.
type Criterion struct {
	COID              uint `json:"co_id"`
	BloomsLevelID     uint `json:"blooms_level_id"`
	DifficultyLevelID uint `json:"difficulty_level_id"`
	UnitID            uint `json:"unit_id"`
	Marks             int  `json:"marks"`
	Count             int  `json:"count" binding:"required,min=1"`
}

// SelectedQuestion is one drawn question with denormalized labels for
// display and print.
type SelectedQuestion struct {
	ID              uint   `json:"id"`
	QuestionText    string `json:"question_text"`
	ImagePath       string `json:"image_path,omitempty"`
	Marks           int    `json:"marks"`
	CO              string `json:"co"`
	BloomsLevel     string `json:"blooms_level"`
	DifficultyLevel string `json:"difficulty_level"`
	Unit            string `json:"unit"`
}

type SelectionResult struct {
	Questions []SelectedQuestion `json:"questions"`
}

// TotalMarks is the declared maximum marks of the paper built from this
// selection.
func (r *SelectionResult) TotalMarks() int {
	total := 0
	for _, q := range r.Questions {
		total += q.Marks
	}
	return total
}

// Select draws questions for each criterion independently and concatenates
// the draws. Any criterion whose pool is empty aborts the whole selection;
// no partial result is returned. A non-empty pool smaller than the requested
// count clamps silently.
func (s *SelectionService) Select(courseID uint, criteria []Criterion) (*SelectionResult, error) {
	if courseID == 0 {
		return nil, &ValidationError{Field: "course_id", Detail: "course id is required"}
	}
	if len(criteria) == 0 {
		return nil, &ValidationError{Field: "criteria", Detail: "at least one criterion is required"}
	}

	var course models.Course
	if err := s.db.Scopes(models.Active).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "course", ID: courseID}
		}
		return nil, err
	}

	result := &SelectionResult{}
	seen := make(map[uint]bool)

	for _, criterion := range criteria {
		if criterion.Count < 1 {
			return nil, &ValidationError{Field: "count", Detail: "requested count must be at least 1"}
		}

		pool, err := s.queryPool(courseID, criterion)
		if err != nil {
			return nil, err
		}

		if len(pool) == 0 {
			return nil, &InsufficientPoolError{Filters: s.describeCriterion(criterion)}
		}

		// A question already drawn by an earlier criterion is not drawn again.
		// Pool emptiness is judged before this filter so the error above names
		// the real unmet combination.
		fresh := pool[:0]
		for _, q := range pool {
			if !seen[q.ID] {
				fresh = append(fresh, q)
			}
		}

		for _, q := range drawSample(fresh, criterion.Count) {
			seen[q.ID] = true
			result.Questions = append(result.Questions, SelectedQuestion{
				ID:              q.ID,
				QuestionText:    q.QuestionText,
				ImagePath:       q.ImagePath,
				Marks:           q.Marks,
				CO:              q.CourseOutcome.CONumber,
				BloomsLevel:     q.BloomsLevel.LevelName,
				DifficultyLevel: q.DifficultyLevel.LevelName,
				Unit:            q.Unit.UnitName,
			})
		}
	}

	return result, nil
}

func (s *SelectionService) queryPool(courseID uint, criterion Criterion) ([]models.Question, error) {
	query := s.db.Scopes(models.Active).Where("course_id = ?", courseID)

	if criterion.COID != 0 {
		query = query.Where("co_id = ?", criterion.COID)
	}
	if criterion.BloomsLevelID != 0 {
		query = query.Where("blooms_level_id = ?", criterion.BloomsLevelID)
	}
	if criterion.DifficultyLevelID != 0 {
		query = query.Where("difficulty_level_id = ?", criterion.DifficultyLevelID)
	}
	if criterion.UnitID != 0 {
		query = query.Where("unit_id = ?", criterion.UnitID)
	}
	if criterion.Marks != 0 {
		query = query.Where("marks = ?", criterion.Marks)
	}

	var pool []models.Question
	err := query.
		Preload("CourseOutcome").
		Preload("BloomsLevel").
		Preload("DifficultyLevel").
		Preload("Unit").
		Find(&pool).Error
	return pool, err
}

// drawSample draws min(count, len(pool)) questions uniformly at random
// without replacement via a Fisher-Yates permutation over indices.
func drawSample(pool []models.Question, count int) []models.Question {
	n := count
	if n > len(pool) {
		n = len(pool)
	}

	selected := make([]models.Question, 0, n)
	for _, i := range rand.Perm(len(pool))[:n] {
		selected = append(selected, pool[i])
	}
	return selected
}

// describeCriterion resolves the criterion's filter ids to display names so
// an empty-pool error tells the caller which combination failed.
func (s *SelectionService) describeCriterion(criterion Criterion) []string {
	var desc []string

	if criterion.COID != 0 {
		var co models.CourseOutcome
		if err := s.db.First(&co, criterion.COID).Error; err == nil {
			desc = append(desc, "CO: "+co.CONumber)
		} else {
			desc = append(desc, fmt.Sprintf("CO: %d", criterion.COID))
		}
	}
	if criterion.BloomsLevelID != 0 {
		var bloom models.BloomsLevel
		if err := s.db.First(&bloom, criterion.BloomsLevelID).Error; err == nil {
			desc = append(desc, "Bloom's Level: "+bloom.LevelName)
		} else {
			desc = append(desc, fmt.Sprintf("Bloom's Level: %d", criterion.BloomsLevelID))
		}
	}
	if criterion.DifficultyLevelID != 0 {
		var diff models.DifficultyLevel
		if err := s.db.First(&diff, criterion.DifficultyLevelID).Error; err == nil {
			desc = append(desc, "Difficulty: "+diff.LevelName)
		} else {
			desc = append(desc, fmt.Sprintf("Difficulty: %d", criterion.DifficultyLevelID))
		}
	}
	if criterion.UnitID != 0 {
		var unit models.Unit
		if err := s.db.First(&unit, criterion.UnitID).Error; err == nil {
			desc = append(desc, "Unit: "+unit.UnitName)
		} else {
			desc = append(desc, fmt.Sprintf("Unit: %d", criterion.UnitID))
		}
	}
	if criterion.Marks != 0 {
		desc = append(desc, fmt.Sprintf("Marks: %d", criterion.Marks))
	}

	return desc
}
