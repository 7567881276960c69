package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"qpgen/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// AIService drafts exam questions with a generative model and writes accepted
// drafts into the question bank. It is an alternative question-bank writer,
// not part of the generation pipeline.
type AIService struct {
	db     *gorm.DB
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewAIService connects the Gemini client. A missing API key disables the
// service rather than failing startup; handlers report it as unavailable.
func NewAIService(ctx context.Context, db *gorm.DB, apiKey string) (*AIService, error) {
	svc := &AIService{db: db}
	if apiKey == "" {
		return svc, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("error initializing Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-1.5-pro-latest")
	temp := float32(0.7)
	model.Temperature = &temp

	svc.client = client
	svc.model = model
	return svc, nil
}

// Close releases the underlying client connection.
func (s *AIService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *AIService) Enabled() bool {
	return s.model != nil
}

type AIGenerateRequest struct {
	CourseID          uint `json:"course_id" binding:"required"`
	COID              uint `json:"co_id" binding:"required"`
	BloomsLevelID     uint `json:"blooms_level_id" binding:"required"`
	DifficultyLevelID uint `json:"difficulty_level_id" binding:"required"`
	UnitID            uint `json:"unit_id" binding:"required"`
	Count             int  `json:"count"`
	Marks             int  `json:"marks"`
}

type AIDraftQuestion struct {
	QuestionText string `json:"questionText"`
	Marks        int    `json:"marks"`
}

// GenerateDrafts asks the model for question drafts against a concrete
// taxonomy tuple. Every id must resolve; unlike selection criteria there is
// no wildcard here, a draft has to be tagged before it can enter the bank.
func (s *AIService) GenerateDrafts(ctx context.Context, req *AIGenerateRequest) ([]AIDraftQuestion, error) {
	if !s.Enabled() {
		return nil, &ValidationError{Field: "ai", Detail: "AI question generation is not configured"}
	}

	count := req.Count
	if count <= 0 {
		count = 5
	}
	marks := req.Marks
	if marks <= 0 {
		marks = 10
	}

	var course models.Course
	if err := s.db.Scopes(models.Active).First(&course, req.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "course", ID: req.CourseID}
		}
		return nil, err
	}
	var co models.CourseOutcome
	if err := s.db.Scopes(models.Active).Where("course_id = ?", req.CourseID).First(&co, req.COID).Error; err != nil {
		return nil, &NotFoundError{Entity: "course outcome", ID: req.COID}
	}
	var bloom models.BloomsLevel
	if err := s.db.Scopes(models.Active).First(&bloom, req.BloomsLevelID).Error; err != nil {
		return nil, &NotFoundError{Entity: "blooms level", ID: req.BloomsLevelID}
	}
	var diff models.DifficultyLevel
	if err := s.db.Scopes(models.Active).First(&diff, req.DifficultyLevelID).Error; err != nil {
		return nil, &NotFoundError{Entity: "difficulty level", ID: req.DifficultyLevelID}
	}
	var unit models.Unit
	if err := s.db.Scopes(models.Active).First(&unit, req.UnitID).Error; err != nil {
		return nil, &NotFoundError{Entity: "unit", ID: req.UnitID}
	}

	prompt := buildQuestionPrompt(course.CourseName, unit.UnitName, co.CODescription, bloom.LevelName, diff.LevelName, count, marks)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Printf("AI question generation failed, using fallback drafts: %v", err)
		return fallbackDrafts(unit.UnitName, co.CODescription, count, marks), nil
	}

	drafts, err := parseDrafts(resp)
	if err != nil {
		log.Printf("Could not parse AI response, using fallback drafts: %v", err)
		return fallbackDrafts(unit.UnitName, co.CODescription, count, marks), nil
	}
	return drafts, nil
}

func buildQuestionPrompt(courseName, topic, coDescription, bloomLevel, difficulty string, count, marks int) string {
	return fmt.Sprintf(`You are an expert educational content creator. Generate %d high-quality exam questions for a college-level course.

Course: %s
Topic/Unit: %s
Course Outcome: %s
Bloom's Taxonomy Level: %s
Difficulty: %s
Marks per Question: %d

Requirements:
1. Generate EXACTLY %d questions
2. Each question should be at the "%s" level of Bloom's Taxonomy
3. Questions should be %s difficulty
4. Questions should be clear, unambiguous, and academically rigorous
5. Each question should test understanding of: %s

Return ONLY a valid JSON array in this exact format (no markdown, no code blocks, just pure JSON):
[{"questionText": "Question text here", "marks": %d}]`,
		count, courseName, topic, coDescription, bloomLevel, difficulty, marks,
		count, bloomLevel, difficulty, coDescription, marks)
}

func parseDrafts(resp *genai.GenerateContentResponse) ([]AIDraftQuestion, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("empty model response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	// Strip markdown fences the model sometimes wraps JSON in.
	cleaned := strings.TrimSpace(text.String())
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var drafts []AIDraftQuestion
	if err := json.Unmarshal([]byte(cleaned), &drafts); err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, errors.New("model returned no questions")
	}
	return drafts, nil
}

// fallbackDrafts keeps the authoring flow usable when the model is
// unreachable or rate limited.
func fallbackDrafts(topic, coDescription string, count, marks int) []AIDraftQuestion {
	drafts := make([]AIDraftQuestion, 0, count)
	for i := 0; i < count; i++ {
		drafts = append(drafts, AIDraftQuestion{
			QuestionText: fmt.Sprintf("Explain the concept of %s and its relation to %s. Discuss key principles and give valid examples. (Draft %d)", topic, coDescription, i+1),
			Marks:        marks,
		})
	}
	return drafts
}

// SaveDrafts writes accepted drafts into the question bank under the
// request's taxonomy tuple.
func (s *AIService) SaveDrafts(creatorID uint, req *AIGenerateRequest, drafts []AIDraftQuestion) ([]models.Question, error) {
	saved := make([]models.Question, 0, len(drafts))
	for _, draft := range drafts {
		question := models.Question{
			CourseID:          req.CourseID,
			COID:              req.COID,
			BloomsLevelID:     req.BloomsLevelID,
			DifficultyLevelID: req.DifficultyLevelID,
			UnitID:            req.UnitID,
			QuestionText:      draft.QuestionText,
			Marks:             draft.Marks,
			IsActive:          true,
			CreatedBy:         creatorID,
		}
		if err := s.db.Create(&question).Error; err != nil {
			return saved, &PersistenceError{Detail: "could not store generated question", Err: err}
		}
		saved = append(saved, question)
	}
	return saved, nil
}
