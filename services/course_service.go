package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"qpgen/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const filterCacheTTL = 10 * time.Minute

// CourseService serves the read-only reference data the generation flow
// needs: faculty course lists, course details for auto-fill, and per-course
// question filter metadata.
type CourseService struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCourseService(db *gorm.DB, redisClient *redis.Client) *CourseService {
	return &CourseService{db: db, redis: redisClient}
}

type FacultyCourse struct {
	ID             uint   `json:"id"`
	CourseName     string `json:"course_name"`
	CourseCode     string `json:"course_code"`
	Year           string `json:"year"`
	Semester       string `json:"semester"`
	RegulationID   uint   `json:"regulation_id"`
	RegulationName string `json:"regulation_name"`
}

// CoursesForFaculty returns the courses the acting user is currently mapped
// to, for both listing and authorization scoping.
func (s *CourseService) CoursesForFaculty(userID uint) ([]FacultyCourse, error) {
	faculty, err := s.facultyByUser(userID)
	if err != nil {
		return nil, err
	}

	var mappings []models.FacultyCourseMapping
	err = s.db.Scopes(models.Active).
		Where("faculty_id = ?", faculty.ID).
		Preload("Course.Regulation").
		Find(&mappings).Error
	if err != nil {
		return nil, err
	}

	courses := make([]FacultyCourse, 0, len(mappings))
	for _, m := range mappings {
		courses = append(courses, FacultyCourse{
			ID:             m.Course.ID,
			CourseName:     m.Course.CourseName,
			CourseCode:     m.Course.CourseCode,
			Year:           m.Course.Year,
			Semester:       m.Course.Semester,
			RegulationID:   m.Course.RegulationID,
			RegulationName: m.Course.Regulation.RegulationName,
		})
	}
	return courses, nil
}

// HasCourseAccess reports whether the user's faculty profile has an active
// mapping to the course.
func (s *CourseService) HasCourseAccess(userID, courseID uint) (bool, error) {
	faculty, err := s.facultyByUser(userID)
	if err != nil {
		return false, err
	}

	var count int64
	err = s.db.Model(&models.FacultyCourseMapping{}).
		Scopes(models.Active).
		Where("faculty_id = ? AND course_id = ?", faculty.ID, courseID).
		Count(&count).Error
	return count > 0, err
}

type CourseDetails struct {
	RegulationID   uint   `json:"regulation_id"`
	RegulationName string `json:"regulation_name"`
	Year           string `json:"year"`
	Semester       string `json:"semester"`
}

// Details returns the auto-fill fields for the generation form.
func (s *CourseService) Details(courseID uint) (*CourseDetails, error) {
	var course models.Course
	err := s.db.Preload("Regulation").First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "course", ID: courseID}
		}
		return nil, err
	}

	return &CourseDetails{
		RegulationID:   course.RegulationID,
		RegulationName: course.Regulation.RegulationName,
		Year:           course.Year,
		Semester:       course.Semester,
	}, nil
}

// ListActive returns all active courses with their regulations, for the
// admin generation flow.
func (s *CourseService) ListActive() ([]models.Course, error) {
	var courses []models.Course
	err := s.db.Scopes(models.Active).Preload("Regulation").Find(&courses).Error
	return courses, err
}

// QuestionFilters is the selection metadata offered for one course.
type QuestionFilters struct {
	CourseOutcomes   []models.CourseOutcome   `json:"course_outcomes"`
	BloomsLevels     []models.BloomsLevel     `json:"blooms_levels"`
	DifficultyLevels []models.DifficultyLevel `json:"difficulty_levels"`
	Units            []models.Unit            `json:"units"`
}

// Filters returns the active filter metadata for a course, cached briefly in
// redis since the generation UI polls it per wizard step.
func (s *CourseService) Filters(ctx context.Context, courseID uint) (*QuestionFilters, error) {
	cacheKey := fmt.Sprintf("qp:filters:%d", courseID)

	if s.redis != nil {
		if data, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var filters QuestionFilters
			if err := json.Unmarshal([]byte(data), &filters); err == nil {
				return &filters, nil
			}
		} else if err != redis.Nil {
			log.Printf("Filter cache read failed: %v", err)
		}
	}

	filters := &QuestionFilters{}
	err := s.db.Scopes(models.Active).Where("course_id = ?", courseID).Find(&filters.CourseOutcomes).Error
	if err != nil {
		return nil, err
	}
	if err := s.db.Scopes(models.Active).Order("level_number ASC").Find(&filters.BloomsLevels).Error; err != nil {
		return nil, err
	}
	if err := s.db.Scopes(models.Active).Find(&filters.DifficultyLevels).Error; err != nil {
		return nil, err
	}
	if err := s.db.Scopes(models.Active).Order("unit_number ASC").Find(&filters.Units).Error; err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(filters); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, filterCacheTTL).Err(); err != nil {
				log.Printf("Filter cache write failed: %v", err)
			}
		}
	}

	return filters, nil
}

func (s *CourseService) facultyByUser(userID uint) (*models.Faculty, error) {
	var faculty models.Faculty
	err := s.db.Where("user_id = ?", userID).First(&faculty).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &AuthorizationError{Detail: "faculty profile not found"}
		}
		return nil, err
	}
	return &faculty, nil
}
