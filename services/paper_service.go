package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"qpgen/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Pipeline states of one generation run. COMPLETE and FAILED are terminal;
// a caller that receives FAILED must resubmit a corrected request.
const (
	StateCollecting = "COLLECTING"
	StateSelecting  = "SELECTING"
	StateRendering  = "RENDERING"
	StatePersisting = "PERSISTING"
	StateComplete   = "COMPLETE"
	StateFailed     = "FAILED"
)

const statusTTL = 24 * time.Hour

type PaperService struct {
	db          *gorm.DB
	redis       *redis.Client
	selector    *SelectionService
	renderer    *RendererService
	hub         *Hub
	institution string
}

func NewPaperService(db *gorm.DB, redisClient *redis.Client, selector *SelectionService, renderer *RendererService, hub *Hub, institution string) *PaperService {
	return &PaperService{
		db:          db,
		redis:       redisClient,
		selector:    selector,
		renderer:    renderer,
		hub:         hub,
		institution: institution,
	}
}

type GenerateRequest struct {
	CourseID        uint        `json:"course_id" binding:"required"`
	AssessmentType  string      `json:"assessment_type" binding:"required"`
	ExamDate        string      `json:"exam_date" binding:"required"`
	RegulationID    uint        `json:"regulation_id"`
	Year            string      `json:"year"`
	Semester        string      `json:"semester"`
	InstitutionName string      `json:"institution_name"`
	Instructions    []string    `json:"instructions"`
	Criteria        []Criterion `json:"criteria" binding:"required,min=1,dive"`
}

// GenerationStatus is the server-side record of a pipeline run, kept in
// redis so clients can poll it in addition to the websocket stream.
type GenerationStatus struct {
	GenerationID string `json:"generation_id"`
	CourseID     uint   `json:"course_id"`
	State        string `json:"state"`
	Detail       string `json:"detail,omitempty"`
	UpdatedAt    string `json:"updated_at"`
}

// SnapshotQuestion is one entry of the frozen question snapshot embedded in
// a GeneratedPaper row.
type SnapshotQuestion struct {
	ID              uint   `json:"id"`
	Text            string `json:"text"`
	Marks           int    `json:"marks"`
	ImageRef        string `json:"imageRef,omitempty"`
	COLabel         string `json:"coLabel"`
	BloomLabel      string `json:"bloomLabel"`
	DifficultyLabel string `json:"difficultyLabel"`
	UnitLabel       string `json:"unitLabel"`
}

// Generate runs the whole pipeline: validate, fill calendar context, select,
// render, persist. Selection failure aborts before any render work; render
// failure aborts before persistence; a persistence failure is reported but
// the rendered document is kept so persistence alone can be retried.
func (s *PaperService) Generate(generationID string, actorID uint, req *GenerateRequest) (*models.GeneratedPaper, error) {
	s.setState(generationID, req.CourseID, StateCollecting, "")

	examDate, err := time.Parse("2006-01-02", req.ExamDate)
	if err != nil {
		return nil, s.fail(generationID, req.CourseID, &ValidationError{Field: "exam_date", Detail: "expected YYYY-MM-DD"})
	}
	if !models.ValidAssessmentType(req.AssessmentType) {
		return nil, s.fail(generationID, req.CourseID, &ValidationError{Field: "assessment_type", Detail: "unknown assessment type " + req.AssessmentType})
	}

	var course models.Course
	err = s.db.Scopes(models.Active).Preload("Regulation").First(&course, req.CourseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.fail(generationID, req.CourseID, &NotFoundError{Entity: "course", ID: req.CourseID})
		}
		return nil, s.fail(generationID, req.CourseID, err)
	}

	// Calendar context defaults to the course record and the current date.
	year := req.Year
	if year == "" {
		year = course.Year
	}
	semester := req.Semester
	if semester == "" {
		semester = course.Semester
	}
	regulationID := req.RegulationID
	if regulationID == 0 {
		regulationID = course.RegulationID
	}
	academicYear := CurrentAcademicYear()

	institution := req.InstitutionName
	if institution == "" {
		institution = s.institution
	}

	s.setState(generationID, req.CourseID, StateSelecting, "")
	sel, err := s.selector.Select(req.CourseID, req.Criteria)
	if err != nil {
		return nil, s.fail(generationID, req.CourseID, err)
	}

	programID, programName := s.resolveProgram(&course, regulationID)

	header := PaperHeader{
		InstitutionName: institution,
		ProgramName:     programName,
		CourseName:      course.CourseName,
		CourseCode:      course.CourseCode,
		AssessmentType:  req.AssessmentType,
		ExamDate:        examDate,
		Year:            year,
		Semester:        semester,
		AcademicYear:    academicYear,
		Instructions:    req.Instructions,
	}

	s.setState(generationID, req.CourseID, StateRendering, "")
	pdfPath, err := s.renderer.Render(header, sel)
	if err != nil {
		return nil, s.fail(generationID, req.CourseID, err)
	}

	s.setState(generationID, req.CourseID, StatePersisting, "")
	paper, err := s.Record(header, sel, pdfPath, actorID, models.GeneratedPaper{
		ProgramID:    programID,
		CourseID:     course.ID,
		RegulationID: regulationID,
	})
	if err != nil {
		return nil, s.fail(generationID, req.CourseID, err)
	}

	s.setState(generationID, req.CourseID, StateComplete, "")
	return paper, nil
}

// Record persists exactly one immutable row for a successful render. The
// question set is frozen as JSON so the record stays valid after the live
// rows change.
func (s *PaperService) Record(header PaperHeader, sel *SelectionResult, pdfPath string, actorID uint, refs models.GeneratedPaper) (*models.GeneratedPaper, error) {
	snapshot := make([]SnapshotQuestion, 0, len(sel.Questions))
	for _, q := range sel.Questions {
		snapshot = append(snapshot, SnapshotQuestion{
			ID:              q.ID,
			Text:            q.QuestionText,
			Marks:           q.Marks,
			ImageRef:        q.ImagePath,
			COLabel:         q.CO,
			BloomLabel:      q.BloomsLevel,
			DifficultyLabel: q.DifficultyLevel,
			UnitLabel:       q.Unit,
		})
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, &PersistenceError{Detail: "could not freeze question snapshot", Err: err}
	}

	paper := models.GeneratedPaper{
		ProgramID:      refs.ProgramID,
		CourseID:       refs.CourseID,
		RegulationID:   refs.RegulationID,
		AssessmentType: header.AssessmentType,
		ExamDate:       header.ExamDate,
		Year:           header.Year,
		Semester:       header.Semester,
		AcademicYear:   header.AcademicYear,
		QuestionData:   data,
		PDFPath:        pdfPath,
		GeneratedBy:    actorID,
	}

	if err := s.db.Create(&paper).Error; err != nil {
		return nil, &PersistenceError{Detail: "could not store generation record", Err: err}
	}
	return &paper, nil
}

// ListByCourses returns the newest generation records for a set of courses.
// Scoping by course list is the authorization mechanism: admins pass any
// courses, faculty callers pass only their mapped courses.
func (s *PaperService) ListByCourses(courseIDs []uint) ([]models.GeneratedPaper, error) {
	if len(courseIDs) == 0 {
		return []models.GeneratedPaper{}, nil
	}

	var papers []models.GeneratedPaper
	err := s.db.Where("course_id IN ?", courseIDs).
		Preload("Course").
		Order("created_at DESC").
		Limit(50).
		Find(&papers).Error
	return papers, err
}

// ListForFaculty resolves the acting user's course mappings and lists records
// for those courses only.
func (s *PaperService) ListForFaculty(userID uint) ([]models.GeneratedPaper, error) {
	var faculty models.Faculty
	if err := s.db.Where("user_id = ?", userID).First(&faculty).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &AuthorizationError{Detail: "faculty profile not found"}
		}
		return nil, err
	}

	var courseIDs []uint
	err := s.db.Model(&models.FacultyCourseMapping{}).
		Scopes(models.Active).
		Where("faculty_id = ?", faculty.ID).
		Pluck("course_id", &courseIDs).Error
	if err != nil {
		return nil, err
	}

	return s.ListByCourses(courseIDs)
}

// hasCourseAccess reports whether the user's faculty profile carries an
// active mapping to the course.
func (s *PaperService) hasCourseAccess(userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.FacultyCourseMapping{}).
		Joins("JOIN faculties ON faculties.id = faculty_course_mappings.faculty_id").
		Where("faculties.user_id = ? AND faculty_course_mappings.course_id = ? AND faculty_course_mappings.is_active = ?",
			userID, courseID, true).
		Count(&count).Error
	return count > 0, err
}

// PaperForDownload resolves a generated document by file name and enforces
// the caller's course scope before handing the record back.
func (s *PaperService) PaperForDownload(userID uint, isAdmin bool, fileName string) (*models.GeneratedPaper, error) {
	var paper models.GeneratedPaper
	if err := s.db.Where("pdf_path LIKE ?", "%"+fileName).First(&paper).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "paper"}
		}
		return nil, err
	}

	if !isAdmin {
		ok, err := s.hasCourseAccess(userID, paper.CourseID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &AuthorizationError{Detail: "no access to this course's papers"}
		}
	}
	return &paper, nil
}

// StatusFor reads a pipeline status record and enforces the caller's course
// scope on it.
func (s *PaperService) StatusFor(ctx context.Context, userID uint, isAdmin bool, generationID string) (*GenerationStatus, error) {
	status, err := s.Status(ctx, generationID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && status.CourseID != 0 {
		ok, err := s.hasCourseAccess(userID, status.CourseID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &AuthorizationError{Detail: "no access to this generation"}
		}
	}
	return status, nil
}

// Status reads a pipeline status record by generation id.
func (s *PaperService) Status(ctx context.Context, generationID string) (*GenerationStatus, error) {
	if s.redis == nil {
		return nil, &NotFoundError{Entity: "generation status"}
	}

	data, err := s.redis.Get(ctx, "qp:status:"+generationID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, &NotFoundError{Entity: "generation status"}
		}
		return nil, err
	}

	var status GenerationStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// resolveProgram follows branch-course and program-branch mappings to find
// the owning program for the record header. Falls back through any mapping
// on the course's branch before giving up with program id 1.
func (s *PaperService) resolveProgram(course *models.Course, regulationID uint) (uint, string) {
	var bcMapping models.BranchCourseMapping
	err := s.db.Where("course_id = ? AND regulation_id = ?", course.ID, regulationID).
		Preload("PBMapping.Program").
		First(&bcMapping).Error
	if err == nil && bcMapping.PBMapping.ProgramID != 0 {
		return bcMapping.PBMapping.ProgramID, bcMapping.PBMapping.Program.ProgramName
	}

	var pbMapping models.ProgramBranchMapping
	err = s.db.Where("branch_id = ?", course.BranchID).
		Preload("Program").
		First(&pbMapping).Error
	if err == nil {
		return pbMapping.ProgramID, pbMapping.Program.ProgramName
	}

	log.Printf("Could not resolve program for course %d, defaulting to 1", course.ID)
	return 1, ""
}

func (s *PaperService) fail(generationID string, courseID uint, err error) error {
	s.setState(generationID, courseID, StateFailed, err.Error())
	return err
}

func (s *PaperService) setState(generationID string, courseID uint, state, detail string) {
	if generationID == "" {
		return
	}

	if s.redis != nil {
		status := GenerationStatus{
			GenerationID: generationID,
			CourseID:     courseID,
			State:        state,
			Detail:       detail,
			UpdatedAt:    time.Now().UTC().Format(time.RFC3339),
		}
		if data, err := json.Marshal(status); err == nil {
			if err := s.redis.Set(context.Background(), "qp:status:"+generationID, data, statusTTL).Err(); err != nil {
				log.Printf("Error storing generation status: %v", err)
			}
		}
	}

	if s.hub != nil {
		s.hub.BroadcastProgress(generationID, state, detail)
	}
}
