package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"

	"qpgen/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaperHandler struct {
	paperService     *services.PaperService
	selectionService *services.SelectionService
	courseService    *services.CourseService
}

func NewPaperHandler(paperService *services.PaperService, selectionService *services.SelectionService, courseService *services.CourseService) *PaperHandler {
	return &PaperHandler{
		paperService:     paperService,
		selectionService: selectionService,
		courseService:    courseService,
	}
}

type selectQuestionsRequest struct {
	CourseID uint                 `json:"course_id" binding:"required"`
	Criteria []services.Criterion `json:"criteria" binding:"required,min=1,dive"`
}

// SelectQuestions runs the criterion draw alone so the caller can preview
// and re-roll the paper before committing to a render.
func (h *PaperHandler) SelectQuestions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req selectQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.ensureCourseAccess(c, userID, req.CourseID) {
		return
	}

	result, err := h.selectionService.Select(req.CourseID, req.Criteria)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Generate runs the full pipeline and returns the persisted record together
// with the generation id its progress was broadcast under.
func (h *PaperHandler) Generate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.ensureCourseAccess(c, userID, req.CourseID) {
		return
	}

	generationID := uuid.NewString()
	paper, err := h.paperService.Generate(generationID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"generation_id": generationID,
		"paper":         paper,
	})
}

// History lists generation records scoped to the acting faculty's courses.
func (h *PaperHandler) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	papers, err := h.paperService.ListForFaculty(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, papers)
}

// ListByCourse lists generation records for one course (admin scope).
func (h *PaperHandler) ListByCourse(c *gin.Context) {
	courseID, err := strconv.ParseUint(c.Param("courseId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course ID"})
		return
	}

	papers, err := h.paperService.ListByCourses([]uint{uint(courseID)})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, papers)
}

// Status reports the pipeline state record of a generation run, scoped to
// the caller's courses.
func (h *PaperHandler) Status(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status, err := h.paperService.StatusFor(c.Request.Context(), userID, isAdmin(c), c.Param("generationId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Download serves a generated document after checking the caller's course
// scope. File names never act as paths; only the base name is looked up.
func (h *PaperHandler) Download(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	name := filepath.Base(c.Param("filename"))
	paper, err := h.paperService.PaperForDownload(userID, isAdmin(c), name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.FileAttachment(paper.PDFPath, name)
}

// AcademicContext returns the calendar labels the generation form is
// pre-filled with.
func (h *PaperHandler) AcademicContext(c *gin.Context) {
	back, forward := 5, 2
	if n, err := strconv.Atoi(c.DefaultQuery("back", "5")); err == nil && n >= 0 {
		back = n
	}
	if n, err := strconv.Atoi(c.DefaultQuery("forward", "2")); err == nil && n >= 0 {
		forward = n
	}

	c.JSON(http.StatusOK, gin.H{
		"academic_year": services.CurrentAcademicYear(),
		"semester":      services.CurrentSemester(),
		"range":         services.AcademicYearRange(back, forward),
	})
}

func (h *PaperHandler) ensureCourseAccess(c *gin.Context, userID, courseID uint) bool {
	if isAdmin(c) {
		return true
	}

	hasAccess, err := h.courseService.HasCourseAccess(userID, courseID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this course"})
		return false
	}
	return true
}
