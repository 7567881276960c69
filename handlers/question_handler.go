package handlers

import (
	"net/http"
	"strconv"

	"qpgen/services"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	questionService *services.QuestionService
	courseService   *services.CourseService
}

func NewQuestionHandler(questionService *services.QuestionService, courseService *services.CourseService) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		courseService:   courseService,
	}
}

func (h *QuestionHandler) ListByCourse(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	courseID, err := strconv.ParseUint(c.Param("courseId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course ID"})
		return
	}

	if !h.ensureCourseAccess(c, userID, uint(courseID)) {
		return
	}

	questions, err := h.questionService.ListByCourse(uint(courseID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

func (h *QuestionHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.ensureCourseAccess(c, userID, req.CourseID) {
		return
	}

	question, err := h.questionService.Create(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

func (h *QuestionHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	questionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question ID"})
		return
	}

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.questionService.Update(uint(questionID), userID, isAdmin(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) ToggleStatus(c *gin.Context) {
	questionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question ID"})
		return
	}

	question, err := h.questionService.ToggleStatus(uint(questionID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// BulkImport ingests a CSV file of questions; bad rows are reported back
// without aborting the rest of the file.
func (h *QuestionHandler) BulkImport(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}
	defer file.Close()

	result, err := h.questionService.BulkImport(userID, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *QuestionHandler) ensureCourseAccess(c *gin.Context, userID, courseID uint) bool {
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
