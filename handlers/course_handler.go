package handlers

import (
	"net/http"
	"strconv"

	"qpgen/services"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	courseService *services.CourseService
}

func NewCourseHandler(courseService *services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// MyCourses lists the courses mapped to the acting faculty member.
func (h *CourseHandler) MyCourses(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	courses, err := h.courseService.CoursesForFaculty(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// ListCourses lists all active courses, for the admin generation flow.
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courseService.ListActive()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// Details returns the auto-fill fields for the generation form.
func (h *CourseHandler) Details(c *gin.Context) {
	courseID, err := strconv.ParseUint(c.Param("courseId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course ID"})
		return
	}

	details, err := h.courseService.Details(uint(courseID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// QuestionFilters returns the selection metadata for a course.
func (h *CourseHandler) QuestionFilters(c *gin.Context) {
	courseID, err := strconv.ParseUint(c.Param("courseId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course ID"})
		return
	}

	filters, err := h.courseService.Filters(c.Request.Context(), uint(courseID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, filters)
}
