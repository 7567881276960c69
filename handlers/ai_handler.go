package handlers

import (
	"net/http"

	"qpgen/services"

	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	aiService     *services.AIService
	courseService *services.CourseService
}

func NewAIHandler(aiService *services.AIService, courseService *services.CourseService) *AIHandler {
	return &AIHandler{aiService: aiService, courseService: courseService}
}

type saveDraftsRequest struct {
	services.AIGenerateRequest
	Drafts []services.AIDraftQuestion `json:"drafts" binding:"required,min=1,dive"`
}

// GenerateDrafts asks the model for question drafts without touching the
// question bank. Faculty review the drafts before saving.
func (h *AIHandler) GenerateDrafts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if !h.aiService.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI question generation is not configured"})
		return
	}

	var req services.AIGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.ensureCourseAccess(c, userID, req.CourseID) {
		return
	}

	drafts, err := h.aiService.GenerateDrafts(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

// SaveDrafts files reviewed drafts into the question bank.
func (h *AIHandler) SaveDrafts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req saveDraftsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.ensureCourseAccess(c, userID, req.CourseID) {
		return
	}

	saved, err := h.aiService.SaveDrafts(userID, &req.AIGenerateRequest, req.Drafts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"questions": saved})
}

func (h *AIHandler) ensureCourseAccess(c *gin.Context, userID, courseID uint) bool {
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
