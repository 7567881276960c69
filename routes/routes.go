package routes

import (
	"errors"
	"log"
	"net/http"

	"qpgen/handlers"
	"qpgen/middleware"
	"qpgen/models"
	"qpgen/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	courseHandler *handlers.CourseHandler,
	questionHandler *handlers.QuestionHandler,
	paperHandler *handlers.PaperHandler,
	aiHandler *handlers.AIHandler,
	hub *services.Hub,
	paperService *services.PaperService,
	jwtSecret string,
) {
	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			protected.GET("/auth/profile", authHandler.GetProfile)
			protected.POST("/auth/change-password", authHandler.ChangePassword)

			protected.GET("/academic-context", paperHandler.AcademicContext)

			// Course routes
			courses := protected.Group("/courses")
			{
				courses.GET("/mine", courseHandler.MyCourses)
				courses.GET("/:courseId", courseHandler.Details)
				courses.GET("/:courseId/filters", courseHandler.QuestionFilters)
				courses.GET("/:courseId/questions", questionHandler.ListByCourse)
			}

			// Question bank routes
			questions := protected.Group("/questions")
			{
				questions.POST("", questionHandler.Create)
				questions.PUT("/:id", questionHandler.Update)
				questions.PATCH("/:id/status", questionHandler.ToggleStatus)
				questions.POST("/import", questionHandler.BulkImport)
			}

			// Paper generation routes
			papers := protected.Group("/papers")
			{
				papers.POST("/select", paperHandler.SelectQuestions)
				papers.POST("/generate", paperHandler.Generate)
				papers.GET("/history", paperHandler.History)
				papers.GET("/status/:generationId", paperHandler.Status)
				papers.GET("/download/:filename", paperHandler.Download)
			}

			// AI drafting routes
			ai := protected.Group("/ai")
			{
				ai.POST("/drafts", aiHandler.GenerateDrafts)
				ai.POST("/drafts/save", aiHandler.SaveDrafts)
			}

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/faculty", authHandler.CreateFaculty)
				admin.GET("/courses", courseHandler.ListCourses)
				admin.GET("/courses/:courseId/papers", paperHandler.ListByCourse)
			}
		}
	}

	// WebSocket endpoint for generation progress updates
	router.GET("/ws/generations/:generationId", func(c *gin.Context) {
		generationID := c.Param("generationId")
		token := c.Query("token")

		userID, userType, err := middleware.ParseToken(jwtSecret, token)
		if err != nil {
			log.Printf("WebSocket auth failed for generation %s: %v", generationID, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// Subscriptions are scoped like the paper routes: the generation's
		// course must be mapped to the caller.
		isAdmin := userType == models.UserTypeAdmin
		if _, err := paperService.StatusFor(c.Request.Context(), userID, isAdmin, generationID); err != nil {
			var notFoundErr *services.NotFoundError
			if !errors.As(err, &notFoundErr) {
				log.Printf("WebSocket access denied for generation %s, user %d: %v", generationID, userID, err)
				c.JSON(http.StatusForbidden, gin.H{"error": "No access to this generation"})
				return
			}
			// No status record yet; nothing has been broadcast under this id.
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for generation %s, user %d: %v", generationID, userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
			return
		}

		hub.RegisterClient(conn, generationID, userID)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
