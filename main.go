package main

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"qpgen/config"
	"qpgen/handlers"
	"qpgen/middleware"
	"qpgen/models"
	"qpgen/routes"
	"qpgen/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Faculty{},
		&models.Program{},
		&models.Branch{},
		&models.Regulation{},
		&models.ProgramBranchMapping{},
		&models.BranchCourseMapping{},
		&models.FacultyCourseMapping{},
		&models.Course{},
		&models.CourseOutcome{},
		&models.BloomsLevel{},
		&models.DifficultyLevel{},
		&models.Unit{},
		&models.Question{},
		&models.GeneratedPaper{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize services
	emailService := services.NewEmailService(cfg.SendgridAPIKey, cfg.EmailFrom)
	authService := services.NewAuthService(db, cfg.JWTSecret, emailService)
	selectionService := services.NewSelectionService(db)
	pdfDir := filepath.Join(cfg.UploadDir, "qp")
	rendererService := services.NewRendererService(pdfDir, cfg.RenderWorkers, time.Duration(cfg.RenderTimeoutMS)*time.Millisecond)
	questionService := services.NewQuestionService(db)
	courseService := services.NewCourseService(db, redisClient)

	aiService, err := services.NewAIService(context.Background(), db, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize AI client:", err)
	}
	defer aiService.Close()

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	paperService := services.NewPaperService(db, redisClient, selectionService, rendererService, hub, cfg.InstitutionName)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	courseHandler := handlers.NewCourseHandler(courseService)
	questionHandler := handlers.NewQuestionHandler(questionService, courseService)
	paperHandler := handlers.NewPaperHandler(paperService, selectionService, courseService)
	aiHandler := handlers.NewAIHandler(aiService, courseService)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, authHandler, courseHandler, questionHandler, paperHandler, aiHandler, hub, paperService, cfg.JWTSecret)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.BindAddress + ":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
