package handlers

import (
	"github.com/brightmind-edu/tutor-journey-service/internal/auth"
	"github.com/brightmind-edu/tutor-journey-service/internal/reports"
	"github.com/brightmind-edu/tutor-journey-service/internal/services"
	"github.com/brightmind-edu/tutor-journey-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	journeyHandler *JourneyHandler
	verifier       auth.Verifier
	logger         utils.Logger
}

func NewHandlerManager(
	manager *services.JourneyManager,
	exporter *reports.Exporter,
	verifier auth.Verifier,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		journeyHandler: NewJourneyHandler(manager, exporter, validator, logger),
		verifier:       verifier,
		logger:         logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "tutor-journey-service",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.verifier, hm.logger))
	{
		journey := v1.Group("/journey")
		{
			journey.GET("", hm.journeyHandler.GetState)
			journey.POST("/subject", hm.journeyHandler.ChooseSubject)
			journey.POST("/subject/switch", hm.journeyHandler.SwitchSubject)
			journey.POST("/quiz/submit", hm.journeyHandler.SubmitQuiz)
			journey.POST("/quiz/next", hm.journeyHandler.NextQuestion)
			journey.POST("/continue", hm.journeyHandler.Continue)
			journey.POST("/lesson/finish", hm.journeyHandler.FinishLesson)
			journey.POST("/finish", hm.journeyHandler.FinishJourney)
		}

		v1.POST("/onboarding", hm.journeyHandler.SaveOnboarding)

		progress := v1.Group("/progress")
		{
			progress.GET("", hm.journeyHandler.GetProgress)
			progress.GET("/report", hm.journeyHandler.ExportProgressReport)
		}

		v1.GET("/achievements/recent", hm.journeyHandler.GetRecentAchievements)
	}
}
