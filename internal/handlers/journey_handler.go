package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/brightmind-edu/tutor-journey-service/internal/models"
	"github.com/brightmind-edu/tutor-journey-service/internal/reports"
	"github.com/brightmind-edu/tutor-journey-service/internal/services"
	"github.com/brightmind-edu/tutor-journey-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== REQUEST STRUCTURES =====

// ChooseSubjectRequest starts (or restarts) a journey for a subject.
type ChooseSubjectRequest struct {
	Subject string `json:"subject" validate:"required,min=1,max=200"`
}

// AnswerPayload is one submitted answer. Value accepts either a JSON string
// or a JSON array, matching the shape the question type expects.
type AnswerPayload struct {
	QuestionType models.QuestionType `json:"question_type" validate:"required,question_type"`
	Value        models.AnswerKey    `json:"value"`
}

// SubmitQuizRequest carries the full answer set for the active quiz, in
// question order.
type SubmitQuizRequest struct {
	Answers []AnswerPayload `json:"answers" validate:"required,min=1,dive"`
}

// OnboardingRequest is the free-form onboarding profile forwarded to the
// agent.
type OnboardingRequest struct {
	Profile map[string]any `json:"profile" validate:"required"`
}

// ===== JOURNEY HANDLER =====

type JourneyHandler struct {
	BaseHandler
	manager   *services.JourneyManager
	exporter  *reports.Exporter
	validator *utils.Validator
}

func NewJourneyHandler(manager *services.JourneyManager, exporter *reports.Exporter, validator *utils.Validator, logger utils.Logger) *JourneyHandler {
	return &JourneyHandler{
		BaseHandler: NewBaseHandler(logger),
		manager:     manager,
		exporter:    exporter,
		validator:   validator,
	}
}

func (h *JourneyHandler) journey(c *gin.Context) *services.Journey {
	return h.manager.Journey(StudentID(c))
}

// GetState returns the current journey envelope without side effects.
func (h *JourneyHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.journey(c).State())
}

// ChooseSubject starts a journey with a diagnostic quiz.
func (h *JourneyHandler) ChooseSubject(c *gin.Context) {
	var req ChooseSubjectRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.journey(c).ChooseSubject(c.Request.Context(), req.Subject)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SwitchSubject abandons the current journey and starts a new one.
func (h *JourneyHandler) SwitchSubject(c *gin.Context) {
	var req ChooseSubjectRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.journey(c).SwitchSubject(c.Request.Context(), req.Subject)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitQuiz scores the active quiz from the submitted answers.
func (h *JourneyHandler) SubmitQuiz(c *gin.Context) {
	var req SubmitQuizRequest
	if !h.bind(c, &req) {
		return
	}

	answers := make([]models.StudentAnswer, len(req.Answers))
	for i, payload := range req.Answers {
		answers[i] = payload.toStudentAnswer()
	}

	resp, err := h.journey(c).SubmitQuiz(c.Request.Context(), answers)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// NextQuestion advances the question pointer within the active quiz.
func (h *JourneyHandler) NextQuestion(c *gin.Context) {
	resp, err := h.journey(c).NextQuestion()
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Continue moves the journey forward from a results or summary stage.
func (h *JourneyHandler) Continue(c *gin.Context) {
	resp, err := h.journey(c).Continue(c.Request.Context())
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// FinishLesson moves from a section lesson to its quiz.
func (h *JourneyHandler) FinishLesson(c *gin.Context) {
	resp, err := h.journey(c).FinishLesson(c.Request.Context())
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// FinishJourney closes out a completed journey.
func (h *JourneyHandler) FinishJourney(c *gin.Context) {
	resp, err := h.journey(c).FinishJourney(c.Request.Context())
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SaveOnboarding forwards the onboarding profile to the agent.
func (h *JourneyHandler) SaveOnboarding(c *gin.Context) {
	var req OnboardingRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.journey(c).SaveOnboarding(c.Request.Context(), req.Profile)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProgress returns the cumulative progress snapshot.
func (h *JourneyHandler) GetProgress(c *gin.Context) {
	c.JSON(http.StatusOK, h.journey(c).Progress(c.Request.Context()))
}

// GetRecentAchievements returns badges earned since the last call.
func (h *JourneyHandler) GetRecentAchievements(c *gin.Context) {
	achievements := h.journey(c).RecentAchievements()
	if achievements == nil {
		achievements = []models.Achievement{}
	}
	c.JSON(http.StatusOK, gin.H{"achievements": achievements})
}

// ExportProgressReport streams an Excel progress report.
func (h *JourneyHandler) ExportProgressReport(c *gin.Context) {
	studentID := StudentID(c)
	progress := h.journey(c).Progress(c.Request.Context())

	data, err := h.exporter.ExportProgressReport(c.Request.Context(), studentID, progress)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to build progress report", err)
		return
	}

	filename := fmt.Sprintf("progress-report-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// bind decodes and validates a request body, responding on failure.
func (h *JourneyHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validator.Validate(req); err != nil {
		h.RespondWithServiceError(c, err)
		return false
	}
	return true
}

func (p AnswerPayload) toStudentAnswer() models.StudentAnswer {
	if p.QuestionType.IsScalar() {
		return models.TextAnswer(p.QuestionType, p.Value.Value)
	}
	if p.Value.IsList() {
		return models.ListAnswer(p.QuestionType, p.Value.Values...)
	}
	// A scalar value for a collection question keeps its shape; the
	// comparator will reject the mismatch rather than guess.
	return models.StudentAnswer{Kind: p.QuestionType, Items: nil, Text: p.Value.Value}
}
