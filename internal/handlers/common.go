package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brightmind-edu/tutor-journey-service/internal/agent"
	"github.com/brightmind-edu/tutor-journey-service/internal/auth"
	apperrors "github.com/brightmind-edu/tutor-journey-service/internal/errors"
	"github.com/brightmind-edu/tutor-journey-service/internal/services"
	"github.com/brightmind-edu/tutor-journey-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and response functionality
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{Message: message}
	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil {
		h.logger.LogError(err, message,
			"status_code", statusCode,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"student_id", StudentID(c))
	}

	c.JSON(statusCode, errorResp)
}

// RespondWithSuccess sends a consistent success response
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{Message: message, Data: data})
}

// RespondWithServiceError maps a service error to the right HTTP status.
func (h *BaseHandler) RespondWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrContentNotReady):
		// The client should retry shortly; the prefetch has not landed yet.
		c.JSON(http.StatusAccepted, gin.H{
			"status":  "pending",
			"message": "Content is still being prepared, try again shortly",
		})
	case errors.Is(err, services.ErrInvalidStage):
		h.RespondWithError(c, http.StatusConflict, "Operation not valid in current stage", err, stageErrorDetails(err))
	case errors.Is(err, services.ErrQuizIncomplete),
		errors.Is(err, services.ErrAnswerCountMismatch),
		errors.Is(err, services.ErrEmptyQuiz):
		h.RespondWithError(c, http.StatusBadRequest, "Invalid quiz submission", err)
	case errors.Is(err, services.ErrQuizAlreadyScored):
		h.RespondWithError(c, http.StatusConflict, "Quiz already evaluated", err)
	case errors.Is(err, services.ErrNoActiveQuiz),
		errors.Is(err, services.ErrNoActiveLesson),
		errors.Is(err, services.ErrNoLessonPlan):
		h.RespondWithError(c, http.StatusConflict, "Required journey content missing", err)
	case errors.Is(err, agent.ErrAgentUnavailable),
		errors.Is(err, agent.ErrAgentRejected),
		errors.Is(err, agent.ErrMalformedResponse):
		h.RespondWithError(c, http.StatusBadGateway, "Tutoring agent request failed", err)
	default:
		var validationErrs apperrors.ValidationErrors
		if errors.As(err, &validationErrs) {
			h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, validationErrs)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

func stageErrorDetails(err error) interface{} {
	var stageErr *services.StageError
	if errors.As(err, &stageErr) {
		return gin.H{
			"stage":          stageErr.Stage,
			"allowed_stages": stageErr.Allowed,
		}
	}
	return nil
}

// ===== AUTH MIDDLEWARE =====

const studentIDKey = "student_id"

// StudentID returns the authenticated student ID set by AuthMiddleware.
func StudentID(c *gin.Context) string {
	if id, exists := c.Get(studentIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// AuthMiddleware verifies the bearer token on every request and stores the
// resolved student identity in the request context.
func AuthMiddleware(verifier auth.Verifier, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Warn("Token verification failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set(studentIDKey, identity.StudentID)
		c.Next()
	}
}
