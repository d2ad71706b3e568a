package agent

import (
	"encoding/json"

	"github.com/brightmind-edu/tutor-journey-service/internal/models"
)

// ActionType identifies what kind of response the tutoring agent returned.
type ActionType string

const (
	ActionPresentLesson    ActionType = "present_lesson"
	ActionPresentQuiz      ActionType = "present_quiz"
	ActionShowFeedback     ActionType = "show_feedback"
	ActionAwardAchievement ActionType = "award_achievement"
	ActionShowProgress     ActionType = "show_progress"
	ActionConversation     ActionType = "conversation"
)

// ResponseStatus is the agent's own status code for a response.
type ResponseStatus string

const (
	StatusSuccess         ResponseStatus = "success"
	StatusPartialSuccess  ResponseStatus = "partial_success"
	StatusValidationError ResponseStatus = "validation_error"
	StatusNotFound        ResponseStatus = "not_found"
	StatusUnauthorized    ResponseStatus = "unauthorized"
	StatusToolError       ResponseStatus = "tool_error"
	StatusSystemError     ResponseStatus = "system_error"
)

// Structured actions the client can request from the agent.
const (
	ActionRequestDiagnostic  = "request_diagnostic"
	ActionDiagnosticComplete = "diagnostic_complete"
	ActionRequestSection     = "request_section"
	ActionRequestSectionQuiz = "request_section_quiz"
	ActionSectionComplete    = "section_complete"
	ActionCompleteLesson     = "complete_lesson"
	ActionSaveOnboarding     = "save_onboarding"
)

// Request is the JSON body POSTed to the agent endpoint: either a free-text
// prompt or a structured action with a data payload.
type Request struct {
	Prompt    string         `json:"prompt,omitempty"`
	Action    string         `json:"action,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	StudentID string         `json:"student_id,omitempty"`
}

// Response is the agent's response envelope. Exactly one content field is
// populated per action type; TutorMessage is always present.
type Response struct {
	ActionType     ActionType     `json:"action_type"`
	ResponseStatus ResponseStatus `json:"response_status"`

	LessonContent  *models.LessonContent  `json:"lesson_content,omitempty"`
	QuizContent    *models.Quiz           `json:"quiz_content,omitempty"`
	SectionQuiz    *models.Quiz           `json:"section_quiz,omitempty"`
	LessonPlan     *models.LessonPlan     `json:"lesson_plan,omitempty"`
	Achievement    *models.Achievement    `json:"achievement,omitempty"`
	ProgressUpdate *models.ProgressUpdate `json:"progress_update,omitempty"`

	TutorMessage string `json:"tutor_message"`
	Message      string `json:"message,omitempty"`

	StudentCanProceed bool `json:"student_can_proceed"`
	IsFinalResponse   bool `json:"is_final_response"`

	Success        bool    `json:"success"`
	ErrorMessage   string  `json:"error_message,omitempty"`
	ProcessingTime float64 `json:"processing_time_seconds"`
}

// envelope handles agent deployments that wrap the response under a key.
type envelope struct {
	Response *json.RawMessage `json:"response,omitempty"`
	Result   *json.RawMessage `json:"result,omitempty"`
}

// decodeResponse unwraps an optional envelope key and decodes the response.
func decodeResponse(body []byte) (*Response, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Response != nil {
			body = *env.Response
		} else if env.Result != nil {
			body = *env.Result
		}
	}
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
