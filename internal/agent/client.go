package agent

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brightmind-edu/tutor-journey-service/internal/auth"
	"github.com/brightmind-edu/tutor-journey-service/internal/models"
	"github.com/brightmind-edu/tutor-journey-service/internal/utils"
)

var (
	// ErrAgentUnavailable wraps transport-level failures reaching the agent.
	ErrAgentUnavailable = errors.New("tutoring agent unavailable")
	// ErrAgentRejected means the agent answered but reported failure.
	ErrAgentRejected = errors.New("tutoring agent rejected request")
	// ErrMalformedResponse means an expected content field was missing for
	// the requested action. Handled like any other load failure.
	ErrMalformedResponse = errors.New("malformed agent response")
)

// sessionIDMinLength is the minimum length the agent accepts for the session
// identifier header; shorter derived IDs are padded with random hex.
const sessionIDMinLength = 33

const sessionHeader = "X-Session-Id"

// Client is the request surface of the remote tutoring agent. The agent is a
// black box reached over HTTP POST; it owns all content generation and all
// adaptive decisions.
type Client interface {
	RequestDiagnostic(ctx context.Context, subject string) (*Response, error)
	CompleteDiagnostic(ctx context.Context, result DiagnosticResult) (*Response, error)
	RequestSection(ctx context.Context, planID string, sectionIndex int, previous *models.SectionPerformance) (*Response, error)
	RequestSectionQuiz(ctx context.Context, planID string, sectionIndex int) (*Response, error)
	CompleteSection(ctx context.Context, performance models.SectionPerformance, xpEarned int) (*Response, error)
	CompleteLesson(ctx context.Context, lessonID string, sectionIndex, timeSpentSeconds int) (*Response, error)
	SaveOnboarding(ctx context.Context, profile map[string]any) (*Response, error)
	SendPrompt(ctx context.Context, prompt string) (*Response, error)
}

// DiagnosticResult is the locally computed evaluation posted back after a
// diagnostic quiz. The quiz ID ties it to the quiz the agent issued.
type DiagnosticResult struct {
	QuizID          string                    `json:"quiz_id"`
	Subject         string                    `json:"subject"`
	CorrectAnswers  int                       `json:"correct_answers"`
	TotalQuestions  int                       `json:"total_questions"`
	ScorePercentage float64                   `json:"score_percentage"`
	Feedback        []models.QuestionFeedback `json:"feedback"`
}

type httpClient struct {
	endpoint string
	http     *http.Client
	provider auth.Provider
	logger   utils.Logger
}

// NewHTTPClient creates a client for the configured agent endpoint URL.
func NewHTTPClient(endpoint string, provider auth.Provider, logger utils.Logger) Client {
	return &httpClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 90 * time.Second},
		provider: provider,
		logger:   logger,
	}
}

func (c *httpClient) RequestDiagnostic(ctx context.Context, subject string) (*Response, error) {
	resp, err := c.do(ctx, Request{
		Action: ActionRequestDiagnostic,
		Data:   map[string]any{"subject": subject},
	})
	if err != nil {
		return nil, err
	}
	if resp.QuizContent == nil {
		return nil, fmt.Errorf("%w: no quiz content for %s", ErrMalformedResponse, ActionRequestDiagnostic)
	}
	return resp, nil
}

func (c *httpClient) CompleteDiagnostic(ctx context.Context, result DiagnosticResult) (*Response, error) {
	resp, err := c.do(ctx, Request{
		Action: ActionDiagnosticComplete,
		Data: map[string]any{
			"quiz_id":          result.QuizID,
			"subject":          result.Subject,
			"correct_answers":  result.CorrectAnswers,
			"total_questions":  result.TotalQuestions,
			"score_percentage": result.ScorePercentage,
			"feedback":         result.Feedback,
		},
	})
	if err != nil {
		return nil, err
	}
	if resp.LessonPlan == nil {
		return nil, fmt.Errorf("%w: no lesson plan for %s", ErrMalformedResponse, ActionDiagnosticComplete)
	}
	return resp, nil
}

func (c *httpClient) RequestSection(ctx context.Context, planID string, sectionIndex int, previous *models.SectionPerformance) (*Response, error) {
	data := map[string]any{
		"plan_id":       planID,
		"section_index": sectionIndex,
	}
	if previous != nil {
		data["previous_performance"] = previous
	}
	resp, err := c.do(ctx, Request{Action: ActionRequestSection, Data: data})
	if err != nil {
		return nil, err
	}
	if resp.LessonContent == nil || (resp.QuizContent == nil && resp.SectionQuiz == nil) {
		return nil, fmt.Errorf("%w: incomplete section content for %s", ErrMalformedResponse, ActionRequestSection)
	}
	return resp, nil
}

func (c *httpClient) RequestSectionQuiz(ctx context.Context, planID string, sectionIndex int) (*Response, error) {
	resp, err := c.do(ctx, Request{
		Action: ActionRequestSectionQuiz,
		Data: map[string]any{
			"plan_id":       planID,
			"section_index": sectionIndex,
		},
	})
	if err != nil {
		return nil, err
	}
	if resp.QuizContent == nil {
		return nil, fmt.Errorf("%w: no quiz content for %s", ErrMalformedResponse, ActionRequestSectionQuiz)
	}
	return resp, nil
}

func (c *httpClient) CompleteSection(ctx context.Context, performance models.SectionPerformance, xpEarned int) (*Response, error) {
	return c.do(ctx, Request{
		Action: ActionSectionComplete,
		Data: map[string]any{
			"performance": performance,
			"xp_earned":   xpEarned,
		},
	})
}

func (c *httpClient) CompleteLesson(ctx context.Context, lessonID string, sectionIndex, timeSpentSeconds int) (*Response, error) {
	return c.do(ctx, Request{
		Action: ActionCompleteLesson,
		Data: map[string]any{
			"lesson_id":          lessonID,
			"section_index":      sectionIndex,
			"time_spent_seconds": timeSpentSeconds,
		},
	})
}

func (c *httpClient) SaveOnboarding(ctx context.Context, profile map[string]any) (*Response, error) {
	return c.do(ctx, Request{Action: ActionSaveOnboarding, Data: profile})
}

func (c *httpClient) SendPrompt(ctx context.Context, prompt string) (*Response, error) {
	return c.do(ctx, Request{Prompt: prompt})
}

// do issues one POST to the agent endpoint with auth and session headers.
func (c *httpClient) do(ctx context.Context, req Request) (*Response, error) {
	identity, err := c.provider.Identity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire access token: %w", err)
	}
	if req.StudentID == "" {
		req.StudentID = identity.StudentID
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build agent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+identity.Token)
	httpReq.Header.Set(sessionHeader, sessionID(identity.StudentID))

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrAgentUnavailable, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAgentUnavailable, httpResp.StatusCode)
	}

	resp, err := decodeResponse(respBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", ErrAgentRejected, resp.ErrorMessage)
	}

	c.logger.Debug("Agent request completed",
		"action", req.Action,
		"action_type", resp.ActionType,
		"duration", time.Since(start).String())

	return resp, nil
}

// sessionID derives the session identifier header from the student identity,
// padding with random hex when the derived value is too short.
func sessionID(studentID string) string {
	id := "tutor-session-" + studentID
	if len(id) >= sessionIDMinLength {
		return id
	}
	pad := make([]byte, (sessionIDMinLength-len(id)+1)/2)
	if _, err := rand.Read(pad); err != nil {
		// Deterministic fallback keeps the header usable.
		return id + "-0000000000000000000000000000000000"[:sessionIDMinLength-len(id)]
	}
	return id + hex.EncodeToString(pad)
}
