package services

import (
	"sort"
	"sync"
	"time"

	"github.com/brightmind-edu/tutor-journey-service/internal/models"
)

// SessionState holds one student's in-memory journey position: current
// lesson, current quiz, question pointer, last evaluation and the
// section-tracking fields. It is owned by the composition root and injected
// into the orchestrator; nothing here survives a restart by design —
// cumulative progress is re-synchronized from the agent's persisted store.
//
// Loading new content always fully replaces old content, never merges with
// it, so a stale question can never be paired with a fresh answer set.
type SessionState struct {
	mu sync.RWMutex

	stage   models.JourneyStage
	subject string
	epoch   uint64

	lesson          *models.LessonContent
	lessonStartedAt time.Time
	quiz            *models.Quiz
	questionIndex   int
	lastEvaluation  *models.QuizEvaluation

	diagnosticQuizID string
	plan             *models.LessonPlan

	sectionIndex      int
	completedSections map[int]struct{}
	preloaded         *models.SectionContent
	performance       map[int]models.SectionPerformance
}

func NewSessionState() *SessionState {
	return &SessionState{
		stage:             models.StageSubjectSelection,
		completedSections: make(map[int]struct{}),
		performance:       make(map[int]models.SectionPerformance),
	}
}

// Epoch identifies the current journey incarnation. Every reset bumps it;
// async results carrying a stale epoch must be discarded.
func (s *SessionState) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *SessionState) Stage() models.JourneyStage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

func (s *SessionState) SetStage(stage models.JourneyStage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = stage
}

func (s *SessionState) Subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subject
}

func (s *SessionState) SetSubject(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subject = subject
}

// SetLesson installs a lesson and starts its reading clock.
func (s *SessionState) SetLesson(lesson *models.LessonContent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lesson = lesson
	s.lessonStartedAt = time.Now()
}

func (s *SessionState) CurrentLesson() *models.LessonContent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lesson
}

// LessonTimeSpent returns seconds since the current lesson was installed.
func (s *SessionState) LessonTimeSpent() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lesson == nil || s.lessonStartedAt.IsZero() {
		return 0
	}
	return int(time.Since(s.lessonStartedAt).Seconds())
}

// SetQuiz installs a quiz, resetting the question pointer and clearing any
// prior feedback.
func (s *SessionState) SetQuiz(quiz *models.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quiz = quiz
	s.questionIndex = 0
	s.lastEvaluation = nil
}

func (s *SessionState) CurrentQuiz() *models.Quiz {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quiz
}

func (s *SessionState) QuestionIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questionIndex
}

// AdvanceQuestion moves the single-question navigation pointer forward.
// No-op at the last question.
func (s *SessionState) AdvanceQuestion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiz != nil && s.questionIndex < len(s.quiz.Questions)-1 {
		s.questionIndex++
	}
	return s.questionIndex
}

func (s *SessionState) SetEvaluation(eval *models.QuizEvaluation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEvaluation = eval
}

func (s *SessionState) LastEvaluation() *models.QuizEvaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastEvaluation
}

// SetDiagnosticQuizID retains the diagnostic quiz identifier across the
// results stage; the follow-up diagnostic_complete call must reference it.
func (s *SessionState) SetDiagnosticQuizID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnosticQuizID = id
}

func (s *SessionState) DiagnosticQuizID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diagnosticQuizID
}

func (s *SessionState) SetPlan(plan *models.LessonPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = plan
}

func (s *SessionState) Plan() *models.LessonPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

func (s *SessionState) SectionIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sectionIndex
}

// MarkSectionComplete records a finished section. Idempotent: marking an
// already-complete section is a no-op.
func (s *SessionState) MarkSectionComplete(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completedSections[index] = struct{}{}
}

func (s *SessionState) CompletedSections() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	indices := make([]int, 0, len(s.completedSections))
	for i := range s.completedSections {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

func (s *SessionState) SetPreloadedSection(content *models.SectionContent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preloaded = content
}

func (s *SessionState) PreloadedSection() *models.SectionContent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preloaded
}

// AdvanceToNextSection moves the journey past the current section. At the
// last section it transitions to the overall summary without touching the
// index — the index never reaches TotalJourneySections. Otherwise it
// consumes the preloaded payload, installs its lesson and quiz, clears it,
// and resets the per-stage pointers.
func (s *SessionState) AdvanceToNextSection() (models.JourneyStage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sectionIndex >= models.TotalJourneySections-1 {
		s.stage = models.StageOverallSummary
		s.preloaded = nil
		return s.stage, nil
	}

	if s.preloaded == nil {
		return s.stage, ErrContentNotReady
	}

	content := s.preloaded
	s.preloaded = nil
	s.sectionIndex++
	s.lesson = content.Lesson
	s.lessonStartedAt = time.Now()
	s.quiz = content.Quiz
	s.questionIndex = 0
	s.lastEvaluation = nil
	s.stage = models.StageSectionLesson
	return s.stage, nil
}

// RecordSectionPerformance stores the score snapshot for a section.
func (s *SessionState) RecordSectionPerformance(perf models.SectionPerformance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.performance[perf.SectionIndex] = perf
}

func (s *SessionState) SectionPerformance(index int) (models.SectionPerformance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perf, ok := s.performance[index]
	return perf, ok
}

func (s *SessionState) AllSectionPerformance() map[int]models.SectionPerformance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]models.SectionPerformance, len(s.performance))
	for k, v := range s.performance {
		out[k] = v
	}
	return out
}

// Reset clears everything back to subject selection. Cumulative progress
// lives in the ProgressTracker and is not touched here.
func (s *SessionState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.subject = ""
}

// ResetForSubjectSwitch clears all journey state so a new subject starts
// clean, keeping nothing from the previous journey.
func (s *SessionState) ResetForSubjectSwitch(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.subject = subject
}

func (s *SessionState) resetLocked() {
	s.epoch++
	s.stage = models.StageSubjectSelection
	s.lesson = nil
	s.lessonStartedAt = time.Time{}
	s.quiz = nil
	s.questionIndex = 0
	s.lastEvaluation = nil
	s.diagnosticQuizID = ""
	s.plan = nil
	s.sectionIndex = 0
	s.completedSections = make(map[int]struct{})
	s.preloaded = nil
	s.performance = make(map[int]models.SectionPerformance)
}
