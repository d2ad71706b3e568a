package services

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/brightmind-edu/tutor-journey-service/internal/agent"
	"github.com/brightmind-edu/tutor-journey-service/internal/cache"
	"github.com/brightmind-edu/tutor-journey-service/internal/events"
	"github.com/brightmind-edu/tutor-journey-service/internal/models"
	"github.com/brightmind-edu/tutor-journey-service/internal/repositories"
	"github.com/brightmind-edu/tutor-journey-service/internal/utils"
)

const eventSource = "tutor-journey-service"
const eventVersion = "1.0"

// prefetchStatus is the lifecycle of one background content load. The
// status is structural, not inferred from content presence: a nil payload
// with status ready is a bug, a nil payload with status failed is expected.
type prefetchStatus int

const (
	prefetchIdle prefetchStatus = iota
	prefetchPending
	prefetchReady
	prefetchFailed
)

// planPrefetch is the background load kicked off when a diagnostic quiz is
// scored: the adaptive lesson plan plus the first section's content.
type planPrefetch struct {
	status       prefetchStatus
	plan         *models.LessonPlan
	firstSection *models.SectionContent
	tutorMessage string
	err          error
}

// sectionPrefetch is the background load for the next section, kicked off
// when a section quiz is scored.
type sectionPrefetch struct {
	status       prefetchStatus
	content      *models.SectionContent
	tutorMessage string
	err          error
}

// JourneyResponse is the envelope every orchestrator operation returns to the
// transport layer: the new stage plus whatever content that stage presents.
type JourneyResponse struct {
	Stage        models.JourneyStage `json:"stage"`
	TutorMessage string              `json:"tutor_message"`

	Lesson        *models.LessonContent  `json:"lesson,omitempty"`
	Quiz          *models.Quiz           `json:"quiz,omitempty"`
	QuestionIndex int                    `json:"question_index"`
	Evaluation    *models.QuizEvaluation `json:"evaluation,omitempty"`
	Plan          *models.LessonPlan     `json:"plan,omitempty"`

	SectionIndex      int   `json:"section_index"`
	CompletedSections []int `json:"completed_sections"`

	Progress     models.ProgressUpdate `json:"progress"`
	Achievements []models.Achievement  `json:"achievements,omitempty"`
}

// Journey orchestrates one student's learning session: it drives the stage
// machine, evaluates quizzes locally, applies rewards, and prefetches the
// next stage's content while the student is busy with the current one. The
// remote agent makes all adaptive decisions; the journey only sequences them.
type Journey struct {
	studentID string

	session  *SessionState
	progress *ProgressTracker
	agent    agent.Client

	publisher events.EventPublisher
	results   repositories.ResultsRepository
	content   *cache.ContentCache
	logger    utils.Logger

	prefetchTimeout time.Duration

	mu          sync.Mutex
	planLoad    planPrefetch
	sectionLoad sectionPrefetch

	// submitMu serializes quiz submissions so a duplicated request cannot
	// score the same quiz twice.
	submitMu sync.Mutex
}

// JourneyDeps carries the orchestrator's collaborators. Session and progress
// stores are constructed by the caller and injected, never created inside.
type JourneyDeps struct {
	Session   *SessionState
	Progress  *ProgressTracker
	Agent     agent.Client
	Publisher events.EventPublisher
	Results   repositories.ResultsRepository
	Content   *cache.ContentCache
	Logger    utils.Logger

	PrefetchTimeout time.Duration
}

func NewJourney(studentID string, deps JourneyDeps) *Journey {
	timeout := deps.PrefetchTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Journey{
		studentID:       studentID,
		session:         deps.Session,
		progress:        deps.Progress,
		agent:           deps.Agent,
		publisher:       deps.Publisher,
		results:         deps.Results,
		content:         deps.Content,
		logger:          deps.Logger,
		prefetchTimeout: timeout,
	}
}

// ===== SUBJECT SELECTION =====

// ChooseSubject starts a journey: it requests a diagnostic quiz for the
// subject and moves to the diagnostic stage. Valid only from subject
// selection; use SwitchSubject to abandon a journey in flight.
func (j *Journey) ChooseSubject(ctx context.Context, subject string) (*JourneyResponse, error) {
	if j.session.Stage() != models.StageSubjectSelection {
		return nil, newStageError("choose subject", string(j.session.Stage()),
			string(models.StageSubjectSelection))
	}

	resp, err := j.agent.RequestDiagnostic(ctx, subject)
	if err != nil {
		return nil, err
	}

	j.session.SetSubject(subject)
	j.session.SetQuiz(resp.QuizContent)
	j.session.SetDiagnosticQuizID(resp.QuizContent.ID)
	j.session.SetStage(models.StageDiagnostic)
	j.absorbAgentExtras(resp)

	j.publish(ctx, events.EventJourneyStarted, events.JourneyStartedEvent{
		Subject:   subject,
		StartedAt: time.Now(),
	})

	return j.respond(resp.TutorMessage), nil
}

// SwitchSubject abandons the current journey and starts over with a new
// subject. The epoch bump invalidates any in-flight prefetch results.
func (j *Journey) SwitchSubject(ctx context.Context, subject string) (*JourneyResponse, error) {
	j.session.ResetForSubjectSwitch(subject)
	j.resetPrefetch()

	if j.content != nil {
		if err := j.content.InvalidateJourney(ctx, j.studentID); err != nil {
			j.logger.Warn("Failed to invalidate cached journey content", "error", err)
		}
	}

	resp, err := j.agent.RequestDiagnostic(ctx, subject)
	if err != nil {
		// Roll back to subject selection so the student can retry.
		j.session.SetSubject("")
		return nil, err
	}

	j.session.SetQuiz(resp.QuizContent)
	j.session.SetDiagnosticQuizID(resp.QuizContent.ID)
	j.session.SetStage(models.StageDiagnostic)
	j.absorbAgentExtras(resp)

	j.publish(ctx, events.EventJourneyStarted, events.JourneyStartedEvent{
		Subject:   subject,
		StartedAt: time.Now(),
	})

	return j.respond(resp.TutorMessage), nil
}

// ===== QUIZ SUBMISSION =====

// SubmitQuiz evaluates a completed answer set against the active quiz,
// entirely locally, and advances the stage machine. After a diagnostic quiz
// it kicks off the lesson-plan prefetch; after a section quiz it kicks off
// the next section's prefetch.
func (j *Journey) SubmitQuiz(ctx context.Context, answers []models.StudentAnswer) (*JourneyResponse, error) {
	j.submitMu.Lock()
	defer j.submitMu.Unlock()

	stage := j.session.Stage()
	if stage != models.StageDiagnostic && stage != models.StageSectionQuiz {
		return nil, newStageError("submit quiz", string(stage),
			string(models.StageDiagnostic), string(models.StageSectionQuiz))
	}

	quiz := j.session.CurrentQuiz()
	if quiz == nil {
		return nil, ErrNoActiveQuiz
	}
	if j.session.LastEvaluation() != nil {
		return nil, ErrQuizAlreadyScored
	}
	if !AreAllQuestionsAnswered(answers, len(quiz.Questions)) {
		return nil, ErrQuizIncomplete
	}

	eval, err := EvaluateQuiz(quiz, answers)
	if err != nil {
		return nil, err
	}
	j.session.SetEvaluation(eval)

	leveledUp, newLevel := j.progress.AddXP(eval.XPEarned)
	j.progress.IncrementQuizzesCompleted()

	j.publish(ctx, events.EventQuizCompleted, events.QuizCompletedEvent{
		QuizID:          eval.QuizID,
		QuizType:        eval.QuizType,
		Topic:           quiz.Topic,
		CorrectAnswers:  eval.CorrectCount,
		TotalQuestions:  eval.TotalQuestions,
		ScorePercentage: eval.ScorePercentage,
		XPEarned:        eval.XPEarned,
		CompletedAt:     time.Now(),
	})
	if leveledUp {
		j.publish(ctx, events.EventLevelUp, events.LevelUpEvent{
			NewLevel:   newLevel,
			TotalXP:    j.progress.TotalXP(),
			LevelTitle: j.progress.Title(),
		})
	}
	j.persistQuizResult(eval)

	var tutorMessage string
	switch stage {
	case models.StageDiagnostic:
		j.session.SetStage(models.StageDiagnosticResults)
		j.startPlanPrefetch(eval)
		tutorMessage = "Diagnostic complete. Building your personalized plan."
	case models.StageSectionQuiz:
		tutorMessage = j.completeSection(ctx, quiz, eval)
	}

	return j.respond(tutorMessage), nil
}

// completeSection records performance for the just-scored section quiz,
// marks the section done, notifies the agent and starts prefetching the
// next section's content.
func (j *Journey) completeSection(ctx context.Context, quiz *models.Quiz, eval *models.QuizEvaluation) string {
	sectionIndex := j.session.SectionIndex()

	perf := models.SectionPerformance{
		SectionIndex:   sectionIndex,
		ScorePercent:   eval.ScorePercentage,
		CorrectAnswers: eval.CorrectCount,
		TotalQuestions: eval.TotalQuestions,
		Struggles:      struggleTopics(quiz, eval),
	}
	j.session.RecordSectionPerformance(perf)
	j.session.MarkSectionComplete(sectionIndex)
	j.session.SetStage(models.StageSectionSummary)

	j.publish(ctx, events.EventSectionCompleted, events.SectionCompletedEvent{
		SectionIndex:    sectionIndex,
		Subject:         j.session.Subject(),
		ScorePercentage: eval.ScorePercentage,
		CompletedAt:     time.Now(),
	})

	// Best-effort sync to the agent's persisted store; local state already
	// moved on.
	go func(perf models.SectionPerformance, xp int) {
		syncCtx, cancel := context.WithTimeout(context.Background(), j.prefetchTimeout)
		defer cancel()
		resp, err := j.agent.CompleteSection(syncCtx, perf, xp)
		if err != nil {
			j.logger.Warn("Section completion sync failed",
				"section_index", perf.SectionIndex, "error", err)
			return
		}
		j.absorbAgentExtras(resp)
	}(perf, eval.XPEarned)

	if sectionIndex < models.TotalJourneySections-1 {
		j.startSectionPrefetch(sectionIndex+1, &perf)
	}

	return "Section complete. Review your results, then continue when ready."
}

// struggleTopics collects the topics of incorrectly answered questions so the
// agent can adapt the next section.
func struggleTopics(quiz *models.Quiz, eval *models.QuizEvaluation) []string {
	topicByID := make(map[string]string, len(quiz.Questions))
	for _, q := range quiz.Questions {
		topicByID[q.ID] = q.Topic
	}
	seen := make(map[string]struct{})
	var topics []string
	for _, fb := range eval.Feedback {
		if fb.IsCorrect {
			continue
		}
		topic := topicByID[fb.QuestionID]
		if topic == "" {
			topic = fb.QuestionID
		}
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}
	return topics
}

// ===== NAVIGATION =====

// NextQuestion advances the single-question pointer within the active quiz.
func (j *Journey) NextQuestion() (*JourneyResponse, error) {
	stage := j.session.Stage()
	if stage != models.StageDiagnostic && stage != models.StageSectionQuiz {
		return nil, newStageError("advance question", string(stage),
			string(models.StageDiagnostic), string(models.StageSectionQuiz))
	}
	if j.session.CurrentQuiz() == nil {
		return nil, ErrNoActiveQuiz
	}
	j.session.AdvanceQuestion()
	return j.respond(""), nil
}

// Continue moves the journey forward from a results or summary stage. It
// consumes prefetched content when ready, falls back to a foreground fetch
// when the prefetch failed, and reports not-ready when one is still pending.
func (j *Journey) Continue(ctx context.Context) (*JourneyResponse, error) {
	switch j.session.Stage() {
	case models.StageDiagnosticResults:
		return j.continueFromDiagnosticResults(ctx)
	case models.StageSectionLesson:
		return j.FinishLesson(ctx)
	case models.StageSectionSummary:
		return j.continueFromSectionSummary(ctx)
	default:
		return nil, newStageError("continue", string(j.session.Stage()),
			string(models.StageDiagnosticResults), string(models.StageSectionLesson),
			string(models.StageSectionSummary))
	}
}

func (j *Journey) continueFromDiagnosticResults(ctx context.Context) (*JourneyResponse, error) {
	j.mu.Lock()
	load := j.planLoad
	j.mu.Unlock()

	switch load.status {
	case prefetchPending:
		return nil, ErrContentNotReady
	case prefetchReady:
		j.mu.Lock()
		j.planLoad = planPrefetch{}
		j.mu.Unlock()
		j.installPlan(load.plan, load.firstSection)
		return j.respond(load.tutorMessage), nil
	default:
		// Idle or failed: fetch in the foreground.
		j.session.SetStage(models.StagePlanning)
		plan, first, msg, err := j.fetchPlanAndFirstSection(ctx)
		if err != nil {
			j.session.SetStage(models.StageDiagnosticResults)
			return nil, err
		}
		j.installPlan(plan, first)
		return j.respond(msg), nil
	}
}

func (j *Journey) continueFromSectionSummary(ctx context.Context) (*JourneyResponse, error) {
	// Last section's summary goes straight to the overall summary; there is
	// no content to wait for.
	if j.session.SectionIndex() >= models.TotalJourneySections-1 {
		stage, err := j.session.AdvanceToNextSection()
		if err != nil {
			return nil, err
		}
		if stage == models.StageOverallSummary {
			j.publishJourneyCompleted(ctx)
		}
		return j.respond("You finished every section. Here is how the journey went."), nil
	}

	j.mu.Lock()
	load := j.sectionLoad
	j.mu.Unlock()

	switch load.status {
	case prefetchPending:
		return nil, ErrContentNotReady
	case prefetchReady:
		j.mu.Lock()
		j.sectionLoad = sectionPrefetch{}
		j.mu.Unlock()
		j.session.SetPreloadedSection(load.content)
	default:
		// Idle or failed: fetch the next section in the foreground.
		plan := j.session.Plan()
		if plan == nil {
			return nil, ErrNoLessonPlan
		}
		perf, _ := j.session.SectionPerformance(j.session.SectionIndex())
		content, msg, err := j.fetchSection(ctx, plan.ID, j.session.SectionIndex()+1, &perf)
		if err != nil {
			return nil, err
		}
		load.tutorMessage = msg
		j.session.SetPreloadedSection(content)
	}

	if _, err := j.session.AdvanceToNextSection(); err != nil {
		return nil, err
	}
	return j.respond(load.tutorMessage), nil
}

// ===== LESSON COMPLETION =====

// FinishLesson moves from reading a section lesson to its quiz. The quiz was
// installed alongside the lesson, so no agent round-trip blocks the student.
func (j *Journey) FinishLesson(ctx context.Context) (*JourneyResponse, error) {
	if j.session.Stage() != models.StageSectionLesson {
		return nil, newStageError("finish lesson", string(j.session.Stage()),
			string(models.StageSectionLesson))
	}
	lesson := j.session.CurrentLesson()
	if lesson == nil {
		return nil, ErrNoActiveLesson
	}
	if j.session.CurrentQuiz() == nil {
		return nil, ErrNoActiveQuiz
	}

	timeSpent := j.session.LessonTimeSpent()
	sectionIndex := j.session.SectionIndex()
	j.session.SetStage(models.StageSectionQuiz)
	j.progress.IncrementLessonsCompleted()

	j.publish(ctx, events.EventLessonCompleted, events.LessonCompletedEvent{
		LessonID:         lesson.ID,
		Topic:            lesson.Topic,
		SectionIndex:     sectionIndex,
		TimeSpentSeconds: timeSpent,
		CompletedAt:      time.Now(),
	})
	j.persistLessonProgress(lesson, sectionIndex, timeSpent)

	// Best-effort notify; the stage already advanced.
	go func() {
		syncCtx, cancel := context.WithTimeout(context.Background(), j.prefetchTimeout)
		defer cancel()
		if _, err := j.agent.CompleteLesson(syncCtx, lesson.ID, sectionIndex, timeSpent); err != nil {
			j.logger.Warn("Lesson completion sync failed", "lesson_id", lesson.ID, "error", err)
		}
	}()

	return j.respond("Lesson done. Time for a quick quiz on what you read."), nil
}

// FinishJourney closes out a completed journey and returns to subject
// selection. Cumulative progress survives; journey state does not.
func (j *Journey) FinishJourney(ctx context.Context) (*JourneyResponse, error) {
	if j.session.Stage() != models.StageOverallSummary {
		return nil, newStageError("finish journey", string(j.session.Stage()),
			string(models.StageOverallSummary))
	}

	j.session.Reset()
	j.resetPrefetch()

	if j.content != nil {
		if err := j.content.InvalidateJourney(ctx, j.studentID); err != nil {
			j.logger.Warn("Failed to invalidate cached journey content", "error", err)
		}
	}

	return j.respond("Great work. Pick a new subject whenever you are ready."), nil
}

// ===== ONBOARDING AND PROGRESS =====

// SaveOnboarding forwards the student's onboarding profile to the agent.
func (j *Journey) SaveOnboarding(ctx context.Context, profile map[string]any) (*JourneyResponse, error) {
	resp, err := j.agent.SaveOnboarding(ctx, profile)
	if err != nil {
		return nil, err
	}
	j.absorbAgentExtras(resp)
	return j.respond(resp.TutorMessage), nil
}

// Progress returns the cumulative progress snapshot and refreshes the cached
// copy.
func (j *Journey) Progress(ctx context.Context) models.ProgressUpdate {
	snapshot := j.progress.Snapshot()
	if j.content != nil {
		if err := j.content.PutProgressSnapshot(ctx, j.studentID, snapshot); err != nil {
			j.logger.Warn("Failed to cache progress snapshot", "error", err)
		}
	}
	return snapshot
}

// RecentAchievements returns badges earned since the last call.
func (j *Journey) RecentAchievements() []models.Achievement {
	return j.progress.TakeRecentAchievements()
}

// State returns the current response envelope without changing anything.
func (j *Journey) State() *JourneyResponse {
	return j.respond("")
}

// ===== PREFETCH =====

// startPlanPrefetch launches the background load of the lesson plan and first
// section. One-shot: a second trigger while a load is pending or ready is a
// no-op.
func (j *Journey) startPlanPrefetch(eval *models.QuizEvaluation) {
	j.mu.Lock()
	if j.planLoad.status == prefetchPending || j.planLoad.status == prefetchReady {
		j.mu.Unlock()
		return
	}
	j.planLoad = planPrefetch{status: prefetchPending}
	j.mu.Unlock()

	epoch := j.session.Epoch()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.prefetchTimeout)
		defer cancel()

		plan, first, msg, err := j.fetchPlanAndFirstSection(ctx)

		// A reset since launch means this result belongs to an abandoned
		// journey; drop it.
		if j.session.Epoch() != epoch {
			j.logger.Debug("Discarding stale plan prefetch", "epoch", epoch)
			return
		}

		j.mu.Lock()
		defer j.mu.Unlock()
		if err != nil {
			j.planLoad = planPrefetch{status: prefetchFailed, err: err}
			j.logger.Warn("Plan prefetch failed", "error", err)
			return
		}
		j.planLoad = planPrefetch{
			status:       prefetchReady,
			plan:         plan,
			firstSection: first,
			tutorMessage: msg,
		}
	}()
}

// startSectionPrefetch launches the background load of the given section.
func (j *Journey) startSectionPrefetch(sectionIndex int, previous *models.SectionPerformance) {
	plan := j.session.Plan()
	if plan == nil {
		return
	}

	j.mu.Lock()
	if j.sectionLoad.status == prefetchPending || j.sectionLoad.status == prefetchReady {
		j.mu.Unlock()
		return
	}
	j.sectionLoad = sectionPrefetch{status: prefetchPending}
	j.mu.Unlock()

	epoch := j.session.Epoch()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.prefetchTimeout)
		defer cancel()

		content, msg, err := j.fetchSection(ctx, plan.ID, sectionIndex, previous)

		if j.session.Epoch() != epoch {
			j.logger.Debug("Discarding stale section prefetch", "section_index", sectionIndex)
			return
		}

		j.mu.Lock()
		defer j.mu.Unlock()
		if err != nil {
			j.sectionLoad = sectionPrefetch{status: prefetchFailed, err: err}
			j.logger.Warn("Section prefetch failed", "section_index", sectionIndex, "error", err)
			return
		}
		j.sectionLoad = sectionPrefetch{
			status:       prefetchReady,
			content:      content,
			tutorMessage: msg,
		}
	}()
}

func (j *Journey) resetPrefetch() {
	j.mu.Lock()
	j.planLoad = planPrefetch{}
	j.sectionLoad = sectionPrefetch{}
	j.mu.Unlock()
}

// fetchPlanAndFirstSection posts the diagnostic result to the agent, receives
// the adaptive lesson plan, then loads the first section's content.
func (j *Journey) fetchPlanAndFirstSection(ctx context.Context) (*models.LessonPlan, *models.SectionContent, string, error) {
	eval := j.session.LastEvaluation()
	if eval == nil {
		return nil, nil, "", ErrNoActiveQuiz
	}

	resp, err := j.agent.CompleteDiagnostic(ctx, agent.DiagnosticResult{
		QuizID:          j.session.DiagnosticQuizID(),
		Subject:         j.session.Subject(),
		CorrectAnswers:  eval.CorrectCount,
		TotalQuestions:  eval.TotalQuestions,
		ScorePercentage: eval.ScorePercentage,
		Feedback:        eval.Feedback,
	})
	if err != nil {
		return nil, nil, "", err
	}
	j.absorbAgentExtras(resp)
	plan := resp.LessonPlan

	first, msg, err := j.fetchSection(ctx, plan.ID, 0, nil)
	if err != nil {
		return nil, nil, "", err
	}
	if msg == "" {
		msg = resp.TutorMessage
	}
	return plan, first, msg, nil
}

// fetchSection loads one section's lesson and quiz from the agent, consulting
// the content cache first.
func (j *Journey) fetchSection(ctx context.Context, planID string, sectionIndex int, previous *models.SectionPerformance) (*models.SectionContent, string, error) {
	if j.content != nil {
		if cached, err := j.content.GetSectionContent(ctx, j.studentID, planID, sectionIndex); err == nil {
			return cached, "", nil
		}
	}

	resp, err := j.agent.RequestSection(ctx, planID, sectionIndex, previous)
	if err != nil {
		return nil, "", err
	}
	j.absorbAgentExtras(resp)

	quiz := resp.SectionQuiz
	if quiz == nil {
		quiz = resp.QuizContent
	}
	content := &models.SectionContent{
		SectionIndex: sectionIndex,
		Lesson:       resp.LessonContent,
		Quiz:         quiz,
	}

	if j.content != nil {
		if err := j.content.PutSectionContent(ctx, j.studentID, planID, content); err != nil {
			j.logger.Warn("Failed to cache section content", "section_index", sectionIndex, "error", err)
		}
	}
	return content, resp.TutorMessage, nil
}

// installPlan stores the plan and enters the first section.
func (j *Journey) installPlan(plan *models.LessonPlan, first *models.SectionContent) {
	j.session.SetPlan(plan)
	j.session.SetLesson(first.Lesson)
	j.session.SetQuiz(first.Quiz)
	j.session.SetStage(models.StageSectionLesson)
}

// ===== SIDE CHANNELS =====

// absorbAgentExtras applies the optional fields any agent response may carry:
// awarded achievements and authoritative progress updates.
func (j *Journey) absorbAgentExtras(resp *agent.Response) {
	if resp == nil {
		return
	}
	if resp.Achievement != nil {
		j.progress.ApplyAchievement(*resp.Achievement)
		j.publish(context.Background(), events.EventAchievementUnlocked, events.AchievementUnlockedEvent{
			AchievementID: resp.Achievement.ID,
			Title:         resp.Achievement.Title,
			Rarity:        resp.Achievement.Rarity,
			XPReward:      resp.Achievement.XPReward,
			UnlockedAt:    time.Now(),
		})
	}
	if resp.ProgressUpdate != nil {
		j.progress.SyncFromAgent(*resp.ProgressUpdate)
	}
}

func (j *Journey) publishJourneyCompleted(ctx context.Context) {
	perf := j.session.AllSectionPerformance()
	var total float64
	for _, p := range perf {
		total += p.ScorePercent
	}
	avg := 0.0
	if len(perf) > 0 {
		avg = total / float64(len(perf))
	}
	j.publish(ctx, events.EventJourneyCompleted, events.JourneyCompletedEvent{
		Subject:           j.session.Subject(),
		SectionsCompleted: len(j.session.CompletedSections()),
		AverageScore:      avg,
		CompletedAt:       time.Now(),
	})
}

func (j *Journey) publish(ctx context.Context, eventType events.EventType, data interface{}) {
	if j.publisher == nil {
		return
	}
	event := &events.JourneyEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		StudentID: j.studentID,
		Data:      data,
	}
	if err := j.publisher.PublishJourneyEvent(ctx, event); err != nil {
		j.logger.Warn("Failed to publish journey event", "event_type", eventType, "error", err)
	}
}

func (j *Journey) persistQuizResult(eval *models.QuizEvaluation) {
	if j.results == nil {
		return
	}
	record, err := repositories.NewQuizResultRecord(j.studentID, j.session.Subject(), j.session.SectionIndex(), eval)
	if err != nil {
		j.logger.Warn("Failed to build quiz result record", "quiz_id", eval.QuizID, "error", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := j.results.SaveQuizResult(ctx, record); err != nil {
			j.logger.Warn("Failed to persist quiz result", "quiz_id", eval.QuizID, "error", err)
		}
	}()
}

func (j *Journey) persistLessonProgress(lesson *models.LessonContent, sectionIndex, timeSpent int) {
	if j.results == nil {
		return
	}
	record := &models.LessonProgressRecord{
		StudentID:        j.studentID,
		LessonID:         lesson.ID,
		Topic:            lesson.Topic,
		Difficulty:       string(lesson.Difficulty),
		SectionIndex:     sectionIndex,
		TimeSpentSeconds: timeSpent,
		QuizTaken:        true,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := j.results.SaveLessonProgress(ctx, record); err != nil {
			j.logger.Warn("Failed to persist lesson progress", "lesson_id", lesson.ID, "error", err)
		}
	}()
}

// respond assembles the stage envelope from current session and progress
// state.
func (j *Journey) respond(tutorMessage string) *JourneyResponse {
	return &JourneyResponse{
		Stage:             j.session.Stage(),
		TutorMessage:      tutorMessage,
		Lesson:            j.session.CurrentLesson(),
		Quiz:              j.session.CurrentQuiz(),
		QuestionIndex:     j.session.QuestionIndex(),
		Evaluation:        j.session.LastEvaluation(),
		Plan:              j.session.Plan(),
		SectionIndex:      j.session.SectionIndex(),
		CompletedSections: j.session.CompletedSections(),
		Progress:          j.progress.Snapshot(),
		Achievements:      j.progress.PeekRecentAchievements(),
	}
}
