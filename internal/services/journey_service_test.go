package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brightmind-edu/tutor-journey-service/internal/agent"
	"github.com/brightmind-edu/tutor-journey-service/internal/cache"
	"github.com/brightmind-edu/tutor-journey-service/internal/events"
	"github.com/brightmind-edu/tutor-journey-service/internal/models"
	"github.com/brightmind-edu/tutor-journey-service/internal/utils"
	"github.com/redis/go-redis/v9"
)

// fakeAgent is a scripted stand-in for the remote tutoring agent.
type fakeAgent struct {
	mu sync.Mutex

	diagnosticCalls         int
	completeDiagnosticCalls int
	sectionCalls            []int
	completeSectionCalls    int
	completeLessonCalls     int

	// completeDiagnosticGate, when set, blocks CompleteDiagnostic until
	// closed. Lets tests hold a prefetch in the pending state.
	completeDiagnosticGate chan struct{}
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{}
}

func diagnosticQuiz(subject string) *models.Quiz {
	quiz := buildQuiz(5)
	quiz.ID = "diag-" + subject
	quiz.Type = models.QuizDiagnostic
	quiz.Topic = subject
	return quiz
}

func sectionContentResponse(planID string, sectionIndex int) *agent.Response {
	quiz := buildQuiz(5)
	quiz.ID = fmt.Sprintf("section-quiz-%d", sectionIndex)
	quiz.Type = models.QuizProgressCheck
	return &agent.Response{
		ActionType: agent.ActionPresentLesson,
		LessonContent: &models.LessonContent{
			ID:      fmt.Sprintf("lesson-%s-%d", planID, sectionIndex),
			Topic:   fmt.Sprintf("topic-%d", sectionIndex),
			Title:   fmt.Sprintf("Section %d", sectionIndex+1),
			Content: "<p>material</p>",
		},
		SectionQuiz:  quiz,
		TutorMessage: fmt.Sprintf("Here is section %d.", sectionIndex+1),
		Success:      true,
	}
}

func (f *fakeAgent) RequestDiagnostic(_ context.Context, subject string) (*agent.Response, error) {
	f.mu.Lock()
	f.diagnosticCalls++
	f.mu.Unlock()
	return &agent.Response{
		ActionType:   agent.ActionPresentQuiz,
		QuizContent:  diagnosticQuiz(subject),
		TutorMessage: "Let's see what you already know.",
		Success:      true,
	}, nil
}

func (f *fakeAgent) CompleteDiagnostic(_ context.Context, _ agent.DiagnosticResult) (*agent.Response, error) {
	f.mu.Lock()
	f.completeDiagnosticCalls++
	gate := f.completeDiagnosticGate
	planID := fmt.Sprintf("plan-%d", f.completeDiagnosticCalls)
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	return &agent.Response{
		ActionType: agent.ActionConversation,
		LessonPlan: &models.LessonPlan{
			ID:      planID,
			Subject: "math",
			Sections: []models.SectionPlan{
				{Topic: "topic-0"},
				{Topic: "topic-1"},
				{Topic: "topic-2"},
			},
		},
		TutorMessage: "Your plan is ready.",
		Success:      true,
	}, nil
}

func (f *fakeAgent) RequestSection(_ context.Context, planID string, sectionIndex int, _ *models.SectionPerformance) (*agent.Response, error) {
	f.mu.Lock()
	f.sectionCalls = append(f.sectionCalls, sectionIndex)
	f.mu.Unlock()
	return sectionContentResponse(planID, sectionIndex), nil
}

func (f *fakeAgent) RequestSectionQuiz(_ context.Context, planID string, sectionIndex int) (*agent.Response, error) {
	resp := sectionContentResponse(planID, sectionIndex)
	resp.QuizContent = resp.SectionQuiz
	return resp, nil
}

func (f *fakeAgent) CompleteSection(_ context.Context, _ models.SectionPerformance, _ int) (*agent.Response, error) {
	f.mu.Lock()
	f.completeSectionCalls++
	f.mu.Unlock()
	return &agent.Response{ActionType: agent.ActionConversation, Success: true}, nil
}

func (f *fakeAgent) CompleteLesson(_ context.Context, _ string, _, _ int) (*agent.Response, error) {
	f.mu.Lock()
	f.completeLessonCalls++
	f.mu.Unlock()
	return &agent.Response{ActionType: agent.ActionConversation, Success: true}, nil
}

func (f *fakeAgent) SaveOnboarding(_ context.Context, _ map[string]any) (*agent.Response, error) {
	return &agent.Response{ActionType: agent.ActionConversation, Success: true}, nil
}

func (f *fakeAgent) SendPrompt(_ context.Context, _ string) (*agent.Response, error) {
	return &agent.Response{ActionType: agent.ActionConversation, Success: true}, nil
}

func newTestJourney(t *testing.T, fake *fakeAgent) (*Journey, *events.MockEventPublisher) {
	t.Helper()
	publisher := events.NewMockEventPublisher(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	journey := NewJourney("student-1", JourneyDeps{
		Session:         NewSessionState(),
		Progress:        NewProgressTracker(),
		Agent:           fake,
		Publisher:       publisher,
		Logger:          utils.NewDevelopmentLogger(),
		PrefetchTimeout: 5 * time.Second,
	})
	return journey, publisher
}

func correctAnswers(quiz *models.Quiz) []models.StudentAnswer {
	answers := make([]models.StudentAnswer, len(quiz.Questions))
	for i := range answers {
		answers[i] = models.TextAnswer(models.MCSA, "right")
	}
	return answers
}

// continueWhenReady polls Continue until the prefetched content lands.
func continueWhenReady(t *testing.T, journey *Journey) *JourneyResponse {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := journey.Continue(context.Background())
		if err == nil {
			return resp
		}
		if !errors.Is(err, ErrContentNotReady) {
			t.Fatalf("continue failed: %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("prefetched content never became ready")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestJourney_FullRun(t *testing.T) {
	fake := newFakeAgent()
	journey, publisher := newTestJourney(t, fake)
	ctx := context.Background()

	// Choose a subject: a diagnostic quiz arrives.
	resp, err := journey.ChooseSubject(ctx, "math")
	if err != nil {
		t.Fatalf("choose subject: %v", err)
	}
	if resp.Stage != models.StageDiagnostic {
		t.Fatalf("stage = %s, want %s", resp.Stage, models.StageDiagnostic)
	}
	if resp.Quiz == nil || resp.Quiz.Type != models.QuizDiagnostic {
		t.Fatal("expected a diagnostic quiz")
	}

	// Ace the diagnostic: 5 correct at 10 XP each plus the high-score bonus.
	resp, err = journey.SubmitQuiz(ctx, correctAnswers(resp.Quiz))
	if err != nil {
		t.Fatalf("submit diagnostic: %v", err)
	}
	if resp.Stage != models.StageDiagnosticResults {
		t.Fatalf("stage = %s, want %s", resp.Stage, models.StageDiagnosticResults)
	}
	if resp.Evaluation == nil || resp.Evaluation.XPEarned != 100 {
		t.Fatalf("evaluation = %+v, want 100 XP", resp.Evaluation)
	}
	if resp.Progress.TotalXP != 100 {
		t.Errorf("progress XP = %d, want 100", resp.Progress.TotalXP)
	}

	// The plan and first section were prefetched while the student reviewed
	// their results.
	resp = continueWhenReady(t, journey)
	if resp.Stage != models.StageSectionLesson {
		t.Fatalf("stage = %s, want %s", resp.Stage, models.StageSectionLesson)
	}
	if resp.SectionIndex != 0 {
		t.Fatalf("section index = %d, want 0", resp.SectionIndex)
	}
	if resp.Plan == nil || resp.Lesson == nil || resp.Quiz == nil {
		t.Fatal("plan, lesson and quiz should all be installed")
	}

	// Work through every section.
	for section := 0; section < models.TotalJourneySections; section++ {
		resp, err = journey.FinishLesson(ctx)
		if err != nil {
			t.Fatalf("finish lesson %d: %v", section, err)
		}
		if resp.Stage != models.StageSectionQuiz {
			t.Fatalf("stage = %s, want %s", resp.Stage, models.StageSectionQuiz)
		}

		resp, err = journey.SubmitQuiz(ctx, correctAnswers(resp.Quiz))
		if err != nil {
			t.Fatalf("submit section quiz %d: %v", section, err)
		}
		if resp.Stage != models.StageSectionSummary {
			t.Fatalf("stage = %s, want %s", resp.Stage, models.StageSectionSummary)
		}

		resp = continueWhenReady(t, journey)
		if section < models.TotalJourneySections-1 {
			if resp.Stage != models.StageSectionLesson {
				t.Fatalf("stage = %s, want next section lesson", resp.Stage)
			}
			if resp.SectionIndex != section+1 {
				t.Fatalf("section index = %d, want %d", resp.SectionIndex, section+1)
			}
		} else {
			if resp.Stage != models.StageOverallSummary {
				t.Fatalf("stage = %s, want %s", resp.Stage, models.StageOverallSummary)
			}
		}
	}

	if got := len(resp.CompletedSections); got != models.TotalJourneySections {
		t.Errorf("completed sections = %d, want %d", got, models.TotalJourneySections)
	}

	// Close out: journey state resets, cumulative progress survives.
	resp, err = journey.FinishJourney(ctx)
	if err != nil {
		t.Fatalf("finish journey: %v", err)
	}
	if resp.Stage != models.StageSubjectSelection {
		t.Fatalf("stage = %s, want %s", resp.Stage, models.StageSubjectSelection)
	}
	if resp.Progress.TotalXP == 0 {
		t.Error("cumulative XP must survive the journey reset")
	}

	// Every section's content request carries the right index.
	fake.mu.Lock()
	sectionCalls := append([]int(nil), fake.sectionCalls...)
	fake.mu.Unlock()
	if len(sectionCalls) != models.TotalJourneySections {
		t.Fatalf("section requests = %v, want one per section", sectionCalls)
	}
	for i, idx := range sectionCalls {
		if idx != i {
			t.Errorf("section request %d asked for index %d", i, idx)
		}
	}

	assertEventPublished(t, publisher, events.EventJourneyStarted)
	assertEventPublished(t, publisher, events.EventQuizCompleted)
	assertEventPublished(t, publisher, events.EventLessonCompleted)
	assertEventPublished(t, publisher, events.EventSectionCompleted)
	assertEventPublished(t, publisher, events.EventJourneyCompleted)
}

func assertEventPublished(t *testing.T, publisher *events.MockEventPublisher, eventType events.EventType) {
	t.Helper()
	for _, event := range publisher.GetPublishedEvents() {
		if event.Type == eventType {
			return
		}
	}
	t.Errorf("expected a %s event to be published", eventType)
}

func TestJourney_SubmitQuizGuards(t *testing.T) {
	fake := newFakeAgent()
	journey, _ := newTestJourney(t, fake)
	ctx := context.Background()

	t.Run("wrong stage", func(t *testing.T) {
		_, err := journey.SubmitQuiz(ctx, nil)
		if !errors.Is(err, ErrInvalidStage) {
			t.Fatalf("err = %v, want ErrInvalidStage", err)
		}
	})

	resp, err := journey.ChooseSubject(ctx, "math")
	if err != nil {
		t.Fatalf("choose subject: %v", err)
	}

	t.Run("incomplete answers", func(t *testing.T) {
		partial := correctAnswers(resp.Quiz)
		partial[2] = models.StudentAnswer{Kind: models.MCSA}
		_, err := journey.SubmitQuiz(ctx, partial)
		if !errors.Is(err, ErrQuizIncomplete) {
			t.Fatalf("err = %v, want ErrQuizIncomplete", err)
		}
	})

	t.Run("double submission", func(t *testing.T) {
		if _, err := journey.SubmitQuiz(ctx, correctAnswers(resp.Quiz)); err != nil {
			t.Fatalf("first submission: %v", err)
		}
		_, err := journey.SubmitQuiz(ctx, correctAnswers(resp.Quiz))
		if !errors.Is(err, ErrInvalidStage) {
			t.Fatalf("err = %v, want ErrInvalidStage after scoring", err)
		}
	})
}

func TestJourney_StalePrefetchDiscardedOnSubjectSwitch(t *testing.T) {
	fake := newFakeAgent()
	fake.completeDiagnosticGate = make(chan struct{})
	journey, _ := newTestJourney(t, fake)
	ctx := context.Background()

	resp, err := journey.ChooseSubject(ctx, "math")
	if err != nil {
		t.Fatalf("choose subject: %v", err)
	}
	if _, err := journey.SubmitQuiz(ctx, correctAnswers(resp.Quiz)); err != nil {
		t.Fatalf("submit diagnostic: %v", err)
	}

	// The plan prefetch is now blocked in flight.
	if _, err := journey.Continue(ctx); !errors.Is(err, ErrContentNotReady) {
		t.Fatalf("err = %v, want ErrContentNotReady while prefetch is pending", err)
	}

	// Abandon the journey before the prefetch lands.
	if _, err := journey.SwitchSubject(ctx, "history"); err != nil {
		t.Fatalf("switch subject: %v", err)
	}

	// Release the stale load and give its goroutine a moment to finish.
	close(fake.completeDiagnosticGate)
	time.Sleep(50 * time.Millisecond)

	journey.mu.Lock()
	status := journey.planLoad.status
	plan := journey.planLoad.plan
	journey.mu.Unlock()
	if status != prefetchIdle || plan != nil {
		t.Errorf("stale prefetch leaked into the new journey: status=%d plan=%v", status, plan)
	}

	// The new journey is untouched by the discarded result.
	if journey.session.Plan() != nil {
		t.Error("old subject's plan must not reach the new journey")
	}
	if journey.session.Stage() != models.StageDiagnostic {
		t.Errorf("stage = %s, want fresh diagnostic", journey.session.Stage())
	}
}

func TestJourney_PrefetchIsOneShot(t *testing.T) {
	fake := newFakeAgent()
	fake.completeDiagnosticGate = make(chan struct{})
	journey, _ := newTestJourney(t, fake)
	ctx := context.Background()

	resp, err := journey.ChooseSubject(ctx, "math")
	if err != nil {
		t.Fatalf("choose subject: %v", err)
	}
	submitted, err := journey.SubmitQuiz(ctx, correctAnswers(resp.Quiz))
	if err != nil {
		t.Fatalf("submit diagnostic: %v", err)
	}

	// A second trigger while the first is pending must be a no-op.
	journey.startPlanPrefetch(submitted.Evaluation)
	journey.startPlanPrefetch(submitted.Evaluation)
	close(fake.completeDiagnosticGate)
	time.Sleep(50 * time.Millisecond)

	fake.mu.Lock()
	calls := fake.completeDiagnosticCalls
	fake.mu.Unlock()
	if calls != 1 {
		t.Errorf("diagnostic completion calls = %d, want exactly 1", calls)
	}
}

func TestJourney_ForegroundFallbackAfterFailedPrefetch(t *testing.T) {
	fake := newFakeAgent()
	journey, _ := newTestJourney(t, fake)
	ctx := context.Background()

	resp, err := journey.ChooseSubject(ctx, "math")
	if err != nil {
		t.Fatalf("choose subject: %v", err)
	}
	if _, err := journey.SubmitQuiz(ctx, correctAnswers(resp.Quiz)); err != nil {
		t.Fatalf("submit diagnostic: %v", err)
	}

	// Simulate a failed prefetch.
	journey.mu.Lock()
	journey.planLoad = planPrefetch{status: prefetchFailed, err: errors.New("network down")}
	journey.mu.Unlock()

	// Continue falls back to a foreground fetch and still succeeds.
	got, err := journey.Continue(ctx)
	if err != nil {
		t.Fatalf("continue after failed prefetch: %v", err)
	}
	if got.Stage != models.StageSectionLesson {
		t.Fatalf("stage = %s, want %s", got.Stage, models.StageSectionLesson)
	}
	if got.Plan == nil {
		t.Fatal("foreground fallback should install the plan")
	}
}

// completeJourney drives one journey end to end and returns the lesson ID
// presented for each section.
func completeJourney(t *testing.T, journey *Journey, subject string) []string {
	t.Helper()
	ctx := context.Background()

	resp, err := journey.ChooseSubject(ctx, subject)
	if err != nil {
		t.Fatalf("choose subject: %v", err)
	}
	if _, err := journey.SubmitQuiz(ctx, correctAnswers(resp.Quiz)); err != nil {
		t.Fatalf("submit diagnostic: %v", err)
	}
	resp = continueWhenReady(t, journey)

	var lessons []string
	for section := 0; section < models.TotalJourneySections; section++ {
		lessons = append(lessons, resp.Lesson.ID)
		if resp, err = journey.FinishLesson(ctx); err != nil {
			t.Fatalf("finish lesson %d: %v", section, err)
		}
		if resp, err = journey.SubmitQuiz(ctx, correctAnswers(resp.Quiz)); err != nil {
			t.Fatalf("submit section quiz %d: %v", section, err)
		}
		resp = continueWhenReady(t, journey)
	}
	if _, err := journey.FinishJourney(ctx); err != nil {
		t.Fatalf("finish journey: %v", err)
	}
	return lessons
}

func TestJourney_RestartSameSubjectGetsFreshContent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	content := cache.NewContentCache(cache.NewRedisCache(client, utils.NewDevelopmentLogger()))

	fake := newFakeAgent()
	journey := NewJourney("student-1", JourneyDeps{
		Session:         NewSessionState(),
		Progress:        NewProgressTracker(),
		Agent:           fake,
		Content:         content,
		Logger:          utils.NewDevelopmentLogger(),
		PrefetchTimeout: 5 * time.Second,
	})

	first := completeJourney(t, journey, "math")
	second := completeJourney(t, journey, "math")

	// The second journey's diagnostic produced a new plan; none of its
	// sections may be served from the previous plan's cached content.
	for i := range second {
		if second[i] == first[i] {
			t.Errorf("section %d served the previous journey's content: %s", i, second[i])
		}
	}
}

func TestJourney_StatePollKeepsRecentAchievements(t *testing.T) {
	journey, _ := newTestJourney(t, newFakeAgent())
	journey.progress.ApplyAchievement(models.Achievement{ID: "a1", Title: "First Steps", XPReward: 20})

	// Reading the journey state must not consume the one-time badge list.
	for i := 0; i < 2; i++ {
		resp := journey.State()
		if len(resp.Achievements) != 1 {
			t.Fatalf("state poll %d surfaced %d achievements, want 1", i+1, len(resp.Achievements))
		}
	}

	taken := journey.RecentAchievements()
	if len(taken) != 1 || taken[0].ID != "a1" {
		t.Fatalf("recent achievements = %+v, want the pending badge", taken)
	}
	if got := journey.State().Achievements; len(got) != 0 {
		t.Errorf("acknowledged badge resurfaced in the envelope: %+v", got)
	}
}

func TestJourney_ConcurrentSubmitScoresOnce(t *testing.T) {
	fake := newFakeAgent()
	journey, _ := newTestJourney(t, fake)
	ctx := context.Background()

	resp, err := journey.ChooseSubject(ctx, "math")
	if err != nil {
		t.Fatalf("choose subject: %v", err)
	}
	answers := correctAnswers(resp.Quiz)

	var wg sync.WaitGroup
	var scored int32
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := journey.SubmitQuiz(ctx, answers); err == nil {
				atomic.AddInt32(&scored, 1)
			}
		}()
	}
	wg.Wait()

	if scored != 1 {
		t.Fatalf("submissions scored = %d, want exactly 1", scored)
	}
	if got := journey.progress.TotalXP(); got != 100 {
		t.Errorf("total XP = %d, want a single quiz's reward", got)
	}
}
