package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brightmind-edu/tutor-journey-service/internal/models"
	"github.com/brightmind-edu/tutor-journey-service/internal/utils"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) CacheService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, utils.NewDevelopmentLogger())
}

func TestRedisCache_SetGet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := cache.Set(ctx, "key-1", payload{Name: "fractions", Count: 3}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	if err := cache.Get(ctx, "key-1", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "fractions" || got.Count != 3 {
		t.Errorf("got %+v, want the stored payload", got)
	}
}

func TestRedisCache_Miss(t *testing.T) {
	cache := newTestCache(t)

	var got string
	err := cache.Get(context.Background(), "missing", &got)
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_Delete(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "key-1", "value", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.Delete(ctx, "key-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var got string
	if err := cache.Get(ctx, "key-1", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss after delete", err)
	}
}

func TestRedisCache_DeletePattern(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "journey:section:s1:math:0", "a", time.Minute)
	cache.Set(ctx, "journey:section:s1:math:1", "b", time.Minute)
	cache.Set(ctx, "journey:section:s2:math:0", "c", time.Minute)

	if err := cache.DeletePattern(ctx, "journey:section:s1:*"); err != nil {
		t.Fatalf("delete pattern: %v", err)
	}

	var got string
	if err := cache.Get(ctx, "journey:section:s1:math:0", &got); !errors.Is(err, ErrCacheMiss) {
		t.Error("s1 keys should be gone")
	}
	if err := cache.Get(ctx, "journey:section:s2:math:0", &got); err != nil {
		t.Errorf("s2 keys should survive: %v", err)
	}
}

func TestContentCache_SectionRoundTrip(t *testing.T) {
	cc := NewContentCache(newTestCache(t))
	ctx := context.Background()

	content := &models.SectionContent{
		SectionIndex: 1,
		Lesson:       &models.LessonContent{ID: "lesson-1", Title: "Decimals", Content: "<p>...</p>"},
		Quiz: &models.Quiz{
			ID:   "quiz-1",
			Type: models.QuizProgressCheck,
			Questions: []models.Question{{
				ID:            "q1",
				Type:          models.MCSA,
				Text:          "?",
				CorrectAnswer: models.ScalarKey("4"),
			}},
		},
	}

	if err := cc.PutSectionContent(ctx, "student-1", "plan-1", content); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := cc.GetSectionContent(ctx, "student-1", "plan-1", 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Lesson.ID != "lesson-1" || got.Quiz.ID != "quiz-1" {
		t.Errorf("got %+v, want the stored section", got)
	}
	// The answer key's custom JSON encoding survives the round trip.
	if got.Quiz.Questions[0].CorrectAnswer.Value != "4" {
		t.Error("scalar answer key should survive serialization")
	}

	if _, err := cc.GetSectionContent(ctx, "student-1", "plan-1", 2); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss for unknown section", err)
	}

	// The same section index under a different plan is a distinct entry.
	if _, err := cc.GetSectionContent(ctx, "student-1", "plan-2", 1); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("err = %v, want ErrCacheMiss for another plan's section", err)
	}
}

func TestContentCache_InvalidateJourney(t *testing.T) {
	cc := NewContentCache(newTestCache(t))
	ctx := context.Background()

	content := &models.SectionContent{SectionIndex: 0}
	cc.PutSectionContent(ctx, "student-1", "plan-1", content)
	cc.PutSectionContent(ctx, "student-2", "plan-1", content)

	if err := cc.InvalidateJourney(ctx, "student-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if _, err := cc.GetSectionContent(ctx, "student-1", "plan-1", 0); !errors.Is(err, ErrCacheMiss) {
		t.Error("student-1 content should be invalidated")
	}
	if _, err := cc.GetSectionContent(ctx, "student-2", "plan-1", 0); err != nil {
		t.Errorf("student-2 content should survive: %v", err)
	}
}

func TestContentCache_ProgressSnapshot(t *testing.T) {
	cc := NewContentCache(newTestCache(t))
	ctx := context.Background()

	snapshot := models.ProgressUpdate{TotalXP: 350, CurrentLevel: 3, LevelTitle: "Beginner"}
	if err := cc.PutProgressSnapshot(ctx, "student-1", snapshot); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := cc.GetProgressSnapshot(ctx, "student-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalXP != 350 || got.CurrentLevel != 3 {
		t.Errorf("got %+v, want the stored snapshot", got)
	}
}
