package events

import (
	"time"

	"github.com/brightmind-edu/tutor-journey-service/internal/models"
)

// EventType represents different types of journey events
type EventType string

const (
	// Quiz events
	EventQuizCompleted EventType = "quiz.completed"

	// Lesson/section events
	EventLessonCompleted  EventType = "lesson.completed"
	EventSectionCompleted EventType = "section.completed"

	// Progress events
	EventLevelUp             EventType = "progress.level_up"
	EventAchievementUnlocked EventType = "progress.achievement_unlocked"

	// Journey events
	EventJourneyStarted   EventType = "journey.started"
	EventJourneyCompleted EventType = "journey.completed"
)

// JourneyEvent is the base event structure for all journey events
type JourneyEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	StudentID string                 `json:"student_id"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type QuizCompletedEvent struct {
	QuizID          string          `json:"quiz_id"`
	QuizType        models.QuizType `json:"quiz_type"`
	Topic           string          `json:"topic"`
	CorrectAnswers  int             `json:"correct_answers"`
	TotalQuestions  int             `json:"total_questions"`
	ScorePercentage float64         `json:"score_percentage"`
	XPEarned        int             `json:"xp_earned"`
	CompletedAt     time.Time       `json:"completed_at"`
}

type LessonCompletedEvent struct {
	LessonID         string    `json:"lesson_id"`
	Topic            string    `json:"topic"`
	SectionIndex     int       `json:"section_index"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	CompletedAt      time.Time `json:"completed_at"`
}

type SectionCompletedEvent struct {
	SectionIndex    int       `json:"section_index"`
	Subject         string    `json:"subject"`
	ScorePercentage float64   `json:"score_percentage"`
	CompletedAt     time.Time `json:"completed_at"`
}

type LevelUpEvent struct {
	NewLevel   int    `json:"new_level"`
	TotalXP    int    `json:"total_xp"`
	LevelTitle string `json:"level_title"`
}

type AchievementUnlockedEvent struct {
	AchievementID string             `json:"achievement_id"`
	Title         string             `json:"title"`
	Rarity        models.BadgeRarity `json:"rarity"`
	XPReward      int                `json:"xp_reward"`
	UnlockedAt    time.Time          `json:"unlocked_at"`
}

type JourneyStartedEvent struct {
	Subject   string    `json:"subject"`
	StartedAt time.Time `json:"started_at"`
}

type JourneyCompletedEvent struct {
	Subject           string    `json:"subject"`
	SectionsCompleted int       `json:"sections_completed"`
	AverageScore      float64   `json:"average_score"`
	CompletedAt       time.Time `json:"completed_at"`
}
