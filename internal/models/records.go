package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuizResultRecord is the persisted form of a completed quiz evaluation.
// Writes are best-effort: the journey never blocks on them.
type QuizResultRecord struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"not null;size:64;index"`
	QuizID    string `json:"quiz_id" gorm:"not null;size:64;index"`
	QuizType  string `json:"quiz_type" gorm:"not null;size:32"`
	Subject   string `json:"subject" gorm:"size:200;index"`
	Topic     string `json:"topic" gorm:"size:200"`

	SectionIndex    int     `json:"section_index"`
	TotalQuestions  int     `json:"total_questions" gorm:"not null"`
	CorrectAnswers  int     `json:"correct_answers" gorm:"not null"`
	ScorePercentage float64 `json:"score_percentage" gorm:"not null"`
	XPEarned        int     `json:"xp_earned"`

	// Per-question feedback, serialized as-is for analytics.
	Feedback datatypes.JSON `json:"feedback" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
}

func (QuizResultRecord) TableName() string {
	return "quiz_results"
}

// LessonProgressRecord is the persisted completion record for one lesson.
type LessonProgressRecord struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	StudentID  string `json:"student_id" gorm:"not null;size:64;index"`
	LessonID   string `json:"lesson_id" gorm:"not null;size:64;index"`
	Topic      string `json:"lesson_topic" gorm:"size:200"`
	Difficulty string `json:"lesson_difficulty" gorm:"size:32"`

	SectionIndex     int  `json:"section_index"`
	TimeSpentSeconds int  `json:"time_spent_seconds"`
	QuizTaken        bool `json:"quiz_taken"`
	XPEarned         int  `json:"xp_earned"`

	CreatedAt time.Time `json:"created_at"`
}

func (LessonProgressRecord) TableName() string {
	return "lesson_progress"
}
