package models

// VocabularyWord is one word/definition/example triple from a lesson's
// vocabulary list.
type VocabularyWord struct {
	Word            string          `json:"word"`
	Definition      string          `json:"definition"`
	ExampleSentence string          `json:"example_sentence"`
	Difficulty      DifficultyLevel `json:"difficulty,omitempty"`
	PartOfSpeech    string          `json:"part_of_speech,omitempty"`
}

// LessonContent is a block of instructional material. Immutable; owned by
// the current journey stage.
type LessonContent struct {
	ID                 string           `json:"lesson_id" validate:"required"`
	Topic              string           `json:"topic"`
	Title              string           `json:"title" validate:"required"`
	Content            string           `json:"content" validate:"required"` // HTML body
	Difficulty         DifficultyLevel  `json:"difficulty_level"`
	KeyVocabulary      []VocabularyWord `json:"key_vocabulary,omitempty"`
	LearningObjectives []string         `json:"learning_objectives,omitempty"`
	EstimatedMinutes   int              `json:"estimated_time_minutes,omitempty"`
}

// SectionPlan is one planned lesson+quiz unit inside a learning plan.
type SectionPlan struct {
	Topic              string          `json:"topic"`
	Difficulty         DifficultyLevel `json:"difficulty"`
	LearningObjectives []string        `json:"learning_objectives"`
	SkillAreas         []string        `json:"skill_areas"`
	EstimatedMinutes   int             `json:"estimated_time_minutes"`
}

// LessonPlan is the agent-generated plan produced from diagnostic results.
// Journeys always have exactly TotalJourneySections sections.
type LessonPlan struct {
	ID       string        `json:"plan_id"`
	Subject  string        `json:"subject"`
	Sections []SectionPlan `json:"sections"`
}

// SectionContent pairs a section's lesson with its quiz. It is the payload
// unit for speculative prefetch: both arrive in one agent response.
type SectionContent struct {
	SectionIndex int            `json:"section_index"`
	Lesson       *LessonContent `json:"lesson"`
	Quiz         *Quiz          `json:"quiz"`
}
