package models

import (
	"encoding/json"
	"fmt"
)

type QuestionType string

const (
	// MCSA is multiple choice with a single correct answer.
	MCSA QuestionType = "mcsa"
	// MCMA is multiple choice with multiple correct answers (select all that apply).
	MCMA        QuestionType = "mcma"
	TrueFalse   QuestionType = "true_false"
	FillInBlank QuestionType = "fill_in_blank"
	WordMatch   QuestionType = "word_match"
)

// IsScalar reports whether answers for this question type are a single string
// rather than a collection.
func (t QuestionType) IsScalar() bool {
	return t == MCSA || t == TrueFalse
}

type QuizType string

const (
	QuizDiagnostic      QuizType = "diagnostic"
	QuizPop             QuizType = "pop_quiz"
	QuizProgressCheck   QuizType = "progress_check"
	QuizFinalAssessment QuizType = "final_assessment"
)

type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

// WordPair is one word/definition pairing used by word_match questions.
// Students submit pair tokens of the form "word-<definition index>".
type WordPair struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
}

// AnswerKey is a question's correct answer. The agent encodes it as either a
// JSON string (mcsa, true_false) or a JSON array of strings (mcma,
// fill_in_blank, word_match), so both shapes are preserved here.
type AnswerKey struct {
	Value  string
	Values []string
}

// ScalarKey builds a single-string answer key.
func ScalarKey(value string) AnswerKey {
	return AnswerKey{Value: value}
}

// ListKey builds a collection answer key.
func ListKey(values ...string) AnswerKey {
	return AnswerKey{Values: values}
}

// IsList reports whether the key holds a collection.
func (k AnswerKey) IsList() bool {
	return k.Values != nil
}

func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		k.Value = s
		k.Values = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		k.Value = ""
		k.Values = list
		return nil
	}
	return fmt.Errorf("answer key must be a string or an array of strings, got %s", string(data))
}

func (k AnswerKey) MarshalJSON() ([]byte, error) {
	if k.IsList() {
		return json.Marshal(k.Values)
	}
	return json.Marshal(k.Value)
}

// Question is one assessable unit. Questions are immutable once received
// from the tutoring agent and owned by their Quiz.
type Question struct {
	ID            string       `json:"question_id" validate:"required"`
	Type          QuestionType `json:"question_type" validate:"required,question_type"`
	Text          string       `json:"question_text" validate:"required"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer AnswerKey    `json:"correct_answer"`
	WordPairs     []WordPair   `json:"word_pairs,omitempty"`

	// Fill-in-blank presentation fields ({blank} markers in the template).
	SentenceTemplate string `json:"sentence_template,omitempty"`
	BlankPositions   []int  `json:"blank_positions,omitempty"`

	Difficulty  DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Topic       string          `json:"topic"`
	Points      int             `json:"points"`
	Hint        string          `json:"hint,omitempty"`
	Explanation string          `json:"explanation"`
	SkillAreas  []string        `json:"skill_areas,omitempty"`
}

// Quiz is an ordered sequence of questions. The order is presentation order.
// A quiz is replaced wholesale when the next one is loaded, never merged.
type Quiz struct {
	ID               string          `json:"quiz_id" validate:"required"`
	Type             QuizType        `json:"quiz_type" validate:"required,quiz_type"`
	Topic            string          `json:"topic"`
	Difficulty       DifficultyLevel `json:"difficulty_level"`
	Questions        []Question      `json:"questions" validate:"required,min=1,dive"`
	TotalQuestions   int             `json:"total_questions"`
	TimeLimitSeconds *int            `json:"time_limit_seconds,omitempty"`
	PassingScore     float64         `json:"passing_score_percentage"`
}
