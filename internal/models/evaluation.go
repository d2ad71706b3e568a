package models

// QuestionFeedback is the per-question record inside a quiz evaluation.
type QuestionFeedback struct {
	QuestionID    string        `json:"question_id"`
	IsCorrect     bool          `json:"is_correct"`
	StudentAnswer StudentAnswer `json:"student_answer"`
	CorrectAnswer AnswerKey     `json:"correct_answer"`
	Explanation   string        `json:"explanation"`
}

// QuizEvaluation is the read-only result of evaluating a completed answer set
// against a quiz. Computed once per submission, never mutated afterward.
type QuizEvaluation struct {
	QuizID          string             `json:"quiz_id"`
	QuizType        QuizType           `json:"quiz_type"`
	Feedback        []QuestionFeedback `json:"feedback"`
	CorrectCount    int                `json:"correct_count"`
	TotalQuestions  int                `json:"total_questions"`
	ScorePercentage float64            `json:"score_percentage"`
	XPEarned        int                `json:"xp_earned"`
}

// Passed reports whether the score met the quiz's passing threshold.
func (e *QuizEvaluation) Passed(passingScore float64) bool {
	return e.ScorePercentage >= passingScore
}
