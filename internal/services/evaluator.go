package services

import (
	"fmt"

	"github.com/brightmind-edu/tutor-journey-service/internal/models"
)

// Reward policy. These are fixed constants, not per-call configuration.
const (
	// XPPerCorrectAnswer is the base reward for each correct answer.
	XPPerCorrectAnswer = 10
	// HighScoreBonusXP is awarded at or above HighScoreThreshold percent.
	HighScoreBonusXP   = 50
	HighScoreThreshold = 90.0
	// GoodScoreBonusXP is awarded at or above GoodScoreThreshold percent.
	GoodScoreBonusXP   = 25
	GoodScoreThreshold = 80.0
)

// EvaluateQuiz scores a completed answer set against a quiz, entirely
// locally. The answers slice must be the same length as the quiz's question
// list; missing answers are zero values and score as incorrect. Length
// mismatches and zero-question quizzes are contract violations and fail
// loudly — silent mis-scoring is worse than a visible bug.
func EvaluateQuiz(quiz *models.Quiz, answers []models.StudentAnswer) (*models.QuizEvaluation, error) {
	if quiz == nil || len(quiz.Questions) == 0 {
		return nil, ErrEmptyQuiz
	}
	if len(answers) != len(quiz.Questions) {
		return nil, fmt.Errorf("%w: %d answers for %d questions",
			ErrAnswerCountMismatch, len(answers), len(quiz.Questions))
	}

	total := len(quiz.Questions)
	feedback := make([]models.QuestionFeedback, total)
	correctCount := 0

	for i, question := range quiz.Questions {
		isCorrect := CompareAnswers(answers[i], question.CorrectAnswer, question.Type)
		if isCorrect {
			correctCount++
		}
		feedback[i] = models.QuestionFeedback{
			QuestionID:    question.ID,
			IsCorrect:     isCorrect,
			StudentAnswer: answers[i],
			CorrectAnswer: question.CorrectAnswer,
			Explanation:   question.Explanation,
		}
	}

	score := 100 * float64(correctCount) / float64(total)

	return &models.QuizEvaluation{
		QuizID:          quiz.ID,
		QuizType:        quiz.Type,
		Feedback:        feedback,
		CorrectCount:    correctCount,
		TotalQuestions:  total,
		ScorePercentage: score,
		XPEarned:        rewardXP(correctCount, score),
	}, nil
}

// rewardXP computes the reward points for a quiz: a per-correct base plus a
// tiered bonus with inclusive thresholds.
func rewardXP(correctCount int, scorePercentage float64) int {
	xp := XPPerCorrectAnswer * correctCount
	switch {
	case scorePercentage >= HighScoreThreshold:
		xp += HighScoreBonusXP
	case scorePercentage >= GoodScoreThreshold:
		xp += GoodScoreBonusXP
	}
	return xp
}

// AreAllQuestionsAnswered reports whether every question has a provided
// answer. This predicate gates quiz submission in the UI.
func AreAllQuestionsAnswered(answers []models.StudentAnswer, expectedCount int) bool {
	if len(answers) != expectedCount {
		return false
	}
	for _, answer := range answers {
		if !answer.Provided() {
			return false
		}
	}
	return true
}
