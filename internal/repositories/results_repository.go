package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brightmind-edu/tutor-journey-service/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ResultsRepository persists quiz outcomes and lesson completions. Persistence
// here is an audit trail, not the source of truth for journey state; writes
// are best-effort from the orchestrator's point of view.
type ResultsRepository interface {
	SaveQuizResult(ctx context.Context, record *models.QuizResultRecord) error
	SaveLessonProgress(ctx context.Context, record *models.LessonProgressRecord) error
	ListQuizResultsByStudent(ctx context.Context, studentID string, limit int) ([]*models.QuizResultRecord, error)
	ListLessonProgressByStudent(ctx context.Context, studentID string, limit int) ([]*models.LessonProgressRecord, error)
}

type resultsRepository struct {
	db *gorm.DB
}

func NewResultsRepository(db *gorm.DB) ResultsRepository {
	return &resultsRepository{db: db}
}

// AutoMigrate creates or updates the result tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.QuizResultRecord{},
		&models.LessonProgressRecord{},
	)
}

func (r *resultsRepository) SaveQuizResult(ctx context.Context, record *models.QuizResultRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save quiz result: %w", err)
	}
	return nil
}

func (r *resultsRepository) SaveLessonProgress(ctx context.Context, record *models.LessonProgressRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save lesson progress: %w", err)
	}
	return nil
}

func (r *resultsRepository) ListQuizResultsByStudent(ctx context.Context, studentID string, limit int) ([]*models.QuizResultRecord, error) {
	var records []*models.QuizResultRecord
	query := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list quiz results: %w", err)
	}
	return records, nil
}

func (r *resultsRepository) ListLessonProgressByStudent(ctx context.Context, studentID string, limit int) ([]*models.LessonProgressRecord, error) {
	var records []*models.LessonProgressRecord
	query := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list lesson progress: %w", err)
	}
	return records, nil
}

// NewQuizResultRecord builds a persistable record from an evaluation.
func NewQuizResultRecord(studentID, subject string, sectionIndex int, eval *models.QuizEvaluation) (*models.QuizResultRecord, error) {
	feedbackJSON, err := json.Marshal(eval.Feedback)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quiz feedback: %w", err)
	}
	return &models.QuizResultRecord{
		StudentID:       studentID,
		QuizID:          eval.QuizID,
		QuizType:        string(eval.QuizType),
		Subject:         subject,
		SectionIndex:    sectionIndex,
		CorrectAnswers:  eval.CorrectCount,
		TotalQuestions:  eval.TotalQuestions,
		ScorePercentage: eval.ScorePercentage,
		XPEarned:        eval.XPEarned,
		Feedback:        datatypes.JSON(feedbackJSON),
	}, nil
}
