package reports

import (
	"context"
	"fmt"

	"github.com/brightmind-edu/tutor-journey-service/internal/models"
	"github.com/brightmind-edu/tutor-journey-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// Exporter produces downloadable progress reports for a student from the
// persisted quiz and lesson records.
type Exporter struct {
	results repositories.ResultsRepository
}

func NewExporter(results repositories.ResultsRepository) *Exporter {
	return &Exporter{results: results}
}

// ExportProgressReport builds an Excel workbook with a summary sheet and one
// row per completed quiz and lesson.
func (e *Exporter) ExportProgressReport(ctx context.Context, studentID string, progress models.ProgressUpdate) ([]byte, error) {
	quizzes, err := e.results.ListQuizResultsByStudent(ctx, studentID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz results: %w", err)
	}
	lessons, err := e.results.ListLessonProgressByStudent(ctx, studentID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load lesson progress: %w", err)
	}

	f := excelize.NewFile()

	if err := e.writeSummarySheet(f, studentID, progress, len(quizzes), len(lessons)); err != nil {
		return nil, err
	}
	if err := e.writeQuizSheet(f, quizzes); err != nil {
		return nil, err
	}
	if err := e.writeLessonSheet(f, lessons); err != nil {
		return nil, err
	}

	// Drop the default sheet so the summary opens first.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to finalize workbook: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) writeSummarySheet(f *excelize.File, studentID string, progress models.ProgressUpdate, quizCount, lessonCount int) error {
	sheetName := "Summary"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	rows := [][]interface{}{
		{"Student ID", studentID},
		{"Total XP", progress.TotalXP},
		{"Level", progress.CurrentLevel},
		{"Level Title", progress.LevelTitle},
		{"XP To Next Level", progress.XPToNextLevel},
		{"Streak (days)", progress.CurrentStreakDays},
		{"Lessons Completed", lessonCount},
		{"Quizzes Completed", quizCount},
	}
	for i, row := range rows {
		for j, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+j, i+1)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}

func (e *Exporter) writeQuizSheet(f *excelize.File, quizzes []*models.QuizResultRecord) error {
	sheetName := "Quiz Results"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []string{
		"Quiz ID", "Quiz Type", "Subject", "Section", "Correct", "Total",
		"Score %", "XP Earned", "Completed At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, record := range quizzes {
		row := []interface{}{
			record.QuizID,
			record.QuizType,
			record.Subject,
			record.SectionIndex,
			record.CorrectAnswers,
			record.TotalQuestions,
			record.ScorePercentage,
			record.XPEarned,
			record.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}

func (e *Exporter) writeLessonSheet(f *excelize.File, lessons []*models.LessonProgressRecord) error {
	sheetName := "Lessons"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []string{
		"Lesson ID", "Topic", "Difficulty", "Section", "Time Spent (s)", "Completed At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, record := range lessons {
		row := []interface{}{
			record.LessonID,
			record.Topic,
			record.Difficulty,
			record.SectionIndex,
			record.TimeSpentSeconds,
			record.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}
