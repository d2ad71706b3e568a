package models

// TotalJourneySections is the fixed number of lesson+quiz sections composing
// a subject's learning journey.
const TotalJourneySections = 3

type JourneyStage string

const (
	StageSubjectSelection  JourneyStage = "subject_selection"
	StageDiagnostic        JourneyStage = "diagnostic"
	StageDiagnosticResults JourneyStage = "diagnostic_results"
	StagePlanning          JourneyStage = "planning"
	StageSectionLesson     JourneyStage = "section_lesson"
	StageSectionQuiz       JourneyStage = "section_quiz"
	StageSectionSummary    JourneyStage = "section_summary"
	StageOverallSummary    JourneyStage = "overall_summary"
)

// SectionPerformance is the per-section score snapshot retained for the
// lifetime of a journey. Future sections may adapt to it, but adaptation is
// the remote agent's responsibility, not the client's.
type SectionPerformance struct {
	SectionIndex   int      `json:"section_number"`
	ScorePercent   float64  `json:"quiz_score"`
	CorrectAnswers int      `json:"correct_answers"`
	TotalQuestions int      `json:"total_questions"`
	Struggles      []string `json:"struggles,omitempty"`
}
