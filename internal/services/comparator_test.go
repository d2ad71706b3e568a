package services

import (
	"testing"

	"github.com/brightmind-edu/tutor-journey-service/internal/models"
)

func TestCompareAnswers_Scalar(t *testing.T) {
	tests := []struct {
		name     string
		kind     models.QuestionType
		student  models.StudentAnswer
		correct  models.AnswerKey
		expected bool
	}{
		{
			name:     "mcsa exact match",
			kind:     models.MCSA,
			student:  models.TextAnswer(models.MCSA, "Paris"),
			correct:  models.ScalarKey("Paris"),
			expected: true,
		},
		{
			name:     "mcsa case insensitive",
			kind:     models.MCSA,
			student:  models.TextAnswer(models.MCSA, "PARIS"),
			correct:  models.ScalarKey("paris"),
			expected: true,
		},
		{
			name:     "mcsa surrounding whitespace ignored",
			kind:     models.MCSA,
			student:  models.TextAnswer(models.MCSA, "  Paris  "),
			correct:  models.ScalarKey("Paris"),
			expected: true,
		},
		{
			name:     "mcsa wrong answer",
			kind:     models.MCSA,
			student:  models.TextAnswer(models.MCSA, "London"),
			correct:  models.ScalarKey("Paris"),
			expected: false,
		},
		{
			name:     "mcsa internal whitespace matters",
			kind:     models.MCSA,
			student:  models.TextAnswer(models.MCSA, "Pa ris"),
			correct:  models.ScalarKey("Paris"),
			expected: false,
		},
		{
			name:     "true_false match",
			kind:     models.TrueFalse,
			student:  models.TextAnswer(models.TrueFalse, "True"),
			correct:  models.ScalarKey("true"),
			expected: true,
		},
		{
			name:     "true_false mismatch",
			kind:     models.TrueFalse,
			student:  models.TextAnswer(models.TrueFalse, "false"),
			correct:  models.ScalarKey("true"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareAnswers(tt.student, tt.correct, tt.kind)
			if got != tt.expected {
				t.Errorf("CompareAnswers() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCompareAnswers_MCMA(t *testing.T) {
	correct := models.ListKey("a", "b", "c")

	t.Run("order does not matter", func(t *testing.T) {
		student := models.ListAnswer(models.MCMA, "c", "a", "b")
		if !CompareAnswers(student, correct, models.MCMA) {
			t.Error("expected reordered selection to match")
		}
	})

	t.Run("missing selection fails", func(t *testing.T) {
		student := models.ListAnswer(models.MCMA, "a", "b")
		if CompareAnswers(student, correct, models.MCMA) {
			t.Error("expected missing selection to fail")
		}
	})

	t.Run("extra selection fails", func(t *testing.T) {
		student := models.ListAnswer(models.MCMA, "a", "b", "c", "d")
		if CompareAnswers(student, correct, models.MCMA) {
			t.Error("expected extra selection to fail")
		}
	})

	t.Run("duplicates collapse to set", func(t *testing.T) {
		student := models.ListAnswer(models.MCMA, "a", "a", "b", "c")
		if !CompareAnswers(student, correct, models.MCMA) {
			t.Error("expected duplicate selections to collapse")
		}
	})

	t.Run("case insensitive elements", func(t *testing.T) {
		student := models.ListAnswer(models.MCMA, "A", "B", "C")
		if !CompareAnswers(student, correct, models.MCMA) {
			t.Error("expected case-insensitive element match")
		}
	})
}

func TestCompareAnswers_FillInBlank(t *testing.T) {
	correct := models.ListKey("went", "store")

	t.Run("positional match", func(t *testing.T) {
		student := models.ListAnswer(models.FillInBlank, "went", "store")
		if !CompareAnswers(student, correct, models.FillInBlank) {
			t.Error("expected positional match")
		}
	})

	t.Run("swapped positions fail", func(t *testing.T) {
		student := models.ListAnswer(models.FillInBlank, "store", "went")
		if CompareAnswers(student, correct, models.FillInBlank) {
			t.Error("expected swapped blanks to fail")
		}
	})

	t.Run("length mismatch fails", func(t *testing.T) {
		student := models.ListAnswer(models.FillInBlank, "went")
		if CompareAnswers(student, correct, models.FillInBlank) {
			t.Error("expected length mismatch to fail")
		}
	})

	t.Run("per blank canonicalization", func(t *testing.T) {
		student := models.ListAnswer(models.FillInBlank, " WENT ", "Store")
		if !CompareAnswers(student, correct, models.FillInBlank) {
			t.Error("expected trimmed lowercase comparison per blank")
		}
	})
}

func TestCompareAnswers_WordMatch(t *testing.T) {
	correct := models.ListKey("cat-0", "dog-1", "bird-2")

	t.Run("pairings in any order", func(t *testing.T) {
		student := models.ListAnswer(models.WordMatch, "dog-1", "bird-2", "cat-0")
		if !CompareAnswers(student, correct, models.WordMatch) {
			t.Error("expected reordered pair tokens to match")
		}
	})

	t.Run("wrong pairing fails", func(t *testing.T) {
		student := models.ListAnswer(models.WordMatch, "cat-1", "dog-0", "bird-2")
		if CompareAnswers(student, correct, models.WordMatch) {
			t.Error("expected wrong pairings to fail")
		}
	})

	t.Run("incomplete pairings fail", func(t *testing.T) {
		student := models.ListAnswer(models.WordMatch, "cat-0", "dog-1")
		if CompareAnswers(student, correct, models.WordMatch) {
			t.Error("expected incomplete pairings to fail")
		}
	})
}

func TestCompareAnswers_ShapeMismatch(t *testing.T) {
	t.Run("list answer for scalar question", func(t *testing.T) {
		student := models.ListAnswer(models.MCSA, "Paris")
		if CompareAnswers(student, models.ScalarKey("Paris"), models.MCSA) {
			t.Error("expected list-shaped answer for scalar question to fail")
		}
	})

	t.Run("scalar answer for collection question", func(t *testing.T) {
		student := models.TextAnswer(models.MCMA, "a")
		if CompareAnswers(student, models.ListKey("a"), models.MCMA) {
			t.Error("expected scalar-shaped answer for collection question to fail")
		}
	})

	t.Run("answer kind disagrees with question type", func(t *testing.T) {
		student := models.TextAnswer(models.TrueFalse, "true")
		if CompareAnswers(student, models.ScalarKey("true"), models.MCSA) {
			t.Error("expected mismatched answer kind to fail")
		}
	})

	t.Run("scalar key for collection question", func(t *testing.T) {
		student := models.ListAnswer(models.MCMA, "a")
		if CompareAnswers(student, models.ScalarKey("a"), models.MCMA) {
			t.Error("expected scalar key for collection question to fail")
		}
	})

	t.Run("empty submission fails against a real key", func(t *testing.T) {
		student := models.StudentAnswer{Kind: models.MCSA}
		if CompareAnswers(student, models.ScalarKey("Paris"), models.MCSA) {
			t.Error("expected empty submission to fail")
		}
	})
}
