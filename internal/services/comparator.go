package services

import (
	"sort"
	"strings"

	"github.com/brightmind-edu/tutor-journey-service/internal/models"
)

// CompareAnswers reports whether a student's submitted answer matches the
// expected answer under the comparison semantics of the question type.
//
// Any shape mismatch — wrong answer tag, a collection where a scalar is
// expected, or the reverse — evaluates to not-correct rather than failing.
// Mis-grading a malformed submission as wrong is safe; erroring out of a
// quiz evaluation is not.
func CompareAnswers(student models.StudentAnswer, correct models.AnswerKey, questionType models.QuestionType) bool {
	if student.Kind != questionType {
		return false
	}

	switch questionType {
	case models.MCSA, models.TrueFalse:
		// Case-insensitive, whitespace-trimmed exact match.
		if correct.IsList() {
			return false
		}
		return canonical(student.Text) == canonical(correct.Value)

	case models.MCMA:
		// Set equality: order irrelevant, duplicates collapse.
		if !correct.IsList() || len(student.Items) == 0 {
			return false
		}
		return setsEqual(student.Items, correct.Values)

	case models.FillInBlank:
		// Positional equality: order matters.
		if !correct.IsList() || len(student.Items) != len(correct.Values) {
			return false
		}
		for i, item := range student.Items {
			if canonical(item) != canonical(correct.Values[i]) {
				return false
			}
		}
		return true

	case models.WordMatch:
		// Pair tokens ("word-<definition index>") compared as sorted
		// canonical sequences: order irrelevant, every pairing must match.
		if !correct.IsList() {
			return false
		}
		return sortedEqual(student.Items, correct.Values)

	default:
		return false
	}
}

func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func setsEqual(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, v := range a {
		as[canonical(v)] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, v := range b {
		bs[canonical(v)] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for k := range as {
		if _, ok := bs[k]; !ok {
			return false
		}
	}
	return true
}

func sortedEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	ac := make([]string, len(a))
	for i, v := range a {
		ac[i] = canonical(v)
	}
	bc := make([]string, len(b))
	for i, v := range b {
		bc[i] = canonical(v)
	}
	sort.Strings(ac)
	sort.Strings(bc)
	for i := range ac {
		if ac[i] != bc[i] {
			return false
		}
	}
	return true
}
