package models

import "strings"

// StudentAnswer is one submission for one question, tagged by the question
// type it answers. Scalar types (mcsa, true_false) carry Text; collection
// types carry Items — ordered for fill_in_blank, unordered selections for
// mcma, and "word-<definition index>" pair tokens for word_match.
type StudentAnswer struct {
	Kind  QuestionType `json:"kind"`
	Text  string       `json:"text,omitempty"`
	Items []string     `json:"items,omitempty"`
}

// TextAnswer builds a scalar answer.
func TextAnswer(kind QuestionType, text string) StudentAnswer {
	return StudentAnswer{Kind: kind, Text: text}
}

// ListAnswer builds a collection answer.
func ListAnswer(kind QuestionType, items ...string) StudentAnswer {
	return StudentAnswer{Kind: kind, Items: items}
}

// Provided reports whether the answer counts as given: scalar answers need a
// non-blank string, collection answers need at least one element with every
// element non-blank. This predicate gates quiz submission.
func (a StudentAnswer) Provided() bool {
	if a.Kind.IsScalar() {
		return strings.TrimSpace(a.Text) != ""
	}
	if len(a.Items) == 0 {
		return false
	}
	for _, item := range a.Items {
		if strings.TrimSpace(item) == "" {
			return false
		}
	}
	return true
}
