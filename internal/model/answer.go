package model

import "strings"

// Answer is the value recorded for one question. Which fields are used depends on the
// question kind: Text for single-choice and free-text, Choices for multi-choice, Scale for scale.
type Answer struct {
	Text    string   `json:"text,omitempty" bson:"text,omitempty"`
	Choices []string `json:"choices,omitempty" bson:"choices,omitempty"`
	Scale   int      `json:"scale,omitempty" bson:"scale,omitempty"`
}

// IsEmpty reports whether the answer carries no value at all
func (a Answer) IsEmpty() bool {
	return strings.TrimSpace(a.Text) == "" && len(a.Choices) == 0 && a.Scale == 0
}

// AnswerInput is what a respondent submits for the current question
type AnswerInput struct {
	Choice      string   `json:"choice,omitempty"`      // single-choice
	Choices     []string `json:"choices,omitempty"`     // multi-choice
	Text        string   `json:"text,omitempty"`        // free-text
	Scale       int      `json:"scale,omitempty"`       // scale
	Elaboration string   `json:"elaboration,omitempty"` // detail for an "other / please specify" option
}

// Contact is collected at the terminal step only
type Contact struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
}
