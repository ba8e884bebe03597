package model

// QuestionKind defines how a question is answered
type QuestionKind string

const (
	KindSingleChoice QuestionKind = "single-choice" // One option, may carry elaboration
	KindMultiChoice  QuestionKind = "multi-choice"  // Set of options
	KindFreeText     QuestionKind = "free-text"     // Any text, empty means unanswered
	KindScale        QuestionKind = "scale"         // Integer 1-10, advances on selection
)

// Scale bounds shared by every scale question
const (
	ScaleMin = 1
	ScaleMax = 10
)

// Flow position sentinels
const (
	PositionContact = "contact" // Question sequence exhausted, collect contact info
	PositionDone    = "done"    // Final submission accepted
)

// Question is an immutable catalog entry
type Question struct {
	ID       string       `json:"id" bson:"id"`
	Prompt   string       `json:"prompt" bson:"prompt"`
	Kind     QuestionKind `json:"kind" bson:"kind"`
	Options  []string     `json:"options,omitempty" bson:"options,omitempty"` // choice kinds only
	Optional bool         `json:"optional,omitempty" bson:"optional,omitempty"`
}

// IsChoice reports whether answers are drawn from Options
func (q Question) IsChoice() bool {
	return q.Kind == KindSingleChoice || q.Kind == KindMultiChoice
}

// AutoAdvance reports whether the UI should submit on selection without a "Next" step
func (q Question) AutoAdvance() bool {
	return q.Kind == KindScale
}

// OptionIndex returns the position of option in Options, or -1
func (q Question) OptionIndex(option string) int {
	for i, o := range q.Options {
		if o == option {
			return i
		}
	}
	return -1
}
