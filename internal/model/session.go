package model

import "time"

// FlowState is the controller state of a survey session
type FlowState string

const (
	FlowInProgress     FlowState = "in_progress"
	FlowContactCapture FlowState = "contact_capture"
	FlowSubmitting     FlowState = "submitting"
	FlowComplete       FlowState = "complete"
	FlowFailed         FlowState = "failed"
)

// FlowSession is the complete per-visitor state of one pass through the survey.
// It is owned by a single controller at a time and cached between requests.
type FlowSession struct {
	ID                  string            `json:"id"`
	State               FlowState         `json:"state"`
	Position            string            `json:"position"`          // question id, "contact" or "done"
	Answers             map[string]Answer `json:"answers"`           // question id -> answer
	History             []string          `json:"history,omitempty"` // visited question ids, for Back
	AwaitingElaboration string            `json:"awaitingElaboration,omitempty"`
	Contact             *Contact          `json:"contact,omitempty"`
	FailureReason       string            `json:"failureReason,omitempty"`
	SubmissionID        string            `json:"submissionId,omitempty"`
	Attempts            int               `json:"attempts"`
	ProgressMark        float64           `json:"progressMark,omitempty"` // highest fraction reported so far
	Milestones          map[string]bool   `json:"milestones,omitempty"`   // funnel milestones already counted
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// Progress is the answered/total view exposed to clients
type Progress struct {
	Answered int     `json:"answered"`
	Total    int     `json:"total"`
	Fraction float64 `json:"fraction"`
}

// FlowSnapshot is returned to the UI after every step
type FlowSnapshot struct {
	SessionID           string    `json:"sessionId"`
	State               FlowState `json:"state"`
	Position            string    `json:"position"`
	Question            *Question `json:"question,omitempty"`
	AutoAdvance         bool      `json:"autoAdvance"` // submit on selection, no "Next" step
	CurrentAnswer       *Answer   `json:"currentAnswer,omitempty"`
	AwaitingElaboration string    `json:"awaitingElaboration,omitempty"`
	Progress            Progress  `json:"progress"`
	CanGoBack           bool      `json:"canGoBack"`
	FailureReason       string    `json:"failureReason,omitempty"`
	SubmissionID        string    `json:"submissionId,omitempty"`
}
