package flow

import (
	"context"
	"errors"
	"log"

	"leadfunnel/internal/model"
)

// Submitter is the external collaborator that receives a finished survey.
// Implementations may set sub.ID to the identifier they stored it under.
type Submitter interface {
	Submit(ctx context.Context, sub *model.Submission) error
}

// Controller drives one session through the question graph and the
// contact/submission states. It is not safe for concurrent use.
type Controller struct {
	engine  *Engine
	session *model.FlowSession
	store   *AnswerStore
}

// Session returns the controlled session
func (c *Controller) Session() *model.FlowSession {
	return c.session
}

// Store returns the session's answer store
func (c *Controller) Store() *AnswerStore {
	return c.store
}

// State returns the current controller state
func (c *Controller) State() model.FlowState {
	return c.session.State
}

// Current returns the question being asked. Outside in_progress it returns ErrInvalidState.
func (c *Controller) Current() (model.Question, error) {
	if c.session.State != model.FlowInProgress {
		return model.Question{}, ErrInvalidState
	}
	return c.engine.catalog.GetQuestion(c.session.Position)
}

// Submit answers the current question and advances
func (c *Controller) Submit(in model.AnswerInput) error {
	if err := c.requireState(model.FlowInProgress); err != nil {
		return err
	}

	q, err := c.engine.catalog.GetQuestion(c.session.Position)
	if err != nil {
		log.Printf("[Flow] session %s at unknown position %q, resetting", c.session.ID, c.session.Position)
		c.reset()
		return err
	}

	value, err := normalize(q, in)
	var pending *errNeedsElaboration
	if errors.As(err, &pending) {
		c.session.AwaitingElaboration = pending.option
		c.touch()
		return invalid("elaboration", "please specify "+pending.option)
	}
	if err != nil {
		return err
	}

	if !value.IsEmpty() {
		if err := c.store.Set(q.ID, value); err != nil {
			return err
		}
	}
	c.session.AwaitingElaboration = ""

	next, known := c.engine.table.Lookup(q.ID, value)
	if !known {
		log.Printf("[Flow] no route from %q (session %s), ending question sequence", q.ID, c.session.ID)
	}
	c.session.History = append(c.session.History, q.ID)
	c.moveTo(next)
	return nil
}

// Back returns to the previously answered question. Answers are kept.
func (c *Controller) Back() error {
	s := c.session
	switch s.State {
	case model.FlowInProgress, model.FlowContactCapture:
	case model.FlowComplete:
		return ErrFlowComplete
	default:
		return ErrInvalidState
	}
	if len(s.History) == 0 {
		return ErrInvalidState
	}

	prev := s.History[len(s.History)-1]
	s.History = s.History[:len(s.History)-1]
	s.State = model.FlowInProgress
	s.Position = prev
	s.AwaitingElaboration = ""
	c.touch()
	return nil
}

// SubmitContact validates contact details and moves to submitting.
// It is accepted at contact capture and after a failed submission.
func (c *Controller) SubmitContact(name, email string) error {
	if err := c.requireState(model.FlowContactCapture, model.FlowFailed); err != nil {
		return err
	}
	contact, err := ValidateContact(name, email)
	if err != nil {
		return err
	}
	c.session.Contact = &contact
	c.session.State = model.FlowSubmitting
	c.session.FailureReason = ""
	c.touch()
	return nil
}

// Retry re-enters submitting after a failure, reusing the captured contact
func (c *Controller) Retry() error {
	if err := c.requireState(model.FlowFailed); err != nil {
		return err
	}
	if c.session.Contact == nil {
		return ErrInvalidState
	}
	c.session.State = model.FlowSubmitting
	c.session.FailureReason = ""
	c.touch()
	return nil
}

// Finalize hands the payload to sub. Success completes the flow and releases the
// contact; failure moves to failed with answers and contact untouched.
func (c *Controller) Finalize(ctx context.Context, sub Submitter) error {
	if err := c.requireState(model.FlowSubmitting); err != nil {
		return err
	}

	payload := c.Payload()
	c.session.Attempts++

	submitCtx, cancel := context.WithTimeout(ctx, c.engine.submitTimeout)
	defer cancel()

	// Collaborators that ignore ctx still cannot hold the flow past the deadline.
	done := make(chan error, 1)
	go func() { done <- sub.Submit(submitCtx, payload) }()

	var err error
	select {
	case err = <-done:
	case <-submitCtx.Done():
		err = submitCtx.Err()
	}

	if err != nil {
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		c.session.State = model.FlowFailed
		c.session.FailureReason = reason
		c.touch()
		log.Printf("[Flow] submission for session %s failed (attempt %d): %s", c.session.ID, c.session.Attempts, reason)
		return &SubmissionError{Reason: reason, Err: err}
	}

	c.session.State = model.FlowComplete
	c.session.Position = model.PositionDone
	c.session.SubmissionID = payload.ID
	c.session.Contact = nil
	c.session.History = nil
	c.touch()
	return nil
}

// Payload builds the collaborator payload from a copy of the session data
func (c *Controller) Payload() *model.Submission {
	sub := &model.Submission{
		SessionID: c.session.ID,
		Answers:   c.store.Snapshot(),
	}
	if c.session.Contact != nil {
		sub.Contact = *c.session.Contact
	}
	return sub
}

// Recover resets sessions whose position is no longer valid for the catalog.
// It reports whether a reset happened.
func (c *Controller) Recover() bool {
	s := c.session
	switch s.State {
	case model.FlowInProgress:
		if c.engine.catalog.Has(s.Position) {
			return false
		}
	case model.FlowContactCapture, model.FlowSubmitting, model.FlowFailed:
		if s.Position == model.PositionContact {
			return false
		}
	case model.FlowComplete:
		if s.Position == model.PositionDone {
			return false
		}
	}
	log.Printf("[Flow] session %s has invalid position %q in state %s, resetting", s.ID, s.Position, s.State)
	c.reset()
	return true
}

// Progress reports answered questions. Once the question sequence is exhausted
// the fraction is 1. The fraction never drops below the session's high-water
// mark, so going Back does not move the bar backwards.
func (c *Controller) Progress() model.Progress {
	p := model.Progress{
		Answered: c.store.AnsweredCount(),
		Total:    c.engine.catalog.Len(),
		Fraction: c.fraction(),
	}
	if c.session.ProgressMark > p.Fraction {
		p.Fraction = c.session.ProgressMark
	}
	return p
}

func (c *Controller) fraction() float64 {
	if c.session.State != model.FlowInProgress {
		return 1
	}
	return c.store.ProgressFraction()
}

// Snapshot renders the session for clients
func (c *Controller) Snapshot() model.FlowSnapshot {
	s := c.session
	snap := model.FlowSnapshot{
		SessionID:           s.ID,
		State:               s.State,
		Position:            s.Position,
		AwaitingElaboration: s.AwaitingElaboration,
		Progress:            c.Progress(),
		FailureReason:       s.FailureReason,
		SubmissionID:        s.SubmissionID,
		CanGoBack: len(s.History) > 0 &&
			(s.State == model.FlowInProgress || s.State == model.FlowContactCapture),
	}
	if s.State == model.FlowInProgress {
		if q, err := c.engine.catalog.GetQuestion(s.Position); err == nil {
			snap.Question = &q
			snap.AutoAdvance = q.AutoAdvance()
			if a, ok := c.store.Get(q.ID); ok {
				snap.CurrentAnswer = &a
			}
		}
	}
	return snap
}

func (c *Controller) moveTo(next string) {
	if next != Terminal && !c.engine.catalog.Has(next) {
		log.Printf("[Flow] route target %q missing from catalog (session %s), ending question sequence", next, c.session.ID)
		next = Terminal
	}
	if next == Terminal {
		c.session.State = model.FlowContactCapture
		c.session.Position = model.PositionContact
	} else {
		c.session.Position = next
	}
	c.touch()
}

func (c *Controller) reset() {
	fresh := c.engine.NewSession(c.session.ID)
	fresh.CreatedAt = c.session.CreatedAt
	fresh.Milestones = c.session.Milestones
	*c.session = *fresh
	c.store = NewAnswerStore(c.engine.catalog, c.session.Answers)
}

func (c *Controller) requireState(allowed ...model.FlowState) error {
	for _, st := range allowed {
		if c.session.State == st {
			return nil
		}
	}
	if c.session.State == model.FlowComplete {
		return ErrFlowComplete
	}
	return ErrInvalidState
}

func (c *Controller) touch() {
	c.session.UpdatedAt = c.engine.now()
	if f := c.fraction(); f > c.session.ProgressMark {
		c.session.ProgressMark = f
	}
}
