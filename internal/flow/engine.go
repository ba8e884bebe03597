package flow

import (
	"fmt"
	"time"

	"leadfunnel/internal/model"
)

// DefaultSubmitTimeout bounds one call to the submission collaborator
const DefaultSubmitTimeout = 15 * time.Second

// Engine binds a catalog to its transition table. It is immutable and shared by all sessions.
type Engine struct {
	catalog       *Catalog
	table         *Table
	submitTimeout time.Duration
	now           func() time.Time
}

// NewEngine validates the table against the catalog
func NewEngine(c *Catalog, t *Table) (*Engine, error) {
	if err := t.Validate(c); err != nil {
		return nil, fmt.Errorf("invalid transition table: %w", err)
	}
	return &Engine{
		catalog:       c,
		table:         t,
		submitTimeout: DefaultSubmitTimeout,
		now:           time.Now,
	}, nil
}

// SetSubmitTimeout overrides DefaultSubmitTimeout; non-positive values are ignored
func (e *Engine) SetSubmitTimeout(d time.Duration) {
	if d > 0 {
		e.submitTimeout = d
	}
}

// Catalog returns the question catalog
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Table returns the transition table
func (e *Engine) Table() *Table {
	return e.table
}

// NewSession starts a session at the entry question
func (e *Engine) NewSession(id string) *model.FlowSession {
	now := e.now()
	return &model.FlowSession{
		ID:        id,
		State:     model.FlowInProgress,
		Position:  e.catalog.Entry(),
		Answers:   make(map[string]model.Answer),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Controller attaches a controller to an existing session
func (e *Engine) Controller(s *model.FlowSession) *Controller {
	if s.Answers == nil {
		s.Answers = make(map[string]model.Answer)
	}
	return &Controller{
		engine:  e,
		session: s,
		store:   NewAnswerStore(e.catalog, s.Answers),
	}
}
