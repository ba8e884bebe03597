package flow

import (
	"fmt"

	"leadfunnel/internal/model"
)

// Catalog is the fixed, read-only set of survey questions
type Catalog struct {
	entry     string
	order     []string
	questions map[string]model.Question
}

// NewCatalog builds a catalog from questions. The first question is the entry question.
func NewCatalog(questions []model.Question) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("catalog needs at least one question")
	}

	c := &Catalog{
		entry:     questions[0].ID,
		order:     make([]string, 0, len(questions)),
		questions: make(map[string]model.Question, len(questions)),
	}
	for _, q := range questions {
		if q.ID == "" || q.ID == model.PositionContact || q.ID == model.PositionDone {
			return nil, fmt.Errorf("invalid question id %q", q.ID)
		}
		if _, dup := c.questions[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		if q.IsChoice() && len(q.Options) == 0 {
			return nil, fmt.Errorf("question %q: %s needs options", q.ID, q.Kind)
		}
		if !q.IsChoice() && len(q.Options) > 0 {
			return nil, fmt.Errorf("question %q: %s cannot have options", q.ID, q.Kind)
		}
		q.Options = append([]string(nil), q.Options...)
		c.questions[q.ID] = q
		c.order = append(c.order, q.ID)
	}
	return c, nil
}

// GetQuestion returns the question with id or a *NotFoundError
func (c *Catalog) GetQuestion(id string) (model.Question, error) {
	q, ok := c.questions[id]
	if !ok {
		return model.Question{}, &NotFoundError{ID: id}
	}
	return q, nil
}

// Has reports whether id is a catalog question
func (c *Catalog) Has(id string) bool {
	_, ok := c.questions[id]
	return ok
}

// IsEntryQuestion reports whether id is the starting question
func (c *Catalog) IsEntryQuestion(id string) bool {
	return id == c.entry
}

// Entry returns the starting question id
func (c *Catalog) Entry() string {
	return c.entry
}

// Len returns the total question count
func (c *Catalog) Len() int {
	return len(c.order)
}

// IDs returns question ids in declaration order
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// Questions returns all questions in declaration order
func (c *Catalog) Questions() []model.Question {
	out := make([]model.Question, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.questions[id])
	}
	return out
}
