package flow

import "leadfunnel/internal/model"

// AnswerStore accumulates answers for one session. It writes through to the
// map it wraps, so a FlowSession's Answers field stays the single source of truth.
type AnswerStore struct {
	catalog *Catalog
	answers map[string]model.Answer
}

// NewAnswerStore wraps answers; a nil map starts an empty store
func NewAnswerStore(c *Catalog, answers map[string]model.Answer) *AnswerStore {
	if answers == nil {
		answers = make(map[string]model.Answer)
	}
	return &AnswerStore{catalog: c, answers: answers}
}

// Set records or overwrites the answer for id
func (s *AnswerStore) Set(id string, v model.Answer) error {
	q, err := s.catalog.GetQuestion(id)
	if err != nil {
		return err
	}
	if err := checkShape(q, v); err != nil {
		return err
	}
	if len(v.Choices) > 0 {
		v.Choices = append([]string(nil), v.Choices...)
	}
	s.answers[id] = v
	return nil
}

// Get returns the answer for id, if any
func (s *AnswerStore) Get(id string) (model.Answer, bool) {
	v, ok := s.answers[id]
	return v, ok
}

// AnsweredCount counts catalog questions that have an answer
func (s *AnswerStore) AnsweredCount() int {
	n := 0
	for id := range s.answers {
		if s.catalog.Has(id) {
			n++
		}
	}
	return n
}

// ProgressFraction is AnsweredCount over the catalog size, clamped to [0, 1]
func (s *AnswerStore) ProgressFraction() float64 {
	total := s.catalog.Len()
	if total == 0 {
		return 0
	}
	f := float64(s.AnsweredCount()) / float64(total)
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}

// Map returns the wrapped map
func (s *AnswerStore) Map() map[string]model.Answer {
	return s.answers
}

// Snapshot returns a deep copy of the recorded answers
func (s *AnswerStore) Snapshot() map[string]model.Answer {
	return copyAnswers(s.answers)
}

func copyAnswers(in map[string]model.Answer) map[string]model.Answer {
	out := make(map[string]model.Answer, len(in))
	for id, v := range in {
		if v.Choices != nil {
			v.Choices = append([]string(nil), v.Choices...)
		}
		out[id] = v
	}
	return out
}
