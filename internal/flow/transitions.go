package flow

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"leadfunnel/internal/model"
)

// Terminal is the successor of the last question: proceed to contact capture
const Terminal = model.PositionContact

// Route describes where a question leads. Either Next is set (answer-independent),
// or Prefix/Match/Else route on whether the answer text starts with Prefix.
type Route struct {
	Next   string `json:"next,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Match  string `json:"match,omitempty"`
	Else   string `json:"else,omitempty"`
}

func (r Route) branches() bool {
	return r.Prefix != ""
}

func (r Route) resolve(answer model.Answer) string {
	if !r.branches() {
		return r.Next
	}
	if hasPrefixFold(answerText(answer), r.Prefix) {
		return r.Match
	}
	return r.Else
}

// Edge is one arc of the transition graph
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Table is the declarative transition table
type Table struct {
	routes map[string]Route
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{routes: make(map[string]Route)}
}

// Link routes from to a fixed successor
func (t *Table) Link(from, to string) *Table {
	t.routes[from] = Route{Next: to}
	return t
}

// Sequence links ids in order; the last one leads to Terminal
func (t *Table) Sequence(ids ...string) *Table {
	for i, id := range ids {
		next := Terminal
		if i+1 < len(ids) {
			next = ids[i+1]
		}
		t.Link(id, next)
	}
	return t
}

// BranchOnPrefix routes from to match when the answer starts with prefix, else to other
func (t *Table) BranchOnPrefix(from, prefix, match, other string) *Table {
	t.routes[from] = Route{Prefix: strings.ToLower(prefix), Match: match, Else: other}
	return t
}

// Lookup returns the successor of currentID and whether currentID had a route
func (t *Table) Lookup(currentID string, answer model.Answer) (string, bool) {
	r, ok := t.routes[currentID]
	if !ok {
		return Terminal, false
	}
	return r.resolve(answer), true
}

// NextQuestion returns the successor question id or Terminal. Unknown ids lead to Terminal.
func (t *Table) NextQuestion(currentID string, answer model.Answer) string {
	next, _ := t.Lookup(currentID, answer)
	return next
}

// Validate checks that every catalog question has a route and every destination
// is either a catalog question or Terminal.
func (t *Table) Validate(c *Catalog) error {
	for from, r := range t.routes {
		if !c.Has(from) {
			return fmt.Errorf("route from unknown question %q", from)
		}
		for _, to := range r.targets() {
			if to != Terminal && !c.Has(to) {
				return fmt.Errorf("route %q -> %q: %w", from, to, &NotFoundError{ID: to})
			}
		}
	}
	for _, id := range c.IDs() {
		if _, ok := t.routes[id]; !ok {
			return fmt.Errorf("question %q has no route", id)
		}
	}
	return nil
}

// Edges lists the graph arcs sorted by source and target
func (t *Table) Edges() []Edge {
	var edges []Edge
	for from, r := range t.routes {
		if r.branches() {
			edges = append(edges,
				Edge{From: from, To: r.Match, Label: r.Prefix + "*"},
				Edge{From: from, To: r.Else, Label: "else"},
			)
			continue
		}
		edges = append(edges, Edge{From: from, To: r.Next})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

func (r Route) targets() []string {
	if r.branches() {
		return []string{r.Match, r.Else}
	}
	return []string{r.Next}
}

func answerText(a model.Answer) string {
	if a.Text != "" {
		return a.Text
	}
	if len(a.Choices) > 0 {
		return a.Choices[0]
	}
	return ""
}

// hasPrefixFold matches prefix as a whole leading word: "Yes, ..." matches "yes", "Yesterday" does not
func hasPrefixFold(s, prefix string) bool {
	s = strings.TrimSpace(s)
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return false
	}
	rest := s[len(prefix):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
