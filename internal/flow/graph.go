package flow

import (
	"fmt"
	"io"
)

// WriteDOT renders the transition graph in Graphviz DOT format
func WriteDOT(w io.Writer, e *Engine) error {
	if _, err := fmt.Fprintln(w, "digraph survey {"); err != nil {
		return err
	}
	fmt.Fprintln(w, "  rankdir=TB;")
	for _, q := range e.catalog.Questions() {
		shape := "box"
		if e.catalog.IsEntryQuestion(q.ID) {
			shape = "doubleoctagon"
		}
		fmt.Fprintf(w, "  %q [shape=%s, label=%q];\n", q.ID, shape, q.ID+"\n("+string(q.Kind)+")")
	}
	fmt.Fprintf(w, "  %q [shape=ellipse];\n", Terminal)
	for _, edge := range e.table.Edges() {
		if edge.Label != "" {
			fmt.Fprintf(w, "  %q -> %q [label=%q];\n", edge.From, edge.To, edge.Label)
			continue
		}
		fmt.Fprintf(w, "  %q -> %q;\n", edge.From, edge.To)
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
