package main

import (
	"flag"
	"log"
	"os"

	"leadfunnel/internal/flow"
)

// Prints the survey transition graph as Graphviz DOT:
//
//	go run ./cmd/flowgraph | dot -Tsvg > funnel.svg
func main() {
	out := flag.String("o", "", "write to file instead of stdout")
	flag.Parse()

	engine, err := flow.NewFunnelEngine()
	if err != nil {
		log.Fatalf("Invalid survey definition: %v", err)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	if err := flow.WriteDOT(w, engine); err != nil {
		log.Fatalf("Failed to write graph: %v", err)
	}
}
