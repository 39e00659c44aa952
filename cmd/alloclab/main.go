// Command alloclab runs the same comparative workload against the
// Simple Segregated Storage, Segregated Free List, and Binary Buddy
// engines and reports throughput and memory utilization for each.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/memlab/alloclab/internal/bench"
)

func main() {
	verbose := flag.Bool("v", false, "trace every allocation's requested size and alignment")
	flag.Parse()

	results, err := bench.Compare(context.Background(), *verbose, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "alloclab:", err)
		os.Exit(1)
	}

	for _, r := range results {
		bench.Print(os.Stdout, r)
	}
}
