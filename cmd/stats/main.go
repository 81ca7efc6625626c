// Command stats prints per-task aggregates from a run index database.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"minegym.ai/internal/runindex"
)

func main() {
	dbPath := flag.String("index", "./runs.db", "sqlite run index path")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Fprintln(os.Stderr, "index:", err)
		os.Exit(1)
	}
	x, err := runindex.Open(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer x.Close()

	stats, err := x.StatsByTask()
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tEPISODES\tSUCCESSES\tAVG_REWARD")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\n", s.TaskID, s.Episodes, s.Successes, s.AvgReward)
	}
	_ = w.Flush()
}
