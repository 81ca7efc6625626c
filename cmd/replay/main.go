// Command replay reads the zstd-compressed JSONL episode traces written
// during rollouts and prints them for inspection, either per-episode
// summaries or every step.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"minegym.ai/internal/episodelog"
)

func main() {
	var (
		dir     = flag.String("traces", "", "directory containing episodes-*.jsonl.zst")
		episode = flag.String("episode", "", "only this episode id (optional)")
		steps   = flag.Bool("steps", false, "print every step, not just summaries")
	)
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "missing -traces")
		os.Exit(2)
	}

	files, err := listTraceFiles(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list traces:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no trace files found in", *dir)
		os.Exit(1)
	}

	for _, path := range files {
		if err := dumpFile(path, *episode, *steps); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
}

func listTraceFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "episodes-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// A trace mixes step and summary lines; summaries are the only lines
// carrying an outcome field.
type traceLine struct {
	episodelog.StepEntry
	Outcome     string  `json:"outcome"`
	TotalReward float64 `json:"total_reward"`
	Steps       int     `json:"steps"`
}

func dumpFile(path, episode string, withSteps bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		var line traceLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if episode != "" && line.EpisodeID != episode {
			continue
		}
		if line.Outcome != "" {
			fmt.Printf("episode %s task=%s outcome=%s steps=%d reward=%.3f\n",
				line.EpisodeID, line.TaskID, line.Outcome, line.Steps, line.TotalReward)
			continue
		}
		if withSteps {
			fmt.Printf("  %s step=%d tick=%d reward=%.3f done=%v\n",
				line.EpisodeID, line.Step, line.Tick, line.Reward, line.Done)
		}
	}
	return sc.Err()
}
