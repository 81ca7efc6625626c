package episodelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestWriter_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.WriteStep(StepEntry{EpisodeID: "E1", TaskID: "t", Step: 1, Tick: 1, Reward: 0.5}); err != nil {
		t.Fatalf("WriteStep: %v", err)
	}
	if err := w.WriteSummary(SummaryEntry{EpisodeID: "E1", TaskID: "t", Steps: 1, TotalReward: 0.5, Outcome: "TRUNCATED"}); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.WriteStep(StepEntry{}); err == nil {
		t.Fatalf("write after close succeeded")
	}

	matches, err := filepath.Glob(filepath.Join(dir, "episodes-*.jsonl.zst"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("trace file missing: %v %v", matches, err)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	lines := 0
	for sc.Scan() {
		var v map[string]any
		if err := json.Unmarshal(sc.Bytes(), &v); err != nil {
			t.Fatalf("line %d not JSON: %v", lines, err)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("lines: %d", lines)
	}
}
