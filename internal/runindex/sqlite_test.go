package runindex

import (
	"path/filepath"
	"testing"
	"time"
)

func TestIndex_InsertAndStats(t *testing.T) {
	x, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer x.Close()

	now := time.Now()
	rows := []EpisodeRow{
		{EpisodeID: "E1", TaskID: "wool", Seed: 1, Steps: 10, TotalReward: 1.2, Outcome: "SUCCEEDED", StartedAt: now, EndedAt: now},
		{EpisodeID: "E2", TaskID: "wool", Seed: 1, Steps: 500, TotalReward: 0, Outcome: "TRUNCATED", StartedAt: now, EndedAt: now},
		{EpisodeID: "E3", TaskID: "milk", Seed: 2, Steps: 3, TotalReward: 1, Outcome: "SUCCEEDED", StartedAt: now, EndedAt: now},
	}
	for _, r := range rows {
		if err := x.InsertEpisode(r); err != nil {
			t.Fatalf("InsertEpisode %s: %v", r.EpisodeID, err)
		}
	}
	// Re-inserting the same episode id replaces, not duplicates.
	if err := x.InsertEpisode(rows[0]); err != nil {
		t.Fatalf("re-insert: %v", err)
	}

	stats, err := x.StatsByTask()
	if err != nil {
		t.Fatalf("StatsByTask: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("tasks: %d", len(stats))
	}
	if stats[0].TaskID != "milk" || stats[1].TaskID != "wool" {
		t.Fatalf("order: %+v", stats)
	}
	if stats[1].Episodes != 2 || stats[1].Successes != 1 {
		t.Fatalf("wool stats: %+v", stats[1])
	}
}
