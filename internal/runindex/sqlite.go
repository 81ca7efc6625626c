// Package runindex keeps a small SQLite index of finished episodes so
// long rollout runs can be inspected without replaying trace logs.
package runindex

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type EpisodeRow struct {
	EpisodeID   string
	TaskID      string
	Seed        int64
	Steps       int
	TotalReward float64
	Outcome     string // SUCCEEDED, FAILED, TRUNCATED, FAULTED
	StartedAt   time.Time
	EndedAt     time.Time
}

type TaskStats struct {
	TaskID    string
	Episodes  int
	Successes int
	AvgReward float64
}

type Index struct {
	db *sql.DB
}

func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	schema := `CREATE TABLE IF NOT EXISTS episodes (
		episode_id   TEXT PRIMARY KEY,
		task_id      TEXT NOT NULL,
		seed         INTEGER NOT NULL,
		steps        INTEGER NOT NULL,
		total_reward REAL NOT NULL,
		outcome      TEXT NOT NULL,
		started_at   TEXT NOT NULL,
		ended_at     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_episodes_task ON episodes(task_id);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func (x *Index) InsertEpisode(r EpisodeRow) error {
	_, err := x.db.Exec(
		`INSERT OR REPLACE INTO episodes
		 (episode_id, task_id, seed, steps, total_reward, outcome, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.EpisodeID, r.TaskID, r.Seed, r.Steps, r.TotalReward, r.Outcome,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.EndedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// StatsByTask aggregates outcomes per task, sorted by task id.
func (x *Index) StatsByTask() ([]TaskStats, error) {
	rows, err := x.db.Query(
		`SELECT task_id,
		        COUNT(*),
		        SUM(CASE WHEN outcome = 'SUCCEEDED' THEN 1 ELSE 0 END),
		        AVG(total_reward)
		 FROM episodes GROUP BY task_id ORDER BY task_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TaskStats
	for rows.Next() {
		var s TaskStats
		if err := rows.Scan(&s.TaskID, &s.Episodes, &s.Successes, &s.AvgReward); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (x *Index) Close() error { return x.db.Close() }
