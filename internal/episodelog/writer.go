// Package episodelog persists per-step episode traces as zstd-compressed
// JSONL, one file per environment instance.
package episodelog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// StepEntry is one JSONL line per environment step.
type StepEntry struct {
	EpisodeID string         `json:"episode_id"`
	TaskID    string         `json:"task_id"`
	Step      int            `json:"step"`
	Tick      uint64         `json:"tick"`
	Reward    float64        `json:"reward"`
	Done      bool           `json:"done"`
	Info      map[string]any `json:"info,omitempty"`
}

// SummaryEntry is written once per finished episode.
type SummaryEntry struct {
	EpisodeID   string  `json:"episode_id"`
	TaskID      string  `json:"task_id"`
	Seed        int64   `json:"seed"`
	Steps       int     `json:"steps"`
	TotalReward float64 `json:"total_reward"`
	Outcome     string  `json:"outcome"` // SUCCEEDED, FAILED, TRUNCATED, FAULTED
	EndedAt     string  `json:"ended_at"`
}

type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// Open creates dir if needed and starts a new trace file named by the
// current UTC time.
func Open(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("episodes-%s.jsonl.zst", time.Now().UTC().Format("2006-01-02-150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

func (w *Writer) WriteStep(e StepEntry) error       { return w.write(e) }
func (w *Writer) WriteSummary(e SummaryEntry) error { return w.write(e) }

func (w *Writer) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return fmt.Errorf("writer closed")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err error
	if w.w != nil {
		_ = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	return err
}
