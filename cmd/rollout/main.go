// Command rollout runs scripted episodes against a backend and reports
// per-episode outcomes. Useful as a smoke test for a backend deployment
// and as a reference for driving the environment API.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"minegym.ai/internal/action"
	"minegym.ai/internal/env"
	"minegym.ai/internal/task"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:9900/v1/ws", "backend ws url")
		taskID   = flag.String("task", "harvest_wool_with_shears_and_sheep", "task id")
		episodes = flag.Int("episodes", 1, "episodes to run")
		maxSteps = flag.Int("steps", 0, "override the task step budget (0: task default)")
		width    = flag.Int("width", 160, "frame width")
		height   = flag.Int("height", 120, "frame height")
		seed     = flag.Int64("seed", 0, "policy rng seed (0: time-based)")
		logDir   = flag.String("logdir", "", "write zstd jsonl step traces here")
		indexDB  = flag.String("index", "", "sqlite run index path")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[rollout] ", log.LstdFlags|log.Lmicroseconds)

	opts := []env.Option{
		env.WithBackend(*url),
		env.WithFrameSize(*width, *height),
		env.WithLogger(logger),
	}
	if *maxSteps > 0 {
		opts = append(opts, env.WithMaxSteps(*maxSteps))
	}
	if *logDir != "" {
		opts = append(opts, env.WithEpisodeLog(*logDir))
	}
	if *indexDB != "" {
		opts = append(opts, env.WithRunIndex(*indexDB))
	}

	e, err := env.Make(*taskID, opts...)
	if err != nil {
		logger.Fatalf("make %s: %v", *taskID, err)
	}
	defer e.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	for ep := 1; ep <= *episodes; ep++ {
		if ctx.Err() != nil {
			return
		}
		if _, err := e.Reset(ctx); err != nil {
			logger.Fatalf("reset: %v", err)
		}

		var total float64
		steps := 0
		for {
			res, err := e.Step(ctx, randomAction(rng))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Printf("episode %d step %d failed: %v", ep, steps, err)
				break
			}
			total += res.Reward
			steps++
			if res.Done {
				break
			}
		}
		logger.Printf("episode %d: state=%s steps=%d reward=%.3f", ep, e.State(), steps, total)
	}
}

// randomAction samples a small random policy: jittered movement and camera
// plus the occasional functional action. Actions outside the task's mask
// degrade to no-ops, so the policy needs no per-task knowledge.
func randomAction(rng *rand.Rand) action.Action {
	a := action.Action{
		Move:   [3]float64{rng.Float64()*2 - 1, rng.Float64()*2 - 1, 0},
		Camera: [2]float64{rng.Float64()*20 - 10, rng.Float64()*10 - 5},
	}
	if rng.Intn(4) == 0 {
		funcs := []string{task.ActUse, task.ActAttack, task.ActCraft, task.ActDestroy}
		a.Functional = funcs[rng.Intn(len(funcs))]
		if a.Functional == task.ActCraft {
			a.Arg = "PLANKS"
		}
	}
	return a
}
