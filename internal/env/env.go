// Package env drives episodes against a voxel game backend: it compiles
// actions, advances the backend one step at a time, normalizes snapshots
// into the fixed observation contract and evaluates task predicates.
package env

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"minegym.ai/internal/action"
	"minegym.ai/internal/episodelog"
	"minegym.ai/internal/obs"
	"minegym.ai/internal/protocol"
	"minegym.ai/internal/runindex"
	"minegym.ai/internal/session"
	"minegym.ai/internal/task"
)

// EpisodeState is the episode lifecycle. Terminal states return to Running
// only through Reset; Faulted additionally requires a fresh session.
type EpisodeState int

const (
	Idle EpisodeState = iota
	Running
	Succeeded
	Failed
	Truncated
	Faulted
)

func (s EpisodeState) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Running:
		return "RUNNING"
	case Succeeded:
		return "SUCCEEDED"
	case Failed:
		return "FAILED"
	case Truncated:
		return "TRUNCATED"
	case Faulted:
		return "FAULTED"
	default:
		return fmt.Sprintf("EpisodeState(%d)", int(s))
	}
}

// InvalidStateError: step/reset called out of sequence. API misuse,
// surfaced immediately and never masked.
type InvalidStateError struct {
	Op    string
	State EpisodeState
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is not valid in episode state %s", e.Op, e.State)
}

// Result is what one step hands back to the caller. Ownership passes out;
// the environment retains nothing of it.
type Result struct {
	Obs    obs.Observation
	Reward float64
	Done   bool
	Info   map[string]any
}

// Env is one environment instance bound to a task. Single-writer: no two
// calls on the same Env may run concurrently; run one Env per worker.
type Env struct {
	cfg  config
	spec *task.Spec

	sess         *session.Session
	sessEpisodes int // episodes served by the current session

	state         EpisodeState
	steps         int
	lastRaw       *protocol.StateMsg
	episodeID     string
	episodeReward float64
	episodeStart  time.Time

	rng *rand.Rand

	trace *episodelog.Writer
	index *runindex.Index

	prevEpisode map[string]any
}

// Make binds an environment instance to a registered task.
func Make(taskID string, opts ...Option) (*Env, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	spec, err := cfg.registry.Load(taskID)
	if err != nil {
		return nil, err
	}

	e := &Env{
		cfg:   cfg,
		spec:  spec,
		state: Idle,
		rng:   rand.New(rand.NewSource(spec.WorldGen.Seed)),
	}
	if cfg.episodeLogDir != "" {
		w, err := episodelog.Open(cfg.episodeLogDir)
		if err != nil {
			return nil, err
		}
		e.trace = w
	}
	if cfg.runIndexPath != "" {
		x, err := runindex.Open(cfg.runIndexPath)
		if err != nil {
			if e.trace != nil {
				_ = e.trace.Close()
			}
			return nil, err
		}
		e.index = x
	}
	return e, nil
}

// TaskID names the bound task.
func (e *Env) TaskID() string { return e.spec.ID }

// State exposes the episode state, mostly for tests and diagnostics.
func (e *Env) State() EpisodeState { return e.state }

// PrevEpisodeInfo is the summary of the episode finished by the last
// Reset or fault, if any. Useful when fast resets carry backend stats
// across episode boundaries.
func (e *Env) PrevEpisodeInfo() map[string]any { return e.prevEpisode }

// Reset starts a new episode and returns its first observation. Calling
// Reset while an episode runs truncates it first; its terminal bookkeeping
// is never lost. A faulted or missing session is replaced by a fresh one.
func (e *Env) Reset(ctx context.Context) (obs.Observation, error) {
	if e.state == Running {
		e.finishEpisode("TRUNCATED")
	}

	if e.sess == nil || !e.sess.Usable() {
		if e.sess != nil {
			_ = e.sess.Stop()
		}
		s, err := session.Start(ctx, e.sessionConfig(), e.cfg.log)
		if err != nil {
			e.state = Faulted
			return obs.Observation{}, err
		}
		e.sess = s
		e.sessEpisodes = 0
	}

	mode := protocol.ResetModeFull
	var cmds []protocol.Command
	if e.useFastReset() {
		mode = protocol.ResetModeFast
		cmds = fastResetCommands(e.spec, e.rng, e.cfg.teleportRange)
	}

	st, err := e.sess.Reset(ctx, e.spec, mode, cmds)
	if err != nil {
		e.state = Faulted
		return obs.Observation{}, err
	}
	o, err := obs.Normalize(st, e.obsConfig())
	if err != nil {
		e.state = Faulted
		_ = e.sess.Stop()
		return obs.Observation{}, err
	}

	e.state = Running
	e.steps = 0
	e.lastRaw = st
	e.episodeID = uuid.NewString()
	e.episodeReward = 0
	e.episodeStart = time.Now()
	e.sessEpisodes++
	return o, nil
}

func (e *Env) useFastReset() bool {
	if !e.cfg.fastReset || !e.spec.FastResetSafe || e.sessEpisodes == 0 {
		return false
	}
	if n := e.cfg.forceFullResetEvery; n > 0 && e.sessEpisodes%n == 0 {
		return false
	}
	return true
}

// Step advances the environment by one action. Valid only while Running.
// Backend and protocol faults terminate the episode and surface to the
// caller; degraded actions (masked, invalid item) never fail the step and
// are reported through the info mapping instead.
func (e *Env) Step(ctx context.Context, a action.Action) (Result, error) {
	if e.state != Running {
		return Result{}, &InvalidStateError{Op: "step", State: e.state}
	}

	cmds, rep := action.Compile(a, e.spec)

	st, err := e.sess.Advance(ctx, cmds)
	if err != nil {
		e.faultEpisode()
		return Result{}, err
	}
	o, err := obs.Normalize(st, e.obsConfig())
	if err != nil {
		_ = e.sess.Stop()
		e.faultEpisode()
		return Result{}, err
	}

	e.steps++
	success := e.spec.Success.Eval(st)
	failed := !success && e.spec.Failure.Eval(st)
	reward := e.spec.Reward.Eval(e.lastRaw, st, success)

	truncated := false
	switch {
	case success:
		e.state = Succeeded
	case failed:
		e.state = Failed
	case e.maxSteps() > 0 && e.steps >= e.maxSteps():
		e.state = Truncated
		truncated = true
	}
	done := e.state != Running

	info := map[string]any{
		"task_id": e.spec.ID,
		"tick":    st.Tick,
		"step":    e.steps,
	}
	if rep.MaskedAction {
		info["masked_action"] = true
	}
	if rep.InvalidItem {
		info["invalid_item"] = true
	}
	if rep.Clamped {
		info["clamped"] = true
	}
	if success {
		info["success"] = true
	}
	if truncated {
		info["truncated"] = true
	}
	if e.cfg.privileged {
		info["privileged"] = privilegedInfo(st)
	}

	e.lastRaw = st
	e.episodeReward += reward

	if e.trace != nil {
		_ = e.trace.WriteStep(episodelog.StepEntry{
			EpisodeID: e.episodeID,
			TaskID:    e.spec.ID,
			Step:      e.steps,
			Tick:      st.Tick,
			Reward:    reward,
			Done:      done,
			Info:      info,
		})
	}
	if done {
		e.finishEpisode(e.state.String())
	}

	return Result{Obs: o, Reward: reward, Done: done, Info: info}, nil
}

// privilegedInfo exposes raw backend state the observation contract hides.
// Debug/shaping only; agents must not read it.
func privilegedInfo(st *protocol.StateMsg) map[string]any {
	entities := make([]map[string]any, 0, len(st.Entities))
	for _, en := range st.Entities {
		entities = append(entities, map[string]any{
			"id": en.ID, "type": en.Type, "pos": en.Pos, "health": en.Health,
		})
	}
	return map[string]any{
		"entities": entities,
		"weather":  st.World.Weather,
		"events":   st.Events,
	}
}

func (e *Env) maxSteps() int {
	if e.cfg.maxStepsOverride > 0 {
		return e.cfg.maxStepsOverride
	}
	return e.spec.MaxSteps
}

func (e *Env) faultEpisode() {
	e.state = Faulted
	e.finishEpisode("FAULTED")
}

// finishEpisode records the terminal bookkeeping of the episode that just
// ended. It does not change the episode state.
func (e *Env) finishEpisode(outcome string) {
	if e.episodeID == "" {
		return
	}
	e.prevEpisode = map[string]any{
		"episode_id":   e.episodeID,
		"task_id":      e.spec.ID,
		"steps":        e.steps,
		"total_reward": e.episodeReward,
		"outcome":      outcome,
	}
	if e.trace != nil {
		_ = e.trace.WriteSummary(episodelog.SummaryEntry{
			EpisodeID:   e.episodeID,
			TaskID:      e.spec.ID,
			Seed:        e.spec.WorldGen.Seed,
			Steps:       e.steps,
			TotalReward: e.episodeReward,
			Outcome:     outcome,
			EndedAt:     time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
	if e.index != nil {
		_ = e.index.InsertEpisode(runindex.EpisodeRow{
			EpisodeID:   e.episodeID,
			TaskID:      e.spec.ID,
			Seed:        e.spec.WorldGen.Seed,
			Steps:       e.steps,
			TotalReward: e.episodeReward,
			Outcome:     outcome,
			StartedAt:   e.episodeStart,
			EndedAt:     time.Now(),
		})
	}
	e.episodeID = ""
}

// Close releases the session and all sinks. A running episode is recorded
// as truncated. Safe to call more than once.
func (e *Env) Close() error {
	if e.state == Running {
		e.finishEpisode("TRUNCATED")
		e.state = Truncated
	}
	if e.sess != nil {
		_ = e.sess.Stop()
		e.sess = nil
	}
	var err error
	if e.trace != nil {
		err = e.trace.Close()
		e.trace = nil
	}
	if e.index != nil {
		if cerr := e.index.Close(); err == nil {
			err = cerr
		}
		e.index = nil
	}
	return err
}

func (e *Env) sessionConfig() session.Config {
	return session.Config{
		Addr:           e.cfg.addr,
		AgentName:      "minegym-" + e.spec.ID,
		FrameWidth:     e.cfg.frameWidth,
		FrameHeight:    e.cfg.frameHeight,
		VoxelRadius:    e.cfg.voxelRadius,
		Headless:       e.cfg.headless,
		DialAttempts:   e.cfg.dialAttempts,
		DialBackoff:    e.cfg.dialBackoff,
		AdvanceTimeout: e.cfg.advanceTimeout,
		Launch:         e.cfg.launch,
	}
}

func (e *Env) obsConfig() obs.Config {
	return obs.Config{
		FrameWidth:  e.cfg.frameWidth,
		FrameHeight: e.cfg.frameHeight,
		VoxelRadius: e.cfg.voxelRadius,
	}
}
