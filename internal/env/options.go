package env

import (
	"log"
	"time"

	"minegym.ai/internal/session"
	"minegym.ai/internal/task"
)

type config struct {
	registry *task.Registry
	log      *log.Logger

	addr   string
	launch *session.LaunchConfig

	frameWidth  int
	frameHeight int
	voxelRadius int
	headless    bool

	maxStepsOverride int
	privileged       bool

	fastReset           bool
	forceFullResetEvery int
	teleportRange       float64

	dialAttempts   int
	dialBackoff    time.Duration
	advanceTimeout time.Duration

	episodeLogDir string
	runIndexPath  string
}

func defaultConfig() config {
	return config{
		registry:            task.Builtin(),
		log:                 log.Default(),
		addr:                "ws://localhost:9900/v1/ws",
		frameWidth:          160,
		frameHeight:         120,
		voxelRadius:         3,
		headless:            true,
		fastReset:           true,
		forceFullResetEvery: 50,
		teleportRange:       200,
	}
}

type Option func(*config)

// WithRegistry replaces the builtin task registry.
func WithRegistry(r *task.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithBackend points the environment at a backend websocket URL.
func WithBackend(addr string) Option {
	return func(c *config) { c.addr = addr }
}

// WithLauncher spawns the backend process before connecting.
func WithLauncher(lc session.LaunchConfig) Option {
	return func(c *config) { c.launch = &lc }
}

// WithFrameSize sets the observation image resolution.
func WithFrameSize(w, h int) Option {
	return func(c *config) { c.frameWidth, c.frameHeight = w, h }
}

// WithVoxelRadius sets the voxel window radius of the observation.
func WithVoxelRadius(r int) Option {
	return func(c *config) { c.voxelRadius = r }
}

// WithInteractive asks the backend for a visible window. Ignored when the
// headless environment variable forces windowless mode.
func WithInteractive() Option {
	return func(c *config) { c.headless = false }
}

// WithMaxSteps overrides the task's step budget.
func WithMaxSteps(n int) Option {
	return func(c *config) { c.maxStepsOverride = n }
}

// WithPrivilegedInfo exposes non-agent-visible state in the step info
// mapping, for debugging and reward shaping work only.
func WithPrivilegedInfo() Option {
	return func(c *config) { c.privileged = true }
}

// WithFastReset toggles session-reusing resets. forceFullEvery forces a
// world-regenerating reset every N resets (0 keeps the default).
func WithFastReset(enabled bool, forceFullEvery int) Option {
	return func(c *config) {
		c.fastReset = enabled
		if forceFullEvery > 0 {
			c.forceFullResetEvery = forceFullEvery
		}
	}
}

// WithTeleportRange bounds the random spawn offset used by fast resets.
func WithTeleportRange(r float64) Option {
	return func(c *config) { c.teleportRange = r }
}

// WithDialRetry tunes connection establishment retries.
func WithDialRetry(attempts int, backoff time.Duration) Option {
	return func(c *config) { c.dialAttempts, c.dialBackoff = attempts, backoff }
}

// WithAdvanceTimeout bounds how long a step waits for the backend tick.
func WithAdvanceTimeout(d time.Duration) Option {
	return func(c *config) { c.advanceTimeout = d }
}

// WithEpisodeLog writes zstd JSONL step traces under dir.
func WithEpisodeLog(dir string) Option {
	return func(c *config) { c.episodeLogDir = dir }
}

// WithRunIndex records finished episodes in a SQLite index at path.
func WithRunIndex(path string) Option {
	return func(c *config) { c.runIndexPath = path }
}

// WithLogger replaces the environment's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.log = l }
}
