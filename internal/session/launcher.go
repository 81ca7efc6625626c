package session

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// HeadlessEnv forces the backend to run without a visible window when set
// to a truthy value, regardless of per-session configuration.
const HeadlessEnv = "MINEGYM_HEADLESS"

// LaunchConfig describes a backend process to spawn before dialing.
// Leave nil to connect to an already-running backend.
type LaunchConfig struct {
	Command string
	Args    []string
	Dir     string
}

func headlessRequested(cfgHeadless bool) bool {
	if cfgHeadless {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(HeadlessEnv))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func launchBackend(lc *LaunchConfig, headless bool) (*exec.Cmd, error) {
	if lc.Command == "" {
		return nil, fmt.Errorf("launch: empty command")
	}
	cmd := exec.Command(lc.Command, lc.Args...)
	cmd.Dir = lc.Dir
	cmd.Env = os.Environ()
	if headless {
		cmd.Env = append(cmd.Env, HeadlessEnv+"=1")
	}
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", lc.Command, err)
	}
	return cmd, nil
}

func stopBackend(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
	_ = cmd.Wait()
}
