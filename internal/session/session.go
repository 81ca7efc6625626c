package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"minegym.ai/internal/protocol"
	"minegym.ai/internal/task"
)

// State is the session lifecycle. Faulted is terminal and reachable from
// every other state on unrecoverable error.
type State int

const (
	Unstarted State = iota
	Connecting
	Ready
	Advancing
	Closed
	Faulted
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "UNSTARTED"
	case Connecting:
		return "CONNECTING"
	case Ready:
		return "READY"
	case Advancing:
		return "ADVANCING"
	case Closed:
		return "CLOSED"
	case Faulted:
		return "FAULTED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Config struct {
	Addr      string // websocket URL of the backend
	AgentName string

	FrameWidth  int
	FrameHeight int
	VoxelRadius int
	Headless    bool

	DialAttempts   int           // default 5
	DialBackoff    time.Duration // initial, doubles per attempt; default 200ms
	AdvanceTimeout time.Duration // per-tick deadline; default 10s

	Launch *LaunchConfig // optional: spawn the backend before dialing
}

func (c *Config) defaults() {
	if c.AgentName == "" {
		c.AgentName = "agent"
	}
	if c.FrameWidth <= 0 {
		c.FrameWidth = 160
	}
	if c.FrameHeight <= 0 {
		c.FrameHeight = 120
	}
	if c.VoxelRadius < 0 {
		c.VoxelRadius = 0
	}
	if c.DialAttempts <= 0 {
		c.DialAttempts = 5
	}
	if c.DialBackoff <= 0 {
		c.DialBackoff = 200 * time.Millisecond
	}
	if c.AdvanceTimeout <= 0 {
		c.AdvanceTimeout = 10 * time.Second
	}
}

// Session owns exactly one live backend connection. All methods assume
// exclusive single-writer access: one environment instance per session,
// concurrent callers must serialize outside.
type Session struct {
	cfg   Config
	log   *log.Logger
	codec protocol.Codec

	conn *websocket.Conn
	proc *exec.Cmd

	state   State
	localID string // client-side handle, for logs
	id      string // backend-assigned session id
	agentID string
	world   protocol.WorldParams

	tick uint64 // last tick acknowledged by the backend
}

// Start launches (if configured) and connects to the backend, retrying
// the dial+handshake with exponential backoff up to a bounded count.
func Start(ctx context.Context, cfg Config, logger *log.Logger) (*Session, error) {
	cfg.defaults()
	if logger == nil {
		logger = log.Default()
	}

	s := &Session{
		cfg:     cfg,
		log:     logger,
		localID: uuid.NewString(),
		state:   Connecting,
	}

	if cfg.Launch != nil {
		proc, err := launchBackend(cfg.Launch, headlessRequested(cfg.Headless))
		if err != nil {
			s.state = Faulted
			return nil, &UnavailableError{Addr: cfg.Addr, Attempts: 0, Err: err}
		}
		s.proc = proc
	}

	backoff := cfg.DialBackoff
	var lastErr error
	for attempt := 1; attempt <= cfg.DialAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		if err := s.connect(ctx); err != nil {
			lastErr = err
			s.log.Printf("dial %s attempt %d/%d: %v", cfg.Addr, attempt, cfg.DialAttempts, err)
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}
		s.state = Ready
		s.log.Printf("session %s ready: backend session=%s agent=%s seed=%d", s.localID, s.id, s.agentID, s.world.Seed)
		return s, nil
	}

	stopBackend(s.proc)
	s.state = Faulted
	return nil, &UnavailableError{Addr: cfg.Addr, Attempts: cfg.DialAttempts, Err: lastErr}
}

func (s *Session) connect(ctx context.Context) error {
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := d.DialContext(ctx, s.cfg.Addr, nil)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c := protocol.NewCodec(protocol.Version)
	hello, err := c.EncodeHello(protocol.HelloMsg{
		AgentName: s.cfg.AgentName,
		Capabilities: protocol.HelloCapabilities{
			FrameWidth:  s.cfg.FrameWidth,
			FrameHeight: s.cfg.FrameHeight,
			VoxelRadius: s.cfg.VoxelRadius,
			Headless:    headlessRequested(s.cfg.Headless),
		},
	})
	if err != nil {
		_ = conn.Close()
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		_ = conn.Close()
		return err
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("handshake read: %w", err)
	}
	w, err := protocol.DecodeWelcome(msg)
	if err != nil {
		_ = conn.Close()
		return err
	}

	negotiated := w.SelectedVersion
	if negotiated == "" {
		negotiated = w.ProtocolVersion
	}
	s.codec = protocol.NewCodec(negotiated)
	s.conn = conn
	s.id = w.SessionID
	s.agentID = w.AgentID
	s.world = w.WorldParams
	s.tick = 0
	return nil
}

func (s *Session) State() State { return s.state }

func (s *Session) ID() string { return s.id }

func (s *Session) AgentID() string { return s.agentID }

func (s *Session) WorldParams() protocol.WorldParams { return s.world }

func (s *Session) Tick() uint64 { return s.tick }

// Usable reports whether the session can serve a fresh episode.
func (s *Session) Usable() bool {
	return s.state == Ready
}

// Reset starts a fresh episode on the live session and blocks for the
// first snapshot of the new world. mode is protocol.ResetModeFull or
// protocol.ResetModeFast; commands are replayed only for fast resets.
func (s *Session) Reset(ctx context.Context, spec *task.Spec, mode string, commands []protocol.Command) (*protocol.StateMsg, error) {
	if s.state != Ready {
		return nil, &CrashError{Err: fmt.Errorf("reset in state %s", s.state)}
	}

	msg := protocol.ResetMsg{
		SessionID: s.id,
		Mode:      mode,
	}
	if mode == protocol.ResetModeFast {
		msg.Commands = commands
	} else {
		msg.WorldGen = spec.WireWorldGen()
		msg.AgentStart = spec.WireAgentStart()
	}
	b, err := s.codec.EncodeReset(msg)
	if err != nil {
		return nil, s.fault(err)
	}
	if err := s.write(b); err != nil {
		return nil, s.fault(&CrashError{Err: err})
	}

	// A full reset rewinds the backend tick to zero, so any snapshot
	// after the RESET write is the episode's first.
	st, err := s.awaitState(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	s.tick = st.Tick
	return st, nil
}

// Advance sends the commands for exactly one step and blocks until the
// backend reports the tick complete. The backend may advance more than
// one internal tick per step; the returned snapshot's tick is strictly
// greater than the submitted one. This is the sole suspension point.
func (s *Session) Advance(ctx context.Context, commands []protocol.Command) (*protocol.StateMsg, error) {
	if s.state != Ready {
		return nil, &CrashError{Err: fmt.Errorf("advance in state %s", s.state)}
	}
	s.state = Advancing

	sent := s.tick
	b, err := s.codec.EncodeAct(protocol.ActMsg{
		SessionID: s.id,
		Tick:      sent,
		Commands:  commands,
	})
	if err != nil {
		return nil, s.fault(err)
	}
	if err := s.write(b); err != nil {
		return nil, s.fault(&CrashError{Err: err})
	}

	st, err := s.awaitState(ctx, sent, true)
	if err != nil {
		return nil, err
	}
	s.tick = st.Tick
	s.state = Ready
	return st, nil
}

// awaitState reads until an OBS arrives, or the deadline fires. With
// strict set, snapshots at or before tick `after` are skipped as stale.
// Decode failures and backend ERROR messages fault the session.
func (s *Session) awaitState(ctx context.Context, after uint64, strict bool) (*protocol.StateMsg, error) {
	deadline := time.Now().Add(s.cfg.AdvanceTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, s.fault(&CrashError{Err: err})
		}
		_ = s.conn.SetReadDeadline(deadline)
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return nil, s.fault(&TimeoutError{Tick: after, Wait: s.cfg.AdvanceTimeout})
			}
			return nil, s.fault(&CrashError{Err: err})
		}

		base, err := protocol.DecodeBase(msg)
		if err != nil {
			return nil, s.fault(&protocol.DecodeError{Reason: "malformed message", Err: err})
		}
		switch base.Type {
		case protocol.TypeObs:
			st, err := s.codec.DecodeState(msg)
			if err != nil {
				return nil, s.fault(err)
			}
			if strict && st.Tick <= after {
				// Stale snapshot from before our command; keep reading.
				continue
			}
			return &st, nil
		case protocol.TypeError:
			em, err := s.codec.DecodeError(msg)
			if err != nil {
				return nil, s.fault(err)
			}
			return nil, s.fault(&CrashError{Err: fmt.Errorf("backend error %s: %s", em.Code, em.Message)})
		case protocol.TypeBye:
			return nil, s.fault(&CrashError{Err: fmt.Errorf("backend closed the session")})
		default:
			// Unknown message types are ignored for forward compatibility.
		}
	}
}

func (s *Session) write(b []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, b)
}

// fault moves the session to Faulted and releases the connection. The
// original error is returned unchanged so callers can errors.As on it.
func (s *Session) fault(err error) error {
	s.state = Faulted
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.log.Printf("session %s faulted: %v", s.localID, err)
	return err
}

// Stop releases the connection and any launched process. Safe to call in
// every state and on every exit path; a Faulted session stays Faulted,
// anything else becomes Closed.
func (s *Session) Stop() error {
	if s.conn != nil {
		if b, err := s.codec.EncodeBye("close"); err == nil {
			_ = s.conn.SetWriteDeadline(time.Now().Add(time.Second))
			_ = s.conn.WriteMessage(websocket.TextMessage, b)
		}
		_ = s.conn.Close()
		s.conn = nil
	}
	stopBackend(s.proc)
	s.proc = nil
	if s.state != Faulted {
		s.state = Closed
	}
	return nil
}
