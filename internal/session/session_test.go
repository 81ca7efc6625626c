package session

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"minegym.ai/internal/backendtest"
	"minegym.ai/internal/protocol"
	"minegym.ai/internal/task"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testConfig(url string) Config {
	return Config{
		Addr:           url,
		AgentName:      "test",
		FrameWidth:     2,
		FrameHeight:    2,
		VoxelRadius:    1,
		DialAttempts:   2,
		DialBackoff:    10 * time.Millisecond,
		AdvanceTimeout: time.Second,
	}
}

func woolSpec(t *testing.T) *task.Spec {
	t.Helper()
	s, err := task.Builtin().Load("harvest_wool_with_shears_and_sheep")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestStart_HandshakeAndStop(t *testing.T) {
	b := backendtest.New(backendtest.Options{})
	defer b.Close()

	s, err := Start(context.Background(), testConfig(b.URL()), testLogger())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("state: %s", s.State())
	}
	if s.ID() == "" || s.AgentID() != "A1" {
		t.Fatalf("handshake identity missing: id=%q agent=%q", s.ID(), s.AgentID())
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.State() != Closed {
		t.Fatalf("state after stop: %s", s.State())
	}
}

func TestStart_UnavailableAfterRetries(t *testing.T) {
	b := backendtest.New(backendtest.Options{})
	url := b.URL()
	b.Close() // nothing listening any more

	_, err := Start(context.Background(), testConfig(url), testLogger())
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
	if ue.Attempts != 2 {
		t.Fatalf("attempts: %d", ue.Attempts)
	}
}

func TestStart_VersionMismatchNotAccepted(t *testing.T) {
	b := backendtest.New(backendtest.Options{WireVersion: "9.9"})
	defer b.Close()

	_, err := Start(context.Background(), testConfig(b.URL()), testLogger())
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
	var de *protocol.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError cause, got %v", err)
	}
}

func TestResetAndAdvance_TicksMonotonic(t *testing.T) {
	b := backendtest.New(backendtest.Options{})
	defer b.Close()

	s, err := Start(context.Background(), testConfig(b.URL()), testLogger())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	st, err := s.Reset(context.Background(), woolSpec(t), protocol.ResetModeFull, nil)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if st.Tick != 0 {
		t.Fatalf("first tick: %d", st.Tick)
	}
	if len(st.Inventory) != 1 || st.Inventory[0].Item != "SHEARS" {
		t.Fatalf("start inventory not applied: %+v", st.Inventory)
	}

	last := st.Tick
	for i := 0; i < 5; i++ {
		st, err = s.Advance(context.Background(), nil)
		if err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
		if st.Tick <= last {
			t.Fatalf("tick not increasing: %d then %d", last, st.Tick)
		}
		last = st.Tick
		if s.State() != Ready {
			t.Fatalf("state after advance: %s", s.State())
		}
	}
}

func TestAdvance_CrashFaults(t *testing.T) {
	b := backendtest.New(backendtest.Options{CrashAfterActs: 1})
	defer b.Close()

	s, err := Start(context.Background(), testConfig(b.URL()), testLogger())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	if _, err := s.Reset(context.Background(), woolSpec(t), protocol.ResetModeFull, nil); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	_, err = s.Advance(context.Background(), nil)
	var ce *CrashError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CrashError, got %v", err)
	}
	if s.State() != Faulted {
		t.Fatalf("state: %s", s.State())
	}
	// A faulted session refuses further work.
	if _, err := s.Advance(context.Background(), nil); err == nil {
		t.Fatalf("advance on faulted session succeeded")
	}
	// Stop keeps the fault visible.
	_ = s.Stop()
	if s.State() != Faulted {
		t.Fatalf("state after stop: %s", s.State())
	}
}

func TestAdvance_TimeoutFaults(t *testing.T) {
	b := backendtest.New(backendtest.Options{SilentAfterActs: 1})
	defer b.Close()

	cfg := testConfig(b.URL())
	cfg.AdvanceTimeout = 150 * time.Millisecond
	s, err := Start(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	if _, err := s.Reset(context.Background(), woolSpec(t), protocol.ResetModeFull, nil); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	_, err = s.Advance(context.Background(), nil)
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if s.State() != Faulted {
		t.Fatalf("state: %s", s.State())
	}
}

func TestAdvance_MalformedObsFaults(t *testing.T) {
	b := backendtest.New(backendtest.Options{MalformedObsAfterActs: 1})
	defer b.Close()

	cfg := testConfig(b.URL())
	cfg.AdvanceTimeout = 200 * time.Millisecond
	s, err := Start(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	if _, err := s.Reset(context.Background(), woolSpec(t), protocol.ResetModeFull, nil); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	_, err = s.Advance(context.Background(), nil)
	var de *protocol.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if s.State() != Faulted {
		t.Fatalf("state: %s", s.State())
	}
}
