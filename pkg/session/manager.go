// Package session manages the immersive session lifecycle: opening a
// session with the fixed feature contract, the single passthrough-to-opaque
// fallback retry, superseding of in-flight attempts by newer starts, and
// awaited teardown with a grace delay before reopening.
//
// The Manager's state is only ever touched from the frame loop goroutine.
// Each start spawns one worker goroutine for the blocking request chain; the
// worker owns nothing and reports back over the Results channel, so no
// locking is needed.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/exhibitxr/go-exhibit/internal/log"
	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// Status of the lifecycle.
type Status int

const (
	// Idle: no session and nothing in flight.
	Idle Status = iota

	// Starting: an attempt chain is in flight.
	Starting

	// Active: a session is open.
	Active

	// Ending: teardown was requested, awaiting the ended event.
	Ending
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Ending:
		return "ending"
	}
	return "unknown"
}

// Result is the outcome of one start attempt chain.
type Result struct {
	Attempt string
	Mode    xr.Mode
	Err     error

	// FellBack marks outcomes of the opaque fallback attempt.
	FellBack bool
}

// Manager drives session starts and ends against the device.
type Manager struct {
	dev     xr.SessionController
	cfg     Config
	status  Status
	mode    xr.Mode // valid while Active
	attempt string  // current attempt ID
	cancel  context.CancelFunc
	results chan Result
}

// NewManager creates an idle manager.
func NewManager(dev xr.SessionController, cfg Config) *Manager {
	return &Manager{dev: dev, cfg: cfg, results: make(chan Result, 4)}
}

// Status returns the lifecycle status.
func (m *Manager) Status() Status {
	return m.status
}

// Mode returns the active session's mode. Only meaningful while Active.
func (m *Manager) Mode() xr.Mode {
	return m.mode
}

// Results delivers attempt outcomes to the frame loop.
func (m *Manager) Results() <-chan Result {
	return m.results
}

// Start launches a session attempt chain for the given mode and returns its
// attempt ID. A newer Start supersedes any chain still in flight, including
// an in-flight fallback retry. If a session is already open it is ended and
// its teardown awaited before the new request goes out.
func (m *Manager) Start(mode xr.Mode) string {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	id := uuid.NewString()
	m.attempt = id
	endFirst := m.status == Active || m.status == Ending
	m.status = Starting

	log.Info("session start requested", "mode", mode, "attempt", id, "end_first", endFirst)
	go m.run(ctx, id, mode, endFirst)
	return id
}

// run is the attempt chain worker. It touches only the device and the
// results channel.
func (m *Manager) run(ctx context.Context, id string, mode xr.Mode, endFirst bool) {
	if endFirst {
		endCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
		if err := m.dev.EndSession(endCtx); err != nil && !errors.Is(err, xr.ErrNoSession) {
			log.Warn("teardown before restart failed", "error", err)
		}
		cancel()
		if !sleepCtx(ctx, m.cfg.TeardownGrace) {
			return
		}
	}

	err := m.request(ctx, mode)
	if err == nil {
		m.deliver(Result{Attempt: id, Mode: mode})
		return
	}
	if ctx.Err() != nil {
		return // superseded, stay quiet
	}

	// A failed passthrough attempt gets exactly one opaque retry, unless
	// the failure was a still-active session (ending and retrying the
	// same mode is the caller's business).
	if mode == xr.ModePassthrough && !errors.Is(err, xr.ErrSessionActive) {
		log.Warn("passthrough session failed, falling back to opaque",
			"attempt", id, "error", err)
		if !sleepCtx(ctx, m.cfg.RetryDelay) {
			return
		}
		err = m.request(ctx, xr.ModeOpaque)
		if ctx.Err() != nil {
			return
		}
		m.deliver(Result{Attempt: id, Mode: xr.ModeOpaque, Err: err, FellBack: true})
		return
	}

	m.deliver(Result{Attempt: id, Mode: mode, Err: err})
}

func (m *Manager) request(ctx context.Context, mode xr.Mode) error {
	reqCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()
	return m.dev.RequestSession(reqCtx, xr.DefaultSessionConfig(mode))
}

func (m *Manager) deliver(r Result) {
	select {
	case m.results <- r:
	default:
		log.Warn("session result dropped, consumer not draining", "attempt", r.Attempt)
	}
}

// HandleResult folds an attempt outcome back into the manager. Returns
// false for outcomes of superseded attempts, which must be ignored: a stale
// success must not resurrect a session the user has moved past.
func (m *Manager) HandleResult(r Result) bool {
	if r.Attempt != m.attempt || m.status != Starting {
		log.Debug("ignoring stale session result", "attempt", r.Attempt)
		return false
	}
	if r.Err != nil {
		m.status = Idle
		return true
	}
	m.status = Active
	m.mode = r.Mode
	return true
}

// End requests teardown of the active session. The ended event arrives on
// the device stream like any platform-initiated end; SessionEnded completes
// the transition.
func (m *Manager) End() {
	if m.status != Active {
		return
	}
	m.status = Ending

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
	go func() {
		defer cancel()
		if err := m.dev.EndSession(ctx); err != nil && !errors.Is(err, xr.ErrNoSession) {
			log.Warn("session end failed", "error", err)
		}
	}()
}

// SessionEnded folds a device-side ended event into state, whether we asked
// for it or the platform pulled it out from under us.
func (m *Manager) SessionEnded() {
	if m.status == Active || m.status == Ending {
		m.status = Idle
	}
}

// DeviceLost aborts any in-flight attempt and drops to Idle. The session
// died with the connection.
func (m *Manager) DeviceLost() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.status = Idle
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
