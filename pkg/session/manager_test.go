package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// fakeDevice scripts request outcomes per mode and records calls in order.
type fakeDevice struct {
	mu   sync.Mutex
	errs map[xr.Mode]error
	cfgs []xr.SessionConfig
	log  []string
}

func (f *fakeDevice) RequestSession(ctx context.Context, cfg xr.SessionConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfgs = append(f.cfgs, cfg)
	f.log = append(f.log, "request:"+string(cfg.Mode))
	return f.errs[cfg.Mode]
}

func (f *fakeDevice) EndSession(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, "end")
	return nil
}

func (f *fakeDevice) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.log...)
}

func testConfig() Config {
	return Config{
		RetryDelay:     5 * time.Millisecond,
		TeardownGrace:  5 * time.Millisecond,
		RequestTimeout: time.Second,
	}
}

func awaitResult(t *testing.T, m *Manager) Result {
	t.Helper()
	select {
	case r := <-m.Results():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session result")
		return Result{}
	}
}

func TestStartSuccess(t *testing.T) {
	dev := &fakeDevice{}
	m := NewManager(dev, testConfig())

	id := m.Start(xr.ModePassthrough)
	if m.Status() != Starting {
		t.Fatalf("status = %v, want starting", m.Status())
	}

	r := awaitResult(t, m)
	if r.Attempt != id || r.Err != nil || r.Mode != xr.ModePassthrough || r.FellBack {
		t.Fatalf("result = %+v", r)
	}
	if !m.HandleResult(r) {
		t.Fatal("current attempt's result must be accepted")
	}
	if m.Status() != Active || m.Mode() != xr.ModePassthrough {
		t.Errorf("status = %v mode = %v", m.Status(), m.Mode())
	}
}

func TestRequestCarriesFeatureContract(t *testing.T) {
	dev := &fakeDevice{}
	m := NewManager(dev, testConfig())
	m.Start(xr.ModePassthrough)
	awaitResult(t, m)

	dev.mu.Lock()
	cfg := dev.cfgs[0]
	dev.mu.Unlock()

	if len(cfg.RequiredFeatures) != 1 || cfg.RequiredFeatures[0] != xr.FeatureLocalFloor {
		t.Errorf("required = %v, want only local-floor", cfg.RequiredFeatures)
	}
	want := []string{xr.FeatureHitTest, xr.FeatureHandTracking, xr.FeatureDOMOverlay}
	if strings.Join(cfg.OptionalFeatures, ",") != strings.Join(want, ",") {
		t.Errorf("optional = %v, want %v", cfg.OptionalFeatures, want)
	}
	if !cfg.AlphaBlend {
		t.Error("session request must ask for a transparent surface")
	}
}

func TestPassthroughFallsBackToOpaqueOnce(t *testing.T) {
	dev := &fakeDevice{errs: map[xr.Mode]error{
		xr.ModePassthrough: errors.New("compositor rejected"),
	}}
	m := NewManager(dev, testConfig())
	id := m.Start(xr.ModePassthrough)

	r := awaitResult(t, m)
	if r.Attempt != id || r.Err != nil || !r.FellBack || r.Mode != xr.ModeOpaque {
		t.Fatalf("result = %+v, want successful opaque fallback", r)
	}
	m.HandleResult(r)
	if m.Status() != Active || m.Mode() != xr.ModeOpaque {
		t.Errorf("status = %v mode = %v", m.Status(), m.Mode())
	}

	calls := dev.calls()
	if len(calls) != 2 || calls[0] != "request:passthrough" || calls[1] != "request:opaque" {
		t.Errorf("calls = %v", calls)
	}
}

func TestSecondFailureEndsTheChain(t *testing.T) {
	dev := &fakeDevice{errs: map[xr.Mode]error{
		xr.ModePassthrough: errors.New("no ar"),
		xr.ModeOpaque:      errors.New("no vr either"),
	}}
	m := NewManager(dev, testConfig())
	m.Start(xr.ModePassthrough)

	r := awaitResult(t, m)
	if r.Err == nil || !r.FellBack {
		t.Fatalf("result = %+v, want failed fallback", r)
	}
	m.HandleResult(r)
	if m.Status() != Idle {
		t.Errorf("status = %v, want idle after terminal failure", m.Status())
	}

	// No retry loop: exactly two requests, then silence.
	select {
	case extra := <-m.Results():
		t.Fatalf("unexpected extra result %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
	if calls := dev.calls(); len(calls) != 2 {
		t.Errorf("calls = %v, want exactly two requests", calls)
	}
}

func TestNoFallbackWhenSessionStillActive(t *testing.T) {
	dev := &fakeDevice{errs: map[xr.Mode]error{
		xr.ModePassthrough: xr.ErrSessionActive,
	}}
	m := NewManager(dev, testConfig())
	m.Start(xr.ModePassthrough)

	r := awaitResult(t, m)
	if !errors.Is(r.Err, xr.ErrSessionActive) || r.FellBack {
		t.Fatalf("result = %+v, want direct failure without fallback", r)
	}
	if calls := dev.calls(); len(calls) != 1 {
		t.Errorf("calls = %v, want a single request", calls)
	}
}

func TestOpaqueFailureIsTerminal(t *testing.T) {
	dev := &fakeDevice{errs: map[xr.Mode]error{
		xr.ModeOpaque: errors.New("denied"),
	}}
	m := NewManager(dev, testConfig())
	m.Start(xr.ModeOpaque)

	r := awaitResult(t, m)
	if r.Err == nil || r.FellBack {
		t.Fatalf("result = %+v, want terminal opaque failure", r)
	}
	if calls := dev.calls(); len(calls) != 1 {
		t.Errorf("calls = %v", calls)
	}
}

func TestNewerStartSupersedesRetry(t *testing.T) {
	dev := &fakeDevice{errs: map[xr.Mode]error{
		xr.ModePassthrough: errors.New("busy"),
	}}
	cfg := testConfig()
	cfg.RetryDelay = 250 * time.Millisecond
	m := NewManager(dev, cfg)

	m.Start(xr.ModePassthrough)
	time.Sleep(30 * time.Millisecond) // let the first attempt fail into its retry sleep
	id2 := m.Start(xr.ModeOpaque)

	r := awaitResult(t, m)
	if r.Attempt != id2 || r.Err != nil || r.Mode != xr.ModeOpaque {
		t.Fatalf("result = %+v, want the superseding attempt's success", r)
	}
	if !m.HandleResult(r) {
		t.Fatal("superseding attempt's result must be accepted")
	}

	// The superseded chain must never report.
	select {
	case extra := <-m.Results():
		t.Fatalf("superseded attempt reported %+v", extra)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestStaleResultRejected(t *testing.T) {
	m := NewManager(&fakeDevice{}, testConfig())
	m.Start(xr.ModePassthrough)
	if m.HandleResult(Result{Attempt: "stale", Mode: xr.ModePassthrough}) {
		t.Error("stale attempt result must be rejected")
	}
}

func TestRestartEndsActiveSessionFirst(t *testing.T) {
	dev := &fakeDevice{}
	m := NewManager(dev, testConfig())

	m.Start(xr.ModePassthrough)
	m.HandleResult(awaitResult(t, m))
	if m.Status() != Active {
		t.Fatalf("status = %v", m.Status())
	}

	m.Start(xr.ModePassthrough)
	r := awaitResult(t, m)
	m.HandleResult(r)

	calls := dev.calls()
	want := []string{"request:passthrough", "end", "request:passthrough"}
	if strings.Join(calls, " ") != strings.Join(want, " ") {
		t.Errorf("calls = %v, want teardown before the new request", calls)
	}
}

func TestEndThenEndedEvent(t *testing.T) {
	dev := &fakeDevice{}
	m := NewManager(dev, testConfig())
	m.Start(xr.ModeOpaque)
	m.HandleResult(awaitResult(t, m))

	m.End()
	if m.Status() != Ending {
		t.Fatalf("status = %v, want ending", m.Status())
	}

	// The device acks teardown asynchronously.
	deadline := time.Now().Add(time.Second)
	for {
		if calls := dev.calls(); len(calls) == 2 && calls[1] == "end" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("end never reached the device: %v", dev.calls())
		}
		time.Sleep(5 * time.Millisecond)
	}

	m.SessionEnded()
	if m.Status() != Idle {
		t.Errorf("status = %v, want idle after ended event", m.Status())
	}
}

func TestPlatformEndWhileActive(t *testing.T) {
	dev := &fakeDevice{}
	m := NewManager(dev, testConfig())
	m.Start(xr.ModeOpaque)
	m.HandleResult(awaitResult(t, m))

	m.SessionEnded()
	if m.Status() != Idle {
		t.Errorf("status = %v, want idle", m.Status())
	}
}

func TestDeviceLostAbortsAttempt(t *testing.T) {
	dev := &fakeDevice{errs: map[xr.Mode]error{
		xr.ModePassthrough: errors.New("slow failure"),
	}}
	cfg := testConfig()
	cfg.RetryDelay = 300 * time.Millisecond
	m := NewManager(dev, cfg)

	m.Start(xr.ModePassthrough)
	time.Sleep(30 * time.Millisecond)
	m.DeviceLost()
	if m.Status() != Idle {
		t.Fatalf("status = %v, want idle", m.Status())
	}

	select {
	case r := <-m.Results():
		t.Fatalf("aborted attempt reported %+v", r)
	case <-time.After(400 * time.Millisecond):
	}
}
