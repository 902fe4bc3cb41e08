package feedback

import (
	"math"
	"testing"
	"time"
)

func TestPulseIsPureAndBounded(t *testing.T) {
	p := NewPulse()

	for _, at := range []time.Duration{0, 123 * time.Millisecond, 7 * time.Second} {
		o1, s1 := p.Evaluate(at)
		o2, s2 := p.Evaluate(at)
		if o1 != o2 || s1 != s2 {
			t.Fatalf("pulse not pure at %v", at)
		}
		if o1 < 0.5-0.35-1e-9 || o1 > 0.5+0.35+1e-9 {
			t.Errorf("opacity %v out of range at %v", o1, at)
		}
		if s1 < 0.9-1e-9 || s1 > 1.1+1e-9 {
			t.Errorf("scale %v out of range at %v", s1, at)
		}
	}

	// Phase zero sits at the midpoint.
	o, s := p.Evaluate(0)
	if math.Abs(o-0.5) > 1e-9 || math.Abs(s-1.0) > 1e-9 {
		t.Errorf("pulse at t=0 = (%v, %v), want midpoints", o, s)
	}

	// One full period later the pulse repeats.
	o1, _ := p.Evaluate(300 * time.Millisecond)
	o2, _ := p.Evaluate(1500 * time.Millisecond)
	if math.Abs(o1-o2) > 1e-9 {
		t.Errorf("pulse not periodic: %v vs %v", o1, o2)
	}
}

func TestFadeRampIsMonotonicAndCompletes(t *testing.T) {
	f := NewFade()
	f.Trigger(2 * time.Second)

	prev := -1.0
	for ms := 2000; ms <= 3500; ms += 50 {
		got := f.Evaluate(time.Duration(ms) * time.Millisecond)
		if got < prev {
			t.Fatalf("opacity decreased during fade-in: %v after %v", got, prev)
		}
		if got < 0 || got > 1 {
			t.Fatalf("opacity %v out of [0,1]", got)
		}
		prev = got
	}
	if prev != 1 {
		t.Errorf("opacity = %v at full duration, want exactly 1", prev)
	}

	// Completed fades stop computing but stay opaque.
	if !f.Visible() {
		t.Error("placard should stay visible after the ramp completes")
	}
	if got := f.Evaluate(10 * time.Second); got != 1 {
		t.Errorf("opacity after completion = %v, want 1", got)
	}
}

func TestFadeCancelSnapsToZero(t *testing.T) {
	f := NewFade()
	f.Trigger(0)

	// Mid-ramp, opacity is partial.
	if got := f.Evaluate(500 * time.Millisecond); got <= 0 || got >= 1 {
		t.Fatalf("mid-ramp opacity = %v, want partial", got)
	}

	f.Cancel()
	if got := f.Evaluate(600 * time.Millisecond); got != 0 {
		t.Errorf("opacity after cancel = %v, want 0 immediately", got)
	}
	if f.Visible() {
		t.Error("placard should hide on cancel")
	}

	// Cancel works on a completed fade too.
	f.Trigger(0)
	f.Evaluate(5 * time.Second)
	f.Cancel()
	if got := f.Evaluate(6 * time.Second); got != 0 {
		t.Errorf("opacity after cancel of completed fade = %v, want 0", got)
	}
}

func TestFadeBeforeTriggerIsZero(t *testing.T) {
	f := NewFade()
	if got := f.Evaluate(time.Second); got != 0 {
		t.Errorf("untriggered opacity = %v, want 0", got)
	}
	if f.Visible() {
		t.Error("untriggered placard should be hidden")
	}
}

func TestSpinIsLinear(t *testing.T) {
	s := NewSpin()
	a1 := s.Angle(2 * time.Second)
	a2 := s.Angle(4 * time.Second)
	if math.Abs(a2-2*a1) > 1e-9 {
		t.Errorf("spin not linear: %v, %v", a1, a2)
	}
	if a1 <= 0 {
		t.Errorf("spin angle = %v, want positive", a1)
	}
}

func TestGateFiresOncePerSession(t *testing.T) {
	g := NewGate()

	// Commit before the clip loads: dropped, latch not consumed.
	if g.TryFire() {
		t.Fatal("gate fired before the clip loaded")
	}

	g.ClipReady()
	if !g.TryFire() {
		t.Fatal("gate should fire on the first commit after load")
	}

	// Reposition and commit again: no replay.
	if g.TryFire() {
		t.Error("gate must not replay within a session")
	}

	// New session rearms, clip stays loaded.
	g.Reset()
	if !g.TryFire() {
		t.Error("gate should fire again after session reset")
	}
}

func TestGateDroppedCommitDoesNotConsumeLatch(t *testing.T) {
	g := NewGate()
	g.TryFire() // dropped, clip not loaded
	g.ClipReady()
	if !g.TryFire() {
		t.Error("a dropped commit must not consume the latch")
	}
}
