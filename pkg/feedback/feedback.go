// Package feedback drives the time-based effects around placement: the
// reticle pulse while tracking, the placard fade on pointing, the idle spin
// for models without authored clips, and the one-shot soundtrack gate.
// Effects are pure functions of time wherever possible; only the fade and
// the gate keep state, and both are mutated solely from the frame loop.
package feedback

import (
	"math"
	"time"
)

// ============================================================
// Pulse - Reticle attention pulse while tracking
// ============================================================

// Pulse is a fixed sinusoid of elapsed session time. It holds no state: the
// same instant always produces the same pulse.
type Pulse struct {
	period     time.Duration
	opacityMid float64
	opacityAmp float64
	scaleMid   float64
	scaleAmp   float64
}

// NewPulse creates the reticle pulse.
func NewPulse() *Pulse {
	return &Pulse{
		period:     1200 * time.Millisecond,
		opacityMid: 0.5,
		opacityAmp: 0.35,
		scaleMid:   1.0,
		scaleAmp:   0.1,
	}
}

// Evaluate returns the reticle opacity and scale at session time t.
func (p *Pulse) Evaluate(t time.Duration) (opacity, scale float64) {
	phase := 2 * math.Pi * t.Seconds() / p.period.Seconds()
	s := math.Sin(phase)
	return p.opacityMid + p.opacityAmp*s, p.scaleMid + p.scaleAmp*s
}

// ============================================================
// Fade - Placard ease-out fade-in
// ============================================================

// Fade turns a trigger instant into a monotonic ease-out opacity ramp,
// clamped to [0,1]. Fade-out is not animated: Cancel snaps opacity straight
// to zero. Once the ramp reaches 1 the start marker is cleared so idle
// frames cost nothing.
type Fade struct {
	duration time.Duration
	start    time.Duration
	running  bool
	done     bool
}

// NewFade creates the placard fade.
func NewFade() *Fade {
	return &Fade{duration: 1500 * time.Millisecond}
}

// Trigger starts the ramp at time now.
func (f *Fade) Trigger(now time.Duration) {
	f.start = now
	f.running = true
	f.done = false
}

// Cancel snaps the placard invisible, wherever the ramp was.
func (f *Fade) Cancel() {
	f.running = false
	f.done = false
}

// Evaluate returns the placard opacity at time now.
func (f *Fade) Evaluate(now time.Duration) float64 {
	if f.done {
		return 1
	}
	if !f.running {
		return 0
	}
	x := float64(now-f.start) / float64(f.duration)
	if x >= 1 {
		f.running = false
		f.done = true
		return 1
	}
	if x < 0 {
		x = 0
	}
	inv := 1 - x
	return 1 - inv*inv*inv
}

// Visible reports whether the placard should render at all.
func (f *Fade) Visible() bool {
	return f.running || f.done
}

// ============================================================
// Spin - Idle rotation for models without authored clips
// ============================================================

// Spin rotates a static model about the vertical axis at constant angular
// velocity so a clipless mesh still reads as alive. Applied only while the
// model is visible.
type Spin struct {
	rate float64 // Radians per second
}

// NewSpin creates the idle spin, one full turn every ~18 seconds.
func NewSpin() *Spin {
	return &Spin{rate: 0.35}
}

// Angle returns the accumulated yaw after spinning for d.
func (s *Spin) Angle(d time.Duration) float64 {
	return s.rate * d.Seconds()
}

// ============================================================
// Gate - One-shot soundtrack trigger
// ============================================================

// Gate latches the soundtrack to a single play per session. A commit plays
// only when the clip has finished loading and nothing has played yet this
// session; a commit that loses the race with the loader is dropped, not
// queued, and does not consume the latch. Repositioning does not rearm the
// gate; session teardown does.
type Gate struct {
	loaded bool
	played bool
}

// NewGate creates a closed gate awaiting its clip.
func NewGate() *Gate {
	return &Gate{}
}

// ClipReady marks the audio asset loaded.
func (g *Gate) ClipReady() {
	g.loaded = true
}

// TryFire is called on every placement commit. It reports whether the
// soundtrack should play now, and latches when it does.
func (g *Gate) TryFire() bool {
	if !g.loaded || g.played {
		return false
	}
	g.played = true
	return true
}

// Played reports whether the soundtrack has fired this session.
func (g *Gate) Played() bool {
	return g.played
}

// Reset relatches the gate for a new session. The loaded flag survives
// since assets outlive sessions.
func (g *Gate) Reset() {
	g.played = false
}
