// Package placement is the state machine that turns surface samples and
// controller input into a committed world placement. It is the one piece of
// the system with real state: everything it exposes is mutated only from the
// frame loop, so it needs no locking.
//
// The machine has three states. Unplaced means nothing is committed and no
// surface is under the reticle. Tracking means the reticle is live on the
// latest surface sample, waiting for a commit. Placed means the object is
// fixed at a committed pose until the user triggers repositioning.
package placement

import "github.com/exhibitxr/go-exhibit/pkg/xr"

// State of the placement machine.
type State int

const (
	Unplaced State = iota
	Tracking
	Placed
)

func (s State) String() string {
	switch s {
	case Unplaced:
		return "unplaced"
	case Tracking:
		return "tracking"
	case Placed:
		return "placed"
	}
	return "unknown"
}

// Reposition trigger buttons. Either button going from released to pressed
// on either of the first two controllers re-enters placement.
const (
	TriggerButtonA = 4
	TriggerButtonB = 5

	triggerSources = 2
)

// Machine holds the placement state. Create with New, drive once per frame
// with Observe and ObserveInputs, and feed select events to Commit.
type Machine struct {
	state    State
	reticle  xr.Pose // latest sample, valid while Tracking
	object   xr.Pose // committed pose, valid while Placed
	fallback xr.Pose

	// Previous frame's raw trigger levels, kept only to edge-detect.
	prev [triggerSources]bool
}

// New creates a machine in Unplaced. The fallback pose is used when hit
// testing turns out to be unsupported.
func New(fallback xr.Pose) *Machine {
	return &Machine{fallback: fallback}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// ReticlePose returns the pose the reticle should render at. Only valid
// while Tracking.
func (m *Machine) ReticlePose() (xr.Pose, bool) {
	if m.state != Tracking {
		return xr.Pose{}, false
	}
	return m.reticle, true
}

// ObjectPose returns the committed object pose. Only valid while Placed.
func (m *Machine) ObjectPose() (xr.Pose, bool) {
	if m.state != Placed {
		return xr.Pose{}, false
	}
	return m.object, true
}

// Observe consumes the frame's surface sample. Each frame is authoritative:
// a sample moves Unplaced to Tracking and refreshes the reticle, a frame
// without one drops Tracking back to Unplaced. Samples are irrelevant once
// Placed.
func (m *Machine) Observe(sample xr.Pose, ok bool) {
	switch m.state {
	case Unplaced:
		if ok {
			m.state = Tracking
			m.reticle = sample
		}
	case Tracking:
		if ok {
			m.reticle = sample
		} else {
			m.state = Unplaced
		}
	}
}

// SurfaceUnsupported handles the hit-test feed failing for the session: the
// object is placed at the fallback pose immediately, skipping Tracking
// entirely. Returns false when already Placed.
func (m *Machine) SurfaceUnsupported() bool {
	if m.state == Placed {
		return false
	}
	m.state = Placed
	m.object = m.fallback
	return true
}

// Commit handles a select event. Only a commit while Tracking places the
// object, at exactly the tracked sample's pose. Committing while Unplaced
// (nothing to aim with) or while Placed is ignored.
func (m *Machine) Commit() (xr.Pose, bool) {
	if m.state != Tracking {
		return xr.Pose{}, false
	}
	m.state = Placed
	m.object = m.reticle
	return m.object, true
}

// ObserveInputs edge-detects the reposition trigger and, while Placed,
// re-enters Unplaced when it fires. The previous frame's levels are updated
// every frame regardless of state, so a button held across a commit cannot
// fire a stale edge. Returns true when repositioning fired.
func (m *Machine) ObserveInputs(inputs []xr.InputSource) bool {
	level := triggerLevels(inputs)
	fired := false
	for i := range level {
		if level[i] && !m.prev[i] && m.state == Placed {
			fired = true
		}
	}
	m.prev = level

	if fired {
		m.state = Unplaced
	}
	return fired
}

// triggerLevels reads the raw trigger level of the first two controllers.
// A controller is any input source carrying a gamepad button array.
func triggerLevels(inputs []xr.InputSource) (lv [triggerSources]bool) {
	slot := 0
	for _, in := range inputs {
		if len(in.Buttons) == 0 {
			continue
		}
		if slot >= triggerSources {
			break
		}
		lv[slot] = in.Pressed(TriggerButtonA) || in.Pressed(TriggerButtonB)
		slot++
	}
	return lv
}

// Reset returns the machine to Unplaced and clears the edge detector.
// Called on session end.
func (m *Machine) Reset() {
	m.state = Unplaced
	m.prev = [triggerSources]bool{}
}
