// Package pointing detects whether a controller ray is on the placed
// object. Rays are tested against the model's collider volumes, not just an
// outer bound, so long thin models do not light up from empty air beside
// them. Only tracked-pointer inputs cast rays; gaze and screen inputs are
// ignored.
package pointing

import "github.com/exhibitxr/go-exhibit/pkg/xr"

// Transition is the hover change produced by one frame's evaluation.
type Transition int

const (
	// None: hover state unchanged this frame.
	None Transition = iota

	// Enter: a ray landed on the object this frame.
	Enter

	// Exit: every ray left the object this frame.
	Exit
)

// Detector tracks hover state across frames. Evaluate is called once per
// frame while the object is placed and skipped entirely otherwise.
type Detector struct {
	colliders []xr.Box
	scale     float64
	hovering  bool
}

// New creates a detector with no colliders. Until SetColliders is called
// every evaluation misses.
func New() *Detector {
	return &Detector{scale: 1}
}

// SetColliders installs the model's collider volumes (model space) and the
// uniform scale applied to the model node.
func (d *Detector) SetColliders(boxes []xr.Box, scale float64) {
	if scale <= 0 {
		scale = 1
	}
	d.colliders = boxes
	d.scale = scale
}

// Evaluate tests every active ray against the colliders in the placed
// object's frame, short-circuiting on the first hit; any one ray on the
// object counts. Returns the hover transition for this frame.
func (d *Detector) Evaluate(inputs []xr.InputSource, placed xr.Pose) Transition {
	hit := false
	for _, in := range inputs {
		if in.TargetRayMode != xr.RayTrackedPointer || in.RayPose == nil {
			continue
		}
		if d.rayHits(*in.RayPose, placed) {
			hit = true
			break
		}
	}

	switch {
	case hit && !d.hovering:
		d.hovering = true
		return Enter
	case !hit && d.hovering:
		d.hovering = false
		return Exit
	}
	return None
}

// rayHits transforms the ray into the model's authoring space and tests the
// collider set.
func (d *Detector) rayHits(ray, placed xr.Pose) bool {
	origin := placed.InverseTransform(ray.Position).Mul(1 / d.scale)
	dir := placed.InverseRotateDir(ray.Forward())
	for _, b := range d.colliders {
		if _, ok := b.ContainsRay(origin, dir); ok {
			return true
		}
	}
	return false
}

// Hovering reports the current hover state.
func (d *Detector) Hovering() bool {
	return d.hovering
}

// Reset clears hover state without emitting a transition. Called on
// reposition and session end, where the placard is forced hidden anyway.
func (d *Detector) Reset() {
	d.hovering = false
}
