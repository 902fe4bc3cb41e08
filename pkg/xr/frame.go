package xr

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Handedness of an input source.
type Handedness string

const (
	HandLeft  Handedness = "left"
	HandRight Handedness = "right"
	HandNone  Handedness = "none"
)

// TargetRayMode describes how an input source aims.
type TargetRayMode string

const (
	// RayTrackedPointer is a physically tracked controller with its own ray.
	RayTrackedPointer TargetRayMode = "tracked-pointer"

	// RayGaze aims with the viewer's head pose.
	RayGaze TargetRayMode = "gaze"

	// RayScreen aims by touching a 2D screen.
	RayScreen TargetRayMode = "screen"
)

// Button is the per-frame state of one gamepad button.
type Button struct {
	Pressed bool    `json:"pressed"`
	Touched bool    `json:"touched"`
	Value   float64 `json:"value"`
}

// InputSource is one tracked input (controller or hand) as observed on a
// single frame. RayPose is nil when the source exists but is not tracked
// this frame.
type InputSource struct {
	Handedness    Handedness    `json:"handedness"`
	TargetRayMode TargetRayMode `json:"targetRayMode"`
	RayPose       *Pose         `json:"rayPose,omitempty"`
	Buttons       []Button      `json:"buttons,omitempty"`
}

// Pressed reports whether button i exists and is down this frame.
func (s InputSource) Pressed(i int) bool {
	return i >= 0 && i < len(s.Buttons) && s.Buttons[i].Pressed
}

// HitResult is one surface intersection from the viewer hit-test feed.
type HitResult struct {
	Pose Pose `json:"pose"`

	// Distance from the viewer along the test ray, meters.
	Distance float64 `json:"distance"`
}

// Frame is one animation frame's worth of session state. Time is elapsed
// time since the session started.
type Frame struct {
	Time       time.Duration
	ViewerPose *Pose
	HitResults []HitResult
	Inputs     []InputSource
}

// Box is an axis-aligned bounding volume in an asset's local space.
type Box struct {
	Center mgl64.Vec3 `json:"center"`
	Half   mgl64.Vec3 `json:"half"`
}

// ContainsRay tests the ray origin+t*dir (model-local, dir need not be unit)
// against the box and reports the nearest non-negative hit parameter.
func (b Box) ContainsRay(origin, dir mgl64.Vec3) (float64, bool) {
	tmin, tmax := 0.0, mathInf
	for i := 0; i < 3; i++ {
		o, d := origin[i], dir[i]
		lo := b.Center[i] - b.Half[i]
		hi := b.Center[i] + b.Half[i]
		if d == 0 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t0 := (lo - o) / d
		t1 := (hi - o) / d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

const mathInf = 1e18

// ModelReport is the device's answer after loading the exhibit model:
// the animation clips it found and the collider volumes for ray tests.
type ModelReport struct {
	OK        bool     `json:"ok"`
	Error     string   `json:"error,omitempty"`
	Clips     []string `json:"clips,omitempty"`
	Colliders []Box    `json:"colliders,omitempty"`
}
