// Package surface turns the per-frame hit-test feed into a single
// authoritative surface sample. There is deliberately no smoothing or
// history: each frame's closest valid hit is the truth for that frame, and a
// frame without hits means no surface.
package surface

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// DefaultPose is where the object is placed when hit testing is unavailable:
// one meter in front of the session origin at a fixed height.
func DefaultPose() xr.Pose {
	return xr.PoseAt(mgl64.Vec3{0, 1.0, -1.0})
}

// Sampler guards the one hit-test feed request a session gets and picks the
// per-frame sample. The feed request is issued at most once per session, no
// matter how it resolves; a failed request is never retried mid-session.
type Sampler struct {
	requested   bool
	unsupported bool
}

// New creates a sampler for a fresh session.
func New() *Sampler {
	return &Sampler{}
}

// ShouldRequest reports whether the feed request still needs to be issued
// and marks it issued. Subsequent calls return false for the rest of the
// session.
func (s *Sampler) ShouldRequest() bool {
	if s.requested {
		return false
	}
	s.requested = true
	return true
}

// MarkUnsupported records that the feed request failed. The placement
// machine falls back to DefaultPose in response.
func (s *Sampler) MarkUnsupported() {
	s.unsupported = true
}

// Unsupported reports whether the feed request failed this session.
func (s *Sampler) Unsupported() bool {
	return s.unsupported
}

// Reset clears the sampler for a new session.
func (s *Sampler) Reset() {
	s.requested = false
	s.unsupported = false
}

// Sample returns the closest valid hit-test result's pose for the frame, or
// false when the frame produced none.
func (s *Sampler) Sample(frame *xr.Frame) (xr.Pose, bool) {
	if frame == nil || len(frame.HitResults) == 0 {
		return xr.Pose{}, false
	}
	best := frame.HitResults[0]
	for _, h := range frame.HitResults[1:] {
		if h.Distance < best.Distance {
			best = h
		}
	}
	return best.Pose, true
}
