package surface

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

func TestShouldRequestFiresOnce(t *testing.T) {
	s := New()
	if !s.ShouldRequest() {
		t.Fatal("first call should request")
	}
	for i := 0; i < 3; i++ {
		if s.ShouldRequest() {
			t.Fatal("request must be issued at most once per session")
		}
	}

	// A new session requests again.
	s.Reset()
	if !s.ShouldRequest() {
		t.Error("reset should rearm the request")
	}
}

func TestMarkUnsupportedDoesNotRearm(t *testing.T) {
	s := New()
	s.ShouldRequest()
	s.MarkUnsupported()
	if !s.Unsupported() {
		t.Error("Unsupported() should be true after MarkUnsupported")
	}
	if s.ShouldRequest() {
		t.Error("a failed request must not be retried mid-session")
	}
}

func TestSamplePicksClosestHit(t *testing.T) {
	s := New()
	frame := &xr.Frame{HitResults: []xr.HitResult{
		{Pose: xr.PoseAt(mgl64.Vec3{0, 0, -3}), Distance: 3},
		{Pose: xr.PoseAt(mgl64.Vec3{0, 0, -1}), Distance: 1},
		{Pose: xr.PoseAt(mgl64.Vec3{0, 0, -2}), Distance: 2},
	}}
	pose, ok := s.Sample(frame)
	if !ok {
		t.Fatal("expected a sample")
	}
	if pose.Position.Z() != -1 {
		t.Errorf("sample = %v, want closest hit", pose.Position)
	}
}

func TestSampleEmptyFrame(t *testing.T) {
	s := New()
	if _, ok := s.Sample(&xr.Frame{}); ok {
		t.Error("frame without hits should yield no surface")
	}
	if _, ok := s.Sample(nil); ok {
		t.Error("nil frame should yield no surface")
	}
}

func TestDefaultPose(t *testing.T) {
	p := DefaultPose()
	if p.Position.Z() != -1 || p.Position.Y() != 1 {
		t.Errorf("DefaultPose = %v, want one meter forward at fixed height", p.Position)
	}
}
