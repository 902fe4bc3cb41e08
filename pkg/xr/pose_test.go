package xr

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const eps = 1e-9

func vecNear(a, b mgl64.Vec3) bool {
	return math.Abs(a.X()-b.X()) < eps &&
		math.Abs(a.Y()-b.Y()) < eps &&
		math.Abs(a.Z()-b.Z()) < eps
}

func TestIdentityPoseForward(t *testing.T) {
	p := IdentityPose()
	if got := p.Forward(); !vecNear(got, mgl64.Vec3{0, 0, -1}) {
		t.Errorf("Forward() = %v, want (0,0,-1)", got)
	}
}

func TestTransformRoundTrip(t *testing.T) {
	p := Pose{
		Position:    mgl64.Vec3{1, 2, 3},
		Orientation: mgl64.QuatRotate(0.7, mgl64.Vec3{0, 1, 0}),
	}
	local := mgl64.Vec3{0.3, -0.1, 0.5}
	world := p.Transform(local)
	back := p.InverseTransform(world)
	if !vecNear(back, local) {
		t.Errorf("round trip = %v, want %v", back, local)
	}
}

func TestTransformTranslatesOrigin(t *testing.T) {
	p := PoseAt(mgl64.Vec3{4, 0, -2})
	if got := p.Transform(mgl64.Vec3{}); !vecNear(got, mgl64.Vec3{4, 0, -2}) {
		t.Errorf("Transform(origin) = %v, want position", got)
	}
}

func TestYawTowardFacesTarget(t *testing.T) {
	tests := []struct {
		name     string
		from, to mgl64.Vec3
	}{
		{"north", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, -5}},
		{"south", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 5}},
		{"east", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{5, 1, 0}},
		{"diagonal", mgl64.Vec3{1, 0, 2}, mgl64.Vec3{-3, 0, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := YawToward(tt.from, tt.to)
			fwd := q.Rotate(mgl64.Vec3{0, 0, -1})
			want := tt.to.Sub(tt.from)
			want[1] = 0
			want = want.Normalize()
			if !vecNear(fwd, want) {
				t.Errorf("forward = %v, want %v", fwd, want)
			}
		})
	}
}

func TestYawTowardIgnoresHeight(t *testing.T) {
	q := YawToward(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 3, -1})
	fwd := q.Rotate(mgl64.Vec3{0, 0, -1})
	if !vecNear(fwd, mgl64.Vec3{0, 0, -1}) {
		t.Errorf("forward = %v, want (0,0,-1)", fwd)
	}
}

func TestYawTowardVerticalAlignment(t *testing.T) {
	q := YawToward(mgl64.Vec3{1, 0, 1}, mgl64.Vec3{1, 2, 1})
	if got := q.Rotate(mgl64.Vec3{0, 0, -1}); !vecNear(got, mgl64.Vec3{0, 0, -1}) {
		t.Errorf("vertically aligned viewer should leave rotation at identity, got %v", got)
	}
}

func TestBoxContainsRay(t *testing.T) {
	b := Box{Center: mgl64.Vec3{0, 1, 0}, Half: mgl64.Vec3{0.5, 1, 0.5}}

	// Straight at the box from the front.
	if d, ok := b.ContainsRay(mgl64.Vec3{0, 1, 3}, mgl64.Vec3{0, 0, -1}); !ok {
		t.Fatal("expected hit from front")
	} else if math.Abs(d-2.5) > eps {
		t.Errorf("hit distance = %v, want 2.5", d)
	}

	// Ray pointing away.
	if _, ok := b.ContainsRay(mgl64.Vec3{0, 1, 3}, mgl64.Vec3{0, 0, 1}); ok {
		t.Error("expected miss when pointing away")
	}

	// Parallel ray outside a slab.
	if _, ok := b.ContainsRay(mgl64.Vec3{2, 1, 3}, mgl64.Vec3{0, 0, -1}); ok {
		t.Error("expected miss for parallel ray outside the box")
	}

	// Origin inside the box hits at distance zero.
	if d, ok := b.ContainsRay(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0}); !ok || d != 0 {
		t.Errorf("inside origin: got (%v,%v), want (0,true)", d, ok)
	}
}

func TestInputSourcePressed(t *testing.T) {
	s := InputSource{Buttons: []Button{{}, {Pressed: true}}}
	if s.Pressed(0) {
		t.Error("button 0 should be up")
	}
	if !s.Pressed(1) {
		t.Error("button 1 should be down")
	}
	if s.Pressed(5) {
		t.Error("missing button should read as up")
	}
	if s.Pressed(-1) {
		t.Error("negative index should read as up")
	}
}
