package xr

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is a rigid transform in the session reference space: a position in
// meters and a unit orientation quaternion. The reference space is
// floor-relative with +Y up and -Z forward.
type Pose struct {
	Position    mgl64.Vec3 `json:"position"`
	Orientation mgl64.Quat `json:"orientation"`
}

// IdentityPose returns the origin pose with no rotation.
func IdentityPose() Pose {
	return Pose{Orientation: mgl64.QuatIdent()}
}

// PoseAt returns a pose at position p with no rotation.
func PoseAt(p mgl64.Vec3) Pose {
	return Pose{Position: p, Orientation: mgl64.QuatIdent()}
}

// Forward returns the pose's forward direction (-Z rotated into the
// reference space).
func (p Pose) Forward() mgl64.Vec3 {
	return p.Orientation.Rotate(mgl64.Vec3{0, 0, -1})
}

// Transform maps a point from the pose's local space into the reference
// space.
func (p Pose) Transform(v mgl64.Vec3) mgl64.Vec3 {
	return p.Orientation.Rotate(v).Add(p.Position)
}

// InverseTransform maps a reference-space point into the pose's local space.
func (p Pose) InverseTransform(v mgl64.Vec3) mgl64.Vec3 {
	return p.Orientation.Inverse().Rotate(v.Sub(p.Position))
}

// RotateDir rotates a direction vector into the reference space without
// translating it.
func (p Pose) RotateDir(v mgl64.Vec3) mgl64.Vec3 {
	return p.Orientation.Rotate(v)
}

// InverseRotateDir rotates a reference-space direction into the pose's local
// space.
func (p Pose) InverseRotateDir(v mgl64.Vec3) mgl64.Vec3 {
	return p.Orientation.Inverse().Rotate(v)
}

// Normalized returns the pose with its orientation renormalized. Poses that
// cross a wire can accumulate enough drift to matter for repeated rotation.
func (p Pose) Normalized() Pose {
	p.Orientation = p.Orientation.Normalize()
	return p
}

// YawToward returns a rotation about +Y that turns -Z toward the horizontal
// direction from 'from' to 'to'. Pitch and roll are discarded so the result
// stays upright. If the two points are vertically aligned the identity
// rotation is returned.
func YawToward(from, to mgl64.Vec3) mgl64.Quat {
	dx := to.X() - from.X()
	dz := to.Z() - from.Z()
	if dx == 0 && dz == 0 {
		return mgl64.QuatIdent()
	}
	yaw := math.Atan2(dx, dz) + math.Pi
	return mgl64.QuatRotate(yaw, mgl64.Vec3{0, 1, 0})
}
