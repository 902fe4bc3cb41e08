package protocol

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// WirePose is a rigid transform as it crosses the wire: position [x,y,z] in
// meters and orientation [x,y,z,w], both in the floor-relative reference
// space.
type WirePose struct {
	P [3]float64 `json:"p"`
	Q [4]float64 `json:"q"`
}

// FromPose converts a domain pose to its wire form.
func FromPose(p xr.Pose) WirePose {
	return WirePose{
		P: [3]float64{p.Position.X(), p.Position.Y(), p.Position.Z()},
		Q: [4]float64{p.Orientation.V.X(), p.Orientation.V.Y(), p.Orientation.V.Z(), p.Orientation.W},
	}
}

// ToPose converts a wire pose to its domain form. A zero quaternion (the
// JSON default when the field is omitted) is promoted to identity so a
// sloppy client cannot produce a degenerate orientation.
func (w WirePose) ToPose() xr.Pose {
	q := mgl64.Quat{W: w.Q[3], V: mgl64.Vec3{w.Q[0], w.Q[1], w.Q[2]}}
	if q.Len() == 0 {
		q = mgl64.QuatIdent()
	}
	return xr.Pose{
		Position:    mgl64.Vec3{w.P[0], w.P[1], w.P[2]},
		Orientation: q.Normalize(),
	}
}

// FromBox converts a domain collider box to its wire form.
func FromBox(b xr.Box) WireBox {
	return WireBox{
		Center: [3]float64{b.Center.X(), b.Center.Y(), b.Center.Z()},
		Half:   [3]float64{b.Half.X(), b.Half.Y(), b.Half.Z()},
	}
}

// ToBox converts a wire collider box to its domain form.
func (w WireBox) ToBox() xr.Box {
	return xr.Box{
		Center: mgl64.Vec3{w.Center[0], w.Center[1], w.Center[2]},
		Half:   mgl64.Vec3{w.Half[0], w.Half[1], w.Half[2]},
	}
}

// ToFrame converts a wire frame to its domain form, with T interpreted as
// milliseconds since session start.
func (f FrameData) ToFrame() *xr.Frame {
	frame := &xr.Frame{
		Time: millis(f.T),
	}
	if f.Viewer != nil {
		vp := f.Viewer.ToPose()
		frame.ViewerPose = &vp
	}
	if len(f.Hits) > 0 {
		frame.HitResults = make([]xr.HitResult, len(f.Hits))
		for i, h := range f.Hits {
			frame.HitResults[i] = xr.HitResult{Pose: h.Pose.ToPose(), Distance: h.Distance}
		}
	}
	if len(f.Inputs) > 0 {
		frame.Inputs = make([]xr.InputSource, len(f.Inputs))
		for i, in := range f.Inputs {
			src := xr.InputSource{
				Handedness:    xr.Handedness(in.Handedness),
				TargetRayMode: xr.TargetRayMode(in.RayMode),
			}
			if in.Ray != nil {
				rp := in.Ray.ToPose()
				src.RayPose = &rp
			}
			if len(in.Buttons) > 0 {
				src.Buttons = make([]xr.Button, len(in.Buttons))
				for j, b := range in.Buttons {
					src.Buttons[j] = xr.Button{Pressed: b.Pressed, Touched: b.Touched, Value: b.Value}
				}
			}
			frame.Inputs[i] = src
		}
	}
	return frame
}

// FromFrame converts a domain frame to its wire form.
func FromFrame(f *xr.Frame) FrameData {
	data := FrameData{T: float64(f.Time) / float64(time.Millisecond)}
	if f.ViewerPose != nil {
		vp := FromPose(*f.ViewerPose)
		data.Viewer = &vp
	}
	for _, h := range f.HitResults {
		data.Hits = append(data.Hits, WireHit{Pose: FromPose(h.Pose), Distance: h.Distance})
	}
	for _, in := range f.Inputs {
		wi := WireInput{
			Handedness: string(in.Handedness),
			RayMode:    string(in.TargetRayMode),
		}
		if in.RayPose != nil {
			rp := FromPose(*in.RayPose)
			wi.Ray = &rp
		}
		for _, b := range in.Buttons {
			wi.Buttons = append(wi.Buttons, WireBtn{Pressed: b.Pressed, Touched: b.Touched, Value: b.Value})
		}
		data.Inputs = append(data.Inputs, wi)
	}
	return data
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
