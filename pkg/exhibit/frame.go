package exhibit

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/exhibitxr/go-exhibit/internal/log"
	"github.com/exhibitxr/go-exhibit/pkg/placement"
	"github.com/exhibitxr/go-exhibit/pkg/pointing"
	"github.com/exhibitxr/go-exhibit/pkg/scene"
	"github.com/exhibitxr/go-exhibit/pkg/session"
	"github.com/exhibitxr/go-exhibit/pkg/web"
	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// onFrame is the per-frame path: sample the surface feed, advance the
// placement machine, edge-detect repositioning, evaluate pointing, then
// mirror the result into the scene. Nothing here blocks.
func (c *Controller) onFrame(f *xr.Frame) {
	if c.manager.Status() != session.Active {
		// Frame racing teardown or startup; the device will settle.
		return
	}

	c.frameTime = f.Time
	if f.ViewerPose != nil {
		v := *f.ViewerPose
		c.viewer = &v
	}

	if c.sampler.ShouldRequest() {
		go c.requestHitTest(c.attempt)
	}

	sample, ok := c.sampler.Sample(f)
	c.machine.Observe(sample, ok)

	if c.machine.ObserveInputs(f.Inputs) {
		c.onReposition()
	}

	if pose, placed := c.machine.ObjectPose(); placed {
		switch c.pointer.Evaluate(f.Inputs, pose) {
		case pointing.Enter:
			c.fade.Trigger(f.Time)
			c.dash.UpdateState(func(st *web.StationState) { st.Pointing = true })
		case pointing.Exit:
			c.fade.Cancel()
			c.dash.UpdateState(func(st *web.StationState) { st.Pointing = false })
		}
	}

	c.composeScene(f.Time)
	c.flush()
	c.syncPlacement()
}

// syncPlacement mirrors placement transitions to the dashboard and the
// in-session hint.
func (c *Controller) syncPlacement() {
	st := c.machine.State()
	if st == c.lastPlacement {
		return
	}
	c.lastPlacement = st

	c.dash.UpdateState(func(w *web.StationState) {
		w.Placement = st.String()
	})
	switch st {
	case placement.Unplaced:
		c.setHint(hintNoTracking)
	case placement.Tracking:
		c.setHint(hintPlace)
	case placement.Placed:
		c.setHint(hintPlaced)
	}
}

// composeScene writes the frame's node state: reticle while tracking, model
// and placard while placed.
func (c *Controller) composeScene(t time.Duration) {
	if pose, ok := c.machine.ReticlePose(); ok {
		opacity, scale := c.pulse.Evaluate(t)
		c.nodes.Set(scene.Node{
			ID:      scene.NodeReticle,
			Visible: true,
			Pose:    pose,
			Scale:   scale,
			Opacity: opacity,
		})
	} else {
		c.nodes.Update(scene.NodeReticle, hideNode)
	}

	pose, placed := c.machine.ObjectPose()
	if !placed {
		c.nodes.Update(scene.NodeModel, hideNode)
		c.nodes.Update(scene.NodePlacard, hideNode)
		return
	}

	node := scene.Node{
		ID:      scene.NodeModel,
		Visible: true,
		Pose:    pose,
		Scale:   c.modelScale,
		Opacity: 1,
	}
	if clip, ok := c.modelClip(); ok {
		node.Clip = clip
		node.Loop = true
	} else {
		// No authored clips: constant spin about the vertical axis keeps
		// the exhibit alive.
		yaw := mgl64.QuatRotate(c.spin.Angle(t), mgl64.Vec3{0, 1, 0})
		node.Pose.Orientation = yaw.Mul(pose.Orientation).Normalize()
	}
	c.nodes.Set(node)

	c.composePlacard(t, pose)
}

// modelClip picks the animation clip to play, preferring the manifest's
// active clip while a ray is on the model. Returns false when the model has
// no authored clips at all.
func (c *Controller) modelClip() (string, bool) {
	if c.model == nil || len(c.model.Clips) == 0 {
		return "", false
	}

	clip := c.manifest.Model.Clips.Idle
	if !hasClip(c.model.Clips, clip) {
		clip = c.model.Clips[0]
	}
	if active := c.manifest.Model.Clips.Active; c.pointer.Hovering() && hasClip(c.model.Clips, active) {
		clip = active
	}
	return clip, true
}

func hasClip(clips []string, name string) bool {
	if name == "" {
		return false
	}
	for _, c := range clips {
		if c == name {
			return true
		}
	}
	return false
}

// composePlacard positions the placard beside the model and recomputes its
// yaw every visible frame so it faces the viewer.
func (c *Controller) composePlacard(t time.Duration, obj xr.Pose) {
	if !c.fade.Visible() {
		c.nodes.Update(scene.NodePlacard, hideNode)
		return
	}

	off := c.manifest.Placard.Offset
	pos := obj.Transform(mgl64.Vec3{off[0], off[1], off[2]}.Mul(c.modelScale))

	c.nodes.Set(scene.Node{
		ID:      scene.NodePlacard,
		Visible: true,
		Pose:    xr.Pose{Position: pos, Orientation: c.placardFacing(pos)},
		Opacity: c.fade.Evaluate(t),
		Text:    c.manifest.Placard.Text(),
	})
}

// placardFacing yaws the placard toward the viewer. Without a viewer pose
// this frame the last orientation holds.
func (c *Controller) placardFacing(pos mgl64.Vec3) mgl64.Quat {
	if c.viewer == nil {
		if n, ok := c.nodes.Get(scene.NodePlacard); ok {
			return n.Pose.Orientation
		}
		return mgl64.QuatIdent()
	}
	return xr.YawToward(pos, c.viewer.Position)
}

func hideNode(n *scene.Node) {
	n.Visible = false
	n.Opacity = 0
}

// hideAllNodes hides every node and pushes the result, used on teardown.
func (c *Controller) hideAllNodes() {
	c.nodes.Update(scene.NodeReticle, hideNode)
	c.nodes.Update(scene.NodeModel, hideNode)
	c.nodes.Update(scene.NodePlacard, hideNode)
	c.flush()
}

// flush sends dirty nodes to the device.
func (c *Controller) flush() {
	dirty := c.nodes.Flush()
	if len(dirty) == 0 {
		return
	}
	if err := c.station.SendScene(dirty); err != nil {
		log.Debug("scene send failed", "error", err)
	}
}
