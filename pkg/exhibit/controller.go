package exhibit

import (
	"context"
	"fmt"
	"time"

	"github.com/exhibitxr/go-exhibit/internal/log"
	"github.com/exhibitxr/go-exhibit/pkg/capability"
	"github.com/exhibitxr/go-exhibit/pkg/placement"
	"github.com/exhibitxr/go-exhibit/pkg/session"
	"github.com/exhibitxr/go-exhibit/pkg/web"
	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// hitTestTimeout bounds the hit-test source request; a device that never
// answers is treated as feed-unsupported.
const hitTestTimeout = 10 * time.Second

// Run drives the controller until ctx is cancelled or the device event
// stream closes. Everything the controller owns is mutated only here.
func (c *Controller) Run(ctx context.Context) error {
	c.ctx = ctx
	c.dash.SetStatus("Waiting for headset", false)
	c.dash.UpdateState(func(st *web.StationState) {
		st.Exhibit = c.manifest.Name
	})

	if c.manifest.Soundtrack != nil {
		go c.loadSoundtrack()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-c.station.Events():
			if !ok {
				return nil
			}
			c.handleEvent(ev)

		case res := <-c.manager.Results():
			c.handleSessionResult(res)

		case cmd := <-c.commands:
			c.handleCommand(cmd)

		case out := <-c.probeCh:
			c.handleProbe(out)

		case out := <-c.hitCh:
			c.handleHitTest(out)

		case out := <-c.trackCh:
			c.handleSoundtrack(out)
		}
	}
}

func (c *Controller) handleEvent(ev xr.Event) {
	switch ev.Kind {
	case xr.EventFrame:
		c.onFrame(ev.Frame)

	case xr.EventSelect:
		c.onSelect()

	case xr.EventDeviceOnline:
		c.onDeviceOnline(ev.Reason)

	case xr.EventDeviceOffline:
		c.onDeviceOffline()

	case xr.EventSessionEnded:
		c.onSessionEnded(ev.Reason)

	case xr.EventModelReady:
		c.onModelReady(ev.Model)
	}
}

func (c *Controller) onDeviceOnline(deviceID string) {
	c.deviceOnline = true
	c.dash.AddEvent("device", "headset connected: "+deviceID)
	c.dash.UpdateState(func(st *web.StationState) {
		st.HeadsetConnected = true
		st.DeviceID = deviceID
	})

	if err := c.station.SendLoadModel(c.manifest); err != nil {
		log.Warn("model load send failed", "error", err)
	}

	if !c.probing {
		c.probing = true
		go c.probeDevice()
	}
}

func (c *Controller) onDeviceOffline() {
	c.deviceOnline = false
	c.probed = false
	c.model = nil
	c.manager.DeviceLost()
	c.resetSessionState()

	c.dash.AddEvent("device", "headset disconnected")
	c.dash.UpdateState(func(st *web.StationState) {
		st.HeadsetConnected = false
		st.DeviceID = ""
		st.SessionActive = false
		st.SessionMode = ""
		st.ModelReady = false
	})
	c.dash.SetStatus("Waiting for headset", false)
}

func (c *Controller) onSessionEnded(reason string) {
	ended := c.manager.Status() == session.Active || c.manager.Status() == session.Ending
	c.manager.SessionEnded()
	if !ended {
		// The device reported teardown the manager already accounted for
		// (a restart chain ends the old session itself).
		return
	}

	c.resetSessionState()
	c.dash.AddEvent("session", "session ended: "+reason)
	c.dash.UpdateState(func(st *web.StationState) {
		st.SessionActive = false
		st.SessionMode = ""
	})
	text, enabled := c.readyStatus()
	c.dash.SetStatus(text, enabled)
}

func (c *Controller) onModelReady(report *xr.ModelReport) {
	c.model = report
	c.pointer.SetColliders(c.colliders(), c.modelScale)

	if !report.OK {
		log.Warn("model load failed on device", "error", report.Error)
		c.dash.AddEvent("error", "model load failed: "+report.Error)
		text, enabled := c.readyStatus()
		if c.probed {
			c.dash.SetStatus("Error loading model: "+report.Error, enabled)
		} else {
			c.dash.SetStatus(text, enabled)
		}
		return
	}

	log.Info("model ready on device", "clips", report.Clips)
	c.dash.AddEvent("asset", "model loaded")
	c.dash.UpdateState(func(st *web.StationState) {
		st.ModelReady = true
	})
}

// colliders picks the ray-test volumes: the device's parsed geometry when it
// reported any, else the manifest's (which always holds at least the
// placeholder box).
func (c *Controller) colliders() []xr.Box {
	if c.model != nil && len(c.model.Colliders) > 0 {
		return c.model.Colliders
	}
	boxes := make([]xr.Box, 0, len(c.manifest.Model.Colliders))
	for _, spec := range c.manifest.Model.Colliders {
		boxes = append(boxes, spec.ToBox())
	}
	return boxes
}

func (c *Controller) handleSessionResult(res session.Result) {
	if !c.manager.HandleResult(res) {
		return
	}

	if res.Err != nil {
		log.Warn("session attempt failed", "mode", res.Mode, "error", res.Err)
		c.resetSessionState()
		c.dash.AddEvent("error", fmt.Sprintf("session start failed (%s): %v", res.Mode, res.Err))
		_, enabled := c.readyStatus()
		c.dash.SetStatus(fmt.Sprintf("Could not start session: %v", res.Err), enabled)
		return
	}

	c.attempt = res.Attempt
	c.beginSession(res.Mode, res.FellBack)
}

// beginSession resets per-session state for a freshly opened session.
func (c *Controller) beginSession(mode xr.Mode, fellBack bool) {
	c.resetSessionState()
	c.nodes.MarkAllDirty()
	c.flush()

	if fellBack {
		c.dash.AddEvent("session", "passthrough failed, running opaque fallback")
	}
	c.dash.AddEvent("session", "session active: "+string(mode))
	c.dash.UpdateState(func(st *web.StationState) {
		st.SessionActive = true
		st.SessionMode = string(mode)
	})
	c.dash.SetStatus("Session running", false)
	c.setHint(hintNoTracking)
}

func (c *Controller) handleCommand(cmd command) {
	switch cmd {
	case cmdStart:
		if !c.probed || !c.probe.Supported {
			text, _ := c.readyStatus()
			c.dash.SetStatus(text, false)
			return
		}
		c.dash.SetStatus("Starting session", false)
		c.manager.Start(c.probe.Preferred)

	case cmdEnd:
		if c.manager.Status() != session.Active {
			return
		}
		c.dash.SetStatus("Ending session", false)
		c.manager.End()
	}
}

func (c *Controller) handleProbe(out probeOutcome) {
	c.probing = false
	if !c.deviceOnline {
		return
	}
	if out.err != nil {
		log.Warn("capability probe failed", "error", out.err)
		c.dash.AddEvent("error", "capability probe failed")
		c.dash.SetStatus("Headset not responding", false)
		return
	}

	c.probed = true
	c.probe = out.report
	c.dash.UpdateState(func(st *web.StationState) {
		st.Passthrough = out.report.Caps.Passthrough
		st.Opaque = out.report.Caps.Opaque
	})

	text, enabled := c.readyStatus()
	c.dash.SetStatus(text, enabled)
	c.dash.AddEvent("device", text)
}

func (c *Controller) handleHitTest(out hitOutcome) {
	if out.attempt != c.attempt || c.manager.Status() != session.Active {
		return
	}
	if out.err == nil {
		log.Info("hit-test feed ready")
		c.dash.AddEvent("session", "surface tracking ready")
		return
	}

	// Feed-unsupported recovers locally: place at the fixed default pose.
	// Not an error as far as the visitor is concerned.
	log.Warn("hit testing unavailable", "error", out.err)
	c.sampler.MarkUnsupported()
	if c.machine.SurfaceUnsupported() {
		c.dash.AddEvent("placement", "no surface tracking, using default placement")
		c.composeScene(c.frameTime)
		c.flush()
		c.setHint(hintPlaced)
	}
}

func (c *Controller) handleSoundtrack(out trackOutcome) {
	if out.err != nil {
		// The soundtrack simply is not offered this run.
		log.Warn("soundtrack unavailable", "error", out.err)
		c.dash.AddEvent("asset", "soundtrack unavailable")
		return
	}

	c.soundtrack = out.track
	c.gate.ClipReady()
	log.Info("soundtrack ready",
		"duration", out.track.Duration(),
		"sample_rate", out.track.SampleRate)
	c.dash.AddEvent("asset", "soundtrack ready")
}

// onSelect is the commit path: only a select while Tracking places the
// object, and only the first placement of the session plays the soundtrack.
func (c *Controller) onSelect() {
	pose, ok := c.machine.Commit()
	if !ok {
		return
	}

	log.Info("exhibit placed",
		"x", pose.Position.X(), "y", pose.Position.Y(), "z", pose.Position.Z())
	c.dash.AddEvent("placement", "exhibit placed")

	if c.gate.TryFire() {
		if err := c.station.SendAudio(c.soundtrack); err != nil {
			log.Warn("soundtrack send failed", "error", err)
		} else {
			c.dash.UpdateState(func(st *web.StationState) {
				st.SoundtrackPlayed = true
			})
		}
	}

	c.composeScene(c.frameTime)
	c.flush()
	c.setHint(hintPlaced)
}

// onReposition clears the committed placement: the placard is forced hidden
// and pointing state dropped before the next frame's tracking begins.
func (c *Controller) onReposition() {
	c.fade.Cancel()
	c.pointer.Reset()
	c.dash.AddEvent("placement", "repositioning")
	c.dash.UpdateState(func(st *web.StationState) { st.Pointing = false })
	c.setHint(hintPlace)
}

// resetSessionState clears everything a session owns. Gate keeps its loaded
// flag; a new session gets a fresh play latch.
func (c *Controller) resetSessionState() {
	c.machine.Reset()
	c.sampler.Reset()
	c.pointer.Reset()
	c.fade.Cancel()
	c.gate.Reset()
	c.attempt = ""
	c.viewer = nil
	c.frameTime = 0
	c.lastPlacement = placement.Unplaced
	c.lastHint = ""

	c.hideAllNodes()
	c.dash.UpdateState(func(st *web.StationState) {
		st.Placement = placement.Unplaced.String()
		st.Pointing = false
		st.SoundtrackPlayed = false
	})
}

func (c *Controller) readyStatus() (string, bool) {
	if !c.probed {
		return "Waiting for headset", false
	}
	switch {
	case c.probe.Caps.Passthrough:
		return "Ready to enter AR!", true
	case c.probe.Caps.Opaque:
		return "Ready to enter VR!", true
	}
	return "Immersive viewing not supported on this headset", false
}

// setHint pushes the in-session overlay text, deduplicated.
func (c *Controller) setHint(text string) {
	if text == c.lastHint {
		return
	}
	c.lastHint = text
	if err := c.station.SendOverlay(text, text != ""); err != nil {
		log.Debug("overlay send failed", "error", err)
	}
}

// probeDevice runs the capability probe off-loop.
func (c *Controller) probeDevice() {
	report, err := capability.Probe(c.ctx, c.station)
	select {
	case c.probeCh <- probeOutcome{report: report, err: err}:
	case <-c.ctx.Done():
	}
}

// requestHitTest asks the device for the session's hit-test feed off-loop.
func (c *Controller) requestHitTest(attempt string) {
	ctx, cancel := context.WithTimeout(c.ctx, hitTestTimeout)
	defer cancel()

	err := c.station.RequestHitTestSource(ctx)
	select {
	case c.hitCh <- hitOutcome{attempt: attempt, err: err}:
	case <-c.ctx.Done():
	}
}

// loadSoundtrack decodes the manifest soundtrack off-loop.
func (c *Controller) loadSoundtrack() {
	track, err := c.manifest.DecodeSoundtrack()
	select {
	case c.trackCh <- trackOutcome{track: track, err: err}:
	case <-c.ctx.Done():
	}
}
