// Package exhibit is the placement-and-interaction controller that runs one
// station: it probes the headset's capabilities, drives the session
// lifecycle with its passthrough-to-opaque fallback, and turns the per-frame
// stream of surface samples and controller input into a committed placement
// with reticle, placard and soundtrack feedback.
//
// All controller state is owned by the single Run goroutine. Blocking work
// (the capability probe, the hit-test source request, soundtrack decoding,
// session attempt chains) runs in worker goroutines that report back over
// buffered channels the loop selects on, so a frame is never held up waiting
// on the device.
package exhibit

import (
	"context"
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/exhibitxr/go-exhibit/pkg/assets"
	"github.com/exhibitxr/go-exhibit/pkg/capability"
	"github.com/exhibitxr/go-exhibit/pkg/feedback"
	"github.com/exhibitxr/go-exhibit/pkg/placement"
	"github.com/exhibitxr/go-exhibit/pkg/pointing"
	"github.com/exhibitxr/go-exhibit/pkg/scene"
	"github.com/exhibitxr/go-exhibit/pkg/session"
	"github.com/exhibitxr/go-exhibit/pkg/surface"
	"github.com/exhibitxr/go-exhibit/pkg/web"
	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// Station is everything the controller needs from the headset side: the
// platform boundary plus the exhibit-specific send surface. pkg/headset's
// Bridge satisfies it.
type Station interface {
	xr.Device
	SendScene(nodes []scene.Node) error
	SendLoadModel(m *assets.Manifest) error
	SendAudio(st *assets.Soundtrack) error
	SendAudioStop() error
	SendOverlay(text string, visible bool) error
}

// Dashboard is the visitor-facing status surface. pkg/web's Server
// satisfies it.
type Dashboard interface {
	SetStatus(text string, startEnabled bool)
	UpdateState(update func(*web.StationState))
	AddEvent(kind, message string)
}

// In-session overlay hints.
const (
	hintPlace      = "Point at a surface and pull the trigger to place the exhibit"
	hintPlaced     = "Point at the exhibit to learn more. The grip button repositions it"
	hintNoTracking = "Looking for a surface..."
)

type command int

const (
	cmdStart command = iota
	cmdEnd
)

type probeOutcome struct {
	report capability.Report
	err    error
}

type hitOutcome struct {
	attempt string
	err     error
}

type trackOutcome struct {
	track *assets.Soundtrack
	err   error
}

// Controller owns one station's state. Create with NewController and drive
// with Run; RequestStart and RequestEnd are the only methods safe to call
// from other goroutines.
type Controller struct {
	station  Station
	dash     Dashboard
	manifest *assets.Manifest

	manager *session.Manager
	machine *placement.Machine
	sampler *surface.Sampler
	pointer *pointing.Detector
	pulse   *feedback.Pulse
	fade    *feedback.Fade
	spin    *feedback.Spin
	gate    *feedback.Gate
	nodes   *scene.Scene

	ctx context.Context // Run's context, for worker goroutines

	deviceOnline bool
	probed       bool
	probing      bool
	probe        capability.Report

	attempt string // active session's attempt ID

	model      *xr.ModelReport
	modelScale float64

	soundtrack *assets.Soundtrack

	viewer        *xr.Pose
	frameTime     time.Duration
	lastPlacement placement.State
	lastHint      string

	commands chan command
	probeCh  chan probeOutcome
	hitCh    chan hitOutcome
	trackCh  chan trackOutcome
}

// NewController wires a controller for one exhibit.
func NewController(station Station, dash Dashboard, manifest *assets.Manifest, cfg session.Config) *Controller {
	fallback := surface.DefaultPose()
	if p := manifest.DefaultPose; p != nil {
		fallback = xr.PoseAt(mgl64.Vec3{p[0], p[1], p[2]})
	}

	c := &Controller{
		station:    station,
		dash:       dash,
		manifest:   manifest,
		manager:    session.NewManager(station, cfg),
		machine:    placement.New(fallback),
		sampler:    surface.New(),
		pointer:    pointing.New(),
		pulse:      feedback.NewPulse(),
		fade:       feedback.NewFade(),
		spin:       feedback.NewSpin(),
		gate:       feedback.NewGate(),
		nodes:      scene.New(),
		modelScale: manifest.Model.Scale,
		commands:   make(chan command, 4),
		probeCh:    make(chan probeOutcome, 1),
		hitCh:      make(chan hitOutcome, 1),
		trackCh:    make(chan trackOutcome, 1),
	}

	// The manifest colliders carry pointing until the device reports the
	// model's real geometry.
	c.pointer.SetColliders(c.colliders(), c.modelScale)
	return c
}

// RequestStart asks the controller to open a session. Safe to call from any
// goroutine; the outcome lands on the dashboard.
func (c *Controller) RequestStart() error {
	return c.enqueue(cmdStart)
}

// RequestEnd asks the controller to tear the session down.
func (c *Controller) RequestEnd() error {
	return c.enqueue(cmdEnd)
}

func (c *Controller) enqueue(cmd command) error {
	select {
	case c.commands <- cmd:
		return nil
	default:
		return errors.New("exhibit: command queue full")
	}
}
