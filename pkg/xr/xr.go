// Package xr defines the boundary to the platform XR runtime.
//
// The host never talks to a headset directly; it talks to a Device. A Device
// answers capability queries, opens and ends immersive sessions, requests a
// hit-test feed, and delivers per-frame data (viewer pose, surface hits,
// input sources) plus discrete session events over a single serialized event
// stream. Implementations live elsewhere (pkg/headset provides the WebSocket
// and data-channel bridges); consumers should depend on the narrowest
// interface that covers what they use.
package xr

import "context"

// Mode selects how the immersive session blends with the real environment.
type Mode string

const (
	// ModePassthrough renders on top of the camera feed of the real room.
	ModePassthrough Mode = "passthrough"

	// ModeOpaque is a fully synthetic immersive view (no camera feed).
	ModeOpaque Mode = "opaque"
)

// SessionType returns the platform session type string for the mode.
func (m Mode) SessionType() string {
	if m == ModePassthrough {
		return "immersive-ar"
	}
	return "immersive-vr"
}

// Capabilities reports which immersive modes the device can open.
type Capabilities struct {
	Passthrough bool `json:"passthrough"`
	Opaque      bool `json:"opaque"`
}

// Any returns true if at least one immersive mode is available.
func (c Capabilities) Any() bool {
	return c.Passthrough || c.Opaque
}

// Session feature descriptors, platform vocabulary.
const (
	FeatureLocalFloor   = "local-floor"
	FeatureHitTest      = "hit-test"
	FeatureHandTracking = "hand-tracking"
	FeatureDOMOverlay   = "dom-overlay"
)

// SessionConfig is the feature contract for a session request.
type SessionConfig struct {
	Mode             Mode
	RequiredFeatures []string
	OptionalFeatures []string

	// AlphaBlend requests a transparent rendering surface. Mandatory for
	// passthrough; harmless for opaque sessions.
	AlphaBlend bool
}

// DefaultSessionConfig returns the fixed feature contract used for every
// session attempt: a floor-relative reference space is required, everything
// else is optional so the session can still open on devices without it.
func DefaultSessionConfig(mode Mode) SessionConfig {
	return SessionConfig{
		Mode:             mode,
		RequiredFeatures: []string{FeatureLocalFloor},
		OptionalFeatures: []string{FeatureHitTest, FeatureHandTracking, FeatureDOMOverlay},
		AlphaBlend:       true,
	}
}

// CapabilityQuerier answers which immersive modes the device supports.
type CapabilityQuerier interface {
	Capabilities(ctx context.Context) (Capabilities, error)
}

// SessionController opens and ends immersive sessions. RequestSession
// resolves once the device acknowledges the session and its reference space;
// EndSession resolves once teardown has completed on the device.
type SessionController interface {
	RequestSession(ctx context.Context, cfg SessionConfig) error
	EndSession(ctx context.Context) error
}

// HitTestRequester asks the device to open a viewer-ray hit-test feed for
// the current session. Returns ErrHitTestUnsupported when the device cannot
// provide one.
type HitTestRequester interface {
	RequestHitTestSource(ctx context.Context) error
}

// EventSource delivers frames and discrete session events in arrival order.
// The channel is closed when the device goes away for good.
type EventSource interface {
	Events() <-chan Event
}

// Device is the composite platform boundary.
type Device interface {
	CapabilityQuerier
	SessionController
	HitTestRequester
	EventSource
}
