package xr

import "errors"

var (
	// ErrUnsupported: the device supports no immersive mode at all.
	ErrUnsupported = errors.New("xr: no immersive mode supported")

	// ErrModeUnsupported: the requested mode is not available on this device.
	ErrModeUnsupported = errors.New("xr: immersive mode not supported")

	// ErrSessionActive: a session is already open or being opened.
	ErrSessionActive = errors.New("xr: session already active")

	// ErrNoSession: the operation needs an active session.
	ErrNoSession = errors.New("xr: no active session")

	// ErrHitTestUnsupported: the session cannot provide a hit-test feed.
	ErrHitTestUnsupported = errors.New("xr: hit testing unsupported")

	// ErrDeviceGone: no device is connected to serve the request.
	ErrDeviceGone = errors.New("xr: device not connected")
)
