// Package capability probes which immersive modes a device supports and
// picks the mode a session should try first. This runs once at startup and
// again when a device reconnects; it is a pure read with no side effects.
package capability

import (
	"context"
	"fmt"
	"time"

	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// DefaultTimeout bounds a single probe round trip.
const DefaultTimeout = 5 * time.Second

// Report is the outcome of a probe.
type Report struct {
	Caps xr.Capabilities

	// Preferred is the mode a session attempt should try first. Only
	// meaningful when Supported is true.
	Preferred xr.Mode

	// Supported is false when no immersive mode is available at all. The
	// caller must disable the start affordance.
	Supported bool
}

// Probe queries the device and ranks its modes, passthrough first.
func Probe(ctx context.Context, q xr.CapabilityQuerier) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	caps, err := q.Capabilities(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("capability probe failed: %w", err)
	}
	return Rank(caps), nil
}

// Rank derives the probe report from raw capabilities. Passthrough wins
// when both modes are available.
func Rank(caps xr.Capabilities) Report {
	r := Report{Caps: caps, Supported: caps.Any()}
	switch {
	case caps.Passthrough:
		r.Preferred = xr.ModePassthrough
	case caps.Opaque:
		r.Preferred = xr.ModeOpaque
	}
	return r
}
