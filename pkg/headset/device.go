package headset

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/exhibitxr/go-exhibit/pkg/protocol"
	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// Compile-time check that Bridge satisfies the platform boundary.
var _ xr.Device = (*Bridge)(nil)

// Capabilities asks the device which immersive modes it can open right now.
// Always a live query; the hello snapshot can go stale when the browser
// revokes permissions.
func (b *Bridge) Capabilities(ctx context.Context) (xr.Capabilities, error) {
	ch := b.pending.armCaps()
	defer b.pending.disarmCaps(ch)

	msg, err := protocol.NewMessage(protocol.TypeCapsQuery, nil)
	if err != nil {
		return xr.Capabilities{}, err
	}
	if err := b.send(msg); err != nil {
		return xr.Capabilities{}, err
	}

	select {
	case <-ctx.Done():
		return xr.Capabilities{}, ctx.Err()
	case res := <-ch:
		return res.caps, res.err
	}
}

// RequestSession asks the device to open an immersive session and blocks
// until the device confirms or rejects it. The attempt ID ties the answer
// to this call; an answer for a superseded attempt is discarded.
func (b *Bridge) RequestSession(ctx context.Context, cfg xr.SessionConfig) error {
	attemptID := uuid.NewString()
	ch := b.pending.armSession(attemptID)
	defer b.pending.disarmSession(attemptID)

	msg, err := protocol.NewMessage(protocol.TypeSessionRequest, protocol.SessionRequestData{
		AttemptID:   attemptID,
		Mode:        string(cfg.Mode),
		SessionType: cfg.Mode.SessionType(),
		Required:    cfg.RequiredFeatures,
		Optional:    cfg.OptionalFeatures,
		AlphaBlend:  cfg.AlphaBlend,
	})
	if err != nil {
		return err
	}
	if err := b.send(msg); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-ch:
		return err
	}
}

// EndSession asks the device to tear down the active session and blocks
// until teardown completes on the device.
func (b *Bridge) EndSession(ctx context.Context) error {
	ch := b.pending.armEnd()
	defer b.pending.disarmEnd(ch)

	msg, err := protocol.NewMessage(protocol.TypeSessionEnd, nil)
	if err != nil {
		return err
	}
	if err := b.send(msg); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-ch:
		return err
	}
}

// RequestHitTestSource asks the device to open a viewer-ray hit-test feed
// for the current session.
func (b *Bridge) RequestHitTestSource(ctx context.Context) error {
	ch := b.pending.armHitTest()
	defer b.pending.disarmHitTest(ch)

	msg, err := protocol.NewMessage(protocol.TypeHitTestRequest, nil)
	if err != nil {
		return err
	}
	if err := b.send(msg); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-ch:
		return err
	}
}

// sessionError maps a wire session failure to the xr error vocabulary.
func sessionError(d protocol.SessionErrorData) error {
	switch d.Code {
	case protocol.CodeSessionActive:
		return fmt.Errorf("%w: %s", xr.ErrSessionActive, d.Error)
	case protocol.CodeUnsupported:
		return fmt.Errorf("%w: %s", xr.ErrModeUnsupported, d.Error)
	}
	return fmt.Errorf("session request failed (%s): %s", d.Mode, d.Error)
}

// hitTestError maps a hit-test source outcome to the xr error vocabulary.
func hitTestError(d protocol.HitTestReadyData) error {
	if d.OK {
		return nil
	}
	return fmt.Errorf("%w: %s", xr.ErrHitTestUnsupported, d.Error)
}
