package headset

import (
	"sync"

	"github.com/exhibitxr/go-exhibit/internal/log"
	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// capsResult is the outcome of a capability query.
type capsResult struct {
	caps xr.Capabilities
	err  error
}

// pending holds requests waiting on a device response. A device method arms
// its waiter before sending the request; the read loop fulfills it. Session
// waiters are keyed by attempt ID so a superseded attempt's late answer is
// dropped instead of resolving the wrong caller. Channels are buffered so
// fulfillment never blocks the read loop.
type pending struct {
	mu      sync.Mutex
	caps    chan capsResult
	session map[string]chan error
	hittest chan error
	end     chan error
}

func newPending() *pending {
	return &pending{session: make(map[string]chan error)}
}

func (p *pending) armCaps() chan capsResult {
	ch := make(chan capsResult, 1)
	p.mu.Lock()
	p.caps = ch
	p.mu.Unlock()
	return ch
}

func (p *pending) disarmCaps(ch chan capsResult) {
	p.mu.Lock()
	if p.caps == ch {
		p.caps = nil
	}
	p.mu.Unlock()
}

func (p *pending) fulfillCaps(caps xr.Capabilities) {
	p.mu.Lock()
	ch := p.caps
	p.caps = nil
	p.mu.Unlock()

	if ch != nil {
		ch <- capsResult{caps: caps}
	}
}

func (p *pending) armSession(attemptID string) chan error {
	ch := make(chan error, 1)
	p.mu.Lock()
	p.session[attemptID] = ch
	p.mu.Unlock()
	return ch
}

func (p *pending) disarmSession(attemptID string) {
	p.mu.Lock()
	delete(p.session, attemptID)
	p.mu.Unlock()
}

func (p *pending) fulfillSession(attemptID string, err error) {
	p.mu.Lock()
	ch, ok := p.session[attemptID]
	if ok {
		delete(p.session, attemptID)
	}
	p.mu.Unlock()

	if !ok {
		// The attempt was superseded or timed out before the device answered.
		log.Debug("dropping stale session response", "attempt_id", attemptID, "error", err)
		return
	}
	ch <- err
}

func (p *pending) armHitTest() chan error {
	ch := make(chan error, 1)
	p.mu.Lock()
	p.hittest = ch
	p.mu.Unlock()
	return ch
}

func (p *pending) disarmHitTest(ch chan error) {
	p.mu.Lock()
	if p.hittest == ch {
		p.hittest = nil
	}
	p.mu.Unlock()
}

func (p *pending) fulfillHitTest(err error) {
	p.mu.Lock()
	ch := p.hittest
	p.hittest = nil
	p.mu.Unlock()

	if ch != nil {
		ch <- err
	}
}

func (p *pending) armEnd() chan error {
	ch := make(chan error, 1)
	p.mu.Lock()
	p.end = ch
	p.mu.Unlock()
	return ch
}

func (p *pending) disarmEnd(ch chan error) {
	p.mu.Lock()
	if p.end == ch {
		p.end = nil
	}
	p.mu.Unlock()
}

func (p *pending) fulfillEnd() {
	p.mu.Lock()
	ch := p.end
	p.end = nil
	p.mu.Unlock()

	if ch != nil {
		ch <- nil
	}
}

// failAll resolves every outstanding waiter with err. Called when the
// device connection drops.
func (p *pending) failAll(err error) {
	p.mu.Lock()
	caps := p.caps
	p.caps = nil
	session := p.session
	p.session = make(map[string]chan error)
	hittest := p.hittest
	p.hittest = nil
	end := p.end
	p.end = nil
	p.mu.Unlock()

	if caps != nil {
		caps <- capsResult{err: err}
	}
	for _, ch := range session {
		ch <- err
	}
	if hittest != nil {
		hittest <- err
	}
	if end != nil {
		end <- nil // Device gone means the session is certainly over.
	}
}
