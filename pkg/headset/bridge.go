// Package headset bridges a WebXR device to the exhibit host over WebSocket.
//
// The device page connects to /ws/headset and speaks the protocol package's
// message envelope. Bridge owns that connection: it translates inbound
// messages into xr.Events on a single stream, correlates request/response
// pairs (capability queries, session attempts, hit-test sources) so the
// xr.Device methods can block their callers, and exposes send helpers for
// scene updates, model loads, audio and overlay text.
package headset

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/exhibitxr/go-exhibit/internal/log"
	"github.com/exhibitxr/go-exhibit/pkg/protocol"
	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// deviceConn is one connected headset.
type deviceConn struct {
	ID        string
	Conn      *websocket.Conn
	UserAgent string
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// Send writes a message to the device. Safe for concurrent use.
func (d *deviceConn) Send(msg *protocol.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return d.Conn.WriteMessage(websocket.TextMessage, data)
}

// Bridge accepts headset connections and implements xr.Device on top of the
// most recent one. A museum station drives a single headset; when a new
// connection arrives (page reload, battery swap) it replaces the old one.
type Bridge struct {
	mu     sync.RWMutex
	device *deviceConn
	caps   xr.Capabilities
	rtc    *rtcTransport

	events  chan xr.Event
	pending *pending

	// Stats
	framesReceived    uint64
	framesDropped     uint64
	rtcFramesReceived uint64
	messagesReceived  uint64
	messagesSent      uint64
	selectCount       uint64
}

// eventBuffer sizes the event stream. Frames are dropped when it is full;
// discrete events are never dropped.
const eventBuffer = 256

// NewBridge creates a bridge with no device attached.
func NewBridge() *Bridge {
	return &Bridge{
		events:  make(chan xr.Event, eventBuffer),
		pending: newPending(),
	}
}

// Events returns the device event stream. The channel stays open across
// reconnects; a drop is reported as EventDeviceOffline.
func (b *Bridge) Events() <-chan xr.Event {
	return b.events
}

// Connected reports whether a headset is currently attached.
func (b *Bridge) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.device != nil
}

// RegisterRoutes sets up the WebSocket endpoint on the Fiber app.
func (b *Bridge) RegisterRoutes(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/headset", websocket.New(b.handleDevice))
}

// handleDevice runs the read loop for one headset connection.
func (b *Bridge) handleDevice(c *websocket.Conn) {
	dc := &deviceConn{
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	b.attach(dc)
	defer b.detach(dc)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			log.Debug("headset read loop closed", "error", err)
			break
		}

		atomic.AddUint64(&b.messagesReceived, 1)
		dc.mu.Lock()
		dc.LastSeen = time.Now()
		dc.mu.Unlock()

		b.handleMessage(dc, data)
	}
}

// attach installs a connection as the current device, displacing any
// previous one.
func (b *Bridge) attach(dc *deviceConn) {
	b.mu.Lock()
	prev := b.device
	b.device = dc
	b.mu.Unlock()

	if prev != nil {
		log.Warn("replacing connected headset", "previous", prev.ID)
		prev.Conn.Close()
	}
	log.Info("headset connected")
}

// detach clears the device slot if it still holds this connection, fails
// any requests waiting on it, and reports the loss downstream.
func (b *Bridge) detach(dc *deviceConn) {
	b.mu.Lock()
	current := b.device == dc
	if current {
		b.device = nil
	}
	b.mu.Unlock()

	if !current {
		// Displaced by a newer connection; the newer one owns the slot.
		return
	}

	b.closeRTC()
	b.pending.failAll(xr.ErrDeviceGone)
	log.Info("headset disconnected", "device_id", dc.ID)
	b.events <- xr.Event{Kind: xr.EventDeviceOffline, Reason: "connection lost"}
}

// handleMessage parses and dispatches one inbound message.
func (b *Bridge) handleMessage(dc *deviceConn, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		log.Warn("invalid headset message", "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeHello:
		b.handleHello(dc, msg)

	case protocol.TypeCapsReport:
		var report protocol.CapsReportData
		if err := msg.ParseData(&report); err != nil {
			log.Warn("bad caps report", "error", err)
			return
		}
		caps := xr.Capabilities{Passthrough: report.Passthrough, Opaque: report.Opaque}
		b.mu.Lock()
		b.caps = caps
		b.mu.Unlock()
		b.pending.fulfillCaps(caps)

	case protocol.TypeFrame:
		b.handleFrame(msg)

	case protocol.TypeSelect:
		atomic.AddUint64(&b.selectCount, 1)
		b.events <- xr.Event{Kind: xr.EventSelect}

	case protocol.TypeSessionStarted:
		var started protocol.SessionStartedData
		if err := msg.ParseData(&started); err != nil {
			log.Warn("bad session_started", "error", err)
			return
		}
		log.Info("session started on device", "mode", started.Mode, "granted", started.Granted)
		b.pending.fulfillSession(started.AttemptID, nil)

	case protocol.TypeSessionError:
		var serr protocol.SessionErrorData
		if err := msg.ParseData(&serr); err != nil {
			log.Warn("bad session_error", "error", err)
			return
		}
		b.pending.fulfillSession(serr.AttemptID, sessionError(serr))

	case protocol.TypeSessionEnded:
		var ended protocol.SessionEndedData
		if err := msg.ParseData(&ended); err != nil {
			log.Warn("bad session_ended", "error", err)
			return
		}
		b.pending.fulfillEnd()
		b.events <- xr.Event{Kind: xr.EventSessionEnded, Reason: ended.Reason}

	case protocol.TypeHitTestReady:
		var ready protocol.HitTestReadyData
		if err := msg.ParseData(&ready); err != nil {
			log.Warn("bad hittest_ready", "error", err)
			return
		}
		b.pending.fulfillHitTest(hitTestError(ready))

	case protocol.TypeModelReady:
		var report protocol.ModelReadyData
		if err := msg.ParseData(&report); err != nil {
			log.Warn("bad model_ready", "error", err)
			return
		}
		b.events <- xr.Event{Kind: xr.EventModelReady, Model: toModelReport(report)}

	case protocol.TypeRTCOffer:
		b.handleRTCOffer(dc, msg)

	case protocol.TypeRTCIce:
		b.handleRTCIce(msg)

	case protocol.TypePing:
		b.handlePing(dc, msg)

	case protocol.TypePong:
		// Latency is measured on the device side; nothing to do here.

	default:
		log.Debug("unhandled headset message", "type", msg.Type)
	}
}

// handleHello records the device identity and announces it downstream.
func (b *Bridge) handleHello(dc *deviceConn, msg *protocol.Message) {
	var hello protocol.HelloData
	if err := msg.ParseData(&hello); err != nil {
		log.Warn("bad hello", "error", err)
		return
	}

	dc.mu.Lock()
	dc.ID = hello.DeviceID
	dc.UserAgent = hello.UserAgent
	dc.mu.Unlock()

	b.mu.Lock()
	b.caps = xr.Capabilities{Passthrough: hello.Passthrough, Opaque: hello.Opaque}
	b.mu.Unlock()

	log.Info("headset identified",
		"device_id", hello.DeviceID,
		"passthrough", hello.Passthrough,
		"opaque", hello.Opaque)

	b.events <- xr.Event{Kind: xr.EventDeviceOnline, Reason: hello.DeviceID}
}

// handleFrame converts and forwards one socket frame.
func (b *Bridge) handleFrame(msg *protocol.Message) {
	var fd protocol.FrameData
	if err := msg.ParseData(&fd); err != nil {
		log.Warn("bad frame", "error", err)
		return
	}

	atomic.AddUint64(&b.framesReceived, 1)
	b.deliverFrame(fd)
}

// deliverFrame forwards one frame downstream, dropping it if the consumer
// is behind. Discrete events are never dropped; frames are replaceable, the
// next one is at most ~11ms away.
func (b *Bridge) deliverFrame(fd protocol.FrameData) {
	select {
	case b.events <- xr.Event{Kind: xr.EventFrame, Frame: fd.ToFrame()}:
	default:
		atomic.AddUint64(&b.framesDropped, 1)
	}
}

// handlePing answers a device keepalive.
func (b *Bridge) handlePing(dc *deviceConn, msg *protocol.Message) {
	var ping protocol.PingData
	if err := msg.ParseData(&ping); err != nil {
		return
	}

	now := time.Now().UnixMilli()
	pong, err := protocol.NewMessage(protocol.TypePong, protocol.PongData{
		ID:        ping.ID,
		PingTS:    ping.Timestamp,
		PongTS:    now,
		LatencyMs: now - ping.Timestamp,
	})
	if err != nil {
		return
	}
	if err := dc.Send(pong); err == nil {
		atomic.AddUint64(&b.messagesSent, 1)
	}
}

// send delivers a message to the current device.
func (b *Bridge) send(msg *protocol.Message) error {
	b.mu.RLock()
	dc := b.device
	b.mu.RUnlock()

	if dc == nil {
		return xr.ErrDeviceGone
	}
	if err := dc.Send(msg); err != nil {
		return err
	}
	atomic.AddUint64(&b.messagesSent, 1)
	return nil
}

// toModelReport converts the wire report into the xr form.
func toModelReport(d protocol.ModelReadyData) *xr.ModelReport {
	report := &xr.ModelReport{
		OK:    d.OK,
		Error: d.Error,
		Clips: d.Clips,
	}
	for _, wb := range d.Colliders {
		report.Colliders = append(report.Colliders, wb.ToBox())
	}
	return report
}

// Stats returns bridge counters for the status API.
func (b *Bridge) Stats() map[string]interface{} {
	b.mu.RLock()
	dc := b.device
	caps := b.caps
	rtcActive := b.rtc != nil
	b.mu.RUnlock()

	stats := map[string]interface{}{
		"connected":           dc != nil,
		"frames_received":     atomic.LoadUint64(&b.framesReceived),
		"frames_dropped":      atomic.LoadUint64(&b.framesDropped),
		"rtc_active":          rtcActive,
		"rtc_frames_received": atomic.LoadUint64(&b.rtcFramesReceived),
		"messages_received":   atomic.LoadUint64(&b.messagesReceived),
		"messages_sent":       atomic.LoadUint64(&b.messagesSent),
		"selects":             atomic.LoadUint64(&b.selectCount),
		"passthrough":         caps.Passthrough,
		"opaque":              caps.Opaque,
	}
	if dc != nil {
		dc.mu.Lock()
		stats["device_id"] = dc.ID
		stats["user_agent"] = dc.UserAgent
		stats["connected_at"] = dc.Connected.Format(time.RFC3339)
		stats["last_seen"] = dc.LastSeen.Format(time.RFC3339)
		dc.mu.Unlock()
	}
	return stats
}

// RegisterAPIRoutes sets up HTTP API routes for device inspection.
func (b *Bridge) RegisterAPIRoutes(api fiber.Router) {
	api.Get("/device", func(c *fiber.Ctx) error {
		return c.JSON(b.Stats())
	})
}
