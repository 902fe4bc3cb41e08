// Package protocol defines the WebSocket message types for host-headset
// communication. This package is shared between the exhibit host and the
// headset bridge client (including the simulator).
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Headset → Host messages
	TypeHello          MessageType = "hello"           // Device announce + initial capabilities
	TypeCapsReport     MessageType = "caps_report"     // Answer to a capability query
	TypeFrame          MessageType = "frame"           // Per-frame session state
	TypeSelect         MessageType = "select"          // Primary select gesture
	TypeSessionStarted MessageType = "session_started" // Session request succeeded
	TypeSessionError   MessageType = "session_error"   // Session request failed
	TypeSessionEnded   MessageType = "session_ended"   // Session over (requested or not)
	TypeHitTestReady   MessageType = "hittest_ready"   // Hit-test source outcome
	TypeModelReady     MessageType = "model_ready"     // Model load outcome

	// Host → Headset messages
	TypeCapsQuery      MessageType = "caps_query"      // Re-probe immersive support
	TypeSessionRequest MessageType = "session_request" // Open an immersive session
	TypeSessionEnd     MessageType = "session_end"     // Tear the session down
	TypeHitTestRequest MessageType = "hittest_request" // Open the viewer hit-test feed
	TypeLoadModel      MessageType = "load_model"      // Fetch and parse the exhibit model
	TypeScene          MessageType = "scene"           // Scene node updates
	TypeAudio          MessageType = "audio"           // Soundtrack audio playback
	TypeAudioStop      MessageType = "audio_stop"      // Stop soundtrack playback
	TypeOverlay        MessageType = "overlay"         // DOM overlay hint text

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response

	// WebRTC frame-transport signalling, riding the WebSocket
	TypeRTCOffer  MessageType = "rtc_offer"  // Device offers a data-channel transport
	TypeRTCAnswer MessageType = "rtc_answer" // Host answers the offer
	TypeRTCIce    MessageType = "rtc_ice"    // Trickled ICE candidate, either direction
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Headset → Host Message Types
// =============================================================================

// HelloData announces a device and its initial immersive capabilities
type HelloData struct {
	DeviceID    string   `json:"device_id"`
	UserAgent   string   `json:"user_agent,omitempty"`
	Passthrough bool     `json:"passthrough"`
	Opaque      bool     `json:"opaque"`
	Protocols   []string `json:"protocols,omitempty"` // Extra transports, e.g. "webrtc"
}

// CapsReportData answers a capability query
type CapsReportData struct {
	Passthrough bool `json:"passthrough"`
	Opaque      bool `json:"opaque"`
}

// FrameData contains one frame's session state
type FrameData struct {
	T      float64     `json:"t"`                // Milliseconds since session start
	Viewer *WirePose   `json:"viewer,omitempty"` // Absent when tracking is lost
	Hits   []WireHit   `json:"hits,omitempty"`
	Inputs []WireInput `json:"inputs,omitempty"`
}

// WireHit is one surface intersection from the viewer hit-test feed
type WireHit struct {
	Pose     WirePose `json:"pose"`
	Distance float64  `json:"d"`
}

// WireInput is one input source's per-frame state
type WireInput struct {
	Handedness string    `json:"hand"`           // "left", "right", "none"
	RayMode    string    `json:"ray_mode"`       // "tracked-pointer", "gaze", "screen"
	Ray        *WirePose `json:"ray,omitempty"`  // Absent when not tracked this frame
	Buttons    []WireBtn `json:"btns,omitempty"` // Gamepad button order
}

// WireBtn is one gamepad button's state
type WireBtn struct {
	Pressed bool    `json:"p,omitempty"`
	Touched bool    `json:"t,omitempty"`
	Value   float64 `json:"v,omitempty"`
}

// SessionStartedData confirms a session request
type SessionStartedData struct {
	AttemptID string   `json:"attempt_id"`
	Mode      string   `json:"mode"` // "passthrough", "opaque"
	Granted   []string `json:"granted,omitempty"`
}

// SessionErrorData reports a failed session request
type SessionErrorData struct {
	AttemptID string `json:"attempt_id"`
	Mode      string `json:"mode"`
	Code      string `json:"code,omitempty"` // Machine-readable class, e.g. CodeSessionActive
	Error     string `json:"error"`
}

// Session error codes carried in SessionErrorData.Code
const (
	CodeSessionActive = "session_active" // A session is already running on the device
	CodeUnsupported   = "unsupported"    // The device cannot grant the requested mode
)

// SessionEndedData reports session teardown
type SessionEndedData struct {
	Reason    string `json:"reason,omitempty"`
	Requested bool   `json:"requested"` // True when the host asked for it
}

// HitTestReadyData reports the outcome of a hit-test source request
type HitTestReadyData struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ModelReadyData reports the outcome of loading the exhibit model
type ModelReadyData struct {
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	Clips     []string  `json:"clips,omitempty"`
	Colliders []WireBox `json:"colliders,omitempty"`
}

// WireBox is an axis-aligned collider volume in model space
type WireBox struct {
	Center [3]float64 `json:"c"`
	Half   [3]float64 `json:"h"`
}

// =============================================================================
// Host → Headset Message Types
// =============================================================================

// SessionRequestData asks the device to open an immersive session
type SessionRequestData struct {
	AttemptID   string   `json:"attempt_id"`
	Mode        string   `json:"mode"`         // "passthrough", "opaque"
	SessionType string   `json:"session_type"` // "immersive-ar", "immersive-vr"
	Required    []string `json:"required,omitempty"`
	Optional    []string `json:"optional,omitempty"`
	AlphaBlend  bool     `json:"alpha_blend,omitempty"`
}

// LoadModelData asks the device to fetch and parse the exhibit assets
type LoadModelData struct {
	ModelURL     string `json:"model_url"`
	PlacardTitle string `json:"placard_title,omitempty"`
	PlacardBody  string `json:"placard_body,omitempty"`
}

// SceneData carries node state updates, only nodes that changed
type SceneData struct {
	Nodes []NodeState `json:"nodes"`
}

// NodeState is one scene node's authoritative state
type NodeState struct {
	ID      string   `json:"id"`
	Visible bool     `json:"visible"`
	Pose    WirePose `json:"pose"`
	Scale   float64  `json:"scale,omitempty"`
	Opacity float64  `json:"opacity"`
	Clip    string   `json:"clip,omitempty"` // Active animation clip, empty to stop
	Loop    bool     `json:"loop,omitempty"`
	Text    string   `json:"text,omitempty"` // Placard text nodes
}

// AudioData contains soundtrack audio to play
type AudioData struct {
	Format     string  `json:"format"`      // "pcm16"
	SampleRate int     `json:"sample_rate"` // e.g., 48000
	Channels   int     `json:"channels"`    // 1 for mono
	Data       string  `json:"data"`        // base64 encoded
	Gain       float64 `json:"gain,omitempty"`
	Loop       bool    `json:"loop,omitempty"`
}

// OverlayData updates the DOM overlay hint text
type OverlayData struct {
	Text    string `json:"text,omitempty"`
	Visible bool   `json:"visible"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// RTCOfferData carries the device's SDP offer for the frame data channel.
// The channel moves the high-rate frame stream off the WebSocket; discrete
// events stay on the socket.
type RTCOfferData struct {
	SDP string `json:"sdp"`
}

// RTCAnswerData carries the host's SDP answer
type RTCAnswerData struct {
	SDP string `json:"sdp"`
}

// RTCIceData is one trickled ICE candidate
type RTCIceData struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdp_mid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdp_mline_index,omitempty"`
}

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
