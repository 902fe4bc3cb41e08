package protocol

import (
	"encoding/base64"
)

// =============================================================================
// Device-side message constructors
// =============================================================================
// The host builds its outbound messages inline where it has the domain types
// at hand; these constructors keep the headset simulator and tests from
// hand-rolling envelopes.

// NewHelloMessage announces a device and its immersive capabilities
func NewHelloMessage(deviceID, userAgent string, passthrough, opaque bool, protocols ...string) (*Message, error) {
	return NewMessage(TypeHello, HelloData{
		DeviceID:    deviceID,
		UserAgent:   userAgent,
		Passthrough: passthrough,
		Opaque:      opaque,
		Protocols:   protocols,
	})
}

// NewCapsReportMessage answers a capability query
func NewCapsReportMessage(passthrough, opaque bool) (*Message, error) {
	return NewMessage(TypeCapsReport, CapsReportData{
		Passthrough: passthrough,
		Opaque:      opaque,
	})
}

// NewFrameMessage wraps one frame's session state
func NewFrameMessage(fd FrameData) (*Message, error) {
	return NewMessage(TypeFrame, fd)
}

// NewSelectMessage signals a primary select gesture
func NewSelectMessage() (*Message, error) {
	return NewMessage(TypeSelect, nil)
}

// NewSessionStartedMessage confirms a session request
func NewSessionStartedMessage(attemptID, mode string, granted []string) (*Message, error) {
	return NewMessage(TypeSessionStarted, SessionStartedData{
		AttemptID: attemptID,
		Mode:      mode,
		Granted:   granted,
	})
}

// NewSessionErrorMessage reports a failed session request
func NewSessionErrorMessage(attemptID, mode, code, errText string) (*Message, error) {
	return NewMessage(TypeSessionError, SessionErrorData{
		AttemptID: attemptID,
		Mode:      mode,
		Code:      code,
		Error:     errText,
	})
}

// NewSessionEndedMessage reports session teardown
func NewSessionEndedMessage(reason string, requested bool) (*Message, error) {
	return NewMessage(TypeSessionEnded, SessionEndedData{
		Reason:    reason,
		Requested: requested,
	})
}

// NewHitTestReadyMessage reports the hit-test source outcome
func NewHitTestReadyMessage(ok bool, errText string) (*Message, error) {
	return NewMessage(TypeHitTestReady, HitTestReadyData{
		OK:    ok,
		Error: errText,
	})
}

// NewModelReadyMessage reports the model load outcome
func NewModelReadyMessage(d ModelReadyData) (*Message, error) {
	return NewMessage(TypeModelReady, d)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSessionRequest extracts a session request from a message
func (m *Message) GetSessionRequest() (*SessionRequestData, error) {
	var data SessionRequestData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetLoadModelData extracts a model load command from a message
func (m *Message) GetLoadModelData() (*LoadModelData, error) {
	var data LoadModelData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSceneData extracts scene node updates from a message
func (m *Message) GetSceneData() (*SceneData, error) {
	var data SceneData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetAudioData extracts audio data from a message
func (m *Message) GetAudioData() (*AudioData, error) {
	var data AudioData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeAudioData decodes the base64 PCM payload
func (a *AudioData) DecodeAudioData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(a.Data)
}

// GetOverlayData extracts overlay hint text from a message
func (m *Message) GetOverlayData() (*OverlayData, error) {
	var data OverlayData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
