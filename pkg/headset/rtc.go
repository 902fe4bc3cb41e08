package headset

import (
	"encoding/json"
	"sync/atomic"

	"github.com/pion/webrtc/v3"

	"github.com/exhibitxr/go-exhibit/internal/log"
	"github.com/exhibitxr/go-exhibit/pkg/protocol"
)

// rtcFrameChannel is the data channel label the device frame stream uses.
const rtcFrameChannel = "frames"

// rtcTransport is the host side of a device's optional WebRTC frame
// transport. The 90Hz frame stream rides an unordered, lossy data channel
// where a late frame is worthless anyway; everything discrete stays on the
// WebSocket, which also carries the signalling. The device initiates by
// sending an rtc_offer; a device that never offers simply keeps streaming
// frames over the socket.
type rtcTransport struct {
	pc *webrtc.PeerConnection
}

func (t *rtcTransport) Close() {
	if t != nil && t.pc != nil {
		t.pc.Close()
	}
}

// handleRTCOffer answers a device's SDP offer. A fresh offer supersedes any
// transport a previous page load negotiated.
func (b *Bridge) handleRTCOffer(dc *deviceConn, msg *protocol.Message) {
	var offer protocol.RTCOfferData
	if err := msg.ParseData(&offer); err != nil {
		log.Warn("bad rtc_offer", "error", err)
		return
	}

	b.closeRTC()

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		log.Warn("rtc peer connection failed", "error", err)
		return
	}
	t := &rtcTransport{pc: pc}

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		init := cand.ToJSON()
		ice, err := protocol.NewMessage(protocol.TypeRTCIce, protocol.RTCIceData{
			Candidate:     init.Candidate,
			SDPMid:        init.SDPMid,
			SDPMLineIndex: init.SDPMLineIndex,
		})
		if err != nil {
			return
		}
		if err := dc.Send(ice); err != nil {
			log.Debug("rtc ice send failed", "error", err)
		}
	})

	pc.OnDataChannel(func(ch *webrtc.DataChannel) {
		if ch.Label() != rtcFrameChannel {
			log.Debug("ignoring rtc channel", "label", ch.Label())
			return
		}
		ch.OnMessage(func(m webrtc.DataChannelMessage) {
			b.handleChannelFrame(m.Data)
		})
		log.Info("rtc frame channel open")
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Debug("rtc connection state", "state", state.String())
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			// Frames fall back to the WebSocket; nothing else to unwind.
			b.dropRTC(t)
		}
	})

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offer.SDP,
	}); err != nil {
		log.Warn("rtc set remote description failed", "error", err)
		pc.Close()
		return
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		log.Warn("rtc create answer failed", "error", err)
		pc.Close()
		return
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		log.Warn("rtc set local description failed", "error", err)
		pc.Close()
		return
	}

	b.mu.Lock()
	b.rtc = t
	b.mu.Unlock()

	reply, err := protocol.NewMessage(protocol.TypeRTCAnswer, protocol.RTCAnswerData{
		SDP: answer.SDP,
	})
	if err != nil {
		return
	}
	if err := dc.Send(reply); err != nil {
		log.Warn("rtc answer send failed", "error", err)
		b.closeRTC()
	}
}

// handleRTCIce adds a device-trickled ICE candidate to the peer connection.
func (b *Bridge) handleRTCIce(msg *protocol.Message) {
	var ice protocol.RTCIceData
	if err := msg.ParseData(&ice); err != nil {
		log.Warn("bad rtc_ice", "error", err)
		return
	}

	b.mu.RLock()
	t := b.rtc
	b.mu.RUnlock()
	if t == nil {
		log.Debug("rtc ice with no transport")
		return
	}

	err := t.pc.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:     ice.Candidate,
		SDPMid:        ice.SDPMid,
		SDPMLineIndex: ice.SDPMLineIndex,
	})
	if err != nil {
		log.Debug("rtc add ice failed", "error", err)
	}
}

// handleChannelFrame delivers a frame that arrived on the data channel.
// Channel frames are bare FrameData JSON, skipping the message envelope.
func (b *Bridge) handleChannelFrame(data []byte) {
	var fd protocol.FrameData
	if err := json.Unmarshal(data, &fd); err != nil {
		log.Debug("bad rtc frame", "error", err)
		return
	}
	atomic.AddUint64(&b.rtcFramesReceived, 1)
	b.deliverFrame(fd)
}

// dropRTC clears the transport slot if it still holds t and closes it.
func (b *Bridge) dropRTC(t *rtcTransport) {
	b.mu.Lock()
	current := b.rtc == t
	if current {
		b.rtc = nil
	}
	b.mu.Unlock()

	if current {
		t.Close()
	}
}

// closeRTC tears down whatever transport is installed.
func (b *Bridge) closeRTC() {
	b.mu.Lock()
	t := b.rtc
	b.rtc = nil
	b.mu.Unlock()
	t.Close()
}
