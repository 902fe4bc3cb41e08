// Exhibit Sim - scripted headset client for exercising a station end to end.
// Connects to the station bridge, grants sessions, answers hit-test and model
// loads, and replays a fixed timeline: scan, place, point, reposition, place
// again. Useful for soak-testing a station without hardware.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"

	"github.com/exhibitxr/go-exhibit/internal/config"
	"github.com/exhibitxr/go-exhibit/pkg/protocol"
)

var (
	hostAddr        = flag.String("host", config.HostAddr("localhost:8090"), "station address")
	deviceID        = flag.String("device", "", "device ID to announce (default sim-<random>)")
	passthrough     = flag.Bool("passthrough", true, "announce passthrough support")
	opaque          = flag.Bool("opaque", true, "announce opaque support")
	denyPassthrough = flag.Bool("deny-passthrough", false, "refuse passthrough sessions despite announcing support")
	noHitTest       = flag.Bool("no-hittest", false, "fail the hit-test source request")
	modelFail       = flag.Bool("model-fail", false, "fail the model load")
	modelDelay      = flag.Duration("model-delay", 400*time.Millisecond, "simulated model fetch time")
	fps             = flag.Int("fps", 30, "frame rate while a session is active")
	duration        = flag.Duration("duration", 30*time.Second, "session script length")
	useRTC          = flag.Bool("rtc", false, "move frame traffic onto a WebRTC data channel")
)

// Script marks, in seconds since session start.
const (
	markHitsBegin = 2.0  // Surface scan starts producing hits
	markSelect    = 5.0  // First placement
	markPointOn   = 8.0  // Controller ray sweeps onto the model
	markPointOff  = 11.0 // Ray leaves the model
	markGripDown  = 12.0 // Reposition squeeze
	markGripUp    = 12.3
	markReselect  = 15.0 // Second placement
)

var (
	wsMutex sync.Mutex
	ws      *websocket.Conn

	stateMutex    sync.Mutex
	sessionActive bool
	sessionStart  time.Time
	modelPos      [3]float64
	framesSent    int

	rtcMutex   sync.Mutex
	rtcPC      *webrtc.PeerConnection
	rtcChannel *webrtc.DataChannel
	rtcOpen    bool
)

func main() {
	flag.Parse()

	id := *deviceID
	if id == "" {
		id = "sim-" + uuid.NewString()[:8]
	}

	fmt.Println("🥽 Exhibit Sim")
	fmt.Println("==============")
	fmt.Printf("Station: %s | device: %s | caps: passthrough=%v opaque=%v\n\n",
		*hostAddr, id, *passthrough, *opaque)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	url := config.BridgeURL(*hostAddr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		fmt.Printf("❌ Failed to connect to %s: %v\n", url, err)
		os.Exit(1)
	}
	ws = conn
	defer ws.Close()
	fmt.Printf("✅ Connected to %s\n", url)

	var protocols []string
	if *useRTC {
		protocols = append(protocols, "webrtc")
	}
	hello, err := protocol.NewHelloMessage(id, "exhibit-sim/1.0", *passthrough, *opaque, protocols...)
	if err != nil {
		fmt.Printf("❌ Failed to build hello: %v\n", err)
		os.Exit(1)
	}
	send(hello)

	if *useRTC {
		if err := offerRTC(); err != nil {
			fmt.Printf("⚠️  RTC setup failed, staying on the socket: %v\n", err)
		}
	}

	done := make(chan struct{})
	go readLoop(done)

	ticker := time.NewTicker(time.Second / time.Duration(*fps))
	defer ticker.Stop()

	prev := -1.0
	for {
		select {
		case <-sigChan:
			fmt.Println("\n👋 Interrupted")
			endSession("sim interrupted", false)
			time.Sleep(200 * time.Millisecond)
			return
		case <-done:
			fmt.Println("❌ Connection lost")
			os.Exit(1)
		case <-ticker.C:
			stateMutex.Lock()
			active := sessionActive
			start := sessionStart
			placed := modelPos
			stateMutex.Unlock()
			if !active {
				prev = -1.0
				continue
			}

			elapsed := time.Since(start).Seconds()
			if elapsed >= duration.Seconds() {
				stateMutex.Lock()
				sent := framesSent
				stateMutex.Unlock()
				fmt.Printf("\n🏁 Script complete: %d frames over %.1fs\n", sent, elapsed)
				endSession("sim script complete", false)
				time.Sleep(200 * time.Millisecond)
				return
			}

			frame := buildFrame(elapsed, placed)
			if !sendFrameRTC(frame) {
				msg, err := protocol.NewFrameMessage(frame)
				if err != nil {
					continue
				}
				send(msg)
			}
			stateMutex.Lock()
			framesSent++
			stateMutex.Unlock()

			if crossed(prev, elapsed, markSelect) || crossed(prev, elapsed, markReselect) {
				sel, _ := protocol.NewSelectMessage()
				send(sel)
				fmt.Printf("👆 Select at t=%.1fs\n", elapsed)
			}
			prev = elapsed
		}
	}
}

// crossed reports whether mark was passed between two ticks.
func crossed(prev, now, mark float64) bool {
	return prev < mark && now >= mark
}

// buildFrame assembles one frame of the script timeline.
func buildFrame(elapsed float64, placed [3]float64) protocol.FrameData {
	viewer := protocol.WirePose{
		P: [3]float64{0.05 * math.Sin(0.7*elapsed), 1.6, 0},
		Q: [4]float64{0, 0, 0, 1},
	}
	frame := protocol.FrameData{
		T:      elapsed * 1000,
		Viewer: &viewer,
	}

	if elapsed >= markHitsBegin {
		hit := [3]float64{0.4 * math.Sin(0.4 * elapsed), 0, -1.5}
		dx := hit[0] - viewer.P[0]
		frame.Hits = []protocol.WireHit{{
			Pose:     protocol.WirePose{P: hit, Q: [4]float64{0, 0, 0, 1}},
			Distance: math.Sqrt(dx*dx + 1.6*1.6 + 1.5*1.5),
		}}
	}

	pointing := elapsed >= markPointOn && elapsed < markPointOff
	gripping := elapsed >= markGripDown && elapsed < markGripUp
	frame.Inputs = []protocol.WireInput{
		rightController(placed, pointing, gripping),
		leftController(),
	}
	return frame
}

// rightController aims straight down -Z, either at the placed model or off
// into the room, and squeezes the A button during the reposition window.
func rightController(placed [3]float64, pointing, gripping bool) protocol.WireInput {
	origin := [3]float64{placed[0] + 2.5, 1.4, placed[2] + 2.5}
	if pointing {
		origin = [3]float64{placed[0], placed[1] + 0.75, placed[2] + 2.5}
	}
	ray := protocol.WirePose{P: origin, Q: [4]float64{0, 0, 0, 1}}
	btns := make([]protocol.WireBtn, 6)
	btns[4].Pressed = gripping
	return protocol.WireInput{
		Handedness: "right",
		RayMode:    "tracked-pointer",
		Ray:        &ray,
		Buttons:    btns,
	}
}

func leftController() protocol.WireInput {
	ray := protocol.WirePose{P: [3]float64{-0.3, 1.1, 0.2}, Q: [4]float64{0, 0, 0, 1}}
	return protocol.WireInput{
		Handedness: "left",
		RayMode:    "tracked-pointer",
		Ray:        &ray,
		Buttons:    make([]protocol.WireBtn, 6),
	}
}

func readLoop(done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		handleMessage(data)
	}
}

func handleMessage(data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		fmt.Printf("❌ Bad message: %v\n", err)
		return
	}

	switch msg.Type {
	case protocol.TypeCapsQuery:
		reply, _ := protocol.NewCapsReportMessage(*passthrough, *opaque)
		send(reply)
		fmt.Println("🔍 Capability query answered")

	case protocol.TypeSessionRequest:
		req, err := msg.GetSessionRequest()
		if err != nil {
			fmt.Printf("❌ Bad session request: %v\n", err)
			return
		}
		go grantSession(req)

	case protocol.TypeSessionEnd:
		endSession("host requested", true)
		fmt.Println("🛑 Session ended by host")

	case protocol.TypeHitTestRequest:
		if *noHitTest {
			reply, _ := protocol.NewHitTestReadyMessage(false, "hit-test source unavailable")
			send(reply)
			fmt.Println("🚫 Hit-test refused")
			return
		}
		reply, _ := protocol.NewHitTestReadyMessage(true, "")
		send(reply)
		fmt.Println("📡 Hit-test source granted")

	case protocol.TypeLoadModel:
		lm, err := msg.GetLoadModelData()
		if err != nil {
			return
		}
		fmt.Printf("📦 Loading model: %s\n", lm.ModelURL)
		go finishModelLoad()

	case protocol.TypeScene:
		sc, err := msg.GetSceneData()
		if err != nil {
			return
		}
		for _, n := range sc.Nodes {
			if n.ID == "model" && n.Visible {
				stateMutex.Lock()
				modelPos = n.Pose.P
				stateMutex.Unlock()
				fmt.Printf("🦖 Model at [%.2f %.2f %.2f] clip=%q\n", n.Pose.P[0], n.Pose.P[1], n.Pose.P[2], n.Clip)
			}
			if n.ID == "placard" && n.Opacity > 0 {
				fmt.Printf("🪧 Placard opacity %.2f\n", n.Opacity)
			}
		}

	case protocol.TypeAudio:
		a, err := msg.GetAudioData()
		if err != nil {
			return
		}
		pcm, err := a.DecodeAudioData()
		if err != nil {
			fmt.Printf("❌ Bad audio payload: %v\n", err)
			return
		}
		secs := float64(len(pcm)) / float64(2*a.Channels*a.SampleRate)
		fmt.Printf("🔊 Soundtrack: %.1fs PCM @ %dHz gain=%.2f loop=%v\n", secs, a.SampleRate, a.Gain, a.Loop)

	case protocol.TypeAudioStop:
		fmt.Println("🔇 Soundtrack stopped")

	case protocol.TypeOverlay:
		o, err := msg.GetOverlayData()
		if err != nil {
			return
		}
		if o.Visible {
			fmt.Printf("💬 Hint: %s\n", o.Text)
		}

	case protocol.TypeRTCAnswer:
		var ans protocol.RTCAnswerData
		if err := msg.ParseData(&ans); err != nil {
			return
		}
		rtcMutex.Lock()
		pc := rtcPC
		rtcMutex.Unlock()
		if pc == nil {
			return
		}
		desc := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: ans.SDP}
		if err := pc.SetRemoteDescription(desc); err != nil {
			fmt.Printf("❌ RTC answer rejected: %v\n", err)
		}

	case protocol.TypeRTCIce:
		var ice protocol.RTCIceData
		if err := msg.ParseData(&ice); err != nil {
			return
		}
		rtcMutex.Lock()
		pc := rtcPC
		rtcMutex.Unlock()
		if pc == nil {
			return
		}
		pc.AddICECandidate(webrtc.ICECandidateInit{
			Candidate:     ice.Candidate,
			SDPMid:        ice.SDPMid,
			SDPMLineIndex: ice.SDPMLineIndex,
		})

	case protocol.TypePing:
		p, err := msg.GetPingData()
		if err != nil {
			return
		}
		reply, _ := protocol.NewPongMessage(p.ID, p.Timestamp, time.Now().UnixMilli())
		send(reply)
	}
}

// offerRTC creates the peer connection and frame channel and sends the
// offer over the socket. Frames keep flowing there until the channel opens.
func offerRTC() error {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return err
	}

	// Frames are disposable; an unordered, no-retransmit channel drops
	// stale ones instead of stalling behind them.
	ordered := false
	maxRetransmits := uint16(0)
	dc, err := pc.CreateDataChannel("frames", &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &maxRetransmits,
	})
	if err != nil {
		pc.Close()
		return err
	}

	dc.OnOpen(func() {
		rtcMutex.Lock()
		rtcOpen = true
		rtcMutex.Unlock()
		fmt.Println("🔀 Frame channel open, leaving the socket for events only")
	})
	dc.OnClose(func() {
		rtcMutex.Lock()
		rtcOpen = false
		rtcMutex.Unlock()
		fmt.Println("🔌 Frame channel closed, frames back on the socket")
	})

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		init := cand.ToJSON()
		msg, err := protocol.NewMessage(protocol.TypeRTCIce, protocol.RTCIceData{
			Candidate:     init.Candidate,
			SDPMid:        init.SDPMid,
			SDPMLineIndex: init.SDPMLineIndex,
		})
		if err == nil {
			send(msg)
		}
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		pc.Close()
		return err
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		pc.Close()
		return err
	}

	rtcMutex.Lock()
	rtcPC = pc
	rtcChannel = dc
	rtcMutex.Unlock()

	msg, err := protocol.NewMessage(protocol.TypeRTCOffer, protocol.RTCOfferData{SDP: offer.SDP})
	if err != nil {
		return err
	}
	send(msg)
	fmt.Println("📨 RTC offer sent")
	return nil
}

// sendFrameRTC ships one frame over the data channel, reporting false when
// the channel is not open so the caller falls back to the socket.
func sendFrameRTC(fd protocol.FrameData) bool {
	rtcMutex.Lock()
	dc, open := rtcChannel, rtcOpen
	rtcMutex.Unlock()
	if !open || dc == nil {
		return false
	}
	data, err := json.Marshal(fd)
	if err != nil {
		return false
	}
	return dc.Send(data) == nil
}

// grantSession answers a session request after a short permission-prompt
// delay, honoring the capability flags.
func grantSession(req *protocol.SessionRequestData) {
	time.Sleep(150 * time.Millisecond)

	supported := (req.Mode == "passthrough" && *passthrough && !*denyPassthrough) ||
		(req.Mode == "opaque" && *opaque)
	if !supported {
		reply, _ := protocol.NewSessionErrorMessage(req.AttemptID, req.Mode,
			protocol.CodeUnsupported, "NotSupportedError: mode not available")
		send(reply)
		fmt.Printf("🚫 Session refused (%s)\n", req.Mode)
		return
	}

	stateMutex.Lock()
	if sessionActive {
		stateMutex.Unlock()
		reply, _ := protocol.NewSessionErrorMessage(req.AttemptID, req.Mode,
			protocol.CodeSessionActive, "InvalidStateError: session already active")
		send(reply)
		return
	}
	sessionActive = true
	sessionStart = time.Now()
	modelPos = [3]float64{}
	framesSent = 0
	stateMutex.Unlock()

	granted := append(append([]string{}, req.Required...), req.Optional...)
	reply, _ := protocol.NewSessionStartedMessage(req.AttemptID, req.Mode, granted)
	send(reply)
	fmt.Printf("✅ Session started (%s), attempt %s\n", req.Mode, req.AttemptID)
}

func finishModelLoad() {
	time.Sleep(*modelDelay)
	if *modelFail {
		reply, _ := protocol.NewModelReadyMessage(protocol.ModelReadyData{
			OK:    false,
			Error: "fetch failed: 404",
		})
		send(reply)
		fmt.Println("❌ Model load failed (as requested)")
		return
	}
	reply, _ := protocol.NewModelReadyMessage(protocol.ModelReadyData{
		OK:    true,
		Clips: []string{"Idle", "Roar", "Walk"},
		Colliders: []protocol.WireBox{
			{Center: [3]float64{0, 0.9, 0}, Half: [3]float64{1.2, 0.9, 0.45}},
		},
	})
	send(reply)
	fmt.Println("✅ Model ready")
}

// endSession reports teardown once; no-op when no session is active.
func endSession(reason string, requested bool) {
	stateMutex.Lock()
	if !sessionActive {
		stateMutex.Unlock()
		return
	}
	sessionActive = false
	stateMutex.Unlock()

	reply, _ := protocol.NewSessionEndedMessage(reason, requested)
	send(reply)
}

func send(msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		return
	}
	wsMutex.Lock()
	defer wsMutex.Unlock()
	ws.WriteMessage(websocket.TextMessage, data)
}
