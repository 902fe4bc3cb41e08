package headset

import (
	"encoding/base64"

	"github.com/exhibitxr/go-exhibit/internal/log"
	"github.com/exhibitxr/go-exhibit/pkg/assets"
	"github.com/exhibitxr/go-exhibit/pkg/protocol"
	"github.com/exhibitxr/go-exhibit/pkg/scene"
)

// SendLoadModel asks the device to fetch and parse the exhibit assets.
func (b *Bridge) SendLoadModel(m *assets.Manifest) error {
	msg, err := protocol.NewMessage(protocol.TypeLoadModel, protocol.LoadModelData{
		ModelURL:     m.Model.URL,
		PlacardTitle: m.Placard.Title,
		PlacardBody:  m.Placard.Body,
	})
	if err != nil {
		return err
	}

	log.Info("sending model load", "url", m.Model.URL)
	return b.send(msg)
}

// SendScene pushes node state updates to the device. Call with the dirty
// set from a scene flush; a no-op when nothing changed.
func (b *Bridge) SendScene(nodes []scene.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	states := make([]protocol.NodeState, 0, len(nodes))
	for _, n := range nodes {
		states = append(states, protocol.NodeState{
			ID:      n.ID,
			Visible: n.Visible,
			Pose:    protocol.FromPose(n.Pose),
			Scale:   n.Scale,
			Opacity: n.Opacity,
			Clip:    n.Clip,
			Loop:    n.Loop,
			Text:    n.Text,
		})
	}

	msg, err := protocol.NewMessage(protocol.TypeScene, protocol.SceneData{Nodes: states})
	if err != nil {
		return err
	}
	return b.send(msg)
}

// SendAudio ships a decoded soundtrack to the device for playback.
func (b *Bridge) SendAudio(st *assets.Soundtrack) error {
	msg, err := protocol.NewMessage(protocol.TypeAudio, protocol.AudioData{
		Format:     "pcm16",
		SampleRate: st.SampleRate,
		Channels:   st.Channels,
		Data:       base64.StdEncoding.EncodeToString(st.PCM16Bytes()),
		Gain:       st.Gain,
		Loop:       st.Loop,
	})
	if err != nil {
		return err
	}

	log.Info("sending soundtrack",
		"samples", len(st.PCM),
		"sample_rate", st.SampleRate,
		"channels", st.Channels)
	return b.send(msg)
}

// SendAudioStop halts soundtrack playback on the device.
func (b *Bridge) SendAudioStop() error {
	msg, err := protocol.NewMessage(protocol.TypeAudioStop, nil)
	if err != nil {
		return err
	}
	return b.send(msg)
}

// SendOverlay updates the DOM overlay hint text shown inside the session.
func (b *Bridge) SendOverlay(text string, visible bool) error {
	msg, err := protocol.NewMessage(protocol.TypeOverlay, protocol.OverlayData{
		Text:    text,
		Visible: visible,
	})
	if err != nil {
		return err
	}
	return b.send(msg)
}
