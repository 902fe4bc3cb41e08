package assets

import (
	"errors"
	"testing"
	"time"
)

func TestParseMinimalManifest(t *testing.T) {
	m, err := Parse([]byte("model:\n  url: /assets/m.glb\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Name != "Exhibit" {
		t.Errorf("Name = %q, want default", m.Name)
	}
	if m.Model.Scale != 1 {
		t.Errorf("Scale = %v, want 1", m.Model.Scale)
	}
	if len(m.Model.Colliders) != 1 {
		t.Fatalf("Colliders = %+v, want placeholder", m.Model.Colliders)
	}
	if m.Placard.Offset != defaultPlacardOffset {
		t.Errorf("Offset = %v, want default", m.Placard.Offset)
	}
}

func TestParseRejectsMissingModelURL(t *testing.T) {
	_, err := Parse([]byte("name: Nothing\n"))
	if !errors.Is(err, ErrNoModelURL) {
		t.Errorf("err = %v, want ErrNoModelURL", err)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte(":\n  - ["))
	if !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("err = %v, want ErrInvalidManifest", err)
	}
}

func TestSoundtrackDefaults(t *testing.T) {
	m, err := Parse([]byte("model:\n  url: /m.glb\nsoundtrack:\n  file: ambient.opus\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := m.Soundtrack
	if s.Gain != 1 || s.SampleRate != 48000 || s.Channels != 1 {
		t.Errorf("soundtrack defaults = %+v", s)
	}
}

func TestSoundtrackWithoutFileRejected(t *testing.T) {
	_, err := Parse([]byte("model:\n  url: /m.glb\nsoundtrack:\n  gain: 0.5\n"))
	if !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("err = %v, want ErrInvalidManifest", err)
	}
}

func TestDecodeSoundtrackWithoutSpec(t *testing.T) {
	m, err := Parse([]byte("model:\n  url: /m.glb\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := m.DecodeSoundtrack(); !errors.Is(err, ErrNoSoundtrack) {
		t.Errorf("err = %v, want ErrNoSoundtrack", err)
	}
}

func TestLoadDefaultManifest(t *testing.T) {
	m, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if m.Model.URL == "" {
		t.Error("embedded manifest has no model url")
	}
	if m.Model.Clips.Idle == "" {
		t.Error("embedded manifest has no idle clip")
	}
}

func TestPlacardText(t *testing.T) {
	p := PlacardSpec{Title: "A", Body: "B"}
	if got := p.Text(); got != "A\nB" {
		t.Errorf("Text() = %q", got)
	}
	if got := (PlacardSpec{Title: "A"}).Text(); got != "A" {
		t.Errorf("title only = %q", got)
	}
	if got := (PlacardSpec{Body: "B"}).Text(); got != "B" {
		t.Errorf("body only = %q", got)
	}
}

func TestSoundtrackPCMHelpers(t *testing.T) {
	s := &Soundtrack{PCM: []int16{0, -1, 256}, SampleRate: 48000, Channels: 1}
	b := s.PCM16Bytes()
	want := []byte{0, 0, 0xff, 0xff, 0, 1}
	if len(b) != len(want) {
		t.Fatalf("len = %d, want %d", len(b), len(want))
	}
	for i := range want {
		if b[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, b[i], want[i])
		}
	}

	s = &Soundtrack{PCM: make([]int16, 48000), SampleRate: 48000, Channels: 1}
	if got := s.Duration(); got != time.Second {
		t.Errorf("Duration = %v, want 1s", got)
	}
}
