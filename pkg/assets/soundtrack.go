package assets

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	opus "gopkg.in/hraban/opus.v2"
)

// DecodeSoundtrack decodes the manifest's Ogg Opus soundtrack into PCM16
// ready to ship to the device. Returns ErrNoSoundtrack when the manifest
// declares none.
func (m *Manifest) DecodeSoundtrack() (*Soundtrack, error) {
	spec := m.Soundtrack
	if spec == nil {
		return nil, ErrNoSoundtrack
	}

	f, err := os.Open(spec.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open soundtrack: %w", err)
	}
	defer f.Close()

	return decodeOpus(f, spec)
}

func decodeOpus(r io.Reader, spec *SoundtrackSpec) (*Soundtrack, error) {
	stream, err := opus.NewStream(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open opus stream: %w", err)
	}
	defer stream.Close()

	// 16384 samples is ~340ms of mono 48kHz audio per read.
	buf := make([]int16, 16384)
	var pcm []int16
	for {
		n, err := stream.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("opus decode failed: %w", err)
		}
		pcm = append(pcm, buf[:n*spec.Channels]...)
	}

	loop := true
	if spec.Loop != nil {
		loop = *spec.Loop
	}
	return &Soundtrack{
		PCM:        pcm,
		SampleRate: spec.SampleRate,
		Channels:   spec.Channels,
		Gain:       spec.Gain,
		Loop:       loop,
	}, nil
}

// PCM16Bytes returns the samples as little-endian bytes for the wire.
func (s *Soundtrack) PCM16Bytes() []byte {
	out := make([]byte, len(s.PCM)*2)
	for i, v := range s.PCM {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// Duration of the decoded audio.
func (s *Soundtrack) Duration() time.Duration {
	if s.SampleRate <= 0 || s.Channels <= 0 {
		return 0
	}
	frames := len(s.PCM) / s.Channels
	return time.Duration(frames) * time.Second / time.Duration(s.SampleRate)
}
