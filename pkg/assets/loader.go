package assets

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultManifest []byte

// Default placard offset from the model origin, meters.
var defaultPlacardOffset = [3]float64{0.9, 1.2, 0}

// Placeholder collider used when the manifest declares none and the device
// reports none.
var placeholderCollider = ColliderSpec{
	Center: [3]float64{0, 0.75, 0},
	Half:   [3]float64{0.75, 0.75, 0.75},
}

// Load reads and validates a manifest from a YAML file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// LoadDefault returns the embedded sample manifest.
func LoadDefault() (*Manifest, error) {
	return Parse(defaultManifest)
}

// Parse parses and validates manifest YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := m.normalize(); err != nil {
		return nil, err
	}
	return &m, nil
}

// normalize applies defaults and rejects manifests that cannot work.
func (m *Manifest) normalize() error {
	if m.Model.URL == "" {
		return ErrNoModelURL
	}
	if m.Name == "" {
		m.Name = "Exhibit"
	}
	if m.Model.Scale <= 0 {
		m.Model.Scale = 1
	}
	if len(m.Model.Colliders) == 0 {
		m.Model.Colliders = []ColliderSpec{placeholderCollider}
	}
	if m.Placard.Offset == ([3]float64{}) {
		m.Placard.Offset = defaultPlacardOffset
	}
	if s := m.Soundtrack; s != nil {
		if s.File == "" {
			return fmt.Errorf("%w: soundtrack has no file", ErrInvalidManifest)
		}
		if s.Gain <= 0 {
			s.Gain = 1
		}
		if s.SampleRate <= 0 {
			s.SampleRate = 48000
		}
		if s.Channels <= 0 {
			s.Channels = 1
		}
	}
	return nil
}
