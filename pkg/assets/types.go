// Package assets loads the exhibit manifest: which model the headset should
// fetch, its animation clips and collider volumes, the placard copy, and the
// optional soundtrack.
//
// The manifest is a YAML file. Everything except the model URL has a working
// default so a minimal manifest stays minimal.
package assets

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// Manifest describes one exhibit.
type Manifest struct {
	// Name is the exhibit's short display name.
	Name string `yaml:"name"`

	Model      ModelSpec       `yaml:"model"`
	Placard    PlacardSpec     `yaml:"placard"`
	Soundtrack *SoundtrackSpec `yaml:"soundtrack,omitempty"`

	// DefaultPose overrides the fallback placement position used when no
	// surface data ever arrives. Meters, floor-relative.
	DefaultPose *[3]float64 `yaml:"default_pose,omitempty"`
}

// ModelSpec describes the exhibit model the device fetches.
type ModelSpec struct {
	// URL the device fetches the model from. Required.
	URL string `yaml:"url"`

	// Scale multiplier applied to the model node. Defaults to 1.
	Scale float64 `yaml:"scale"`

	Clips ClipMap `yaml:"clips"`

	// Colliders are the ray-test volumes in model space. When empty a
	// placeholder box is used so pointing still works.
	Colliders []ColliderSpec `yaml:"colliders,omitempty"`
}

// ClipMap names the animation clips by role.
type ClipMap struct {
	// Idle loops once the model is placed.
	Idle string `yaml:"idle,omitempty"`

	// Active plays while a controller ray is on the model.
	Active string `yaml:"active,omitempty"`
}

// ColliderSpec is an axis-aligned box in model space.
type ColliderSpec struct {
	Center [3]float64 `yaml:"center"`
	Half   [3]float64 `yaml:"half"`
}

// ToBox converts the spec to a domain collider box.
func (c ColliderSpec) ToBox() xr.Box {
	return xr.Box{
		Center: mgl64.Vec3{c.Center[0], c.Center[1], c.Center[2]},
		Half:   mgl64.Vec3{c.Half[0], c.Half[1], c.Half[2]},
	}
}

// PlacardSpec is the text panel shown beside the model.
type PlacardSpec struct {
	Title string `yaml:"title,omitempty"`
	Body  string `yaml:"body,omitempty"`

	// Offset from the model's placed position, meters in model space.
	// A zero offset is treated as unset and replaced with the default.
	Offset [3]float64 `yaml:"offset,omitempty"`
}

// Text returns the placard's display text, title and body joined.
func (p PlacardSpec) Text() string {
	if p.Title == "" {
		return p.Body
	}
	if p.Body == "" {
		return p.Title
	}
	return p.Title + "\n" + p.Body
}

// SoundtrackSpec is the optional ambient audio played on first placement.
type SoundtrackSpec struct {
	// File is a path to an Ogg Opus file on the host.
	File string `yaml:"file"`

	// Gain multiplier, defaults to 1.
	Gain float64 `yaml:"gain,omitempty"`

	// Loop the soundtrack instead of playing it once. Defaults to true.
	Loop *bool `yaml:"loop,omitempty"`

	// SampleRate of the decoded PCM, defaults to 48000.
	SampleRate int `yaml:"sample_rate,omitempty"`

	// Channels in the file, defaults to 1.
	Channels int `yaml:"channels,omitempty"`
}

// Soundtrack is a decoded, ready-to-ship audio payload.
type Soundtrack struct {
	PCM        []int16
	SampleRate int
	Channels   int
	Gain       float64
	Loop       bool
}
