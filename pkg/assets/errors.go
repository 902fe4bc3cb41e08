package assets

import "errors"

var (
	// ErrNoModelURL is returned when a manifest has no model URL.
	ErrNoModelURL = errors.New("manifest has no model url")

	// ErrInvalidManifest is returned when a manifest file is malformed.
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrNoSoundtrack is returned when soundtrack decoding is requested but
	// the manifest declares none.
	ErrNoSoundtrack = errors.New("manifest has no soundtrack")
)
