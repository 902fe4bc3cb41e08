// Package config provides configuration helpers for go-exhibit commands.
package config

import (
	"fmt"
	"os"
	"time"
)

// Default host configuration.
const (
	DefaultListenAddr   = ":8090"
	DefaultManifestPath = "exhibit.yaml"
)

// ListenAddr returns the host listen address from EXHIBIT_ADDR.
// Falls back to the provided default if not set.
func ListenAddr(defaultAddr string) string {
	if addr := os.Getenv("EXHIBIT_ADDR"); addr != "" {
		return addr
	}
	return defaultAddr
}

// ManifestPath returns the exhibit manifest path from EXHIBIT_MANIFEST.
func ManifestPath(defaultPath string) string {
	if p := os.Getenv("EXHIBIT_MANIFEST"); p != "" {
		return p
	}
	return defaultPath
}

// LogLevel returns the log level from LOG_LEVEL, defaulting to "info".
func LogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}

// HostAddr returns the station address from EXHIBIT_HOST for client
// commands. Falls back to the provided default if not set.
func HostAddr(defaultAddr string) string {
	if addr := os.Getenv("EXHIBIT_HOST"); addr != "" {
		return addr
	}
	return defaultAddr
}

// BridgeURL returns the headset bridge WebSocket URL for a host address.
func BridgeURL(hostAddr string) string {
	return fmt.Sprintf("ws://%s/ws/headset", hostAddr)
}

// EnvDuration returns a duration env var parsed with time.ParseDuration.
func EnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
