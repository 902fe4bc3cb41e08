// Package web provides the station dashboard for a running exhibit
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/exhibitxr/go-exhibit/internal/log"
	"github.com/exhibitxr/go-exhibit/pkg/hub"
)

// StationState is the current state of the exhibit station for the dashboard
type StationState struct {
	HeadsetConnected bool   `json:"headset_connected"`
	DeviceID         string `json:"device_id,omitempty"`
	Passthrough      bool   `json:"passthrough"`
	Opaque           bool   `json:"opaque"`
	SessionActive    bool   `json:"session_active"`
	SessionMode      string `json:"session_mode,omitempty"`
	Placement        string `json:"placement"`
	Pointing         bool   `json:"pointing"`
	ModelReady       bool   `json:"model_ready"`
	SoundtrackPlayed bool   `json:"soundtrack_played"`
	Exhibit          string `json:"exhibit,omitempty"`

	// Status is the human-readable banner; StartEnabled gates the single
	// start affordance.
	Status       string `json:"status"`
	StartEnabled bool   `json:"start_enabled"`
}

// EventEntry is one line in the dashboard event feed
type EventEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // session, placement, asset, device, error
	Message string `json:"message"`
}

// Server is the station dashboard server
type Server struct {
	app  *fiber.App
	addr string

	// State
	state   StationState
	stateMu sync.RWMutex

	// Event feed buffer (last 500 entries)
	events   []EventEntry
	eventsMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	eventHub  *hub.Hub

	// Affordance callbacks, set by the exhibit app
	OnStart func() error
	OnEnd   func() error
}

// NewServer creates a new station dashboard server. staticDir holds the
// headset page and dashboard assets.
func NewServer(addr, staticDir string) *Server {
	s := &Server{
		addr:      addr,
		events:    make([]EventEntry, 0, 500),
		statusHub: hub.New("status"),
		eventHub:  hub.New("events"),
		state: StationState{
			Placement: "unplaced",
			Status:    "Starting up",
		},
	}

	app := fiber.New(fiber.Config{
		AppName:               "Exhibit Station",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Headset page and dashboard assets
	app.Static("/", staticDir)

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/events", s.handleGetEvents)
	api.Post("/start", s.handleStart)
	api.Post("/end", s.handleEnd)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App returns the underlying Fiber app so other components (the headset
// bridge) can mount their routes on the same listener.
func (s *Server) App() *fiber.App {
	return s.app
}

// API returns the /api route group for additional endpoints.
func (s *Server) API() fiber.Router {
	return s.app.Group("/api")
}

// Start runs the hubs and blocks serving HTTP.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.eventHub.Run()

	log.Info("station dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()
}

// UpdateState mutates the station state and broadcasts it to clients
func (s *Server) UpdateState(update func(*StationState)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state // Copy for broadcast
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// SetStatus updates the banner text and start affordance together. This is
// the whole contract with the visitor-facing surface: a string and a bool.
func (s *Server) SetStatus(text string, startEnabled bool) {
	s.UpdateState(func(st *StationState) {
		st.Status = text
		st.StartEnabled = startEnabled
	})
}

// AddEvent appends to the event feed and broadcasts the entry
func (s *Server) AddEvent(kind, message string) {
	entry := EventEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    kind,
		Message: message,
	}

	s.eventsMu.Lock()
	s.events = append(s.events, entry)
	if len(s.events) > 500 {
		s.events = s.events[1:]
	}
	s.eventsMu.Unlock()

	s.eventHub.BroadcastJSON(entry)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
