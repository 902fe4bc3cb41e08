package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/exhibitxr/go-exhibit/pkg/hub"
)

// handleStatus returns the station's current state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleGetEvents returns recent event feed entries
func (s *Server) handleGetEvents(c *fiber.Ctx) error {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return c.JSON(s.events)
}

// handleStart triggers the start affordance
func (s *Server) handleStart(c *fiber.Ctx) error {
	if s.OnStart == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "start not configured",
		})
	}
	if err := s.OnStart(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// handleEnd requests session teardown
func (s *Server) handleEnd(c *fiber.Ctx) error {
	if s.OnEnd == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "end not configured",
		})
	}
	if err := s.OnEnd(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// handleStatusWS streams station state updates. The current state is sent
// on connect so the dashboard renders without waiting for a change.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	s.stateMu.RLock()
	state := s.state
	s.stateMu.RUnlock()
	c.WriteJSON(state)

	client := hub.NewClient(s.statusHub, c)
	client.Run()
}

// handleEventsWS streams event feed entries, replaying the buffer first
func (s *Server) handleEventsWS(c *websocket.Conn) {
	s.eventsMu.RLock()
	for _, entry := range s.events {
		c.WriteJSON(entry)
	}
	s.eventsMu.RUnlock()

	client := hub.NewClient(s.eventHub, c)
	client.Run()
}
