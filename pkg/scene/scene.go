// Package scene maintains the authoritative state of the nodes rendered on
// the headset: the placement reticle, the exhibit model and its placard. The
// host owns this state and the device only mirrors it; the frame loop
// flushes dirty nodes to the device once per tick.
package scene

import (
	"sync"

	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

// Well-known node IDs.
const (
	NodeReticle = "reticle"
	NodeModel   = "model"
	NodePlacard = "placard"
)

// Node is one renderable's authoritative state. Pose is in the session
// reference space. Opacity and Scale are unitless multipliers.
type Node struct {
	ID      string
	Visible bool
	Pose    xr.Pose
	Scale   float64
	Opacity float64
	Clip    string // Active animation clip, empty for none
	Loop    bool
	Text    string // Placard text content
}

// Scene tracks node state and which nodes changed since the last flush.
type Scene struct {
	mu    sync.RWMutex
	nodes map[string]Node
	dirty map[string]bool
	order []string // flush order, first added first
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{
		nodes: make(map[string]Node),
		dirty: make(map[string]bool),
	}
}

// Set creates or replaces a node. Unchanged nodes are not marked dirty.
func (s *Scene) Set(n Node) {
	if n.Scale == 0 {
		n.Scale = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.nodes[n.ID]
	if !exists {
		s.order = append(s.order, n.ID)
	} else if cur == n {
		return
	}
	s.nodes[n.ID] = n
	s.dirty[n.ID] = true
}

// Update mutates a node in place. Returns false if the node does not exist.
// The node is marked dirty only when the mutation changed it.
func (s *Scene) Update(id string, fn func(*Node)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.nodes[id]
	if !exists {
		return false
	}
	next := cur
	fn(&next)
	next.ID = id
	if next.Scale == 0 {
		next.Scale = 1
	}
	if next == cur {
		return true
	}
	s.nodes[id] = next
	s.dirty[id] = true
	return true
}

// Get returns a copy of the node.
func (s *Scene) Get(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok
}

// Flush returns the nodes changed since the last flush, in creation order,
// and clears the dirty set.
func (s *Scene) Flush() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.dirty) == 0 {
		return nil
	}
	out := make([]Node, 0, len(s.dirty))
	for _, id := range s.order {
		if s.dirty[id] {
			out = append(out, s.nodes[id])
		}
	}
	s.dirty = make(map[string]bool)
	return out
}

// MarkAllDirty queues every node for the next flush. Used to resync a device
// that reconnected mid-session.
func (s *Scene) MarkAllDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.nodes {
		s.dirty[id] = true
	}
}

// Snapshot returns a copy of every node in creation order.
func (s *Scene) Snapshot() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Reset removes all nodes. Used on session teardown.
func (s *Scene) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]Node)
	s.dirty = make(map[string]bool)
	s.order = nil
}
