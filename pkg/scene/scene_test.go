package scene

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/exhibitxr/go-exhibit/pkg/xr"
)

func TestSetAndGet(t *testing.T) {
	s := New()
	s.Set(Node{ID: NodeReticle, Visible: true, Pose: xr.PoseAt(mgl64.Vec3{0, 0, -1}), Opacity: 0.8})

	n, ok := s.Get(NodeReticle)
	if !ok {
		t.Fatal("node not found after Set")
	}
	if !n.Visible || n.Opacity != 0.8 {
		t.Errorf("node = %+v", n)
	}
	if n.Scale != 1 {
		t.Errorf("zero scale should default to 1, got %v", n.Scale)
	}
}

func TestFlushReturnsOnlyDirty(t *testing.T) {
	s := New()
	s.Set(Node{ID: NodeReticle, Visible: true})
	s.Set(Node{ID: NodeModel})

	if got := len(s.Flush()); got != 2 {
		t.Fatalf("first flush = %d nodes, want 2", got)
	}
	if got := s.Flush(); got != nil {
		t.Fatalf("second flush = %+v, want nil", got)
	}

	s.Update(NodeModel, func(n *Node) { n.Visible = true })
	flushed := s.Flush()
	if len(flushed) != 1 || flushed[0].ID != NodeModel {
		t.Errorf("flush after update = %+v", flushed)
	}
}

func TestUnchangedWritesStayClean(t *testing.T) {
	s := New()
	s.Set(Node{ID: NodePlacard, Text: "Triceratops"})
	s.Flush()

	s.Set(Node{ID: NodePlacard, Text: "Triceratops"})
	s.Update(NodePlacard, func(n *Node) {})
	if got := s.Flush(); got != nil {
		t.Errorf("no-op writes should not dirty the node, flushed %+v", got)
	}
}

func TestUpdateMissingNode(t *testing.T) {
	s := New()
	if s.Update("ghost", func(n *Node) { n.Visible = true }) {
		t.Error("Update on a missing node should return false")
	}
}

func TestFlushOrderIsCreationOrder(t *testing.T) {
	s := New()
	s.Set(Node{ID: NodeReticle})
	s.Set(Node{ID: NodeModel})
	s.Set(Node{ID: NodePlacard})

	// Dirty them in reverse; flush order must not change.
	s.Flush()
	s.Update(NodePlacard, func(n *Node) { n.Visible = true })
	s.Update(NodeReticle, func(n *Node) { n.Visible = true })

	flushed := s.Flush()
	if len(flushed) != 2 || flushed[0].ID != NodeReticle || flushed[1].ID != NodePlacard {
		t.Errorf("flush order = %+v", flushed)
	}
}

func TestMarkAllDirtyResync(t *testing.T) {
	s := New()
	s.Set(Node{ID: NodeReticle})
	s.Set(Node{ID: NodeModel})
	s.Flush()

	s.MarkAllDirty()
	if got := len(s.Flush()); got != 2 {
		t.Errorf("resync flush = %d nodes, want 2", got)
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.Set(Node{ID: NodeModel, Visible: true})
	s.Reset()

	if _, ok := s.Get(NodeModel); ok {
		t.Error("node survived Reset")
	}
	if got := s.Snapshot(); len(got) != 0 {
		t.Errorf("snapshot after Reset = %+v", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	s.Set(Node{ID: NodeModel})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Update(NodeModel, func(n *Node) { n.Opacity = float64(j) / 100 })
				s.Get(NodeModel)
				s.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	if _, ok := s.Get(NodeModel); !ok {
		t.Error("node lost during concurrent access")
	}
}
