package canvas

import (
	"sync"
	"testing"
	"time"

	"github.com/user/flowblocs/internal/db"
)

type fakePersister struct {
	mu       sync.Mutex
	initial  []db.CanvasNode
	writes   [][]db.CanvasNode
	writeErr error
}

func (p *fakePersister) ListCanvasNodes() ([]db.CanvasNode, error) {
	return p.initial, nil
}

func (p *fakePersister) ReplaceCanvasNodes(nodes []db.CanvasNode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return p.writeErr
	}
	p.writes = append(p.writes, nodes)
	return nil
}

func (p *fakePersister) writeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.writes)
}

func (p *fakePersister) lastWrite() []db.CanvasNode {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.writes) == 0 {
		return nil
	}
	return p.writes[len(p.writes)-1]
}

func testBoard(t *testing.T, persister *fakePersister, debounce time.Duration) *Board {
	t.Helper()
	board, err := NewBoard(persister, Options{Debounce: debounce})
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	return board
}

func TestBoardLoadsSavedLayout(t *testing.T) {
	persister := &fakePersister{initial: []db.CanvasNode{
		{ID: "n1", PageID: "p1", Title: "A", X: 1, Y: 2},
	}}
	board := testBoard(t, persister, time.Hour)

	nodes := board.Nodes()
	if len(nodes) != 1 || nodes[0].ID != "n1" {
		t.Fatalf("got %v", nodes)
	}
}

func TestMoveBurstPersistsOnce(t *testing.T) {
	persister := &fakePersister{initial: []db.CanvasNode{{ID: "n1"}}}
	board := testBoard(t, persister, 20*time.Millisecond)

	// A drag is a burst of moves; only the final position should land.
	for i := 1; i <= 10; i++ {
		board.MoveNode("n1", float64(i*10), float64(i*5))
	}

	deadline := time.Now().Add(2 * time.Second)
	for persister.writeCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := persister.writeCount(); got != 1 {
		t.Fatalf("writes: got %d, want 1", got)
	}
	last := persister.lastWrite()
	if last[0].X != 100 || last[0].Y != 50 {
		t.Errorf("position: got (%v, %v), want (100, 50)", last[0].X, last[0].Y)
	}
}

func TestMoveUnknownNodeIgnored(t *testing.T) {
	persister := &fakePersister{}
	board := testBoard(t, persister, time.Hour)

	board.MoveNode("ghost", 1, 2)
	if len(board.Nodes()) != 0 {
		t.Error("unknown node should not appear")
	}
}

func TestAddIsIdempotentByID(t *testing.T) {
	persister := &fakePersister{}
	board := testBoard(t, persister, time.Hour)

	board.Add(db.CanvasNode{ID: "n1", PageID: "p1", X: 1})
	board.Add(db.CanvasNode{ID: "n1", PageID: "p1", X: 9})

	nodes := board.Nodes()
	if len(nodes) != 1 {
		t.Fatalf("nodes: got %d, want 1", len(nodes))
	}
	if nodes[0].X != 9 {
		t.Errorf("x: got %v, want 9", nodes[0].X)
	}
}

func TestFlushWritesPendingLayout(t *testing.T) {
	persister := &fakePersister{}
	board := testBoard(t, persister, time.Hour)

	board.Add(db.CanvasNode{ID: "n1", PageID: "p1"})
	board.Add(db.CanvasNode{ID: "n2", PageID: "p2"})
	board.Remove("n1")

	if err := board.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := persister.writeCount(); got != 1 {
		t.Fatalf("writes: got %d, want 1", got)
	}
	last := persister.lastWrite()
	if len(last) != 1 || last[0].ID != "n2" {
		t.Fatalf("got %v, want n2 only", last)
	}
}
