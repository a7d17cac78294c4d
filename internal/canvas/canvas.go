// Package canvas maintains the set of pages pinned to the visual board
// and persists their layout.
package canvas

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/user/flowblocs/internal/db"
)

// DefaultDebounce is how long the board waits after the last position
// change before writing the layout to the store. Drag interactions emit
// a burst of moves; only the final resting position needs to land.
const DefaultDebounce = 500 * time.Millisecond

type Persister interface {
	ListCanvasNodes() ([]db.CanvasNode, error)
	ReplaceCanvasNodes(nodes []db.CanvasNode) error
}

type Board struct {
	store    Persister
	logger   *slog.Logger
	debounce time.Duration
	now      func() time.Time

	mu    sync.Mutex
	nodes map[string]db.CanvasNode
	timer *time.Timer
}

type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

func NewBoard(store Persister, opts Options) (*Board, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &Board{
		store:    store,
		logger:   opts.Logger,
		debounce: opts.Debounce,
		now:      time.Now,
		nodes:    make(map[string]db.CanvasNode),
	}
	saved, err := store.ListCanvasNodes()
	if err != nil {
		return nil, fmt.Errorf("loading canvas: %w", err)
	}
	for _, n := range saved {
		b.nodes[n.ID] = n
	}
	return b, nil
}

// Add pins a page to the board. Adding an already-pinned page moves it
// to the given position instead of duplicating it.
func (b *Board) Add(node db.CanvasNode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	node.UpdatedAt = b.now()
	b.nodes[node.ID] = node
	b.scheduleLocked()
}

func (b *Board) Remove(nodeID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.nodes[nodeID]; !ok {
		return
	}
	delete(b.nodes, nodeID)
	b.scheduleLocked()
}

func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.nodes) == 0 {
		return
	}
	b.nodes = make(map[string]db.CanvasNode)
	b.scheduleLocked()
}

// MoveNode updates a node's position. Unknown ids are ignored so stale
// drag events after a remove are harmless.
func (b *Board) MoveNode(nodeID string, x, y float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	node, ok := b.nodes[nodeID]
	if !ok {
		return
	}
	node.X = x
	node.Y = y
	node.UpdatedAt = b.now()
	b.nodes[nodeID] = node
	b.scheduleLocked()
}

// Nodes returns the pinned pages sorted by id for stable iteration.
func (b *Board) Nodes() []db.CanvasNode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Flush cancels any pending debounce and writes the layout now. The TUI
// calls this on shutdown so an in-flight drag is not lost.
func (b *Board) Flush() error {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	nodes := b.snapshotLocked()
	b.mu.Unlock()
	return b.store.ReplaceCanvasNodes(nodes)
}

func (b *Board) snapshotLocked() []db.CanvasNode {
	out := make([]db.CanvasNode, 0, len(b.nodes))
	for _, n := range b.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Board) scheduleLocked() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.debounce, func() {
		b.mu.Lock()
		b.timer = nil
		nodes := b.snapshotLocked()
		b.mu.Unlock()
		if err := b.store.ReplaceCanvasNodes(nodes); err != nil {
			b.logger.Warn("persisting canvas layout", "error", err)
		}
	})
}
