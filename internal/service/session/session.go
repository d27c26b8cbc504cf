package session

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator issues session IDs.
type Generator struct {
	counter uint64
	newID   func() string
}

// New returns a generator of random UUID session IDs.
func New() *Generator {
	return &Generator{newID: uuid.NewString}
}

// NewWithIDs uses fn instead of random UUIDs.
func NewWithIDs(fn func() string) *Generator {
	return &Generator{newID: fn}
}

// Next returns a fresh session ID.
func (g *Generator) Next() string {
	atomic.AddUint64(&g.counter, 1)
	return g.newID()
}

// Issued returns how many IDs have been handed out.
func (g *Generator) Issued() uint64 {
	return atomic.LoadUint64(&g.counter)
}
