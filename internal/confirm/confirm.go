// Package confirm holds the single pending confirmation for destructive actions.
package confirm

import (
	"context"
	"errors"
	"sync"
)

const DefaultConfirmLabel = "Delete"

var ErrNothingPending = errors.New("no confirmation pending")

// Request describes a destructive action awaiting the user's go-ahead.
type Request struct {
	Title        string
	Message      string
	ConfirmLabel string
	Action       func(ctx context.Context) error
}

// Prompt is the displayable part of a pending request.
type Prompt struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	ConfirmLabel string `json:"confirm_label"`
}

// Gate is a single-slot confirmation. Opening replaces whatever was pending.
type Gate struct {
	mu      sync.Mutex
	pending *Request
	gen     uint64
	// claimed is set while the pending request's action runs.
	claimed bool
}

func New() *Gate {
	return &Gate{}
}

// Open makes r the pending request, replacing any earlier one.
func (g *Gate) Open(r Request) {
	if r.ConfirmLabel == "" {
		r.ConfirmLabel = DefaultConfirmLabel
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = &r
	g.gen++
	g.claimed = false
}

// Pending returns the prompt currently shown, if any.
func (g *Gate) Pending() (Prompt, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return Prompt{}, false
	}
	return Prompt{Title: g.pending.Title, Message: g.pending.Message, ConfirmLabel: g.pending.ConfirmLabel}, true
}

// Confirm runs the pending action and closes the gate whatever the
// outcome. A request opened while the action ran stays pending. The action
// runs at most once: a second Confirm while it runs gets ErrNothingPending.
func (g *Gate) Confirm(ctx context.Context) error {
	g.mu.Lock()
	req, gen := g.pending, g.gen
	if req == nil || g.claimed {
		g.mu.Unlock()
		return ErrNothingPending
	}
	g.claimed = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		if g.gen == gen {
			g.pending = nil
			g.claimed = false
		}
		g.mu.Unlock()
	}()

	if req.Action == nil {
		return nil
	}
	return req.Action(ctx)
}

// Cancel closes the gate without running the action.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = nil
	g.gen++
	g.claimed = false
}
