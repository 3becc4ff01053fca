// Package gateway turns inbound chat messages into queued runs against the
// conversation store.
package gateway

import (
	"context"
	"fmt"

	"github.com/user/mindloom/internal/store"
	"github.com/user/mindloom/internal/types"
)

// Gateway resolves (or creates) the session for each inbound turn and
// enqueues it for processing.
type Gateway struct {
	store *store.Store
	Queue *Queue
}

// New creates a Gateway over the given store with the given concurrency
// limit for simultaneous turn processing.
func New(st *store.Store, maxConcurrent int64) *Gateway {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Gateway{
		store: st,
		Queue: NewQueue(maxConcurrent),
	}
}

// Start initialises the gateway's queue.
func (g *Gateway) Start(ctx context.Context) {
	g.Queue.Start(ctx)
}

// Stop drains the queue and waits for outstanding work.
func (g *Gateway) Stop() {
	g.Queue.Stop()
}

// RunOption configures optional behavior on a Run.
type RunOption func(*Run)

// WithOnComplete sets a callback invoked when the turn produces a final
// assistant reply.
func WithOnComplete(fn func(string)) RunOption {
	return func(r *Run) { r.OnComplete = fn }
}

// HandleInbound resolves or creates the session bound to the turn's key and
// enqueues the turn. The returned session id identifies the conversation.
func (g *Gateway) HandleInbound(_ context.Context, turn *Turn, opts ...RunOption) (types.SessionID, error) {
	if !turn.AnalysisType.Valid() {
		turn.AnalysisType = types.AnalysisPersonality
	}
	sess := g.store.ResolveOrCreate(turn.SessionKey, turn.AnalysisType)

	run := NewRun(sess.ID, turn)
	for _, opt := range opts {
		opt(run)
	}
	if err := g.Queue.Enqueue(run); err != nil {
		return "", fmt.Errorf("enqueue turn: %w", err)
	}
	return sess.ID, nil
}

// HandleForSession enqueues a turn for an already-known session id.
func (g *Gateway) HandleForSession(id types.SessionID, turn *Turn, opts ...RunOption) error {
	if _, ok := g.store.Get(id); !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	run := NewRun(id, turn)
	for _, opt := range opts {
		opt(run)
	}
	if err := g.Queue.Enqueue(run); err != nil {
		return fmt.Errorf("enqueue turn: %w", err)
	}
	return nil
}
