package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/mindloom/internal/types"
)

// fallbackReply is handed to the surface when turn processing itself fails.
const fallbackReply = "Sorry, something went wrong processing your message. Let's pick the conversation back up."

// Queue manages per-session lanes with a global concurrency semaphore.
// Each session gets its own FIFO channel (lane) so that turns within a
// session are processed sequentially, while the semaphore limits the total
// number of concurrent turn processors across all sessions.
type Queue struct {
	lanes     map[types.SessionID]chan *Run
	pending   map[types.SessionID]*atomic.Int64
	semaphore *semaphore.Weighted
	processor func(*Run) error
	active    atomic.Int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// NewQueue creates a Queue that allows up to maxConcurrent turns to execute
// simultaneously across all session lanes.
func NewQueue(maxConcurrent int64) *Queue {
	return &Queue{
		lanes:     make(map[types.SessionID]chan *Run),
		pending:   make(map[types.SessionID]*atomic.Int64),
		semaphore: semaphore.NewWeighted(maxConcurrent),
	}
}

// Start initialises the queue's context. Must be called before Enqueue.
func (q *Queue) Start(ctx context.Context) {
	q.ctx, q.cancel = context.WithCancel(ctx)
}

// Stop cancels the queue context, closes all lanes, and waits for in-flight
// processors to finish. Further Enqueue calls return an error; the stopped
// flag is flipped under the same lock Enqueue sends under, so no send can
// race the close.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Lock()
	q.stopped = true
	for _, lane := range q.lanes {
		close(lane)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// SetProcessor sets the function invoked for each dequeued Run.
func (q *Queue) SetProcessor(fn func(*Run) error) {
	q.processor = fn
}

// Generating reports whether the session has a turn queued or in flight.
// This is the advisory gate surfaces use to disable duplicate submission;
// it is not a hard mutual-exclusion guarantee.
func (q *Queue) Generating(sessionID types.SessionID) bool {
	q.mu.RLock()
	counter := q.pending[sessionID]
	q.mu.RUnlock()
	return counter != nil && counter.Load() > 0
}

// Enqueue adds a Run to the session's lane, creating the lane (and its
// goroutine) on first use. Returns an error if the lane's buffer is full.
func (q *Queue) Enqueue(run *Run) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return fmt.Errorf("queue stopped")
	}

	lane, exists := q.lanes[run.SessionID]
	if !exists {
		lane = make(chan *Run, 100)
		q.lanes[run.SessionID] = lane
		q.pending[run.SessionID] = &atomic.Int64{}
		q.wg.Add(1)
		go q.processLane(lane)
	}

	select {
	case lane <- run:
		q.pending[run.SessionID].Add(1)
		return nil
	default:
		return fmt.Errorf("queue full for session %s", run.SessionID)
	}
}

// processLane drains a single session lane, acquiring a semaphore slot
// before running the processor synchronously. This keeps strict FIFO
// ordering within a session while the semaphore limits cross-session
// parallelism.
func (q *Queue) processLane(lane chan *Run) {
	defer q.wg.Done()
	for {
		select {
		case run, ok := <-lane:
			if !ok {
				return
			}
			if err := q.semaphore.Acquire(q.ctx, 1); err != nil {
				q.markDone(run.SessionID)
				return
			}
			if q.processor != nil {
				q.active.Add(1)
				run.Ctx = q.ctx
				if err := q.processor(run); err != nil {
					slog.Error("turn failed", "run_id", run.ID, "session_id", string(run.SessionID), "error", err)
					if run.OnComplete != nil {
						run.OnComplete(fallbackReply)
					}
				}
				q.active.Add(-1)
			}
			q.markDone(run.SessionID)
			q.semaphore.Release(1)
		case <-q.ctx.Done():
			return
		}
	}
}

func (q *Queue) markDone(sessionID types.SessionID) {
	q.mu.RLock()
	counter := q.pending[sessionID]
	q.mu.RUnlock()
	if counter != nil {
		counter.Add(-1)
	}
}

// WaitIdle blocks until no turns are actively being processed, or the
// timeout expires. Returns true if idle, false if timed out.
func (q *Queue) WaitIdle(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if q.active.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
