// internal/gateway/gateway_test.go
package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/user/mindloom/internal/store"
	"github.com/user/mindloom/internal/types"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	st := store.New(t.TempDir(), types.DefaultThresholds())
	g := New(st, 2)
	g.Start(context.Background())
	t.Cleanup(g.Stop)
	return g
}

func TestHandleInboundResolvesSessionByKey(t *testing.T) {
	g := newTestGateway(t)
	g.Queue.SetProcessor(func(run *Run) error { return nil })

	key := types.NewSessionKey("telegram", "42", "42")
	first, err := g.HandleInbound(context.Background(), &Turn{SessionKey: key, AnalysisType: types.AnalysisMusic, Text: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.HandleInbound(context.Background(), &Turn{SessionKey: key, AnalysisType: types.AnalysisMusic, Text: "again"})
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("same key resolved to different sessions: %s vs %s", first, second)
	}

	other, err := g.HandleInbound(context.Background(), &Turn{SessionKey: types.NewSessionKey("telegram", "7", "7"), Text: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if other == first {
		t.Error("distinct keys share a session")
	}
}

func TestHandleInboundDefaultsInvalidAnalysisType(t *testing.T) {
	g := newTestGateway(t)

	var got types.AnalysisType
	done := make(chan struct{})
	g.Queue.SetProcessor(func(run *Run) error {
		got = run.Turn.AnalysisType
		close(done)
		return nil
	})

	if _, err := g.HandleInbound(context.Background(), &Turn{AnalysisType: "astrology", Text: "hi"}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("turn never processed")
	}
	if got != types.AnalysisPersonality {
		t.Errorf("analysis type = %q, want personality", got)
	}
}

func TestHandleForSessionUnknownID(t *testing.T) {
	g := newTestGateway(t)
	if err := g.HandleForSession(types.NewSessionID(), &Turn{Text: "hi"}); err == nil {
		t.Error("expected error for unknown session id")
	}
}

func TestQueueKeepsSessionOrder(t *testing.T) {
	q := NewQueue(4)
	q.Start(context.Background())
	defer q.Stop()

	var mu sync.Mutex
	seen := make(map[types.SessionID][]string)
	q.SetProcessor(func(run *Run) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		seen[run.SessionID] = append(seen[run.SessionID], run.Turn.Text)
		mu.Unlock()
		return nil
	})

	a := types.NewSessionID()
	b := types.NewSessionID()
	for i, text := range []string{"1", "2", "3", "4"} {
		id := a
		if i%2 == 1 {
			id = b
		}
		if err := q.Enqueue(NewRun(id, &Turn{Text: text})); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		total := len(seen[a]) + len(seen[b])
		mu.Unlock()
		if total == 4 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("queue did not drain")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if seen[a][0] != "1" || seen[a][1] != "3" {
		t.Errorf("lane a out of order: %v", seen[a])
	}
	if seen[b][0] != "2" || seen[b][1] != "4" {
		t.Errorf("lane b out of order: %v", seen[b])
	}
}

func TestGeneratingTracksPendingWork(t *testing.T) {
	q := NewQueue(1)
	q.Start(context.Background())
	defer q.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	q.SetProcessor(func(run *Run) error {
		close(started)
		<-release
		return nil
	})

	id := types.NewSessionID()
	if q.Generating(id) {
		t.Error("idle session reported as generating")
	}
	if err := q.Enqueue(NewRun(id, &Turn{Text: "hi"})); err != nil {
		t.Fatal(err)
	}
	<-started
	if !q.Generating(id) {
		t.Error("in-flight turn not reported")
	}
	close(release)

	deadline := time.After(2 * time.Second)
	for q.Generating(id) {
		select {
		case <-deadline:
			t.Fatal("generating flag never cleared")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEnqueueAfterStopReturnsError(t *testing.T) {
	q := NewQueue(1)
	q.Start(context.Background())
	q.SetProcessor(func(run *Run) error { return nil })

	id := types.NewSessionID()
	if err := q.Enqueue(NewRun(id, &Turn{Text: "hi"})); err != nil {
		t.Fatal(err)
	}
	q.Stop()

	// The lane channels are closed; a late submit must fail cleanly
	// rather than send on a closed channel.
	if err := q.Enqueue(NewRun(id, &Turn{Text: "too late"})); err == nil {
		t.Error("enqueue after stop should return an error")
	}
}

func TestProcessorErrorDeliversFallback(t *testing.T) {
	q := NewQueue(1)
	q.Start(context.Background())
	defer q.Stop()

	q.SetProcessor(func(run *Run) error {
		return context.DeadlineExceeded
	})

	got := make(chan string, 1)
	run := NewRun(types.NewSessionID(), &Turn{Text: "hi"})
	run.OnComplete = func(s string) { got <- s }
	if err := q.Enqueue(run); err != nil {
		t.Fatal(err)
	}

	select {
	case reply := <-got:
		if reply != fallbackReply {
			t.Errorf("reply = %q", reply)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fallback never delivered")
	}
}
