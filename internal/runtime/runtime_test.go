// internal/runtime/runtime_test.go
package runtime

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/user/mindloom/internal/boundary"
	"github.com/user/mindloom/internal/gateway"
	"github.com/user/mindloom/internal/prompt"
	"github.com/user/mindloom/internal/store"
	"github.com/user/mindloom/internal/types"
	"github.com/user/mindloom/pkg/llm"
)

// fakeProvider returns scripted responses, or an error when failing.
type fakeProvider struct {
	response string
	fail     bool
	seen     []llm.Message
}

func (f *fakeProvider) Complete(_ context.Context, messages []llm.Message) (*llm.Response, error) {
	f.seen = messages
	if f.fail {
		return nil, fmt.Errorf("connection refused")
	}
	return &llm.Response{Content: f.response}, nil
}

func newTestRuntime(t *testing.T, provider llm.Provider, rules boundary.Rules) (*Runtime, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir(), types.DefaultThresholds())
	engine, err := prompt.New("gpt-4o-mini", prompt.FamilyStandard, 8000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	return New(provider, engine, st, rules, nil), st
}

func runTurn(t *testing.T, rt *Runtime, st *store.Store, sessID types.SessionID, text string) string {
	t.Helper()
	var reply string
	run := gateway.NewRun(sessID, &gateway.Turn{Text: text})
	run.Ctx = context.Background()
	run.OnComplete = func(s string) { reply = s }
	if err := rt.ProcessRun(run); err != nil {
		t.Fatal(err)
	}
	return reply
}

func TestCriticalResponseIsCorrected(t *testing.T) {
	provider := &fakeProvider{response: "I remember that song from my own childhood."}
	rt, st := newTestRuntime(t, provider, boundary.StandardRules())

	sess := st.CreateSession(types.AnalysisMusic)
	reply := runTurn(t, rt, st, sess.ID, "I love this song, it reminds me of summer")

	if strings.Contains(reply, "I remember") {
		t.Errorf("stored reply still carries first-person claim: %q", reply)
	}

	got, _ := st.Get(sess.ID)
	last := got.Messages[len(got.Messages)-1]
	if last.Role != types.RoleAssistant || last.Content != reply {
		t.Errorf("assistant message not updated: %+v", last)
	}
	if !boundary.HasCritical(last.Violations) {
		t.Errorf("expected a recorded critical violation, got %v", last.Violations)
	}
	if got.State.BoundaryViolations == 0 {
		t.Error("violation not folded into session counter")
	}
	if last.ValidationScore >= 100 {
		t.Errorf("score = %d, expected penalty applied", last.ValidationScore)
	}
}

func TestUncorrectableResponseIsRedirected(t *testing.T) {
	// Stance verbs have no entry in Correct's substitution table, so the
	// strict validator still flags the corrected text and the turn falls
	// back to a safe redirect.
	provider := &fakeProvider{response: "I notice a strong reaction in what you shared."}
	rt, st := newTestRuntime(t, provider, boundary.StrictRules(1200))

	sess := st.CreateSession(types.AnalysisMusic)
	reply := runTurn(t, rt, st, sess.ID, "this song broke me")

	if reply != boundary.SafeRedirect("this song broke me") {
		t.Errorf("expected the music redirect, got %q", reply)
	}
}

func TestCleanResponseStoredVerbatim(t *testing.T) {
	clean := "That attachment pattern sounds important. What does it protect you from?"
	provider := &fakeProvider{response: clean}
	rt, st := newTestRuntime(t, provider, boundary.StandardRules())

	sess := st.CreateSession(types.AnalysisPersonality)
	reply := runTurn(t, rt, st, sess.ID, "I keep people at a distance")

	if reply != clean {
		t.Errorf("clean response modified: %q", reply)
	}
	got, _ := st.Get(sess.ID)
	last := got.Messages[len(got.Messages)-1]
	if last.ValidationScore != 100 || len(last.Violations) != 0 {
		t.Errorf("clean response penalized: score=%d violations=%v", last.ValidationScore, last.Violations)
	}

	// The prompt must carry the mode's system prompt and the user turn.
	if provider.seen[0].Role != "system" {
		t.Error("missing system prompt")
	}
	lastSent := provider.seen[len(provider.seen)-1]
	if lastSent.Role != "user" || lastSent.Content != "I keep people at a distance" {
		t.Errorf("user turn not sent: %+v", lastSent)
	}
}

func TestTransportFailureProducesOneFallback(t *testing.T) {
	provider := &fakeProvider{fail: true}
	rt, st := newTestRuntime(t, provider, boundary.StandardRules())

	sess := st.CreateSession(types.AnalysisPersonality)
	reply := runTurn(t, rt, st, sess.ID, "hello")

	if reply != modelFallback {
		t.Errorf("reply = %q", reply)
	}
	// The failed turn still fills the in-progress slot: exactly two
	// messages, and the session accepts the next turn.
	got, _ := st.Get(sess.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d", len(got.Messages))
	}
	if got.Messages[1].Content != modelFallback {
		t.Errorf("fallback not stored: %q", got.Messages[1].Content)
	}

	provider.fail = false
	provider.response = "A pattern worth naming. What comes up for you?"
	if got := runTurn(t, rt, st, sess.ID, "still here"); got == "" {
		t.Error("session did not recover after fallback")
	}
}

func TestSessionTitleDerivedFromFirstTurn(t *testing.T) {
	provider := &fakeProvider{response: "What draws you to that? A pattern perhaps."}
	rt, st := newTestRuntime(t, provider, boundary.StandardRules())

	sess := st.CreateSession(types.AnalysisMusic)
	runTurn(t, rt, st, sess.ID, "I love this song, it reminds me of summer")

	got, _ := st.Get(sess.ID)
	if got.Title != "I love this song, it reminds me of summer" {
		t.Errorf("title = %q", got.Title)
	}
}
