// Package runtime implements the chat turn loop: prompt assembly, the model
// call, response validation with correction or safe redirect, scoring, and
// the store write-back.
package runtime

import (
	"fmt"
	"log/slog"

	"github.com/user/mindloom/internal/boundary"
	"github.com/user/mindloom/internal/delivery"
	"github.com/user/mindloom/internal/gateway"
	"github.com/user/mindloom/internal/prompt"
	"github.com/user/mindloom/internal/store"
	"github.com/user/mindloom/internal/types"
	"github.com/user/mindloom/pkg/llm"
)

// modelFallback is the single user-visible reply for a failed model call.
// There is no retry: one fallback, then the turn ends.
const modelFallback = "I'm having trouble reaching the analysis model right now. Could you share that again in a moment?"

// Runtime processes one queued turn at a time.
type Runtime struct {
	provider llm.Provider
	engine   *prompt.Engine
	store    *store.Store
	rules    boundary.Rules
	registry *delivery.Registry
}

// New creates a Runtime with the given dependencies. registry may be nil
// when every caller supplies an OnComplete callback.
func New(provider llm.Provider, engine *prompt.Engine, st *store.Store, rules boundary.Rules, registry *delivery.Registry) *Runtime {
	return &Runtime{
		provider: provider,
		engine:   engine,
		store:    st,
		rules:    rules,
		registry: registry,
	}
}

// ProcessRun executes one turn. This is the function handed to
// Queue.SetProcessor.
func (r *Runtime) ProcessRun(run *gateway.Run) error {
	turn := run.Turn
	if _, ok := r.store.Get(run.SessionID); !ok {
		return fmt.Errorf("session not found: %s", run.SessionID)
	}
	r.store.SetActive(run.SessionID)

	if _, ok := r.store.AppendMessage(run.SessionID, types.RoleUser, turn.Text, store.AppendOptions{
		Images:      turn.Images,
		Attachments: turn.Attachments,
	}); !ok {
		return fmt.Errorf("append user message: session %s has a turn in progress", run.SessionID)
	}
	// Reserve the in-progress assistant slot before the model call.
	if _, ok := r.store.AppendMessage(run.SessionID, types.RoleAssistant, "", store.AppendOptions{}); !ok {
		return fmt.Errorf("reserve assistant message: session %s", run.SessionID)
	}

	// Snapshot taken after the appends so the prompt includes this turn.
	sess, ok := r.store.Get(run.SessionID)
	if !ok {
		return fmt.Errorf("session not found: %s", run.SessionID)
	}

	content, score, violations := r.respond(run, sess)

	r.store.UpdateLastMessage(run.SessionID, content, score, violations)
	r.deliver(run, sess, content)
	return nil
}

// respond produces the final assistant content for a turn: the validated
// model response, its corrected form, a safe redirect, or the transport
// fallback.
func (r *Runtime) respond(run *gateway.Run, sess *types.Session) (string, int, []string) {
	messages := r.engine.Build(sess)

	resp, err := r.provider.Complete(run.Ctx, messages)
	if err != nil {
		slog.Warn("model call failed", "session_id", string(sess.ID), "error", err)
		return modelFallback, boundary.ScoreResponse(modelFallback, 0), nil
	}

	raw := resp.Content
	violations := r.rules.Validate(raw, run.Turn.Text)
	content := raw
	if boundary.HasCritical(violations) {
		corrected := boundary.Correct(raw)
		if boundary.HasCritical(r.rules.Validate(corrected, run.Turn.Text)) {
			content = boundary.SafeRedirect(run.Turn.Text)
		} else {
			content = corrected
		}
		slog.Info("response corrected",
			"session_id", string(sess.ID),
			"violations", len(violations),
			"redirected", content != corrected,
		)
	}

	return content, boundary.ScoreResponse(content, len(violations)), violations
}

func (r *Runtime) deliver(run *gateway.Run, sess *types.Session, content string) {
	if run.OnComplete != nil {
		run.OnComplete(content)
		return
	}
	if r.registry != nil && sess.Key != "" {
		if err := r.registry.Deliver(sess.Key, content); err != nil {
			slog.Error("deliver reply failed", "session_id", string(sess.ID), "error", err)
		}
	}
}
