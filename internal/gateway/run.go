// internal/gateway/run.go
package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/user/mindloom/internal/types"
)

// Turn is one inbound user message from any chat surface.
type Turn struct {
	SessionKey   types.SessionKey
	AnalysisType types.AnalysisType
	Text         string
	Images       []string
	Attachments  []types.Attachment
}

// Run wraps a Turn with its resolved session for queue processing.
type Run struct {
	ID         string
	SessionID  types.SessionID
	Turn       *Turn
	EnqueuedAt time.Time

	// Ctx is set by the queue when processing starts.
	Ctx context.Context

	// OnComplete is invoked with the final assistant reply.
	OnComplete func(string)
}

// NewRun creates a Run for the given session and turn.
func NewRun(sessionID types.SessionID, turn *Turn) *Run {
	return &Run{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Turn:       turn,
		EnqueuedAt: time.Now(),
	}
}
