package llm

import "context"

// Provider defines the interface for the remote model endpoint. The call is
// synchronous, non-streaming, and best-effort: it eventually returns a
// response or an error, nothing more is assumed.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (*Response, error)
}

// Config holds common configuration for model providers.
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	MaxTokens         int
	Temperature       float32
	TopP              float32
	TopK              int
	MinP              float32
	RepetitionPenalty float32
}
