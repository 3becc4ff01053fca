// internal/prompt/engine.go
package prompt

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/mindloom/internal/types"
	"github.com/user/mindloom/pkg/llm"
)

// Engine assembles token-budgeted prompts for the model call.
type Engine struct {
	tokenizer *tiktoken.Tiktoken
	family    string
	maxTokens int
	reserve   int
}

// New creates a prompt engine. model selects the tokenizer (falling back to
// cl100k_base for unknown models), maxTokens is the context window, and
// reserve is held back for the model's reply.
func New(model, family string, maxTokens, reserve int) (*Engine, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Engine{
		tokenizer: enc,
		family:    family,
		maxTokens: maxTokens,
		reserve:   reserve,
	}, nil
}

func (e *Engine) countTokens(text string) int {
	return len(e.tokenizer.Encode(text, nil, nil))
}

// Build assembles the model messages for a session: the mode's system
// prompt followed by as much recent history as the token budget allows.
// History is taken newest-first and never truncates mid-message.
func (e *Engine) Build(sess *types.Session) []llm.Message {
	system := System(sess.AnalysisType, e.family)
	budget := e.maxTokens - e.reserve - e.countTokens(system)

	// Walk history newest-first until the budget is spent.
	var included []*types.Message
	used := 0
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		m := sess.Messages[i]
		if m.Content == "" {
			continue // skip the in-progress slot
		}
		cost := e.countTokens(m.Content)
		if used+cost > budget && len(included) > 0 {
			break
		}
		included = append(included, m)
		used += cost
	}

	messages := make([]llm.Message, 0, len(included)+1)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	for i := len(included) - 1; i >= 0; i-- {
		m := included[i]
		messages = append(messages, llm.Message{
			Role:    string(m.Role),
			Content: m.Content,
			Images:  m.Images,
		})
	}
	return messages
}
