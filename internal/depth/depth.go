// Package depth classifies conversation progress and proposes follow-up
// prompts from the message history. Classification is a pure reducer over
// the history; it is recomputed from scratch on every call.
package depth

import (
	"strings"

	"github.com/user/mindloom/internal/types"
)

// deepExplorationTopics gate the transition past the deep stage: at least
// one long user message must touch one of these.
var deepExplorationTopics = []string{"childhood", "trauma", "family", "relationship"}

// Classify maps a session's message history to a depth label using ordered
// message-count thresholds gated by content-quality predicates.
func Classify(msgs []*types.Message, th types.Thresholds) types.Depth {
	n := len(msgs)
	if n < th.EmergingAt {
		return types.DepthSurface
	}
	if n < th.DeepAt || !hasAffectContent(msgs) {
		return types.DepthEmerging
	}
	if n < th.IntegrationAt || !hasDeepExploration(msgs, th.DeepExplorationChars) {
		return types.DepthDeep
	}
	return types.DepthIntegration
}

func hasAffectContent(msgs []*types.Message) bool {
	for _, m := range msgs {
		if len(m.EmotionalMarkers) > 0 || len(m.PsychologicalPatterns) > 0 {
			return true
		}
	}
	return false
}

func hasDeepExploration(msgs []*types.Message, minChars int) bool {
	for _, m := range msgs {
		if m.Role != types.RoleUser || len(m.Content) <= minChars {
			continue
		}
		lower := strings.ToLower(m.Content)
		for _, topic := range deepExplorationTopics {
			if strings.Contains(lower, topic) {
				return true
			}
		}
	}
	return false
}
