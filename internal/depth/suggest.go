// internal/depth/suggest.go
package depth

import "github.com/user/mindloom/internal/types"

// Canned follow-up prompts per depth stage. No model call is involved.
var stageSuggestions = map[types.Depth]string{
	types.DepthSurface:     "What brought this to mind for you today?",
	types.DepthEmerging:    "What feelings come up when you sit with that?",
	types.DepthDeep:        "Where do you think that pattern first took shape?",
	types.DepthIntegration: "How might you carry this understanding into the coming week?",
}

const (
	markerSuggestion  = "You named some strong feelings there. Which one feels most alive right now?"
	patternSuggestion = "There's a recurring theme in what you describe. What does it remind you of?"
)

// Suggest returns one to three follow-up questions keyed by the current
// depth and the most recent user message's derived fields. Deterministic
// given the same history.
func Suggest(msgs []*types.Message, th types.Thresholds) []string {
	suggestions := []string{stageSuggestions[Classify(msgs, th)]}

	last := lastUserMessage(msgs)
	if last == nil {
		return suggestions
	}
	if len(last.EmotionalMarkers) > 0 {
		suggestions = append(suggestions, markerSuggestion)
	}
	if len(last.PsychologicalPatterns) > 0 {
		suggestions = append(suggestions, patternSuggestion)
	}
	return suggestions
}

func lastUserMessage(msgs []*types.Message) *types.Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == types.RoleUser {
			return msgs[i]
		}
	}
	return nil
}
