// internal/boundary/score.go
package boundary

import (
	"fmt"
	"strings"
)

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ScoreMessage computes the message-level quality score from the counts of
// derived fields and recorded violations.
func ScoreMessage(markers, patterns, violations int) int {
	score := 100
	score -= 15 * violations
	if patterns > 2 {
		score += 5
	}
	if markers > 0 {
		score += 5
	}
	return clampScore(score)
}

// Assessment is a response-level quality score with the issues that cost
// points and a suggestion for each.
type Assessment struct {
	Score       int      `json:"score"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// AssessResponse computes the response-level quality score for an assistant
// reply given its validator violation count, naming each applied penalty.
func AssessResponse(resp string, violations int) Assessment {
	a := Assessment{Score: 100}
	if violations > 0 {
		a.Score -= 20 * violations
		a.Issues = append(a.Issues, fmt.Sprintf("%d boundary violation(s)", violations))
		a.Suggestions = append(a.Suggestions, "stay observational about what the user shared")
	}
	if len(resp) > 100 && lacksFrameworkVocabulary(resp) {
		a.Score -= 10
		a.Issues = append(a.Issues, "no analytical framework vocabulary")
		a.Suggestions = append(a.Suggestions, "name the pattern or dynamic the user is describing")
	}
	if len(resp) > 50 && !strings.Contains(resp, "?") {
		a.Score -= 5
		a.Issues = append(a.Issues, "no reflective question")
		a.Suggestions = append(a.Suggestions, "close with an open question inviting further reflection")
	}
	a.Score = clampScore(a.Score)
	return a
}

// ScoreResponse computes the response-level quality score for an assistant
// reply given its validator violation count.
func ScoreResponse(resp string, violations int) int {
	return AssessResponse(resp, violations).Score
}
