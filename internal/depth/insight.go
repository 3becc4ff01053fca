// internal/depth/insight.go
package depth

import (
	"sort"

	"github.com/user/mindloom/internal/types"
)

// keyword → insight category. Only recurring keywords produce insights.
var insightCategories = map[string]types.InsightCategory{
	"attachment":      types.InsightAttachment,
	"abandonment":     types.InsightAttachment,
	"intimacy":        types.InsightAttachment,
	"trust issues":    types.InsightAttachment,
	"relationship":    types.InsightRelational,
	"family":          types.InsightRelational,
	"rejection":       types.InsightRelational,
	"identity":        types.InsightIdentity,
	"self-worth":      types.InsightIdentity,
	"self-doubt":      types.InsightIdentity,
	"inner critic":    types.InsightIdentity,
	"shame spiral":    types.InsightEmotional,
	"overwhelmed":     types.InsightEmotional,
	"burnout":         types.InsightEmotional,
	"coping":          types.InsightCoping,
	"avoidance":       types.InsightCoping,
	"people pleasing": types.InsightCoping,
	"perfectionism":   types.InsightCoping,
}

// Insights rebuilds the structured insight list from the full history. A
// keyword that recurs across two or more user messages becomes evidence for
// its category; both psychological patterns and emotional markers count.
// Confidence grows with recurrence and caps at 0.9.
func Insights(msgs []*types.Message) []types.Insight {
	counts := make(map[string]int)
	for _, m := range msgs {
		if m.Role != types.RoleUser {
			continue
		}
		for _, kw := range m.PsychologicalPatterns {
			counts[kw]++
		}
		for _, kw := range m.EmotionalMarkers {
			counts[kw]++
		}
	}

	evidence := make(map[types.InsightCategory][]string)
	recurrence := make(map[types.InsightCategory]int)
	for kw, n := range counts {
		if n < 2 {
			continue
		}
		cat, ok := insightCategories[kw]
		if !ok {
			continue
		}
		evidence[cat] = append(evidence[cat], kw)
		if n > recurrence[cat] {
			recurrence[cat] = n
		}
	}

	var insights []types.Insight
	for cat, ev := range evidence {
		sort.Strings(ev)
		confidence := 0.3 + 0.2*float64(recurrence[cat])
		if confidence > 0.9 {
			confidence = 0.9
		}
		insights = append(insights, types.Insight{
			Category:   cat,
			Confidence: confidence,
			Evidence:   ev,
		})
	}
	sort.Slice(insights, func(i, j int) bool { return insights[i].Category < insights[j].Category })
	return insights
}
