// Package prompt builds the system prompt for each analysis mode and
// assembles token-budgeted message histories for the model call.
package prompt

import (
	"github.com/user/mindloom/internal/boundary"
	"github.com/user/mindloom/internal/types"
)

// Family names. The fine-tuned family pairs its terser prompts with the
// strict validator.
const (
	FamilyStandard  = "standard"
	FamilyFineTuned = "fine-tuned"
)

const baseGuardrails = `You are an analytical conversation partner for psychological self-reflection.
You have no personal experiences, memories, or senses. Never claim to have
listened to, watched, read, or lived through anything. Never diagnose or
prescribe. Speak about patterns you observe in what the user shares, and end
with one reflective question.`

var modePrompts = map[types.AnalysisType]string{
	types.AnalysisPersonality:   "Focus on personality patterns: recurring tendencies, self-perception, and how the user relates to themselves.",
	types.AnalysisCreative:      "Focus on the user's creative process: what their work expresses about them, blocks, and sources of meaning.",
	types.AnalysisMusic:         "Focus on what the user's musical choices reflect about their inner life. Discuss only what the user tells you about the music.",
	types.AnalysisVisual:        "Focus on what shared images evoke for the user. Describe only what the user reports, never the media itself.",
	types.AnalysisLabelInsights: "Focus on the labels and categories the user applies to themselves, and what those labels reveal or conceal.",
}

const fineTunedSuffix = `
Keep responses under three short paragraphs. Use analytical framing
(patterns, dynamics, tendencies) rather than first-person statements.`

// System returns the system prompt for the given analysis type and family.
func System(t types.AnalysisType, family string) string {
	p := baseGuardrails + "\n\n" + modePrompts[t]
	if family == FamilyFineTuned {
		p += fineTunedSuffix
	}
	return p
}

// RulesFor returns the validator rule table for a prompt family.
func RulesFor(family string, th types.Thresholds) boundary.Rules {
	if family == FamilyFineTuned {
		return boundary.StrictRules(th.LongResponseChars)
	}
	return boundary.StandardRules()
}
