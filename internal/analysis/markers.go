// Package analysis extracts keyword-based signals from message text.
package analysis

import (
	"sort"
	"strings"
)

// emotionalMarkers is the fixed vocabulary of emotion words. Matching is
// literal substring matching: "safety" matches "safe". Tests pin this.
var emotionalMarkers = []string{
	"afraid", "alone", "angry", "anxious", "ashamed", "calm", "confused",
	"excited", "frustrated", "grateful", "grief", "guilty", "happy",
	"hopeful", "hurt", "lonely", "lost", "numb", "overwhelmed", "proud",
	"sad", "safe", "scared", "worried",
}

// psychologicalPatterns is the fixed vocabulary of pattern phrases.
var psychologicalPatterns = []string{
	"abandonment", "attachment", "avoidance", "boundaries", "burnout",
	"childhood", "codependency", "control", "coping", "family",
	"identity", "inner critic", "intimacy", "neglect", "people pleasing",
	"perfectionism", "rejection", "relationship", "self-doubt",
	"self-worth", "shame spiral", "trauma", "trust issues", "validation",
	"vulnerability",
}

// traumaWords and attachmentWords are the subsets folded into the
// conversation state's indicator sets.
var traumaWords = []string{"trauma", "abuse", "neglect", "loss", "grief"}

var attachmentWords = []string{
	"attachment", "abandonment", "trust", "intimacy", "rejection",
}

func matchVocabulary(text string, vocab []string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var out []string
	for _, word := range vocab {
		if seen[word] {
			continue
		}
		if strings.Contains(lower, word) {
			seen[word] = true
			out = append(out, word)
		}
	}
	sort.Strings(out)
	return out
}

// EmotionalMarkers returns the deduplicated set of emotion words found in
// text via case-insensitive substring matching.
func EmotionalMarkers(text string) []string {
	return matchVocabulary(text, emotionalMarkers)
}

// PsychologicalPatterns returns the deduplicated set of pattern phrases
// found in text via case-insensitive substring matching.
func PsychologicalPatterns(text string) []string {
	return matchVocabulary(text, psychologicalPatterns)
}

// TraumaIndicators returns the trauma-related subset found in text.
func TraumaIndicators(text string) []string {
	return matchVocabulary(text, traumaWords)
}

// AttachmentPatterns returns the attachment-related subset found in text.
func AttachmentPatterns(text string) []string {
	return matchVocabulary(text, attachmentWords)
}

// MergeSets unions sorted keyword sets, deduplicating.
func MergeSets(sets ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, set := range sets {
		for _, word := range set {
			if !seen[word] {
				seen[word] = true
				out = append(out, word)
			}
		}
	}
	sort.Strings(out)
	return out
}
