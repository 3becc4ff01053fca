// Package boundary screens model responses for behavioral-rule violations
// and provides the correction / safe-redirect fallbacks.
package boundary

import (
	"regexp"
	"strings"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// Rule is one ordered validation check. Match receives the candidate
// response and the user message that prompted it.
type Rule struct {
	Label    string
	Severity Severity
	Match    func(resp, userMsg string) bool
}

// Rules is an ordered rule table evaluated in sequence.
type Rules []Rule

// Validate returns the labels of every triggered rule, each prefixed with
// its severity. Pure and deterministic given the two inputs.
func (rs Rules) Validate(resp, userMsg string) []string {
	var violations []string
	for _, r := range rs {
		if r.Match(resp, userMsg) {
			violations = append(violations, string(r.Severity)+": "+r.Label)
		}
	}
	return violations
}

// HasCritical reports whether any violation carries the CRITICAL prefix.
func HasCritical(violations []string) bool {
	for _, v := range violations {
		if strings.HasPrefix(v, string(SeverityCritical)+":") {
			return true
		}
	}
	return false
}

var (
	reFirstPersonExperience = regexp.MustCompile(`(?i)\bI understand what you'?re going through\b|\bI remember when\b|\bI'?ve experienced\b|\bI went through (that|the same)\b`)
	reMediaEngagement       = regexp.MustCompile(`(?i)\bI (remember|listened to|heard|watched|read|experienced) (that|the|this)\b`)
	reMediaDetail           = regexp.MustCompile(`(?i)\b(the opening track|the closing track|that lyric|the chorus|the bridge|the opening scene|the final scene|chapter \d+|track \d+)\b`)
	reRoleConfusion         = regexp.MustCompile(`(?i)\bas someone who (has|had|experienced|went through)\b`)
	reOverreach             = regexp.MustCompile(`(?i)\byou need to\b|\bI diagnose\b|\bI recommend therapy\b|\byou should see a therapist\b`)
)

// StandardRules is the validator used by the default prompt family.
func StandardRules() Rules {
	return Rules{
		{
			Label:    "first-person experiential claim",
			Severity: SeverityCritical,
			Match: func(resp, _ string) bool {
				return reFirstPersonExperience.MatchString(resp)
			},
		},
		{
			Label:    "claims personal engagement with referenced media",
			Severity: SeverityCritical,
			Match: func(resp, _ string) bool {
				return reMediaEngagement.MatchString(resp)
			},
		},
		{
			Label:    "unverified media detail",
			Severity: SeverityWarning,
			Match:    unverifiedMediaDetail,
		},
		{
			Label:    "role-confusion phrasing",
			Severity: SeverityWarning,
			Match: func(resp, _ string) bool {
				return reRoleConfusion.MatchString(resp)
			},
		},
		{
			Label:    "therapeutic overreach",
			Severity: SeverityWarning,
			Match: func(resp, _ string) bool {
				return reOverreach.MatchString(resp)
			},
		},
	}
}

// unverifiedMediaDetail flags media-detail phrases that do not literally
// appear in the user's own message.
func unverifiedMediaDetail(resp, userMsg string) bool {
	matches := reMediaDetail.FindAllString(resp, -1)
	if len(matches) == 0 {
		return false
	}
	lowerUser := strings.ToLower(userMsg)
	for _, m := range matches {
		if !strings.Contains(lowerUser, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

var reStanceVerb = regexp.MustCompile(`(?i)\bI (have|notice|feel|felt|prefer|tend to|think|believe|sense|remember|find myself)\b|\bI'?ve (noticed|felt|found|seen|experienced)\b`)

// frameworkVocabulary is the analytical vocabulary the strict validator
// expects to see in substantive responses.
var frameworkVocabulary = []string{
	"attachment", "pattern", "dynamic", "framework", "tendency",
	"regulation", "processing", "narrative", "theme",
}

func lacksFrameworkVocabulary(resp string) bool {
	lower := strings.ToLower(resp)
	for _, w := range frameworkVocabulary {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

// StrictRules is the validator used by the fine-tuned prompt family. It
// treats any first-person stance verb as critical and additionally expects
// analytical vocabulary, a question, and bounded length.
func StrictRules(longResponseChars int) Rules {
	return Rules{
		{
			Label:    "first-person stance verb",
			Severity: SeverityCritical,
			Match: func(resp, _ string) bool {
				return reStanceVerb.MatchString(resp)
			},
		},
		{
			Label:    "missing analytical framework vocabulary",
			Severity: SeverityWarning,
			Match: func(resp, _ string) bool {
				return lacksFrameworkVocabulary(resp)
			},
		},
		{
			Label:    "no reflective question",
			Severity: SeverityWarning,
			Match: func(resp, _ string) bool {
				return !strings.Contains(resp, "?")
			},
		},
		{
			Label:    "response exceeds length limit",
			Severity: SeverityWarning,
			Match: func(resp, _ string) bool {
				return longResponseChars > 0 && len(resp) > longResponseChars
			},
		},
	}
}
