// internal/boundary/correct.go
package boundary

import "regexp"

// substitution rewrites one forbidden first-person construction into
// observational phrasing.
type substitution struct {
	re          *regexp.Regexp
	replacement string
}

var substitutions = []substitution{
	{regexp.MustCompile(`(?i)\bI understand what you'?re going through\b`), "that sounds like a lot to carry"},
	{regexp.MustCompile(`(?i)\bI remember when\b`), "it sounds like there was a time when"},
	{regexp.MustCompile(`(?i)\bI'?ve experienced\b`), "many people experience"},
	{regexp.MustCompile(`(?i)\bI went through (that|the same)\b`), "others have gone through something similar"},
	{regexp.MustCompile(`(?i)\bI (remember|experienced) (that|the|this)\b`), "you mentioned $2"},
	{regexp.MustCompile(`(?i)\bI (listened to|heard) (that|the|this)\b`), "you described $2"},
	{regexp.MustCompile(`(?i)\bI (watched|read) (that|the|this)\b`), "you brought up $2"},
	{regexp.MustCompile(`(?i)\bas someone who (has|had|experienced|went through)\b`), "speaking generally about people who $1"},
}

// Correct rewrites first-person experiential claims in resp into
// observational phrasing. It is a best-effort pass; callers re-validate the
// result and fall back to a safe redirect when critical flags remain.
func Correct(resp string) string {
	out := resp
	for _, s := range substitutions {
		out = s.re.ReplaceAllString(out, s.replacement)
	}
	return out
}
