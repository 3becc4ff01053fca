// internal/boundary/redirect.go
package boundary

import "strings"

// redirectRoute keys a canned redirect on substrings of the user message.
// Routes are checked in order; the first match wins.
type redirectRoute struct {
	keywords []string
	response string
}

var redirectRoutes = []redirectRoute{
	{
		keywords: []string{"music", "album", "song"},
		response: "I can't speak to the music itself, but I'm curious what it stirs up for you. What do you notice in yourself when you listen to it?",
	},
	{
		keywords: []string{"creative", "art"},
		response: "Rather than judging the work, let's look at what making it means to you. What part of yourself shows up in your creative process?",
	},
	{
		keywords: []string{"childhood", "family"},
		response: "Formative experiences tend to leave patterns that persist. What from that time feels most present for you now?",
	},
	{
		keywords: []string{"attachment", "relationship"},
		response: "The way we connect with others often follows an old template. How would you describe the pattern you notice in your close relationships?",
	},
	{
		keywords: []string{"trauma", "difficult"},
		response: "That sounds heavy, and it deserves care. What would feel like a safe place to start exploring it?",
	},
}

const genericRedirect = "Let's refocus on your experience. What stands out to you most about what you just shared?"

// SafeRedirect picks a canned redirect string for a flagged response, keyed
// by simple substring tests on the user message. Always returns a non-empty
// string.
func SafeRedirect(userMsg string) string {
	lower := strings.ToLower(userMsg)
	for _, route := range redirectRoutes {
		for _, kw := range route.keywords {
			if strings.Contains(lower, kw) {
				return route.response
			}
		}
	}
	return genericRedirect
}
