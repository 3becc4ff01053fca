// internal/analyzer/document.go
package analyzer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/user/mindloom/internal/types"
)

const (
	excerptChars = 200
	maxKeywords  = 8
)

// stopwords excluded from keyword ranking.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "this": true,
	"with": true, "was": true, "are": true, "not": true, "you": true,
	"but": true, "have": true, "had": true, "has": true, "from": true,
	"they": true, "she": true, "him": true, "her": true,
	"what": true, "when": true, "where": true, "who": true, "will": true,
	"would": true, "there": true, "their": true, "about": true, "which": true,
}

// ExtractDocument derives text statistics from a document upload. HTML is
// converted via html-to-markdown; plain text and markdown pass through.
// Binary formats (pdf, doc, docx, rtf) need an external extraction tool and
// yield a metadata-only analysis here.
func ExtractDocument(name string, data []byte) (*types.DocumentAnalysis, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var text string
	switch ext {
	case ".html", ".htm":
		converted, err := htmltomarkdown.ConvertString(string(data))
		if err != nil {
			return nil, fmt.Errorf("convert html: %w", err)
		}
		text = converted
	case ".txt", ".md":
		text = string(data)
	case ".pdf", ".doc", ".docx", ".rtf":
		return &types.DocumentAnalysis{}, nil
	default:
		return nil, fmt.Errorf("unsupported document type %q", ext)
	}

	words := strings.Fields(text)
	analysis := &types.DocumentAnalysis{
		WordCount: len(words),
		CharCount: len(text),
		Keywords:  topKeywords(words),
	}
	if len(text) > excerptChars {
		// Cut on a rune boundary so the excerpt stays valid UTF-8.
		cut := excerptChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		analysis.Excerpt = text[:cut]
	} else {
		analysis.Excerpt = text
	}
	return analysis, nil
}

func topKeywords(words []string) []string {
	counts := make(map[string]int)
	for _, w := range words {
		w = strings.ToLower(strings.Trim(w, ".,!?;:\"'()[]#*"))
		if len(w) < 3 || stopwords[w] {
			continue
		}
		counts[w]++
	}

	type wordCount struct {
		word  string
		count int
	}
	ranked := make([]wordCount, 0, len(counts))
	for w, n := range counts {
		ranked = append(ranked, wordCount{w, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	var out []string
	for i := 0; i < len(ranked) && i < maxKeywords; i++ {
		out = append(out, ranked[i].word)
	}
	return out
}
