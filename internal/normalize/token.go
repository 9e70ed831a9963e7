package normalize

import (
	"regexp"
	"strings"
)

// Tokenizer boundary rules are pinned here because every derived metric and
// digest depends on them. Words are maximal alphanumeric runs; sentences are
// the non-empty fragments between terminal punctuation runs.
var (
	wordRE     = regexp.MustCompile(`[A-Za-z0-9]+`)
	sentenceRE = regexp.MustCompile(`[.!?]+`)
	spaceRE    = regexp.MustCompile(`[ \t]+`)
)

// Words returns the lowercased word tokens of text in order.
func Words(text string) []string {
	raw := wordRE.FindAllString(text, -1)
	out := make([]string, len(raw))
	for i, w := range raw {
		out[i] = strings.ToLower(w)
	}
	return out
}

// WordCount counts word tokens without allocating the token slice contents.
func WordCount(text string) int {
	return len(wordRE.FindAllStringIndex(text, -1))
}

// Sentences splits text on terminal punctuation and drops empty fragments.
func Sentences(text string) []string {
	parts := sentenceRE.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

// SentenceCount counts non-empty sentence fragments.
func SentenceCount(text string) int {
	return len(Sentences(text))
}

// CollapseSpace trims and collapses runs of spaces and tabs to single spaces.
func CollapseSpace(s string) string {
	return spaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}
