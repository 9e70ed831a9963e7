// Package enrich scans normalized section text for structured citation
// patterns and produces reference edges. It is a pure function of section
// text and carries no cross-section state, so callers may run it for many
// sections in parallel without coordination.
package enrich

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bclonan/ecfr-analyzer/internal/normalize"
)

// Reference kinds, one per rule in the pattern table.
const (
	KindCFR  = "CFR"
	KindUSC  = "USC"
	KindFR   = "FR"
	KindEO   = "EO"
	KindPubL = "PubL"
)

// Reference is a directed edge from a section to a citation target. Identity
// is (section, raw span, position): duplicates within one section are kept
// because citation frequency is meaningful downstream.
type Reference struct {
	SectionUID string
	Kind       string
	Raw        string
	Target     string
	Position   int
}

type rule struct {
	kind      string
	pattern   *regexp.Regexp
	normalize func(m []string) string
}

// The table covers internal cross-references plus statute, executive-order,
// public-law and federal-register citations. The CFR rule accepts the
// punctuation variants found in the corpus ("40 C.F.R. 261.5",
// "40 CFR § 261.5") and maps them to one canonical target.
var rules = []rule{
	{
		kind:    KindCFR,
		pattern: regexp.MustCompile(`(?i)\b(\d+)\s+C\.?\s?F\.?\s?R\.?\s*(?:§+\s*)?(\d+(?:\.\d+)*[a-z\-]*)`),
		normalize: func(m []string) string {
			return fmt.Sprintf("%s CFR %s", m[1], m[2])
		},
	},
	{
		kind:    KindUSC,
		pattern: regexp.MustCompile(`(?i)\b(\d+)\s+U\.?\s?S\.?\s?C\.?\s*(?:§+\s*)?([\w.\-()]+)`),
		normalize: func(m []string) string {
			return fmt.Sprintf("%s USC %s", m[1], m[2])
		},
	},
	{
		kind:    KindFR,
		pattern: regexp.MustCompile(`\b(\d+)\s+FR\s+(\d+)\b`),
		normalize: func(m []string) string {
			return fmt.Sprintf("%s FR %s", m[1], m[2])
		},
	},
	{
		kind:    KindEO,
		pattern: regexp.MustCompile(`(?i)\b(?:Executive\s+Order|E\.?\s?O\.?)\s*(\d{4,})`),
		normalize: func(m []string) string {
			return "EO" + m[1]
		},
	},
	{
		kind:    KindPubL,
		pattern: regexp.MustCompile(`(?i)\bPub\.?\s*L\.?\s*(?:No\.?\s*)?(\d+)[-–](\d+)`),
		normalize: func(m []string) string {
			return fmt.Sprintf("PubL %s-%s", m[1], m[2])
		},
	},
}

// Enrich applies every rule to the section text and returns all matches in
// rule order, then text order. Overlapping matches from different rules are
// all kept: a section legitimately cites several things.
func Enrich(sec normalize.Section) []Reference {
	var out []Reference
	for _, r := range rules {
		idx := r.pattern.FindAllStringSubmatchIndex(sec.Text, -1)
		for _, loc := range idx {
			m := submatches(sec.Text, loc)
			raw := strings.TrimSpace(m[0])
			out = append(out, Reference{
				SectionUID: sec.UID,
				Kind:       r.kind,
				Raw:        raw,
				Target:     r.normalize(m),
				Position:   loc[0],
			})
		}
	}
	return out
}

func submatches(text string, loc []int) []string {
	out := make([]string, 0, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			out = append(out, "")
			continue
		}
		out = append(out, text[loc[i]:loc[i+1]])
	}
	return out
}
