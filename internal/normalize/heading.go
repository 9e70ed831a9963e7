package normalize

import "regexp"

var (
	headingRE    = regexp.MustCompile(`^§\s*([0-9][0-9A-Za-z.\-]*)\s+(.+?)\s*$`)
	reservedRE   = regexp.MustCompile(`(?i)\[RESERVED\]`)
	definitionRE = regexp.MustCompile(`(?i)\bDefinitions\b`)
	frBlockRE    = regexp.MustCompile(`\[([^\]]+)\]\s*$`)
	frCiteRE     = regexp.MustCompile(`\d+\s+FR\s+\d+`)
)

// SplitHeading separates a section heading like "§ 261.5 Special requirements"
// into its section number and short title. Headings without the citation
// prefix return an empty number and the whole heading as the title.
func SplitHeading(heading string) (number, shortTitle string) {
	m := headingRE.FindStringSubmatch(heading)
	if m == nil {
		return "", heading
	}
	return m[1], m[2]
}

// extractFRCitations pulls Federal Register citations from the trailing
// source-credit block of a section's text, e.g. "[45 FR 33119, May 19, 1980]".
func extractFRCitations(text string) []string {
	m := frBlockRE.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return frCiteRE.FindAllString(m[1], -1)
}
