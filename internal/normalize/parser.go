package normalize

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ErrNoSections reports a document whose structure yielded no addressable
// sections at all. Callers treat it as a structural parse failure for the
// whole document.
var ErrNoSections = errors.New("no sections extracted")

var partHeadRE = regexp.MustCompile(`PART\s+([0-9A-Za-z]+)`)

// Parse walks an eCFR title XML stream top-down and emits normalized
// sections. The walk keys off DIV elements and their TYPE attribute: PART
// divisions set the current grouping context and SECTION divisions become
// Section records. Malformed sub-regions are skipped with a warning; an XML
// stream that breaks after some sections were extracted is returned truncated
// with a warning rather than failing the document.
func Parse(title int, r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	doc := &Document{Title: title}

	var currentPart string
	partPending := false
	fallbackOrdinals := map[string]int{}
	seen := map[string]int{}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(doc.Sections) > 0 {
				doc.Warnings = append(doc.Warnings, fmt.Sprintf("xml stream truncated: %v", err))
				break
			}
			return nil, fmt.Errorf("parse title %d: %w", title, err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if se.Name.Local == "HEAD" {
			head := CollapseSpace(readElementText(dec))
			if doc.Name == "" {
				doc.Name = head
			}
			if partPending {
				if m := partHeadRE.FindStringSubmatch(head); m != nil {
					currentPart = m[1]
				}
				partPending = false
			}
			continue
		}

		if !isDiv(se.Name.Local) {
			continue
		}
		typ, n := divAttrs(se)

		switch {
		case typ == "PART" || (typ == "" && se.Name.Local == "DIV5"):
			currentPart = n
			partPending = n == ""
		case typ == "SECTION" || (typ == "" && se.Name.Local == "DIV8"):
			sec, warn := parseSection(dec, se, title, currentPart, n, fallbackOrdinals)
			if warn != "" {
				doc.Warnings = append(doc.Warnings, warn)
			}
			if sec == nil {
				continue
			}
			if prev, dup := seen[sec.UID]; dup {
				doc.Warnings = append(doc.Warnings, fmt.Sprintf("duplicate section id %s (first at index %d), keeping latest", sec.UID, prev))
				doc.Sections[prev] = *sec
				continue
			}
			seen[sec.UID] = len(doc.Sections)
			doc.Sections = append(doc.Sections, *sec)
		}
	}

	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("parse title %d: %w", title, ErrNoSections)
	}
	doc.Lexical = lexicalStats(doc.Sections)
	return doc, nil
}

// parseSection consumes one SECTION division subtree. It returns a nil
// section with a warning for regions that carry no usable text.
func parseSection(dec *xml.Decoder, start xml.StartElement, title int, part, number string, ordinals map[string]int) (*Section, string) {
	var heading string
	var paragraphs []string
	var residual strings.Builder

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "HEAD":
				heading = CollapseSpace(readElementText(dec))
			case "P", "FP":
				if p := CollapseSpace(readElementText(dec)); p != "" {
					paragraphs = append(paragraphs, p)
				}
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		case xml.CharData:
			if s := strings.TrimSpace(string(t)); s != "" {
				residual.WriteString(s)
				residual.WriteString(" ")
			}
		}
	}

	headNum, shortTitle := SplitHeading(heading)
	if number == "" {
		number = headNum
	}
	if len(paragraphs) == 0 {
		if rest := CollapseSpace(residual.String()); rest != "" {
			paragraphs = []string{rest}
		}
	}
	if heading == "" && len(paragraphs) == 0 {
		return nil, fmt.Sprintf("skipping empty section division in part %q", part)
	}

	ordinal := 0
	if number == "" {
		ordinals[part]++
		ordinal = ordinals[part]
	}
	uid := SectionUID(title, number, part, ordinal)

	text := strings.Join(paragraphs, "\n")
	frText := CollapseSpace(residual.String())
	citations := extractFRCitations(frText)
	if citations == nil {
		citations = extractFRCitations(text)
	}

	sec := &Section{
		UID:            uid,
		Title:          title,
		Part:           part,
		Number:         number,
		Heading:        heading,
		ShortTitle:     shortTitle,
		Text:           text,
		WordCount:      WordCount(text),
		SentenceCount:  SentenceCount(text),
		ParagraphCount: len(paragraphs),
		Digest:         ContentDigest(heading, paragraphs),
		Reserved:       reservedRE.MatchString(heading),
		Definition:     definitionRE.MatchString(heading),
		FRCitations:    citations,
	}
	for i, p := range paragraphs {
		sec.Paragraphs = append(sec.Paragraphs, Paragraph{
			UID:       fmt.Sprintf("%s-par%d", uid, i),
			Index:     i,
			Text:      p,
			WordCount: WordCount(p),
			Digest:    TextDigest(p),
		})
	}
	return sec, ""
}

// readElementText collects the flattened character data of an element,
// descending through nested markup until the matching end tag.
func readElementText(dec *xml.Decoder) string {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(t)
		}
	}
	return b.String()
}

func isDiv(local string) bool {
	return len(local) == 4 && strings.HasPrefix(local, "DIV") && local[3] >= '1' && local[3] <= '9'
}

func divAttrs(se xml.StartElement) (typ, n string) {
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "TYPE":
			typ = a.Value
		case "N":
			n = a.Value
		}
	}
	return typ, n
}

func lexicalStats(sections []Section) LexicalStats {
	uniq := map[string]struct{}{}
	var stats LexicalStats
	for _, s := range sections {
		for _, w := range Words(s.Text) {
			uniq[w] = struct{}{}
			stats.TotalWords++
		}
		stats.SentenceCount += s.SentenceCount
	}
	stats.UniqueWords = len(uniq)
	return stats
}
