package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Document is one normalized eCFR title.
type Document struct {
	Title    int
	Name     string
	Sections []Section
	Warnings []string
	Lexical  LexicalStats
}

// LexicalStats are title-level aggregate counts kept on the documents row.
type LexicalStats struct {
	TotalWords    int
	UniqueWords   int
	SentenceCount int
}

// Section is the smallest independently addressable unit of regulatory text.
// UID is a pure function of the heading path so repeated parses of unchanged
// input always produce the same identifier.
type Section struct {
	UID            string
	Title          int
	Part           string
	Number         string
	Heading        string
	ShortTitle     string
	Text           string
	Paragraphs     []Paragraph
	WordCount      int
	SentenceCount  int
	ParagraphCount int
	Digest         string
	Reserved       bool
	Definition     bool
	FRCitations    []string
}

// Paragraph is an ordered child of a Section.
type Paragraph struct {
	UID       string
	Index     int
	Text      string
	WordCount int
	Digest    string
}

// SectionUID derives the stable identifier for a section. When the heading
// path yields a section number the UID depends only on it; otherwise it falls
// back to the containing part plus a positional ordinal within that part.
func SectionUID(title int, number, part string, ordinal int) string {
	if number != "" {
		return fmt.Sprintf("title%d-%s", title, strings.ReplaceAll(number, ".", "-"))
	}
	if part == "" {
		part = "unknown"
	}
	return fmt.Sprintf("title%d-%s-p%d", title, part, ordinal)
}

// ContentDigest hashes the section's effective text: heading plus paragraphs
// in order. Identical input always yields an identical digest.
func ContentDigest(heading string, paragraphs []string) string {
	h := sha256.New()
	h.Write([]byte(heading))
	h.Write([]byte("\n"))
	h.Write([]byte(strings.Join(paragraphs, "\n\n")))
	return hex.EncodeToString(h.Sum(nil))
}

// TextDigest hashes a single normalized text span.
func TextDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
