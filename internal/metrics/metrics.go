// Package metrics computes per-section analytic scores and part-level
// rollups. Every score is a pure function of section text and the fixed
// pattern tables below; recomputation is deterministic and side-effect free.
package metrics

import (
	"regexp"

	"github.com/bclonan/ecfr-analyzer/internal/normalize"
)

// SchemaVersion is stored on every metric row. Bump it when a score
// definition or pattern table changes so stale rows are recomputed wholesale.
const SchemaVersion = 2

// Lexical pattern classes. The denominator for each score is fixed and must
// not vary between runs.
var (
	obligationRE  = regexp.MustCompile(`(?i)\b(shall not|may not|shall|must|prohibited|required)\b`)
	prohibitiveRE = regexp.MustCompile(`(?i)\b(may not|shall not|prohibited|ban|forbidden)\b`)
	ambiguousRE   = regexp.MustCompile(`(?i)\b(reasonable|adequate|appropriate|sufficient|timely)\b`)
	feasibilityRE = regexp.MustCompile(`(?i)\b(feasible|practicable|possible)\b`)
	riskRE        = regexp.MustCompile(`(?i)\b(risk|hazard|exposure|threat)\b`)
	smallEntityRE = regexp.MustCompile(`(?i)\b(small entity|small business|micro entity)\b`)
	alphaRE       = regexp.MustCompile(`[A-Za-z]+`)
	vowelGroupRE  = regexp.MustCompile(`[aeiouy]+`)
)

// Actor vocabularies for the positionally weighted obligation score. An
// obligation hit near an external actor weighs more than one near an
// internal/procedural actor; a hit with no actor in the window keeps base
// weight.
var (
	externalActors = tokenSet("person", "owner", "operator", "applicant", "employer", "manufacturer", "generator", "permittee")
	internalActors = tokenSet("administrator", "agency", "secretary", "director", "commission", "department")
)

const (
	actorWindow         = 8
	weightExternalActor = 1.5
	weightInternalActor = 1.1
	weightNoActor       = 1.0
)

// SectionMetric is one metric row per section per schema version. Rows are
// recomputed wholesale when the section digest or schema version changes,
// never patched field by field.
type SectionMetric struct {
	SectionUID     string
	Digest         string
	Schema         int
	WordCount      int
	ParagraphCount int
	SentenceCount  int

	// Density scores. Denominators: ERI, DOR, FLI, HVI per sentence;
	// AMR, DRS, SOI per word; PBI prohibitive per obligation.
	ERI     float64
	DOR     float64
	PBI     float64
	AMR     float64
	FLI     float64
	HVI     float64
	DRS     float64
	SOI     float64
	FKGrade float64
}

// ScoreSection computes the full score set for one section.
func ScoreSection(sec normalize.Section) SectionMetric {
	text := sec.Text
	words := sec.WordCount
	sentences := sec.SentenceCount
	paragraphs := sec.ParagraphCount

	obligations := len(obligationRE.FindAllString(text, -1))
	prohibitive := len(prohibitiveRE.FindAllString(text, -1))

	return SectionMetric{
		SectionUID:     sec.UID,
		Digest:         sec.Digest,
		Schema:         SchemaVersion,
		WordCount:      words,
		ParagraphCount: paragraphs,
		SentenceCount:  sentences,
		ERI:            ratio(obligations, sentences),
		DOR:            ratio(prohibitive, sentences),
		PBI:            float64(prohibitive) / float64(obligations+1),
		AMR:            ratio(len(ambiguousRE.FindAllString(text, -1)), words),
		FLI:            ratio(len(feasibilityRE.FindAllString(text, -1)), sentences),
		HVI:            ratio(len(riskRE.FindAllString(text, -1)), sentences),
		DRS:            ratio(len(smallEntityRE.FindAllString(text, -1)), words),
		SOI:            obligationIntensity(text, words),
		FKGrade:        fleschKincaidGrade(text),
	}
}

// obligationIntensity is the semantic obligation intensity score: each
// obligation-pattern hit is weighted by actor proximity within a fixed token
// window, then the weight sum is normalized by word count.
func obligationIntensity(text string, wordCount int) float64 {
	if wordCount == 0 {
		return 0
	}
	tokens := normalize.Words(text)
	var sum float64
	for i, tok := range tokens {
		switch tok {
		case "shall", "must", "prohibited", "required":
		case "may":
			if i+1 >= len(tokens) || tokens[i+1] != "not" {
				continue
			}
		default:
			continue
		}
		sum += actorWeight(tokens, i)
	}
	return sum / float64(wordCount)
}

func actorWeight(tokens []string, hit int) float64 {
	lo := hit - actorWindow
	if lo < 0 {
		lo = 0
	}
	hi := hit + actorWindow
	if hi >= len(tokens) {
		hi = len(tokens) - 1
	}
	weight := weightNoActor
	for i := lo; i <= hi; i++ {
		if externalActors[tokens[i]] {
			return weightExternalActor
		}
		if internalActors[tokens[i]] {
			weight = weightInternalActor
		}
	}
	return weight
}

// fleschKincaidGrade uses the standard grade formula with a naive
// vowel-group syllable estimate.
func fleschKincaidGrade(text string) float64 {
	words := alphaRE.FindAllString(text, -1)
	if len(words) == 0 {
		return 0
	}
	sentences := normalize.SentenceCount(text)
	if sentences == 0 {
		return 0
	}
	syllables := 0
	for _, w := range words {
		n := len(vowelGroupRE.FindAllString(w, -1))
		if n < 1 {
			n = 1
		}
		syllables += n
	}
	w := float64(len(words))
	s := float64(sentences)
	return 0.39*(w/s) + 11.8*(float64(syllables)/w) - 15.59
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func tokenSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
