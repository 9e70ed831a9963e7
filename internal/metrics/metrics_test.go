package metrics

import (
	"math"
	"testing"

	"github.com/bclonan/ecfr-analyzer/internal/normalize"
)

func makeSection(uid, text string) normalize.Section {
	return normalize.Section{
		UID:            uid,
		Text:           text,
		WordCount:      normalize.WordCount(text),
		SentenceCount:  normalize.SentenceCount(text),
		ParagraphCount: 1,
		Digest:         normalize.TextDigest(text),
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreSectionDeterminism(t *testing.T) {
	sec := makeSection("s1", "The owner shall submit a timely report. Disposal is prohibited near water.")
	a := ScoreSection(sec)
	b := ScoreSection(sec)
	if a != b {
		t.Fatalf("scores differ between runs: %+v vs %+v", a, b)
	}
	if a.Schema != SchemaVersion {
		t.Fatalf("schema version not stamped: %d", a.Schema)
	}
	if a.Digest != sec.Digest {
		t.Fatal("metric must carry the section digest it was computed from")
	}
}

func TestScoreDenominators(t *testing.T) {
	// One fixture exercising every pattern class, with word and sentence
	// counts that differ so a per-word score cannot pass as per-sentence.
	// 21 words, 2 sentences; hits: 2 obligation, 1 prohibitive, 1 ambiguous,
	// 2 feasibility, 2 risk ("hazards" is plural and does not match),
	// 1 small-entity.
	sec := makeSection("s1",
		"The owner shall ensure adequate controls where feasible to limit risk. "+
			"A small business may not create exposure hazards when practicable.")
	m := ScoreSection(sec)
	if m.WordCount != 21 || m.SentenceCount != 2 {
		t.Fatalf("fixture counts drifted: words=%d sentences=%d", m.WordCount, m.SentenceCount)
	}
	perSentence := map[string][2]float64{
		"ERI": {m.ERI, 1.0},
		"DOR": {m.DOR, 0.5},
		"FLI": {m.FLI, 1.0},
		"HVI": {m.HVI, 1.0},
	}
	for name, got := range perSentence {
		if !almostEqual(got[0], got[1]) {
			t.Errorf("%s = %v, want %v (hits / sentences)", name, got[0], got[1])
		}
	}
	if !almostEqual(m.AMR, 1.0/21.0) {
		t.Errorf("AMR = %v, want 1/21 (hits / words)", m.AMR)
	}
	if !almostEqual(m.DRS, 1.0/21.0) {
		t.Errorf("DRS = %v, want 1/21 (hits / words)", m.DRS)
	}
	if !almostEqual(m.PBI, 1.0/3.0) {
		t.Errorf("PBI = %v, want 1/3 (1 prohibitive / (2 obligations + 1))", m.PBI)
	}
}

func TestEmptySectionScoresZero(t *testing.T) {
	m := ScoreSection(makeSection("empty", ""))
	if m.ERI != 0 || m.SOI != 0 || m.FKGrade != 0 {
		t.Fatalf("empty section should score zero: %+v", m)
	}
}

func TestObligationIntensityActorWeighting(t *testing.T) {
	// Same obligation verb, same word count; only the nearby actor differs.
	external := makeSection("ext", "The owner shall maintain records of each shipment made")
	internal := makeSection("int", "The agency shall maintain records of each shipment made")
	none := makeSection("none", "All records shall remain available at the facility gate")

	soiExt := ScoreSection(external).SOI
	soiInt := ScoreSection(internal).SOI
	soiNone := ScoreSection(none).SOI

	if !(soiExt > soiInt) {
		t.Fatalf("external actor should outweigh internal: %v <= %v", soiExt, soiInt)
	}
	if !(soiInt > soiNone) {
		t.Fatalf("internal actor should outweigh no actor: %v <= %v", soiInt, soiNone)
	}
}

func TestObligationIntensityWindowBound(t *testing.T) {
	// The actor sits more than eight tokens away from the obligation verb,
	// so the hit must keep base weight.
	far := "Records shall be kept one two three four five six seven eight nine owner"
	near := "Records shall be kept by the owner at all times"
	secFar := makeSection("far", far)
	secNear := makeSection("near", near)

	wFar := ScoreSection(secFar).SOI * float64(secFar.WordCount)
	wNear := ScoreSection(secNear).SOI * float64(secNear.WordCount)
	if !almostEqual(wFar, weightNoActor) {
		t.Fatalf("distant actor should not affect weight: got %v", wFar)
	}
	if !almostEqual(wNear, weightExternalActor) {
		t.Fatalf("near actor should weight %v, got %v", weightExternalActor, wNear)
	}
}

func TestMayNotCountsAsObligation(t *testing.T) {
	m := ScoreSection(makeSection("s", "A person may not store waste here"))
	if m.SOI == 0 {
		t.Fatal("'may not' should register as an obligation hit")
	}
	plain := ScoreSection(makeSection("s2", "A person may store waste here"))
	if plain.SOI != 0 {
		t.Fatal("bare 'may' must not register as an obligation hit")
	}
}

func TestRollupPartSumsAndMeans(t *testing.T) {
	sections := []SectionMetric{
		{WordCount: 120, ParagraphCount: 3, SentenceCount: 10, SOI: 0.10},
		{WordCount: 80, ParagraphCount: 2, SentenceCount: 6, SOI: 0.05},
		{WordCount: 200, ParagraphCount: 5, SentenceCount: 14, SOI: 0.20},
	}
	pm := RollupPart(40, "261", sections)
	if pm.WordCount != 400 {
		t.Fatalf("WordCount = %d, want 400", pm.WordCount)
	}
	if pm.ParagraphCount != 10 || pm.SentenceCount != 30 {
		t.Fatalf("unexpected sums: %+v", pm)
	}
	want := (0.10 + 0.05 + 0.20) / 3
	if math.Abs(pm.MeanSOI-want) > 1e-4 {
		t.Fatalf("MeanSOI = %v, want %v", pm.MeanSOI, want)
	}
	if pm.SectionCount != 3 {
		t.Fatalf("SectionCount = %d", pm.SectionCount)
	}
}

func TestRollupPartIsPure(t *testing.T) {
	sections := []SectionMetric{{WordCount: 10, SOI: 0.5}}
	a := RollupPart(1, "10", sections)
	b := RollupPart(1, "10", sections)
	if a != b {
		t.Fatalf("rollup not deterministic: %+v vs %+v", a, b)
	}
	empty := RollupPart(1, "10", nil)
	if empty.WordCount != 0 || empty.SectionCount != 0 {
		t.Fatalf("empty rollup should be zero-valued: %+v", empty)
	}
}
