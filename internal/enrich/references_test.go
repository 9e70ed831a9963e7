package enrich

import (
	"testing"

	"github.com/bclonan/ecfr-analyzer/internal/normalize"
)

func section(uid, text string) normalize.Section {
	return normalize.Section{UID: uid, Text: text}
}

func TestCFRVariantsNormalizeToSameTarget(t *testing.T) {
	a := Enrich(section("title40-261-5", "See 40 C.F.R. 261.5 for exclusions."))
	b := Enrich(section("title40-262-10", "Defined in 40 CFR § 261.5 as amended."))
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected one reference each, got %d and %d", len(a), len(b))
	}
	if a[0].Target != b[0].Target {
		t.Fatalf("targets differ: %q vs %q", a[0].Target, b[0].Target)
	}
	if a[0].Target != "40 CFR 261.5" {
		t.Fatalf("unexpected canonical target %q", a[0].Target)
	}
	if a[0].Raw == b[0].Raw {
		t.Fatal("raw spans should preserve the source spelling")
	}
}

func TestAllKindsMatch(t *testing.T) {
	text := "Authority: 42 U.S.C. 6901; Executive Order 12866; Pub. L. 94-580; see 45 FR 33119 and 40 CFR 261.4."
	refs := Enrich(section("s", text))

	kinds := map[string]int{}
	for _, r := range refs {
		kinds[r.Kind]++
	}
	for _, k := range []string{KindCFR, KindUSC, KindFR, KindEO, KindPubL} {
		if kinds[k] == 0 {
			t.Fatalf("no %s reference found in %v", k, refs)
		}
	}
}

func TestDuplicatesArePreserved(t *testing.T) {
	refs := Enrich(section("s", "See 40 CFR 261.5 and again 40 CFR 261.5."))
	var cfr []Reference
	for _, r := range refs {
		if r.Kind == KindCFR {
			cfr = append(cfr, r)
		}
	}
	if len(cfr) != 2 {
		t.Fatalf("expected 2 CFR references, got %d", len(cfr))
	}
	if cfr[0].Position == cfr[1].Position {
		t.Fatal("positions should distinguish duplicate spans")
	}
	if cfr[0].Target != cfr[1].Target {
		t.Fatal("duplicate spans should share a normalized target")
	}
}

func TestNoMatches(t *testing.T) {
	if refs := Enrich(section("s", "Nothing cited here.")); len(refs) != 0 {
		t.Fatalf("expected no references, got %v", refs)
	}
}

func TestExecutiveOrderNormalization(t *testing.T) {
	a := Enrich(section("s1", "Under E.O. 12866 the agency must review."))
	b := Enrich(section("s2", "Under Executive Order 12866 the agency must review."))
	var ta, tb string
	for _, r := range a {
		if r.Kind == KindEO {
			ta = r.Target
		}
	}
	for _, r := range b {
		if r.Kind == KindEO {
			tb = r.Target
		}
	}
	if ta == "" || ta != tb {
		t.Fatalf("EO targets differ: %q vs %q", ta, tb)
	}
}
