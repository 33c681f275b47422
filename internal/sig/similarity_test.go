package sig

import (
	"math"
	"testing"
)

func TestStructuralSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "a|b|c", "a|b|c", 1.0},
		{"empty left", "", "x", 0.0},
		{"empty right", "x", "", 0.0},
		{"both empty", "", "", 0.0},
		{"no overlap", "a|b", "c|d", 0.0},
		{"partial", "a|b|c", "a|b|d", 2.0 / 3.0},
		{"reordered", "a|b|c", "c|a|b", 1.0},
		{"size mismatch", "a|b", "a|b|c|d", 0.5},
	}
	for _, tc := range cases {
		got := StructuralSimilarity(tc.a, tc.b)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: StructuralSimilarity(%q, %q) = %v, want %v", tc.name, tc.a, tc.b, got, tc.want)
		}
	}
}

func TestStructuralSimilaritySelf(t *testing.T) {
	gen := newTestGenerator()
	s := gen.ClassSignature(sealedBehaviour("AAAAAAAAA"))
	if got := StructuralSimilarity(s, s); got != 1.0 {
		t.Errorf("self-similarity = %v, want 1.0", got)
	}
}

func TestStructuralSimilarityDetectsDrift(t *testing.T) {
	gen := newTestGenerator()
	a := sealedBehaviour("AAAAAAAAA")
	b := sealedBehaviour("AAAAAAAAA")
	b.fields[2].typ = "Single" // one field re-typed

	score := StructuralSimilarity(gen.ClassSignature(a), gen.ClassSignature(b))
	if score >= 1.0 || score <= 0.0 {
		t.Errorf("expected partial similarity, got %v", score)
	}
}
