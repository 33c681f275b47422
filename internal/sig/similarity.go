package sig

import "strings"

// StructuralSimilarity scores how much two structural signatures overlap,
// in [0,1]. Equal signatures score 1.0; an empty signature scores 0.0.
// Otherwise the score is |segments(a) ∩ segments(b)| / max(|a|, |b|),
// by segment membership rather than position, so reordered-but-identical
// segments still count.
func StructuralSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	segsA := strings.Split(a, SegmentDelim)
	segsB := strings.Split(b, SegmentDelim)

	setA := make(map[string]struct{}, len(segsA))
	for _, s := range segsA {
		setA[s] = struct{}{}
	}

	matched := 0
	seen := make(map[string]struct{}, len(segsB))
	for _, s := range segsB {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := setA[s]; ok {
			matched++
		}
	}

	denom := len(segsA)
	if len(segsB) > denom {
		denom = len(segsB)
	}
	return float64(matched) / float64(denom)
}
