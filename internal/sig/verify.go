package sig

import (
	"context"

	"github.com/symkeep/symkeep/internal/mapping"
	"github.com/symkeep/symkeep/internal/provider"
)

// Outcome classifies what a verification sweep concluded for one mapping.
type Outcome string

const (
	// OutcomeOK: the symbol still resolves and its structure matches.
	OutcomeOK Outcome = "ok"
	// OutcomeRenamed: the old obfuscated name is gone but the signature
	// re-identified the symbol; the mapping was re-pointed at the new name.
	OutcomeRenamed Outcome = "renamed"
	// OutcomeFlagged: the symbol resolves but its structure drifted below
	// the acceptance threshold; the similarity was recorded as the score.
	OutcomeFlagged Outcome = "flagged"
	// OutcomeMissing: neither name nor signature resolves the symbol.
	OutcomeMissing Outcome = "missing"
)

// ItemResult is the sweep's verdict for one mapping.
type ItemResult struct {
	Signature    string
	FriendlyName string
	Outcome      Outcome
	Similarity   float64
}

// Result aggregates a verification sweep.
type Result struct {
	Checked int
	OK      int
	Renamed int
	Flagged int
	Missing int
	Items   []ItemResult
}

// Verifier re-checks every stored mapping against a live (or snapshot)
// session: it recomputes the structural signature of the symbol the stored
// obfuscated name currently resolves to and scores the drift. Mappings below
// the threshold are flagged for human review, never auto-corrected or
// discarded. Mappings whose name no longer resolves are re-discovered by
// exact signature match and re-pointed at the new obfuscated name.
type Verifier struct {
	gen       *Generator
	store     *mapping.Store
	threshold float64
	skipNS    func(string) bool
}

// NewVerifier creates a Verifier. skipNamespace may be nil; when set it
// excludes framework namespaces from signature re-discovery scans.
func NewVerifier(gen *Generator, store *mapping.Store, threshold float64, skipNamespace func(string) bool) *Verifier {
	if skipNamespace == nil {
		skipNamespace = func(string) bool { return false }
	}
	return &Verifier{gen: gen, store: store, threshold: threshold, skipNS: skipNamespace}
}

// Run sweeps every stored mapping. The sweep honors ctx between mappings and
// returns the partial result with ctx's error when canceled. progress may be
// nil; otherwise it is called after each mapping.
func (v *Verifier) Run(ctx context.Context, sess provider.Session, progress func(done, total int)) (*Result, error) {
	// Types first: a renamed type retargets its member records, so members
	// must be verified against the refreshed parent names.
	var all []mapping.Mapping
	var members []mapping.Mapping
	for _, m := range v.store.All() {
		if m.Kind == mapping.KindType {
			all = append(all, m)
		} else {
			members = append(members, m)
		}
	}
	all = append(all, members...)

	result := &Result{}

	classes := v.collectClasses(sess)
	byName := make(map[string]provider.Class, len(classes))
	for _, c := range classes {
		byName[c.Name()] = c
	}

	for i, m := range all {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if m.Kind != mapping.KindType {
			// The parent may have been retargeted earlier in this sweep.
			if cur, ok := v.store.BySignature(m.Signature); ok {
				m = cur
			}
		}
		item := v.verifyOne(sess, classes, byName, m)
		result.Items = append(result.Items, item)
		result.Checked++
		switch item.Outcome {
		case OutcomeOK:
			result.OK++
		case OutcomeRenamed:
			result.Renamed++
		case OutcomeFlagged:
			result.Flagged++
		case OutcomeMissing:
			result.Missing++
		}

		if progress != nil {
			progress(i+1, len(all))
		}
	}
	return result, nil
}

func (v *Verifier) verifyOne(sess provider.Session, classes []provider.Class, byName map[string]provider.Class, m mapping.Mapping) ItemResult {
	item := ItemResult{Signature: m.Signature, FriendlyName: m.FriendlyName}

	if m.Kind == mapping.KindType {
		return v.verifyType(sess, classes, m, item)
	}
	return v.verifyMember(byName, m, item)
}

func (v *Verifier) verifyType(sess provider.Session, classes []provider.Class, m mapping.Mapping, item ItemResult) ItemResult {
	if c, ok := sess.FindClass(m.Namespace, m.ObfuscatedName); ok {
		live := v.gen.ClassSignature(c)
		return v.score(m, live, item)
	}

	// Name is gone; try to re-discover the type by exact signature.
	for _, c := range classes {
		if v.gen.ClassSignature(c) == m.Signature {
			v.store.UpdateObfuscatedName(m.Signature, c.Name(), 1.0)
			v.store.RetargetMembers(m.ObfuscatedName, c.Name())
			item.Outcome = OutcomeRenamed
			item.Similarity = 1.0
			return item
		}
	}
	item.Outcome = OutcomeMissing
	return item
}

func (v *Verifier) verifyMember(byName map[string]provider.Class, m mapping.Mapping, item ItemResult) ItemResult {
	parent, ok := byName[m.ParentType]
	if !ok {
		item.Outcome = OutcomeMissing
		return item
	}

	if live, found := v.liveMemberSignature(parent, m); found {
		return v.score(m, live, item)
	}

	// Member name gone: re-discover by signature among the parent's members
	// of the same kind.
	if name, found := v.rediscoverMember(parent, m); found {
		v.store.UpdateObfuscatedName(m.Signature, name, 1.0)
		item.Outcome = OutcomeRenamed
		item.Similarity = 1.0
		return item
	}
	item.Outcome = OutcomeMissing
	return item
}

// liveMemberSignature recomputes the signature for the member the stored
// obfuscated name currently resolves to inside parent.
func (v *Verifier) liveMemberSignature(parent provider.Class, m mapping.Mapping) (string, bool) {
	switch m.Kind {
	case mapping.KindField:
		for i := 0; i < parent.FieldCount(); i++ {
			if f := parent.Field(i); f.Name() == m.ObfuscatedName {
				return v.gen.FieldSignature(parent, f), true
			}
		}
	case mapping.KindMethod:
		for i := 0; i < parent.MethodCount(); i++ {
			if mm := parent.Method(i); mm.Name() == m.ObfuscatedName {
				return v.gen.MethodSignature(parent, mm), true
			}
		}
	case mapping.KindProperty:
		for i := 0; i < parent.PropertyCount(); i++ {
			if p := parent.Property(i); p.Name() == m.ObfuscatedName {
				return v.gen.PropertySignature(parent, p), true
			}
		}
	}
	return "", false
}

func (v *Verifier) rediscoverMember(parent provider.Class, m mapping.Mapping) (string, bool) {
	switch m.Kind {
	case mapping.KindField:
		for i := 0; i < parent.FieldCount(); i++ {
			if f := parent.Field(i); v.gen.FieldSignature(parent, f) == m.Signature {
				return f.Name(), true
			}
		}
	case mapping.KindMethod:
		for i := 0; i < parent.MethodCount(); i++ {
			if mm := parent.Method(i); v.gen.MethodSignature(parent, mm) == m.Signature {
				return mm.Name(), true
			}
		}
	case mapping.KindProperty:
		for i := 0; i < parent.PropertyCount(); i++ {
			if p := parent.Property(i); v.gen.PropertySignature(parent, p) == m.Signature {
				return p.Name(), true
			}
		}
	}
	return "", false
}

// score compares a stored signature against the freshly computed one and
// records the verdict on the mapping.
func (v *Verifier) score(m mapping.Mapping, live string, item ItemResult) ItemResult {
	similarity := StructuralSimilarity(m.Signature, live)
	item.Similarity = similarity
	if similarity < v.threshold {
		v.store.SetScore(m.Signature, similarity)
		item.Outcome = OutcomeFlagged
		return item
	}
	v.store.SetScore(m.Signature, 1.0)
	item.Outcome = OutcomeOK
	return item
}

// collectClasses enumerates every class in the session outside skipped
// namespaces, for signature re-discovery.
func (v *Verifier) collectClasses(sess provider.Session) []provider.Class {
	var out []provider.Class
	for _, mod := range sess.Modules() {
		classes, err := sess.Classes(mod)
		if err != nil {
			continue
		}
		for _, c := range classes {
			if v.skipNS(c.Namespace()) {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}
