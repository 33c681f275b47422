package sig

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/symkeep/symkeep/internal/provider"
)

// SegmentDelim separates the top-level segments of a structural signature.
// Similarity scoring treats a signature as a set of these segments.
const SegmentDelim = "|"

// noneToken marks an absent base type or neighbor inside a segment.
const noneToken = "-"

// GeneratorOptions bounds the per-class fingerprint size. Zero values fall
// back to the defaults below.
type GeneratorOptions struct {
	MaxFieldSegments  int
	MaxMethodGroups   int
	MaxPropertyGroups int
}

const (
	defaultMaxFieldSegments  = 10
	defaultMaxMethodGroups   = 5
	defaultMaxPropertyGroups = 5
)

// Generator derives rebuild-stable structural signatures from class and
// member handles. Signatures depend only on shape (modifiers, normalized
// types, offsets, member distributions), never on obfuscated names.
type Generator struct {
	norm     *Normalizer
	maxField int
	maxMeth  int
	maxProp  int
}

// NewGenerator creates a Generator using the given normalizer.
func NewGenerator(norm *Normalizer, opts GeneratorOptions) *Generator {
	g := &Generator{
		norm:     norm,
		maxField: opts.MaxFieldSegments,
		maxMeth:  opts.MaxMethodGroups,
		maxProp:  opts.MaxPropertyGroups,
	}
	if g.maxField <= 0 {
		g.maxField = defaultMaxFieldSegments
	}
	if g.maxMeth <= 0 {
		g.maxMeth = defaultMaxMethodGroups
	}
	if g.maxProp <= 0 {
		g.maxProp = defaultMaxPropertyGroups
	}
	return g
}

// Normalizer returns the generator's normalizer.
func (g *Generator) Normalizer() *Normalizer { return g.norm }

// ClassSignature builds the Layer A signature for a class:
// header | field fingerprint | method fingerprint | property fingerprint.
func (g *Generator) ClassSignature(c provider.Class) string {
	segments := []string{
		g.headerSegment(c),
		g.fieldSegment(c),
		g.methodSegment(c),
		g.propertySegment(c),
	}
	return strings.Join(segments, SegmentDelim)
}

// headerSegment encodes modifiers, kind and the normalized base type,
// e.g. "sealed:class:MonoBehaviour".
func (g *Generator) headerSegment(c provider.Class) string {
	flags := c.Flags()
	parts := make([]string, 0, 4)
	if flags.Sealed {
		parts = append(parts, "sealed")
	}
	if flags.Abstract {
		parts = append(parts, "abstract")
	}
	parts = append(parts, string(c.Kind()))

	base := c.BaseName()
	if base == "" {
		parts = append(parts, noneToken)
	} else {
		parts = append(parts, g.norm.Normalize(base))
	}
	return strings.Join(parts, ":")
}

// fieldSegment renders the first N non-static fields by offset as
// "type@offset" entries, e.g. "Int32@0x10;Int32@0x18;String@0x20".
func (g *Generator) fieldSegment(c provider.Class) string {
	type slot struct {
		typ    string
		offset uint64
	}
	var slots []slot
	for i := 0; i < c.FieldCount(); i++ {
		f := c.Field(i)
		if f.IsStatic() {
			continue
		}
		slots = append(slots, slot{typ: g.norm.Normalize(f.TypeName()), offset: f.Offset()})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].offset < slots[j].offset })
	if len(slots) > g.maxField {
		slots = slots[:g.maxField]
	}

	entries := make([]string, len(slots))
	for i, s := range slots {
		entries[i] = fmt.Sprintf("%s@0x%X", s.typ, s.offset)
	}
	return strings.Join(entries, ";")
}

// methodSegment groups non-constructor methods by (normalized return type,
// parameter count) and keeps the most frequent groups with their counts.
func (g *Generator) methodSegment(c provider.Class) string {
	counts := make(map[string]int)
	for i := 0; i < c.MethodCount(); i++ {
		m := c.Method(i)
		if m.IsConstructor() {
			continue
		}
		key := fmt.Sprintf("%s(%d)", g.norm.Normalize(m.ReturnType()), m.ParamCount())
		counts[key]++
	}
	return topGroups(counts, g.maxMeth)
}

// propertySegment groups properties by normalized property type and keeps
// the most frequent groups with their counts.
func (g *Generator) propertySegment(c provider.Class) string {
	counts := make(map[string]int)
	for i := 0; i < c.PropertyCount(); i++ {
		t := g.propertyType(c.Property(i))
		if t == "" {
			continue
		}
		counts[t]++
	}
	return topGroups(counts, g.maxProp)
}

// propertyType derives a property's normalized type from its getter return
// type, or the setter's sole parameter when there is no getter.
func (g *Generator) propertyType(p provider.Property) string {
	if getter, ok := p.Getter(); ok {
		return g.norm.Normalize(getter.ReturnType())
	}
	if setter, ok := p.Setter(); ok && setter.ParamCount() > 0 {
		return g.norm.Normalize(setter.ParamType(0))
	}
	return ""
}

// topGroups renders the n most frequent entries of counts as "keyxcount",
// ordered by descending count, then key, for determinism.
func topGroups(counts map[string]int, n int) string {
	type group struct {
		key   string
		count int
	}
	groups := make([]group, 0, len(counts))
	for k, v := range counts {
		groups = append(groups, group{key: k, count: v})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].key < groups[j].key
	})
	if len(groups) > n {
		groups = groups[:n]
	}
	entries := make([]string, len(groups))
	for i, gr := range groups {
		entries[i] = fmt.Sprintf("%sx%d", gr.key, gr.count)
	}
	return strings.Join(entries, ";")
}

// OwnerHash compacts a class signature into the 8-hex-char prefix member
// signatures embed. Any structural change in the owner rolls the hash and
// invalidates every member signature with it.
func OwnerHash(classSignature string) string {
	sum := md5.Sum([]byte(classSignature))
	return hex.EncodeToString(sum[:])[:8]
}

// FieldSignature builds the Layer A signature for one field. Ordinal and
// neighbor context disambiguate fields that share type and static-ness once
// the obfuscated name is unusable.
func (g *Generator) FieldSignature(c provider.Class, f provider.Field) string {
	owner := OwnerHash(g.ClassSignature(c))
	normType := g.norm.Normalize(f.TypeName())

	marker := "i"
	if f.IsStatic() {
		marker = "s"
	}

	// Same-static-ness fields ordered by offset.
	type slot struct {
		name   string
		typ    string
		offset uint64
	}
	var peers []slot
	for i := 0; i < c.FieldCount(); i++ {
		pf := c.Field(i)
		if pf.IsStatic() != f.IsStatic() {
			continue
		}
		peers = append(peers, slot{name: pf.Name(), typ: g.norm.Normalize(pf.TypeName()), offset: pf.Offset()})
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].offset < peers[j].offset })

	pos := -1
	ordinal, sameType := 0, 0
	prev, next := noneToken, noneToken
	for i, p := range peers {
		if p.typ == normType {
			sameType++
		}
		if p.name == f.Name() && p.offset == f.Offset() {
			pos = i
			ordinal = sameType
		}
	}
	if pos > 0 {
		prev = peers[pos-1].typ
	}
	if pos >= 0 && pos < len(peers)-1 {
		next = peers[pos+1].typ
	}

	return strings.Join([]string{
		owner,
		marker,
		normType,
		fmt.Sprintf("0x%X", f.Offset()),
		fmt.Sprintf("%d/%d", ordinal, sameType),
		prev,
		next,
		fmt.Sprintf("%d", c.FieldCount()),
	}, ":")
}

// MethodSignature builds the Layer A signature for one method:
// ownerHash : static marker : normalized return type (param types).
func (g *Generator) MethodSignature(c provider.Class, m provider.Method) string {
	owner := OwnerHash(g.ClassSignature(c))

	marker := "i"
	if m.IsStatic() {
		marker = "s"
	}

	params := make([]string, m.ParamCount())
	for i := range params {
		params[i] = g.norm.Normalize(m.ParamType(i))
	}

	return fmt.Sprintf("%s:%s:%s(%s)", owner, marker,
		g.norm.Normalize(m.ReturnType()), strings.Join(params, ","))
}

// PropertySignature builds the Layer A signature for one property.
func (g *Generator) PropertySignature(c provider.Class, p provider.Property) string {
	owner := OwnerHash(g.ClassSignature(c))
	normType := g.propertyType(p)

	accessors := ""
	getterParams, setterParams := noneToken, noneToken
	if getter, ok := p.Getter(); ok {
		accessors += "g"
		getterParams = fmt.Sprintf("%d", getter.ParamCount())
	}
	if setter, ok := p.Setter(); ok {
		accessors += "s"
		setterParams = fmt.Sprintf("%d", setter.ParamCount())
	}

	// Ordinal among same-type properties and declaration-order neighbors.
	pos := -1
	ordinal, sameType := 0, 0
	prev, next := noneToken, noneToken
	for i := 0; i < c.PropertyCount(); i++ {
		cp := c.Property(i)
		if g.propertyType(cp) == normType {
			sameType++
		}
		if cp.Name() == p.Name() {
			pos = i
			ordinal = sameType
		}
	}
	if pos > 0 {
		prev = g.propertyType(c.Property(pos - 1))
	}
	if pos >= 0 && pos < c.PropertyCount()-1 {
		next = g.propertyType(c.Property(pos + 1))
	}

	return strings.Join([]string{
		owner,
		normType,
		accessors,
		fmt.Sprintf("%d/%d", ordinal, sameType),
		prev,
		next,
		getterParams + "/" + setterParams,
	}, ":")
}
