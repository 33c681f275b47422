package dump

import (
	"github.com/symkeep/symkeep/internal/provider"
)

// Session adapts a built Index to the provider contract so signatures can be
// generated and verified against a frozen snapshot instead of a live target.
//
// A snapshot has no native memory, so ReadMemory always fails and byte
// patterns come back empty. Method addresses and module bases are recovered
// from the RVA/VA comments, which keeps RVA hints working offline.
type Session struct {
	ix *Index

	details map[int]*TypeDefinition // keyed by declaration line
	bases   map[string]uint64
}

// NewSession wraps an index in a provider session.
func NewSession(ix *Index) *Session {
	return &Session{
		ix:      ix,
		details: make(map[int]*TypeDefinition),
		bases:   make(map[string]uint64),
	}
}

// Modules lists the snapshot's modules.
func (s *Session) Modules() []string { return s.ix.Modules() }

// Classes enumerates the classes of one module. Member detail is parsed
// lazily when a class handle is first inspected.
func (s *Session) Classes(module string) ([]provider.Class, error) {
	var out []provider.Class
	for i := range s.ix.Types {
		t := &s.ix.Types[i]
		if t.Module == module {
			out = append(out, &snapshotClass{sess: s, t: t})
		}
	}
	return out, nil
}

// FindClass resolves a class by namespace and name.
func (s *Session) FindClass(namespace, name string) (provider.Class, bool) {
	t, ok := s.ix.Find(namespace, name)
	if !ok {
		return nil, false
	}
	return &snapshotClass{sess: s, t: t}, true
}

// ReadMemory always fails: a snapshot carries no native bytes.
func (s *Session) ReadMemory(address uint64, length int) ([]byte, error) {
	return nil, provider.ErrUnreadable
}

// ModuleBase derives a module's base address from the first method carrying
// both an RVA and a VA (base = VA - RVA).
func (s *Session) ModuleBase(module string) (uint64, bool) {
	if base, ok := s.bases[module]; ok {
		return base, true
	}
	for i := range s.ix.Types {
		t := &s.ix.Types[i]
		if t.Module != module {
			continue
		}
		def := s.load(t)
		if def == nil {
			continue
		}
		for _, m := range def.Methods {
			if m.HasAddress && m.VA >= m.RVA {
				base := m.VA - m.RVA
				s.bases[module] = base
				return base, true
			}
		}
	}
	return 0, false
}

// load parses (and memoizes) a type's detail. Parse failures degrade to an
// empty definition so class handles stay usable.
func (s *Session) load(t *TypeIndex) *TypeDefinition {
	if def, ok := s.details[t.Line]; ok {
		return def
	}
	def, err := s.ix.LoadTypeDetails(t)
	if err != nil {
		def = &TypeDefinition{Index: *t}
	}
	s.details[t.Line] = def
	return def
}

// snapshotClass implements provider.Class over a TypeIndex.
type snapshotClass struct {
	sess *Session
	t    *TypeIndex
	def  *TypeDefinition
}

func (c *snapshotClass) detail() *TypeDefinition {
	if c.def == nil {
		c.def = c.sess.load(c.t)
	}
	return c.def
}

func (c *snapshotClass) Name() string      { return c.t.Name }
func (c *snapshotClass) Namespace() string { return c.t.Namespace }
func (c *snapshotClass) Module() string    { return c.t.Module }
func (c *snapshotClass) BaseName() string  { return c.t.BaseType }

func (c *snapshotClass) Kind() provider.TypeKind {
	switch c.t.Kind {
	case KindStruct:
		return provider.KindStruct
	case KindEnum:
		return provider.KindEnum
	case KindInterface:
		return provider.KindInterface
	}
	return provider.KindClass
}

func (c *snapshotClass) Flags() provider.ClassFlags {
	return provider.ClassFlags{
		Sealed:   c.t.Sealed,
		Abstract: c.t.Abstract,
		Static:   c.t.Static,
	}
}

func (c *snapshotClass) FieldCount() int { return len(c.detail().Fields) }

func (c *snapshotClass) Field(i int) provider.Field {
	return snapshotField{f: c.detail().Fields[i]}
}

func (c *snapshotClass) MethodCount() int { return len(c.detail().Methods) }

func (c *snapshotClass) Method(i int) provider.Method {
	return snapshotMethod{m: c.detail().Methods[i]}
}

func (c *snapshotClass) PropertyCount() int { return len(c.detail().Properties) }

func (c *snapshotClass) Property(i int) provider.Property {
	return snapshotProperty{p: c.detail().Properties[i]}
}

type snapshotField struct{ f FieldDefinition }

func (f snapshotField) Name() string     { return f.f.Name }
func (f snapshotField) TypeName() string { return f.f.Type }
func (f snapshotField) Offset() uint64   { return f.f.Offset }
func (f snapshotField) IsStatic() bool   { return f.f.Static }

type snapshotMethod struct{ m MethodDefinition }

func (m snapshotMethod) Name() string        { return m.m.Name }
func (m snapshotMethod) ReturnType() string  { return m.m.ReturnType }
func (m snapshotMethod) ParamCount() int     { return len(m.m.Params) }
func (m snapshotMethod) ParamType(i int) string { return m.m.Params[i].Type }
func (m snapshotMethod) IsStatic() bool      { return m.m.Static }

func (m snapshotMethod) IsConstructor() bool {
	return m.m.Name == ".ctor" || m.m.Name == ".cctor"
}

func (m snapshotMethod) NativeEntry() (uint64, bool) {
	if !m.m.HasAddress {
		return 0, false
	}
	return m.m.VA, true
}

// snapshotProperty synthesizes accessor handles from the property line; the
// snapshot's accessor methods carry obfuscated names that are useless here.
type snapshotProperty struct{ p PropertyDefinition }

func (p snapshotProperty) Name() string { return p.p.Name }

func (p snapshotProperty) Getter() (provider.Method, bool) {
	if !p.p.HasGetter {
		return nil, false
	}
	return snapshotMethod{m: MethodDefinition{
		Name:       "get_" + p.p.Name,
		ReturnType: p.p.Type,
		Static:     p.p.Static,
	}}, true
}

func (p snapshotProperty) Setter() (provider.Method, bool) {
	if !p.p.HasSetter {
		return nil, false
	}
	return snapshotMethod{m: MethodDefinition{
		Name:       "set_" + p.p.Name,
		ReturnType: "Void",
		Params:     []ParameterDefinition{{Name: "value", Type: p.p.Type}},
		Static:     p.p.Static,
	}}, true
}
