package sig

import (
	"github.com/symkeep/symkeep/internal/provider"
)

// Minimal in-memory provider used across the signature tests.

type fakeField struct {
	name   string
	typ    string
	offset uint64
	static bool
}

func (f fakeField) Name() string     { return f.name }
func (f fakeField) TypeName() string { return f.typ }
func (f fakeField) Offset() uint64   { return f.offset }
func (f fakeField) IsStatic() bool   { return f.static }

type fakeMethod struct {
	name     string
	ret      string
	params   []string
	static   bool
	ctor     bool
	entry    uint64
	hasEntry bool
}

func (m fakeMethod) Name() string            { return m.name }
func (m fakeMethod) ReturnType() string      { return m.ret }
func (m fakeMethod) ParamCount() int         { return len(m.params) }
func (m fakeMethod) ParamType(i int) string  { return m.params[i] }
func (m fakeMethod) IsStatic() bool          { return m.static }
func (m fakeMethod) IsConstructor() bool     { return m.ctor }
func (m fakeMethod) NativeEntry() (uint64, bool) { return m.entry, m.hasEntry }

type fakeProperty struct {
	name   string
	getter *fakeMethod
	setter *fakeMethod
}

func (p fakeProperty) Name() string { return p.name }

func (p fakeProperty) Getter() (provider.Method, bool) {
	if p.getter == nil {
		return nil, false
	}
	return *p.getter, true
}

func (p fakeProperty) Setter() (provider.Method, bool) {
	if p.setter == nil {
		return nil, false
	}
	return *p.setter, true
}

type fakeClass struct {
	name    string
	ns      string
	module  string
	base    string
	kind    provider.TypeKind
	flags   provider.ClassFlags
	fields  []fakeField
	methods []fakeMethod
	props   []fakeProperty
}

func (c *fakeClass) Name() string                    { return c.name }
func (c *fakeClass) Namespace() string               { return c.ns }
func (c *fakeClass) Module() string                  { return c.module }
func (c *fakeClass) Kind() provider.TypeKind         { return c.kind }
func (c *fakeClass) Flags() provider.ClassFlags      { return c.flags }
func (c *fakeClass) BaseName() string                { return c.base }
func (c *fakeClass) FieldCount() int                 { return len(c.fields) }
func (c *fakeClass) Field(i int) provider.Field      { return c.fields[i] }
func (c *fakeClass) MethodCount() int                { return len(c.methods) }
func (c *fakeClass) Method(i int) provider.Method    { return c.methods[i] }
func (c *fakeClass) PropertyCount() int              { return len(c.props) }
func (c *fakeClass) Property(i int) provider.Property { return c.props[i] }

type fakeSession struct {
	classes []*fakeClass
	memory  map[uint64][]byte
	bases   map[string]uint64
}

func (s *fakeSession) Modules() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range s.classes {
		if _, ok := seen[c.module]; ok {
			continue
		}
		seen[c.module] = struct{}{}
		out = append(out, c.module)
	}
	return out
}

func (s *fakeSession) Classes(module string) ([]provider.Class, error) {
	var out []provider.Class
	for _, c := range s.classes {
		if c.module == module {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeSession) FindClass(namespace, name string) (provider.Class, bool) {
	for _, c := range s.classes {
		if c.name == name && (namespace == "" || c.ns == namespace) {
			return c, true
		}
	}
	return nil, false
}

func (s *fakeSession) ReadMemory(address uint64, length int) ([]byte, error) {
	buf, ok := s.memory[address]
	if !ok {
		return nil, provider.ErrUnreadable
	}
	if length < len(buf) {
		return buf[:length], nil
	}
	return buf, nil
}

func (s *fakeSession) ModuleBase(module string) (uint64, bool) {
	base, ok := s.bases[module]
	return base, ok
}
