// Package dump indexes frozen metadata snapshots (dump.cs-style text files)
// so the rest of the system can operate without a live target. Indexing is
// two-phase: one linear pass records a lightweight TypeIndex per type, and
// full member detail is parsed lazily per type on demand.
package dump

// TypeKind values mirror the declaration keywords of the snapshot grammar.
const (
	KindClass     = "class"
	KindStruct    = "struct"
	KindEnum      = "enum"
	KindInterface = "interface"
)

// TypeIndex is the lightweight per-type record produced by the index pass.
// It is immutable except for the friendly-name annotation.
type TypeIndex struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
	Module    string `json:"module,omitempty"`
	Kind      string `json:"kind"`
	BaseType  string `json:"base_type,omitempty"`

	// Line is the 1-based line number of the type declaration, used to seek
	// straight to the type body when loading details.
	Line int `json:"line"`

	Sealed   bool `json:"sealed,omitempty"`
	Abstract bool `json:"abstract,omitempty"`
	Static   bool `json:"static,omitempty"`

	// FriendlyName is the optional human-assigned annotation.
	FriendlyName string `json:"friendly_name,omitempty"`
}

// TypeDefinition is the full member detail for one type, parsed on demand
// from the snapshot. It is a disposable view; nothing caches it past the
// lookup that produced it.
type TypeDefinition struct {
	Index      TypeIndex
	Fields     []FieldDefinition
	Properties []PropertyDefinition
	Methods    []MethodDefinition
}

// FieldDefinition describes one field line of the snapshot.
type FieldDefinition struct {
	Name   string
	Type   string
	Offset uint64
	Static bool
}

// PropertyDefinition describes one property line of the snapshot.
type PropertyDefinition struct {
	Name      string
	Type      string
	HasGetter bool
	HasSetter bool
	Static    bool
}

// ParameterDefinition is one parameter of a method declaration.
type ParameterDefinition struct {
	Name string
	Type string
}

// MethodDefinition describes one method block of the snapshot, including the
// RVA/VA addresses from the comment preceding the declaration.
type MethodDefinition struct {
	Name       string
	ReturnType string
	Params     []ParameterDefinition
	Static     bool

	// RVA and VA come from the "// RVA: ... VA: ..." comment. HasAddress is
	// false for methods dumped without a resolvable body.
	RVA        uint64
	VA         uint64
	HasAddress bool
}
