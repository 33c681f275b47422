// Package provider defines the read-only contract symkeep consumes to inspect
// a target runtime's type metadata and native memory. Implementations wrap a
// live reflection bridge or a frozen dump snapshot; symkeep itself never
// touches the target directly.
package provider

import "errors"

// ErrUnreadable is returned by memory primitives when the requested address
// range cannot be read (target unloaded, moved, or not backed by memory at
// all, as with snapshot-based sessions).
var ErrUnreadable = errors.New("provider: memory not readable")

// TypeKind classifies a class handle.
type TypeKind string

const (
	KindClass     TypeKind = "class"
	KindStruct    TypeKind = "struct"
	KindEnum      TypeKind = "enum"
	KindInterface TypeKind = "interface"
)

// ClassFlags carries the modifier bits relevant to fingerprinting.
type ClassFlags struct {
	Sealed   bool
	Abstract bool
	Static   bool
}

// Class is an opaque handle to one type in the target. Handles are scoped to
// the Session that produced them and must not outlive it.
type Class interface {
	Name() string
	Namespace() string
	Module() string
	Kind() TypeKind
	Flags() ClassFlags
	// BaseName returns the base type's name, or "" for root types.
	BaseName() string

	FieldCount() int
	Field(i int) Field
	MethodCount() int
	Method(i int) Method
	PropertyCount() int
	Property(i int) Property
}

// Field is a handle to one field of a class.
type Field interface {
	Name() string
	TypeName() string
	Offset() uint64
	IsStatic() bool
}

// Method is a handle to one method of a class.
type Method interface {
	Name() string
	ReturnType() string
	ParamCount() int
	ParamType(i int) string
	IsStatic() bool
	IsConstructor() bool
	// NativeEntry returns the method's native entry address, or false if the
	// method has no resolvable body (abstract, stripped, or snapshot-backed).
	NativeEntry() (uint64, bool)
}

// Property is a handle to one property of a class. A property has at least
// one accessor.
type Property interface {
	Name() string
	// Getter returns the get accessor, or false if the property is set-only.
	Getter() (Method, bool)
	// Setter returns the set accessor, or false if the property is get-only.
	Setter() (Method, bool)
}

// Session represents one attached target (live process or loaded snapshot).
// All handles obtained through a Session are invalid once it is released.
// Sessions are not safe for concurrent use; callers serialize access.
type Session interface {
	// Modules lists the target's loaded metadata modules by name.
	Modules() []string

	// Classes enumerates all classes declared in the named module.
	Classes(module string) ([]Class, error)

	// FindClass resolves a class by namespace and name across all modules.
	// A miss returns (nil, false), never an error.
	FindClass(namespace, name string) (Class, bool)

	// ReadMemory reads length bytes from the target at address. Short reads
	// are returned as-is; unreadable ranges yield ErrUnreadable.
	ReadMemory(address uint64, length int) ([]byte, error)

	// ModuleBase returns the base address of a native module, or false if
	// the module is not mapped (or the session has no native view).
	ModuleBase(module string) (uint64, bool)
}
