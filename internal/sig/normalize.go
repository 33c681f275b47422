package sig

import (
	"strconv"
	"strings"
)

// placeholder replaces any identifier matching the obfuscation shape so that
// structural signatures stay stable when the obfuscator re-rolls its names.
const placeholder = "?OBF?"

// Normalizer rewrites type names so obfuscated identifiers cannot leak into
// signatures. The obfuscation shape (all-uppercase ASCII, bounded length) is
// configurable per target.
type Normalizer struct {
	minLen int
	maxLen int
}

// NewNormalizer creates a Normalizer for the given obfuscated-name length window.
func NewNormalizer(minLen, maxLen int) *Normalizer {
	return &Normalizer{minLen: minLen, maxLen: maxLen}
}

// IsObfuscated reports whether name matches the obfuscation shape:
// all-uppercase ASCII letters within the configured length window.
func (n *Normalizer) IsObfuscated(name string) bool {
	if len(name) < n.minLen || len(name) > n.maxLen {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 'A' || name[i] > 'Z' {
			return false
		}
	}
	return true
}

// Normalize rewrites a type name for use in a structural signature.
// Obfuscation-shaped names become the placeholder token; array suffixes on
// them are folded into a depth count (T[][] -> ?OBF?[2]). Non-obfuscated
// names pass through with generic arity markers (List`1) stripped.
func (n *Normalizer) Normalize(typeName string) string {
	name := strings.TrimSpace(typeName)
	if name == "" {
		return ""
	}

	depth := 0
	base := name
	for strings.HasSuffix(base, "[]") {
		base = base[:len(base)-2]
		depth++
	}

	if n.IsObfuscated(base) {
		if depth > 0 {
			return placeholder + "[" + strconv.Itoa(depth) + "]"
		}
		return placeholder
	}

	return stripArity(name)
}

// stripArity removes a backtick arity marker (Dictionary`2 -> Dictionary)
// while leaving the rest of the name, including array suffixes, intact.
func stripArity(name string) string {
	i := strings.IndexByte(name, '`')
	if i < 0 {
		return name
	}
	j := i + 1
	for j < len(name) && name[j] >= '0' && name[j] <= '9' {
		j++
	}
	return name[:i] + name[j:]
}
