package dump

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Line grammars for the snapshot format. The format is semi-structured text;
// these patterns are line-oriented by design and do not attempt to recover
// from nested braces inside string literals or multi-line declarations.
var (
	dllRe = regexp.MustCompile(`^// Dll : (.+)$`)
	nsRe  = regexp.MustCompile(`^// Namespace: ?(.*)$`)

	typeRe = regexp.MustCompile(
		`^\s*(?:public|private|internal|protected)?\s*((?:static |sealed |abstract )*)(class|struct|interface|enum)\s+([^\s:{/]+)(?:\s*:\s*([^/{]+?))?\s*(?://.*)?$`)

	fieldRe = regexp.MustCompile(
		`^\s*((?:[a-z]+\s+)*)(\S+)\s+([^\s;]+);\s*//\s*0x([0-9A-Fa-f]+)`)

	propertyRe = regexp.MustCompile(
		`^\s*((?:[a-z]+\s+)*)(\S+)\s+(\S+)\s*\{\s*(get;)?\s*(set;)?\s*\}`)

	methodAddrRe = regexp.MustCompile(
		`^\s*// RVA: (-?(?:0x)?[0-9A-Fa-f]+|-1)(?:\s+Offset: \S+)?(?:\s+VA: ((?:0x)?[0-9A-Fa-f]+))?`)

	methodRe = regexp.MustCompile(
		`^\s*((?:[a-z]+\s+)*)(\S+)\s+([^\s(]+)\((.*)\)`)
)

// Section markers inside a type body.
const (
	markerFields     = "// Fields"
	markerProperties = "// Properties"
	markerMethods    = "// Methods"
)

// Index is a fast name→location index over one snapshot file.
type Index struct {
	Path  string
	Types []TypeIndex

	byName map[string][]*TypeIndex
}

// maxLineLen bounds a single snapshot line; generated dumps occasionally
// carry very long attribute or parameter lists.
const maxLineLen = 1024 * 1024

// BuildIndex runs the single linear index pass over a snapshot file,
// recording name, namespace, module, kind, base type, flags and line number
// per type. No member data is parsed in this pass.
func BuildIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	ix := &Index{Path: path}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	var module, namespace string
	depth := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "//") {
			if m := dllRe.FindStringSubmatch(trimmed); m != nil {
				module = strings.TrimSpace(m[1])
			} else if m := nsRe.FindStringSubmatch(trimmed); m != nil {
				namespace = strings.TrimSpace(m[1])
			}
			continue
		}

		if depth == 0 {
			if m := typeRe.FindStringSubmatch(line); m != nil {
				ix.Types = append(ix.Types, newTypeIndex(m, module, namespace, lineNo))
			}
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}
	return ix, nil
}

func newTypeIndex(m []string, module, namespace string, line int) TypeIndex {
	mods := m[1]
	base := ""
	if m[4] != "" {
		// The declaration may list a base type plus interfaces; the first
		// entry is the base.
		base = strings.TrimSpace(strings.SplitN(m[4], ",", 2)[0])
	}
	return TypeIndex{
		Name:      m[3],
		Namespace: namespace,
		Module:    module,
		Kind:      m[2],
		BaseType:  base,
		Line:      line,
		Sealed:    strings.Contains(mods, "sealed"),
		Abstract:  strings.Contains(mods, "abstract"),
		Static:    strings.Contains(mods, "static"),
	}
}

// Count returns the number of indexed types.
func (ix *Index) Count() int { return len(ix.Types) }

// FindByName returns the indexed types with the given short name.
func (ix *Index) FindByName(name string) []*TypeIndex {
	if ix.byName == nil {
		ix.byName = make(map[string][]*TypeIndex, len(ix.Types))
		for i := range ix.Types {
			t := &ix.Types[i]
			ix.byName[t.Name] = append(ix.byName[t.Name], t)
		}
	}
	return ix.byName[name]
}

// Find returns the first indexed type matching namespace and name. An empty
// namespace matches any.
func (ix *Index) Find(namespace, name string) (*TypeIndex, bool) {
	for _, t := range ix.FindByName(name) {
		if namespace == "" || t.Namespace == namespace {
			return t, true
		}
	}
	return nil, false
}

// Modules returns the distinct module names, in first-seen order.
func (ix *Index) Modules() []string {
	var out []string
	seen := make(map[string]struct{})
	for i := range ix.Types {
		mod := ix.Types[i].Module
		if _, ok := seen[mod]; ok {
			continue
		}
		seen[mod] = struct{}{}
		out = append(out, mod)
	}
	return out
}
