package dump

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadTypeDetails reopens the snapshot, seeks to the recorded declaration
// line and parses only that type's body, tracking brace depth until the
// matching close. Fields, properties and methods are populated from the
// per-line grammars as their section markers are encountered.
func (ix *Index) LoadTypeDetails(t *TypeIndex) (*TypeDefinition, error) {
	f, err := os.Open(ix.Path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	def := &TypeDefinition{Index: *t}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	lineNo := 0
	depth := 0
	entered := false
	section := ""
	var addr *MethodDefinition // pending address for the next method line

	for scanner.Scan() {
		lineNo++
		if lineNo < t.Line {
			continue
		}
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "//") {
			switch trimmed {
			case markerFields:
				section = "fields"
			case markerProperties:
				section = "properties"
			case markerMethods:
				section = "methods"
			default:
				if m := methodAddrRe.FindStringSubmatch(trimmed); m != nil {
					addr = parseAddress(m)
				}
			}
			continue
		}

		if entered {
			switch section {
			case "fields":
				if fd, ok := parseFieldLine(line); ok {
					def.Fields = append(def.Fields, fd)
				}
			case "properties":
				if pd, ok := parsePropertyLine(line); ok {
					def.Properties = append(def.Properties, pd)
				}
			case "methods":
				if md, ok := parseMethodLine(line); ok {
					if addr != nil {
						md.RVA = addr.RVA
						md.VA = addr.VA
						md.HasAddress = addr.HasAddress
					}
					def.Methods = append(def.Methods, md)
					addr = nil
				}
			}
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if !entered && depth > 0 {
			entered = true
		}
		if entered && depth <= 0 {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}
	if !entered {
		return nil, fmt.Errorf("no type body at line %d", t.Line)
	}
	return def, nil
}

func parseAddress(m []string) *MethodDefinition {
	md := &MethodDefinition{}
	if m[1] == "-1" {
		return md
	}
	rva, errRVA := parseHex(m[1])
	md.RVA = rva
	if m[2] != "" {
		if va, err := parseHex(m[2]); err == nil {
			md.VA = va
			md.HasAddress = errRVA == nil
		}
	}
	return md
}

func parseFieldLine(line string) (FieldDefinition, bool) {
	m := fieldRe.FindStringSubmatch(line)
	if m == nil {
		return FieldDefinition{}, false
	}
	offset, err := strconv.ParseUint(m[4], 16, 64)
	if err != nil {
		return FieldDefinition{}, false
	}
	return FieldDefinition{
		Name:   m[3],
		Type:   m[2],
		Offset: offset,
		Static: strings.Contains(m[1], "static") || strings.Contains(m[1], "const"),
	}, true
}

func parsePropertyLine(line string) (PropertyDefinition, bool) {
	m := propertyRe.FindStringSubmatch(line)
	if m == nil {
		return PropertyDefinition{}, false
	}
	return PropertyDefinition{
		Name:      m[3],
		Type:      m[2],
		HasGetter: m[4] != "",
		HasSetter: m[5] != "",
		Static:    strings.Contains(m[1], "static"),
	}, true
}

func parseMethodLine(line string) (MethodDefinition, bool) {
	m := methodRe.FindStringSubmatch(line)
	if m == nil {
		return MethodDefinition{}, false
	}
	return MethodDefinition{
		Name:       m[3],
		ReturnType: m[2],
		Params:     parseParams(m[4]),
		Static:     strings.Contains(m[1], "static"),
	}, true
}

// parseParams splits a parameter list on top-level commas. Commas inside
// generic argument lists are not special-cased; that is a known limitation
// of the line-oriented grammar.
func parseParams(s string) []ParameterDefinition {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	params := make([]ParameterDefinition, 0, len(parts))
	for _, p := range parts {
		words := strings.Fields(p)
		if len(words) == 0 {
			continue
		}
		param := ParameterDefinition{Type: words[0]}
		if len(words) > 1 {
			// Drop leading modifiers (ref/out/in/params).
			typeIdx := 0
			for typeIdx < len(words)-1 && isParamModifier(words[typeIdx]) {
				typeIdx++
			}
			param.Type = words[typeIdx]
			param.Name = words[len(words)-1]
		}
		params = append(params, param)
	}
	return params
}

func isParamModifier(w string) bool {
	switch w {
	case "ref", "out", "in", "params", "this":
		return true
	}
	return false
}

func parseHex(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}
