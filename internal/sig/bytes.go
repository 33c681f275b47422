package sig

import (
	"fmt"
	"strings"

	"github.com/symkeep/symkeep/internal/provider"
)

const (
	// DefaultPatternLength is how many leading native bytes a byte pattern
	// covers by default.
	DefaultPatternLength = 48

	// minPatternLength is the smallest read still worth fingerprinting.
	// Anything shorter fails closed to an empty pattern.
	minPatternLength = 8

	// wildcard marks a byte position expected to change between rebuilds.
	wildcard = "??"
)

// BytePattern reads a method's leading native bytes and renders them as a
// space-separated scan pattern with relocation-sensitive positions wildcarded.
// Any read failure, missing entry point, or read shorter than the minimum
// usable length yields "" — never a partial or misleading pattern.
func BytePattern(sess provider.Session, m provider.Method, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultPatternLength
	}
	entry, ok := m.NativeEntry()
	if !ok {
		return ""
	}
	code, err := sess.ReadMemory(entry, maxLen)
	if err != nil || len(code) < minPatternLength {
		return ""
	}
	return renderPattern(code)
}

// MatchBytePattern re-reads a method's leading bytes and compares them
// token-by-token against a previously generated pattern. Wildcard tokens
// always match; every literal token must match exactly and every pattern
// position must be backed by a readable byte.
func MatchBytePattern(sess provider.Session, m provider.Method, pattern string) bool {
	if pattern == "" {
		return false
	}
	tokens := strings.Fields(pattern)
	entry, ok := m.NativeEntry()
	if !ok {
		return false
	}
	code, err := sess.ReadMemory(entry, len(tokens))
	if err != nil || len(code) < len(tokens) {
		return false
	}
	for i, tok := range tokens {
		if tok == wildcard {
			continue
		}
		if fmt.Sprintf("%02X", code[i]) != tok {
			return false
		}
	}
	return true
}

func renderPattern(code []byte) string {
	mask := MaskRelocations(code)
	tokens := make([]string, len(code))
	for i, b := range code {
		if mask[i] {
			tokens[i] = wildcard
		} else {
			tokens[i] = fmt.Sprintf("%02X", b)
		}
	}
	return strings.Join(tokens, " ")
}

// MaskRelocations flags byte positions that encode relocatable operands and
// therefore differ between two builds of the same logical method.
//
// The table is a best-effort heuristic over a curated x86-64 opcode subset,
// not a disassembler: direct near CALL/JMP, conditional near jumps,
// RIP-relative REX.W ALU/MOV/LEA forms, indirect CALL/JMP through a
// RIP-relative slot, and MOV reg, imm64. Compiler or toolchain variations
// outside this table will under-mask.
func MaskRelocations(code []byte) []bool {
	mask := make([]bool, len(code))
	i := 0
	for i < len(code) {
		switch {
		// E8/E9: CALL/JMP rel32
		case code[i] == 0xE8 || code[i] == 0xE9:
			maskRange(mask, i+1, 4)
			i += 5

		// 0F 80..8F: Jcc rel32
		case code[i] == 0x0F && i+1 < len(code) && code[i+1]&0xF0 == 0x80:
			maskRange(mask, i+2, 4)
			i += 6

		// FF 15 / FF 25: CALL/JMP [rip+disp32]
		case code[i] == 0xFF && i+1 < len(code) && (code[i+1] == 0x15 || code[i+1] == 0x25):
			maskRange(mask, i+2, 4)
			i += 6

		// REX.W prefixed forms
		case code[i]&0xF8 == 0x48 && i+1 < len(code):
			next := code[i+1]
			switch {
			// MOV reg, imm64
			case next >= 0xB8 && next <= 0xBF:
				maskRange(mask, i+2, 8)
				i += 10

			// MOV/LEA/CMP/ADD/SUB/XOR with [rip+disp32] operand
			// (ModRM mod=00, r/m=101)
			case isRIPRelOpcode(next) && i+2 < len(code) && code[i+2]&0xC7 == 0x05:
				maskRange(mask, i+3, 4)
				i += 7

			default:
				i++
			}

		default:
			i++
		}
	}
	return mask
}

// isRIPRelOpcode reports whether op is one of the REX.W instruction forms
// whose ModRM can encode a RIP-relative memory operand that we mask.
func isRIPRelOpcode(op byte) bool {
	switch op {
	case 0x8B, 0x89, // MOV r64,r/m64 | MOV r/m64,r64
		0x8D,       // LEA
		0x3B, 0x39, // CMP
		0x03, 0x01, // ADD
		0x2B, 0x29, // SUB
		0x33, 0x31: // XOR
		return true
	}
	return false
}

func maskRange(mask []bool, start, n int) {
	for i := start; i < start+n && i < len(mask); i++ {
		mask[i] = true
	}
}
