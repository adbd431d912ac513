// Package annotation provides the address keyed annotations that drive the
// disassembler: region types, symbols and comments.
package annotation

import (
	"fmt"
	"strings"
)

// Type defines how the bytes at an address are interpreted.
type Type uint8

// region types.
const (
	Code Type = iota
	Byte
	Word
	Dword
	Space
	Text
	TokenList
)

var typeNames = [...]string{
	Code:      "code",
	Byte:      "defb",
	Word:      "defw",
	Dword:     "defd",
	Space:     "defs",
	Text:      "text",
	TokenList: "token",
}

// String returns the persisted name of the type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", t)
}

// ParseType parses a persisted type name, case insensitive.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range typeNames {
		if name == s {
			return Type(i), nil
		}
	}
	return Code, fmt.Errorf("unsupported region type '%s'", s)
}

// Entry is the annotation of a single address.
type Entry struct {
	Address       uint16
	Type          Type
	Symbol        string
	BlockComments []string // printed above the address, in order
	Comment       string   // printed at the comment column of the line
	ArgHint       string
	Param         uint32
	MaxElements   uint32

	// Synthesized entries are not stored but derived from a nearby entry,
	// Origin is the address of the entry the symbol was derived from.
	Synthesized bool
	Origin      uint16
}

// HasSymbol returns whether the entry has a symbol.
func (e Entry) HasSymbol() bool {
	return e.Symbol != ""
}

// HasComments returns whether the entry has a line or block comment.
func (e Entry) HasComments() bool {
	return e.Comment != "" || len(e.BlockComments) > 0
}
