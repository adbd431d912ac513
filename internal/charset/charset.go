// Package charset maps TRS-80 and Colour Genie character codes to Unicode.
package charset

import "strings"

// Mapper converts a machine character code to a Unicode rune.
type Mapper interface {
	ToUnicode(b byte) rune
}

// Latin1 maps every byte to the Unicode code point of the same value.
type Latin1 struct{}

// ToUnicode implements Mapper.
func (Latin1) ToUnicode(b byte) rune {
	return rune(b)
}

// TRS80 maps the 2x3 block graphics 0x80-0xbf to Unicode sextants.
type TRS80 struct{}

// ToUnicode implements Mapper.
func (TRS80) ToUnicode(b byte) rune {
	if b >= 0x80 && b < 0xc0 {
		return sextant(b & 0x3f)
	}
	return rune(b)
}

// ColourGenie maps the block graphics like the TRS-80 and the user definable
// characters 0xc0-0xff to the private use area.
type ColourGenie struct{}

// userDefinedBase is the private use code point of character 0xc0.
const userDefinedBase = 0xe0c0

// ToUnicode implements Mapper.
func (ColourGenie) ToUnicode(b byte) rune {
	if b >= 0xc0 {
		return rune(userDefinedBase + int(b-0xc0))
	}
	return TRS80{}.ToUnicode(b)
}

// ForMachine returns the mapper for a machine name as used by annotation
// files and cassette exports.
func ForMachine(name string) Mapper {
	switch strings.ToLower(name) {
	case "trs80", "trs-80":
		return TRS80{}
	case "eg2000", "cgenie", "colourgenie":
		return ColourGenie{}
	default:
		return Latin1{}
	}
}

// Pixel bit assignment of a graphics character, bit 0 top left to bit 5
// bottom right, matches the numbering of the Unicode sextant block.
const (
	leftColumn  = 0x15
	rightColumn = 0x2a
	allPixels   = 0x3f
)

func sextant(pattern byte) rune {
	switch pattern {
	case 0:
		return ' '
	case leftColumn:
		return '▌'
	case rightColumn:
		return '▐'
	case allPixels:
		return '█'
	}

	// the sextant block skips the patterns that exist as half blocks
	index := int(pattern) - 1
	if pattern > leftColumn {
		index--
	}
	if pattern > rightColumn {
		index--
	}
	return rune(0x1fb00 + index)
}
