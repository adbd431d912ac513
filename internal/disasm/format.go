package disasm

import (
	"fmt"
	"strings"
)

// formatter renders numbers in assembler notation, small values are
// printed decimal, all others hexadecimal with a leading digit and h suffix.
type formatter struct {
	uppercase bool
}

func (f formatter) hex(v uint64, threshold uint64, digits int) string {
	if v < 10 {
		return fmt.Sprintf("%d", v)
	}
	if v >= threshold {
		digits++
	}
	if f.uppercase {
		return fmt.Sprintf("%0*XH", digits, v)
	}
	return fmt.Sprintf("%0*xh", digits, v)
}

func (f formatter) hexb(v uint8) string {
	return f.hex(uint64(v), 0xa0, 2)
}

func (f formatter) hexw(v uint16) string {
	return f.hex(uint64(v), 0xa000, 4)
}

func (f formatter) hexd(v uint32) string {
	return f.hex(uint64(v), 0xa0000000, 8)
}

func (f formatter) x08(v uint8) string {
	if f.uppercase {
		return fmt.Sprintf("%02X", v)
	}
	return fmt.Sprintf("%02x", v)
}

func (f formatter) x16(v uint16) string {
	if f.uppercase {
		return fmt.Sprintf("%04X", v)
	}
	return fmt.Sprintf("%04x", v)
}

// text converts generated mnemonic and register text to the output case.
func (f formatter) text(s string) string {
	if f.uppercase {
		return strings.ToUpper(s)
	}
	return strings.ToLower(s)
}
