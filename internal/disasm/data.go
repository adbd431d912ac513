package disasm

import (
	"strconv"
	"strings"

	"github.com/retroenv/cass80/internal/annotation"
	"github.com/retroenv/cass80/internal/z80"
)

func (d *Disasm) decodeByte(mem *Memory, pc uint16) Instruction {
	return Instruction{
		Size: 1,
		Text: d.instruction(z80.DEFB, d.hexb(mem[pc])),
	}
}

func (d *Disasm) decodeWord(mem *Memory, pc uint16) Instruction {
	r := &memoryReader{mem: mem, pc: pc}
	return Instruction{
		Size: 2,
		Text: d.instruction(z80.DEFW, d.symbol(r.word())),
	}
}

func (d *Disasm) decodeDword(mem *Memory, pc uint16) Instruction {
	r := &memoryReader{mem: mem, pc: pc}
	lo := r.word()
	hi := r.word()
	return Instruction{
		Size: 4,
		Text: d.instruction(z80.DEFD, d.hexd(uint32(hi)<<16|uint32(lo))),
	}
}

// decodeSpace collapses a run of identical bytes into one fill directive.
// The run ends at the next annotated address.
func (d *Disasm) decodeSpace(mem *Memory, pc uint16) Instruction {
	value := mem[pc]
	size := 1
	for address := int(pc) + 1; address < MemorySize; address++ {
		if mem[address] != value || d.store.Has(uint16(address)) {
			break
		}
		size++
	}

	operands := strconv.Itoa(size)
	if value != 0 {
		operands += "," + d.hexb(value)
	}
	return Instruction{
		Size: size,
		Text: d.instruction(z80.DEFS, operands),
	}
}

// decodeText decodes a text string up to and including a zero byte.
func (d *Disasm) decodeText(mem *Memory, pc uint16) Instruction {
	s := &stringDirective{d: d}
	size := 0
	for {
		b := mem[int(pc)+size]
		size++
		s.char(b)

		if b == 0 || d.endOfRegion(pc, size, annotation.Text) {
			break
		}
	}

	return Instruction{
		Size: size,
		Text: d.instruction(z80.DEFM, s.String()),
	}
}

// decodeTokenList decodes a keyword of a token table, the first character
// of each keyword has the highest bit set.
func (d *Disasm) decodeTokenList(mem *Memory, pc uint16) Instruction {
	s := &stringDirective{d: d}
	size := 0
	for {
		b := mem[int(pc)+size]
		size++

		if b&0x80 != 0 {
			s.token(b)
		} else {
			s.char(b)
		}

		if d.endOfRegion(pc, size, annotation.TokenList) || mem[int(pc)+size]&0x80 != 0 {
			break
		}
	}

	return Instruction{
		Size: size,
		Text: d.instruction(z80.DEFM, s.String()),
	}
}

// endOfRegion returns whether the address pc+size ends a string region, which
// is the case at the end of memory and at annotated addresses of another type
// or with a symbol or comment.
func (d *Disasm) endOfRegion(pc uint16, size int, typ annotation.Type) bool {
	address := int(pc) + size
	if address >= MemorySize {
		return true
	}

	e, ok := d.store.Entry(uint16(address))
	if !ok {
		return false
	}
	return e.Type != typ || e.HasSymbol() || e.HasComments()
}

// stringDirective builds the operands of a DEFM directive, printable
// characters are quoted and all others emitted as numbers.
type stringDirective struct {
	d        *Disasm
	buf      strings.Builder
	inString bool
	elements int
}

func (s *stringDirective) char(b byte) {
	if isControl(b) || b == '"' {
		s.value(s.d.hexb(b))
		return
	}
	s.open()
	s.buf.WriteRune(s.d.charset.ToUnicode(b))
}

// token emits a character with the highest bit set as quoted character
// plus offset.
func (s *stringDirective) token(b byte) {
	c := b & 0x7f
	if isControl(c) || c == '"' {
		s.value(s.d.hexb(b))
		return
	}
	s.open()
	s.buf.WriteRune(s.d.charset.ToUnicode(c))
	s.close()
	s.buf.WriteString("+" + s.d.hexb(0x80))
}

func (s *stringDirective) value(v string) {
	s.close()
	s.separate()
	s.buf.WriteString(v)
}

func (s *stringDirective) open() {
	if s.inString {
		return
	}
	s.separate()
	s.buf.WriteByte('"')
	s.inString = true
}

func (s *stringDirective) close() {
	if s.inString {
		s.buf.WriteByte('"')
		s.inString = false
	}
}

func (s *stringDirective) separate() {
	if s.elements > 0 {
		s.buf.WriteByte(',')
	}
	s.elements++
}

func (s *stringDirective) String() string {
	s.close()
	return s.buf.String()
}
