// Package disasm implements the annotation driven Z80 disassembler.
package disasm

import (
	"fmt"

	"github.com/retroenv/cass80/internal/annotation"
	"github.com/retroenv/cass80/internal/charset"
	"github.com/retroenv/cass80/internal/z80"
	"github.com/retroenv/retrogolib/log"
)

// MemorySize is the size of the Z80 address space.
const MemorySize = 0x10000

// Memory is the full Z80 address space.
type Memory [MemorySize]byte

// default layout of the listing.
const (
	DefaultBytesPerLine  = 8
	DefaultCommentColumn = 48

	mnemonicWidth = 7
)

// Options controls the output of the disassembler.
type Options struct {
	Uppercase     bool
	CommentGlyphs bool // comment lines without annotation with the glyphs of their bytes
	BytesPerLine  int
	CommentColumn int
}

// DefaultOptions returns the default disassembler options.
func DefaultOptions() Options {
	return Options{
		Uppercase:     true,
		BytesPerLine:  DefaultBytesPerLine,
		CommentColumn: DefaultCommentColumn,
	}
}

// Instruction is a single decoded instruction or data directive.
type Instruction struct {
	Address uint16
	Size    int // number of bytes consumed, at least 1
	Text    string
	Final   bool // execution does not continue at the next address
}

// Disasm implements a Z80 disassembler.
type Disasm struct {
	logger  *log.Logger
	store   *annotation.Store
	cache   *annotation.Cache
	charset charset.Mapper
	options Options
	formatter
}

// New returns a new disassembler. The annotation cache is owned by the
// caller and has to be reset when the store is replaced.
func New(logger *log.Logger, store *annotation.Store, cache *annotation.Cache,
	mapper charset.Mapper, options Options) *Disasm {

	if store == nil {
		store = annotation.NewStore("")
	}
	if mapper == nil {
		mapper = charset.Latin1{}
	}
	if options.BytesPerLine < 1 {
		options.BytesPerLine = DefaultBytesPerLine
	}
	if options.CommentColumn < 1 {
		options.CommentColumn = DefaultCommentColumn
	}

	return &Disasm{
		logger:    logger,
		store:     store,
		cache:     cache,
		charset:   mapper,
		options:   options,
		formatter: formatter{uppercase: options.Uppercase},
	}
}

// Decode decodes the instruction or data directive at the given address.
// The region type is taken from the annotation of the address.
func (d *Disasm) Decode(mem *Memory, pc uint16) Instruction {
	entry := d.store.Lookup(pc, d.cache)

	var ins Instruction
	switch entry.Type {
	case annotation.Code:
		ins = d.decodeCode(mem, pc)
	case annotation.Byte:
		ins = d.decodeByte(mem, pc)
	case annotation.Word:
		ins = d.decodeWord(mem, pc)
	case annotation.Dword:
		ins = d.decodeDword(mem, pc)
	case annotation.Space:
		ins = d.decodeSpace(mem, pc)
	case annotation.Text:
		ins = d.decodeText(mem, pc)
	case annotation.TokenList:
		ins = d.decodeTokenList(mem, pc)
	default:
		d.logger.Warn("Unsupported region type, decoding as code",
			log.String("address", d.x16(pc)),
			log.Int("type", int(entry.Type)))
		ins = d.decodeCode(mem, pc)
	}

	ins.Address = pc
	return ins
}

// instruction formats a mnemonic with its already formatted operands.
func (d *Disasm) instruction(m z80.Mnemonic, operands string) string {
	name := d.text(m.String())
	if operands == "" {
		return name
	}
	return fmt.Sprintf("%-*s%s", mnemonicWidth, name, operands)
}

// symbol returns the symbol of an address in the output case or its hex
// representation.
func (d *Disasm) symbol(address uint16) string {
	e := d.store.Lookup(address, d.cache)
	if e.HasSymbol() {
		return d.text(e.Symbol)
	}
	return d.hexw(address)
}

// memoryReader reads instruction bytes, wrapping around at the end of the
// address space.
type memoryReader struct {
	mem *Memory
	pc  uint16
	pos int
}

func (r *memoryReader) next() byte {
	b := r.mem[uint16(int(r.pc)+r.pos)]
	r.pos++
	return b
}

func (r *memoryReader) word() uint16 {
	lo := r.next()
	hi := r.next()
	return uint16(hi)<<8 | uint16(lo)
}

// bytesAt returns the memory of the address range, wrapping around at the end
// of the address space.
func bytesAt(mem *Memory, pc uint16, size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = mem[uint16(int(pc)+i)]
	}
	return data
}

func isControl(b byte) bool {
	return b < 0x20 || b == 0x7f
}
