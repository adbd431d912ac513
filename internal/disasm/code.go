package disasm

import (
	"strings"

	"github.com/retroenv/cass80/internal/z80"
	"github.com/retroenv/retrogolib/log"
)

// decodeCode decodes a Z80 instruction including its prefixes.
func (d *Disasm) decodeCode(mem *Memory, pc uint16) Instruction {
	r := &memoryReader{mem: mem, pc: pc}

	var (
		opcode z80.Opcode
		index  string
		disp   int8
	)

	op := r.next()
	op1 := op
	switch op {
	case z80.PrefixCB:
		op = r.next()
		opcode = z80.CB(op)

	case z80.PrefixED:
		op1 = r.next()
		opcode = z80.ED(op1)

	case z80.PrefixDD, z80.PrefixFD:
		index = "ix"
		if op == z80.PrefixFD {
			index = "iy"
		}

		op1 = r.next()
		if op1 == z80.PrefixCB {
			// the displacement precedes the final opcode byte
			disp = int8(r.next())
			op1 = r.next()
			opcode = z80.IndexedCB(op1)
		} else {
			opcode = z80.Indexed(op1)
		}

	default:
		opcode = z80.Main(op)
	}

	var operands strings.Builder
	for i := 0; i < len(opcode.Params); i++ {
		switch c := opcode.Params[i]; c {
		case z80.ParamIllegal:
			operands.WriteString(d.hexb(op))
			operands.WriteByte(',')
			operands.WriteString(d.hexb(op1))
			msg := "Illegal opcode"
			if z80.Size(op, op1) > 0 {
				msg = "Undocumented opcode"
			}
			d.logger.Debug(msg,
				log.String("address", d.x16(pc)),
				log.String("opcode", d.x08(op)+d.x08(op1)))

		case z80.ParamAddress:
			operands.WriteString(d.symbol(r.word()))

		case z80.ParamByte, z80.ParamPort:
			operands.WriteString(d.hexb(r.next()))

		case z80.ParamImmediate, z80.ParamWord:
			operands.WriteString(d.hexw(r.word()))

		case z80.ParamRelative:
			offset := int8(r.next())
			target := uint16(int(pc) + r.pos + int(offset))
			operands.WriteString(d.symbol(target))

		case z80.ParamVector:
			operands.WriteString(d.hexb(op & 0x38))

		case z80.ParamIndexed:
			disp = int8(r.next())
			operands.WriteString(d.indexed(index, disp))

		case z80.ParamDisplacement:
			operands.WriteString(d.indexed(index, disp))

		case z80.ParamIndex:
			operands.WriteString(d.text(index))

		default:
			operands.WriteString(d.text(string(c)))
		}
	}

	return Instruction{
		Size:  r.pos,
		Text:  d.instruction(opcode.Mnemonic, operands.String()),
		Final: opcode.Final,
	}
}

// indexed formats an index register access with explicit sign.
func (d *Disasm) indexed(index string, disp int8) string {
	sign := "+"
	value := int(disp)
	if value < 0 {
		sign = "-"
		value = -value
	}
	return "(" + d.text(index) + sign + d.hex(uint64(value), 0xa0, 2) + ")"
}
