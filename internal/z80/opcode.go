package z80

import (
	"fmt"

	cpu "github.com/retroenv/retrogolib/arch/cpu/z80"
)

// Instruction prefix bytes.
const (
	PrefixCB = cpu.PrefixCB
	PrefixDD = cpu.PrefixDD
	PrefixED = cpu.PrefixED
	PrefixFD = cpu.PrefixFD
)

// MaxSize is the maximum size of an instruction including prefixes and
// operands.
const MaxSize = cpu.MaxOpcodeSize

// Operand template codes. All other characters of a template are copied
// literally, register names are therefore written in lower case.
const (
	ParamAddress      = 'A' // 16 bit address, replaced by a symbol if known
	ParamByte         = 'B' // 8 bit immediate
	ParamImmediate    = 'N' // 16 bit immediate
	ParamRelative     = 'O' // 8 bit signed jump offset
	ParamPort         = 'P' // 8 bit port
	ParamVector       = 'V' // restart vector of the opcode
	ParamWord         = 'W' // 16 bit memory address
	ParamIndexed      = 'X' // reads a displacement and prints ix+d
	ParamDisplacement = 'Y' // prints ix+d for an already read displacement
	ParamIndex        = 'I' // name of the index register
	ParamIllegal      = '?' // raw bytes of an undefined opcode
)

// Opcode describes a table entry.
type Opcode struct {
	Mnemonic Mnemonic
	Params   string // operand template, empty for no operands
	Final    bool   // execution does not continue with the next instruction
}

func op(m Mnemonic, params string) Opcode {
	return Opcode{Mnemonic: m, Params: params}
}

func final(m Mnemonic, params string) Opcode {
	return Opcode{Mnemonic: m, Params: params, Final: true}
}

var illegal = op(DB, "?")

// Main returns the opcode of an unprefixed instruction.
func Main(b byte) Opcode { return mainOpcodes[b] }

// CB returns the opcode of a CB prefixed instruction.
func CB(b byte) Opcode { return cbOpcodes[b] }

// ED returns the opcode of an ED prefixed instruction.
func ED(b byte) Opcode { return edOpcodes[b] }

// Indexed returns the opcode of a DD or FD prefixed instruction.
func Indexed(b byte) Opcode { return indexedOpcodes[b] }

// IndexedCB returns the opcode of a DD CB or FD CB prefixed instruction.
func IndexedCB(b byte) Opcode { return indexedCBOpcodes[b] }

// Size returns the instruction size of the CPU opcode tables for an
// unprefixed opcode (prefix 0) or the opcode following a prefix byte.
// It returns 0 for opcodes the CPU tables do not define. DD CB and FD CB
// instructions are always 4 bytes long and not covered.
func Size(prefix, b byte) int {
	var opcode cpu.Opcode
	switch prefix {
	case 0:
		opcode = cpu.Opcodes[b]
	case PrefixCB:
		opcode = cpu.CBOpcodes[b]
	case PrefixED:
		opcode = cpu.EDOpcodes[b]
	case PrefixDD:
		opcode = cpu.DDOpcodes[b]
	case PrefixFD:
		opcode = cpu.FDOpcodes[b]
	}
	if opcode.Instruction == nil {
		return 0
	}
	return int(opcode.Size)
}

var mainOpcodes = [256]Opcode{
	op(NOP, ""), op(LD, "bc,N"), op(LD, "(bc),a"), op(INC, "bc"), op(INC, "b"), op(DEC, "b"), op(LD, "b,B"), op(RLCA, ""),
	op(EX, "af,af'"), op(ADD, "hl,bc"), op(LD, "a,(bc)"), op(DEC, "bc"), op(INC, "c"), op(DEC, "c"), op(LD, "c,B"), op(RRCA, ""),
	op(DJNZ, "O"), op(LD, "de,N"), op(LD, "(de),a"), op(INC, "de"), op(INC, "d"), op(DEC, "d"), op(LD, "d,B"), op(RLA, ""),
	final(JR, "O"), op(ADD, "hl,de"), op(LD, "a,(de)"), op(DEC, "de"), op(INC, "e"), op(DEC, "e"), op(LD, "e,B"), op(RRA, ""),
	op(JR, "nz,O"), op(LD, "hl,N"), op(LD, "(W),hl"), op(INC, "hl"), op(INC, "h"), op(DEC, "h"), op(LD, "h,B"), op(DAA, ""),
	op(JR, "z,O"), op(ADD, "hl,hl"), op(LD, "hl,(W)"), op(DEC, "hl"), op(INC, "l"), op(DEC, "l"), op(LD, "l,B"), op(CPL, ""),
	op(JR, "nc,O"), op(LD, "sp,N"), op(LD, "(W),a"), op(INC, "sp"), op(INC, "(hl)"), op(DEC, "(hl)"), op(LD, "(hl),B"), op(SCF, ""),
	op(JR, "c,O"), op(ADD, "hl,sp"), op(LD, "a,(W)"), op(DEC, "sp"), op(INC, "a"), op(DEC, "a"), op(LD, "a,B"), op(CCF, ""),

	op(LD, "b,b"), op(LD, "b,c"), op(LD, "b,d"), op(LD, "b,e"), op(LD, "b,h"), op(LD, "b,l"), op(LD, "b,(hl)"), op(LD, "b,a"),
	op(LD, "c,b"), op(LD, "c,c"), op(LD, "c,d"), op(LD, "c,e"), op(LD, "c,h"), op(LD, "c,l"), op(LD, "c,(hl)"), op(LD, "c,a"),
	op(LD, "d,b"), op(LD, "d,c"), op(LD, "d,d"), op(LD, "d,e"), op(LD, "d,h"), op(LD, "d,l"), op(LD, "d,(hl)"), op(LD, "d,a"),
	op(LD, "e,b"), op(LD, "e,c"), op(LD, "e,d"), op(LD, "e,e"), op(LD, "e,h"), op(LD, "e,l"), op(LD, "e,(hl)"), op(LD, "e,a"),
	op(LD, "h,b"), op(LD, "h,c"), op(LD, "h,d"), op(LD, "h,e"), op(LD, "h,h"), op(LD, "h,l"), op(LD, "h,(hl)"), op(LD, "h,a"),
	op(LD, "l,b"), op(LD, "l,c"), op(LD, "l,d"), op(LD, "l,e"), op(LD, "l,h"), op(LD, "l,l"), op(LD, "l,(hl)"), op(LD, "l,a"),
	op(LD, "(hl),b"), op(LD, "(hl),c"), op(LD, "(hl),d"), op(LD, "(hl),e"), op(LD, "(hl),h"), op(LD, "(hl),l"), op(HALT, ""), op(LD, "(hl),a"),
	op(LD, "a,b"), op(LD, "a,c"), op(LD, "a,d"), op(LD, "a,e"), op(LD, "a,h"), op(LD, "a,l"), op(LD, "a,(hl)"), op(LD, "a,a"),

	op(ADD, "a,b"), op(ADD, "a,c"), op(ADD, "a,d"), op(ADD, "a,e"), op(ADD, "a,h"), op(ADD, "a,l"), op(ADD, "a,(hl)"), op(ADD, "a,a"),
	op(ADC, "a,b"), op(ADC, "a,c"), op(ADC, "a,d"), op(ADC, "a,e"), op(ADC, "a,h"), op(ADC, "a,l"), op(ADC, "a,(hl)"), op(ADC, "a,a"),
	op(SUB, "b"), op(SUB, "c"), op(SUB, "d"), op(SUB, "e"), op(SUB, "h"), op(SUB, "l"), op(SUB, "(hl)"), op(SUB, "a"),
	op(SBC, "a,b"), op(SBC, "a,c"), op(SBC, "a,d"), op(SBC, "a,e"), op(SBC, "a,h"), op(SBC, "a,l"), op(SBC, "a,(hl)"), op(SBC, "a,a"),
	op(AND, "b"), op(AND, "c"), op(AND, "d"), op(AND, "e"), op(AND, "h"), op(AND, "l"), op(AND, "(hl)"), op(AND, "a"),
	op(XOR, "b"), op(XOR, "c"), op(XOR, "d"), op(XOR, "e"), op(XOR, "h"), op(XOR, "l"), op(XOR, "(hl)"), op(XOR, "a"),
	op(OR, "b"), op(OR, "c"), op(OR, "d"), op(OR, "e"), op(OR, "h"), op(OR, "l"), op(OR, "(hl)"), op(OR, "a"),
	op(CP, "b"), op(CP, "c"), op(CP, "d"), op(CP, "e"), op(CP, "h"), op(CP, "l"), op(CP, "(hl)"), op(CP, "a"),

	op(RET, "nz"), op(POP, "bc"), op(JP, "nz,A"), final(JP, "A"), op(CALL, "nz,A"), op(PUSH, "bc"), op(ADD, "a,B"), op(RST, "V"),
	op(RET, "z"), final(RET, ""), op(JP, "z,A"), illegal, op(CALL, "z,A"), op(CALL, "A"), op(ADC, "a,B"), op(RST, "V"),
	op(RET, "nc"), op(POP, "de"), op(JP, "nc,A"), op(OUT, "(P),a"), op(CALL, "nc,A"), op(PUSH, "de"), op(SUB, "B"), op(RST, "V"),
	op(RET, "c"), op(EXX, ""), op(JP, "c,A"), op(IN, "a,(P)"), op(CALL, "c,A"), illegal, op(SBC, "a,B"), op(RST, "V"),
	op(RET, "po"), op(POP, "hl"), op(JP, "po,A"), op(EX, "(sp),hl"), op(CALL, "po,A"), op(PUSH, "hl"), op(AND, "B"), op(RST, "V"),
	op(RET, "pe"), final(JP, "(hl)"), op(JP, "pe,A"), op(EX, "de,hl"), op(CALL, "pe,A"), illegal, op(XOR, "B"), op(RST, "V"),
	op(RET, "p"), op(POP, "af"), op(JP, "p,A"), op(DI, ""), op(CALL, "p,A"), op(PUSH, "af"), op(OR, "B"), op(RST, "V"),
	op(RET, "m"), op(LD, "sp,hl"), op(JP, "m,A"), op(EI, ""), op(CALL, "m,A"), illegal, op(CP, "B"), op(RST, "V"),
}

var edOpcodes = [256]Opcode{
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,

	op(IN, "b,(c)"), op(OUT, "(c),b"), op(SBC, "hl,bc"), op(LD, "(W),bc"), op(NEG, ""), final(RETN, ""), op(IM, "0"), op(LD, "i,a"),
	op(IN, "c,(c)"), op(OUT, "(c),c"), op(ADC, "hl,bc"), op(LD, "bc,(W)"), op(NEG, ""), final(RETI, ""), op(IM, "0"), op(LD, "r,a"),
	op(IN, "d,(c)"), op(OUT, "(c),d"), op(SBC, "hl,de"), op(LD, "(W),de"), op(NEG, ""), final(RETN, ""), op(IM, "1"), op(LD, "a,i"),
	op(IN, "e,(c)"), op(OUT, "(c),e"), op(ADC, "hl,de"), op(LD, "de,(W)"), op(NEG, ""), final(RETI, ""), op(IM, "2"), op(LD, "a,r"),
	op(IN, "h,(c)"), op(OUT, "(c),h"), op(SBC, "hl,hl"), op(LD, "(W),hl"), op(NEG, ""), final(RETN, ""), op(IM, "0"), op(RRD, "(hl)"),
	op(IN, "l,(c)"), op(OUT, "(c),l"), op(ADC, "hl,hl"), op(LD, "hl,(W)"), op(NEG, ""), final(RETI, ""), op(IM, "0"), op(RLD, "(hl)"),
	op(IN, "0,(c)"), op(OUT, "(c),0"), op(SBC, "hl,sp"), op(LD, "(W),sp"), op(NEG, ""), final(RETN, ""), op(IM, "1"), illegal,
	op(IN, "a,(c)"), op(OUT, "(c),a"), op(ADC, "hl,sp"), op(LD, "sp,(W)"), op(NEG, ""), final(RETI, ""), op(IM, "2"), illegal,

	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	op(LDI, ""), op(CPI, ""), op(INI, ""), op(OUTI, ""), illegal, illegal, illegal, illegal,
	op(LDD, ""), op(CPD, ""), op(IND, ""), op(OUTD, ""), illegal, illegal, illegal, illegal,
	op(LDIR, ""), op(CPIR, ""), op(INIR, ""), op(OTIR, ""), illegal, illegal, illegal, illegal,
	op(LDDR, ""), op(CPDR, ""), op(INDR, ""), op(OTDR, ""), illegal, illegal, illegal, illegal,

	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
}

var indexedOpcodes = [256]Opcode{
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, op(ADD, "I,bc"), illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, op(ADD, "I,de"), illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, op(LD, "I,N"), op(LD, "(W),I"), op(INC, "I"), op(INC, "Ih"), op(DEC, "Ih"), op(LD, "Ih,B"), illegal,
	illegal, op(ADD, "I,I"), op(LD, "I,(W)"), op(DEC, "I"), op(INC, "Il"), op(DEC, "Il"), op(LD, "Il,B"), illegal,
	illegal, illegal, illegal, illegal, op(INC, "X"), op(DEC, "X"), op(LD, "X,B"), illegal,
	illegal, op(ADD, "I,sp"), illegal, illegal, illegal, illegal, illegal, illegal,

	illegal, illegal, illegal, illegal, op(LD, "b,Ih"), op(LD, "b,Il"), op(LD, "b,X"), illegal,
	illegal, illegal, illegal, illegal, op(LD, "c,Ih"), op(LD, "c,Il"), op(LD, "c,X"), illegal,
	illegal, illegal, illegal, illegal, op(LD, "d,Ih"), op(LD, "d,Il"), op(LD, "d,X"), illegal,
	illegal, illegal, illegal, illegal, op(LD, "e,Ih"), op(LD, "e,Il"), op(LD, "e,X"), illegal,
	op(LD, "Ih,b"), op(LD, "Ih,c"), op(LD, "Ih,d"), op(LD, "Ih,e"), op(LD, "Ih,Ih"), op(LD, "Ih,Il"), op(LD, "h,X"), op(LD, "Ih,a"),
	op(LD, "Il,b"), op(LD, "Il,c"), op(LD, "Il,d"), op(LD, "Il,e"), op(LD, "Il,Ih"), op(LD, "Il,Il"), op(LD, "l,X"), op(LD, "Il,a"),
	op(LD, "X,b"), op(LD, "X,c"), op(LD, "X,d"), op(LD, "X,e"), op(LD, "X,h"), op(LD, "X,l"), illegal, op(LD, "X,a"),
	illegal, illegal, illegal, illegal, op(LD, "a,Ih"), op(LD, "a,Il"), op(LD, "a,X"), illegal,

	illegal, illegal, illegal, illegal, op(ADD, "a,Ih"), op(ADD, "a,Il"), op(ADD, "a,X"), illegal,
	illegal, illegal, illegal, illegal, op(ADC, "a,Ih"), op(ADC, "a,Il"), op(ADC, "a,X"), illegal,
	illegal, illegal, illegal, illegal, op(SUB, "Ih"), op(SUB, "Il"), op(SUB, "X"), illegal,
	illegal, illegal, illegal, illegal, op(SBC, "a,Ih"), op(SBC, "a,Il"), op(SBC, "a,X"), illegal,
	illegal, illegal, illegal, illegal, op(AND, "Ih"), op(AND, "Il"), op(AND, "X"), illegal,
	illegal, illegal, illegal, illegal, op(XOR, "Ih"), op(XOR, "Il"), op(XOR, "X"), illegal,
	illegal, illegal, illegal, illegal, op(OR, "Ih"), op(OR, "Il"), op(OR, "X"), illegal,
	illegal, illegal, illegal, illegal, op(CP, "Ih"), op(CP, "Il"), op(CP, "X"), illegal,

	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, op(POP, "I"), illegal, op(EX, "(sp),I"), illegal, op(PUSH, "I"), illegal, illegal,
	illegal, final(JP, "(I)"), illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, illegal, illegal, illegal, illegal, illegal, illegal, illegal,
	illegal, op(LD, "sp,I"), illegal, illegal, illegal, illegal, illegal, illegal,
}

// The bit manipulation tables are regular, they are built from the
// operation and register fields of the opcode.
var (
	cbOpcodes        = buildCB(false)
	indexedCBOpcodes = buildCB(true)
)

var (
	shiftMnemonics = [8]Mnemonic{RLC, RRC, RL, RR, SLA, SRA, SLL, SRL}
	registers      = [8]string{"b", "c", "d", "e", "h", "l", "(hl)", "a"}
)

const memoryRegister = 6

func buildCB(indexed bool) [256]Opcode {
	var table [256]Opcode

	for i := range table {
		group := i >> 6
		bit := (i >> 3) & 7
		reg := i & 7

		// indexed forms operate on memory and optionally copy the result
		// into a register
		operand := registers[reg]
		if indexed {
			operand = "Y"
			if reg != memoryRegister {
				operand = "Y," + registers[reg]
			}
		}

		switch group {
		case 0:
			table[i] = op(shiftMnemonics[bit], operand)
		case 1:
			if indexed {
				operand = "Y"
			}
			table[i] = op(BIT, fmt.Sprintf("%d,%s", bit, operand))
		case 2:
			table[i] = op(RES, fmt.Sprintf("%d,%s", bit, operand))
		default:
			table[i] = op(SET, fmt.Sprintf("%d,%s", bit, operand))
		}
	}

	return table
}
