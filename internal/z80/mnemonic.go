// Package z80 contains the Z80 instruction decoding tables.
package z80

// Mnemonic is an instruction or data directive name.
type Mnemonic uint8

// mnemonics.
const (
	ADC Mnemonic = iota
	ADD
	AND
	BIT
	CALL
	CCF
	CP
	CPD
	CPDR
	CPI
	CPIR
	CPL
	DAA
	DB
	DEC
	DEFB
	DEFD
	DEFM
	DEFS
	DEFW
	DI
	DJNZ
	EI
	EX
	EXX
	HALT
	IM
	IN
	INC
	IND
	INDR
	INI
	INIR
	JP
	JR
	LD
	LDD
	LDDR
	LDI
	LDIR
	NEG
	NOP
	OR
	OTDR
	OTIR
	OUT
	OUTD
	OUTI
	POP
	PUSH
	RES
	RET
	RETI
	RETN
	RL
	RLA
	RLC
	RLCA
	RLD
	RR
	RRA
	RRC
	RRCA
	RRD
	RST
	SBC
	SCF
	SET
	SLA
	SLL
	SRA
	SRL
	SUB
	XOR
)

var mnemonicNames = [...]string{
	ADC: "ADC", ADD: "ADD", AND: "AND", BIT: "BIT", CALL: "CALL", CCF: "CCF",
	CP: "CP", CPD: "CPD", CPDR: "CPDR", CPI: "CPI", CPIR: "CPIR", CPL: "CPL",
	DAA: "DAA", DB: "DB", DEC: "DEC", DEFB: "DEFB", DEFD: "DEFD", DEFM: "DEFM",
	DEFS: "DEFS", DEFW: "DEFW", DI: "DI", DJNZ: "DJNZ", EI: "EI", EX: "EX",
	EXX: "EXX", HALT: "HALT", IM: "IM", IN: "IN", INC: "INC", IND: "IND",
	INDR: "INDR", INI: "INI", INIR: "INIR", JP: "JP", JR: "JR", LD: "LD",
	LDD: "LDD", LDDR: "LDDR", LDI: "LDI", LDIR: "LDIR", NEG: "NEG", NOP: "NOP",
	OR: "OR", OTDR: "OTDR", OTIR: "OTIR", OUT: "OUT", OUTD: "OUTD", OUTI: "OUTI",
	POP: "POP", PUSH: "PUSH", RES: "RES", RET: "RET", RETI: "RETI", RETN: "RETN",
	RL: "RL", RLA: "RLA", RLC: "RLC", RLCA: "RLCA", RLD: "RLD", RR: "RR",
	RRA: "RRA", RRC: "RRC", RRCA: "RRCA", RRD: "RRD", RST: "RST", SBC: "SBC",
	SCF: "SCF", SET: "SET", SLA: "SLA", SLL: "SLL", SRA: "SRA", SRL: "SRL",
	SUB: "SUB", XOR: "XOR",
}

// String returns the upper case name of the mnemonic.
func (m Mnemonic) String() string {
	if int(m) < len(mnemonicNames) {
		return mnemonicNames[m]
	}
	return "???"
}
