// Package basic converts between tokenized TRS-80 / Colour Genie BASIC lines and source text.
package basic

// ExtendedPrefix introduces a two byte Colour Genie extended token.
const ExtendedPrefix = 0xff

// firstToken is the code of the first single byte token.
const firstToken = 0x80

// tokens holds the keyword text of the single byte tokens 0x80-0xff.
var tokens = [128]string{
	"END", "FOR", "RESET", "SET", "CLS", "CMD", "RANDOM", "NEXT",
	"DATA", "INPUT", "DIM", "READ", "LET", "GOTO", "RUN", "IF",
	"RESTORE", "GOSUB", "RETURN", "REM", "STOP", "ELSE", "TRON", "TROFF",
	"DEFSTR", "DEFINT", "DEFSNG", "DEFDBL", "LINE", "EDIT", "ERROR", "RESUME",
	"OUT", "ON", "OPEN", "FIELD", "GET", "PUT", "CLOSE", "LOAD",
	"MERGE", "NAME", "KILL", "LSET", "RSET", "SAVE", "SYSTEM", "LPRINT",
	"DEF", "POKE", "PRINT", "CONT", "LIST", "LLIST", "DELETE", "AUTO",
	"CLEAR", "CLOAD", "CSAVE", "NEW", "TAB(", "TO", "FN", "USING",
	"VARPTR", "USR", "ERL", "ERR", "STRING$", "INSTR", "CHECK", "TIME$",
	"MEM", "INKEY$", "THEN", "NOT", "STEP", "+", "-", "*",
	"/", "[", "AND", "OR", ">", "=", "<", "SGN",
	"INT", "ABS", "FRE", "INP", "POS", "SQR", "RND", "LOG",
	"EXP", "COS", "SIN", "TAN", "ATN", "PEEK", "CVI", "CVS",
	"CVD", "EOF", "LOC", "LOF", "MKI$", "MKS$", "MKD$", "CINT",
	"CSNG", "CDBL", "FIX", "LEN", "STR$", "VAL", "ASC", "CHR$",
	"LEFT$", "RIGHT$", "MID$", "'", `\374`, `\375`, `\376`, `\377`,
}

// extendedTokens holds the Colour Genie extensions, indexed from 0xff80.
var extendedTokens = []string{
	"COLOUR", "FCOLOU", "KEYPAD", "JOY", "PLOT", "FGR", "LGR", "FCLS",
	"PLAY", "CIRCLE", "SCALE", "SHAPE", "NSHAPE", "XSHAPE", "PAINT", "CPOINT",
	"NPLOT", "SOUND", "CHAR", "RENUM", "SWAP", "FKEY", "CALL", "VERIFY",
	"BGRD", "NBGRD",
}

// Token returns the keyword for a single byte token code.
func Token(code byte) (string, bool) {
	if code < firstToken {
		return "", false
	}
	return tokens[code-firstToken], true
}

// ExtendedToken returns the keyword for the extended token 0xff followed by code.
func ExtendedToken(code byte) (string, bool) {
	if code < firstToken {
		return "", false
	}
	index := int(code - firstToken)
	if index >= len(extendedTokens) {
		return "", false
	}
	return extendedTokens[index], true
}
