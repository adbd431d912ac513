// Package options contains the program options.
package options

// Mode is the output mode of the program.
type Mode string

// output modes.
const (
	ModeAuto    Mode = "auto"    // basic for BASIC images, listing otherwise
	ModeListing Mode = "listing" // Z80 disassembly listing
	ModeBasic   Mode = "basic"   // detokenized BASIC program
	ModeXML     Mode = "xml"     // cassette XML export
	ModeInfo    Mode = "info"    // block summary
)

// Modes returns all supported output modes.
func Modes() []Mode {
	return []Mode{ModeAuto, ModeListing, ModeBasic, ModeXML, ModeInfo}
}

// Parameters contains file path options.
type Parameters struct {
	Input       string `flag:"i" usage:"input cassette image or binary file"`
	Output      string `flag:"o" usage:"output file (default: stdout)"`
	Annotations string `flag:"a" usage:"annotation XML file with symbols and comments"`
	ROM         string `flag:"rom" usage:"ROM image to load at address 0"`
	Batch       string `flag:"batch" usage:"batch process files matching pattern (e.g. *.cas)"`
	Save        string `flag:"save" usage:"write the (reversed) image as cassette file"`
}

// Flags contains behavior options.
type Flags struct {
	Binary      bool   `flag:"binary" usage:"treat input as raw binary loaded at -org"`
	Origin      string `flag:"org" usage:"load address of binary input in hex" default:"0"`
	Mode        string `flag:"m" usage:"output mode: auto, listing, basic, xml, info" default:"auto"`
	Undo        bool   `flag:"undo" usage:"reverse the LMOFFSET relocation"`
	BlockLength int    `flag:"blen" usage:"block length of reversed LMOFFSET blocks" default:"256"`
	Verify      bool   `flag:"verify" usage:"verify that the image encodes and decodes to the same blocks"`
	Debug       bool   `flag:"debug" usage:"enable debug logging"`
	Quiet       bool   `flag:"q" usage:"quiet mode"`
}

// OutputFlags contains output formatting options.
type OutputFlags struct {
	Lowercase    bool `flag:"lower" usage:"output lower case mnemonics and numbers"`
	Glyphs       bool `flag:"glyphs" usage:"show the characters of instruction bytes as comment"`
	BytesPerLine int  `flag:"bpl" usage:"hex dump bytes per listing line" default:"8"`
}

// Program options of the disassembler.
type Program struct {
	Parameters
	Flags
	OutputFlags
}

// Disassembler defines options to control the disassembler.
type Disassembler struct {
	Mode        Mode
	Origin      uint16 // load address of binary input
	BlockLength int    // block length used when reversing LMOFFSET

	Uppercase     bool
	CommentGlyphs bool
	BytesPerLine  int
}

// NewDisassembler returns a new options instance with default options.
func NewDisassembler() Disassembler {
	return Disassembler{
		Mode:         ModeAuto,
		BlockLength:  256,
		Uppercase:    true,
		BytesPerLine: 8,
	}
}
