// Package cli handles command line interface logic
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/prefixtree/v2"
	"github.com/retroenv/cass80/internal/options"
)

const (
	maxBlockLength  = 256
	maxBytesPerLine = 32
)

var modeTree = newModeTree()

func newModeTree() *prefixtree.Tree[options.Mode] {
	tree := prefixtree.New[options.Mode]()
	for _, mode := range options.Modes() {
		tree.Add(string(mode), mode)
	}
	return tree
}

// ParseFlags parses command line flags and returns program and disassembler options
func ParseFlags() (options.Program, options.Disassembler, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Batch == "" && opts.Input == "") {
		return opts, options.Disassembler{}, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, options.Disassembler{}, err
	}

	if opts.Batch == "" && len(args) > 0 {
		opts.Input = args[0]
	}

	disasmOptions, err := createDisasmOptions(opts)
	if err != nil {
		return opts, options.Disassembler{}, err
	}

	if err := validateOptionCombinations(opts, disasmOptions); err != nil {
		return opts, options.Disassembler{}, err
	}

	return opts, disasmOptions, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the usage message and all flag defaults.
func (e *UsageError) ShowUsage() {
	if e.msg != "" {
		fmt.Println(e.msg)
		fmt.Println()
	}
	fmt.Printf("usage: cass80 [options] <cassette image or binary>\n\n")
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg != "" && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after input file, please pass the input file as last argument", arg),
			}
		}
	}
	return nil
}

// createDisasmOptions converts and validates the option values
func createDisasmOptions(opts options.Program) (options.Disassembler, error) {
	disasmOptions := options.NewDisassembler()

	mode, err := resolveMode(opts.Mode)
	if err != nil {
		return disasmOptions, err
	}
	disasmOptions.Mode = mode

	origin, err := parseAddress(opts.Origin)
	if err != nil {
		return disasmOptions, fmt.Errorf("invalid origin '%s': %w", opts.Origin, err)
	}
	disasmOptions.Origin = origin

	if opts.BlockLength < 1 || opts.BlockLength > maxBlockLength {
		return disasmOptions, fmt.Errorf("block length %d out of range 1-%d", opts.BlockLength, maxBlockLength)
	}
	disasmOptions.BlockLength = opts.BlockLength

	if opts.BytesPerLine < 1 || opts.BytesPerLine > maxBytesPerLine {
		return disasmOptions, fmt.Errorf("bytes per line %d out of range 1-%d", opts.BytesPerLine, maxBytesPerLine)
	}
	disasmOptions.BytesPerLine = opts.BytesPerLine

	disasmOptions.Uppercase = !opts.Lowercase
	disasmOptions.CommentGlyphs = opts.Glyphs
	return disasmOptions, nil
}

// resolveMode returns the output mode matching the possibly abbreviated name.
func resolveMode(name string) (options.Mode, error) {
	if name == "" {
		return options.ModeAuto, nil
	}
	mode, err := modeTree.FindValue(strings.ToLower(name))
	if err != nil {
		return "", fmt.Errorf("output mode '%s': %w", name, err)
	}
	return mode, nil
}

// parseAddress parses a 16 bit hex address with optional 0x, $ or h notation.
func parseAddress(s string) (uint16, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "h")
	if s == "" {
		return 0, nil
	}

	value, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("parsing hex address: %w", err)
	}
	return uint16(value), nil
}

// validateOptionCombinations checks for options that can not be used together
func validateOptionCombinations(opts options.Program, disasmOptions options.Disassembler) error {
	if opts.Batch != "" && opts.Save != "" {
		return errors.New("-save can not be used in batch mode")
	}
	if opts.Save != "" && disasmOptions.Mode == options.ModeBasic {
		return errors.New("-save only supports SYSTEM images, BASIC output mode was selected")
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the input cassette image or binary file")
	flags.StringVar(&opts.Output, "o", "", "name of the output file, printed on console if no name given")
	flags.StringVar(&opts.Annotations, "a", "", "name of the annotation XML file with symbols and comments")
	flags.StringVar(&opts.ROM, "rom", "", "ROM image loaded at address 0 and listed before the program")
	flags.StringVar(&opts.Batch, "batch", "", "process a batch of given path and file mask and automatically name the output files, for example *.cas")
	flags.StringVar(&opts.Save, "save", "", "write the decoded, optionally reversed image as cassette file")
	flags.BoolVar(&opts.Binary, "binary", false, "read input file as raw binary file without any tape framing")
	flags.StringVar(&opts.Origin, "org", "0", "load address of binary input in hex")
	flags.StringVar(&opts.Mode, "m", string(options.ModeAuto), "output mode (auto/listing/basic/xml/info), may be abbreviated")
	flags.BoolVar(&opts.Undo, "undo", false, "reverse the LMOFFSET relocation if a mover is found")
	flags.IntVar(&opts.BlockLength, "blen", 256, "block length of system blocks rebuilt by -undo (1-256)")
	flags.BoolVar(&opts.Verify, "verify", false, "verify that the image encodes and decodes to the same blocks")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
	flags.BoolVar(&opts.Lowercase, "lower", false, "output lower case mnemonics and numbers")
	flags.BoolVar(&opts.Glyphs, "glyphs", false, "show the characters of instruction bytes as comment")
	flags.IntVar(&opts.BytesPerLine, "bpl", 8, "number of hex dump bytes per listing line")
}
