// Package pipeline orchestrates the processing workflow stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/cass80/internal/annotation"
	"github.com/retroenv/cass80/internal/basic"
	"github.com/retroenv/cass80/internal/cassette"
	"github.com/retroenv/cass80/internal/charset"
	"github.com/retroenv/cass80/internal/detector"
	"github.com/retroenv/cass80/internal/disasm"
	"github.com/retroenv/cass80/internal/loader"
	"github.com/retroenv/cass80/internal/options"
	"github.com/retroenv/cass80/internal/verification"
	"github.com/retroenv/cass80/internal/writer"
	"github.com/retroenv/retrogolib/log"
)

var (
	// ErrNotBasic is returned when a BASIC listing of a SYSTEM image is requested.
	ErrNotBasic = errors.New("image is not a BASIC program")
	// ErrNothingToList is returned when a listing is requested for an image
	// without system blocks and no ROM was loaded.
	ErrNothingToList = errors.New("no system blocks or ROM to disassemble")
)

// listingPrefixWidth is the width of the address column and spacing of a
// listing line, see disasm.Listing.
const listingPrefixWidth = 9

// Result contains the outcome of processing a single input file.
type Result struct {
	Image *cassette.Image // image after an optional LMOFFSET reversal
	Mode  options.Mode    // output mode that was used
	Mover *cassette.Mover // reversed mover stub, nil if none was reversed

	Detected *cassette.Mover // mover stub found in the loaded image
}

// Pipeline orchestrates the complete processing workflow.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
	loader   *loader.Loader
}

// New creates a new processing pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: detector.New(logger),
		loader:   loader.New(logger),
	}
}

// Execute runs the complete processing pipeline.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program, disasmOpts options.Disassembler, w io.Writer) (*Result, error) {
	kind := p.detector.Detect(opts)

	input, err := p.loader.Load(opts, kind, disasmOpts.Origin)
	if err != nil {
		return nil, fmt.Errorf("loading input: %w", err)
	}

	return p.ExecuteWithInput(ctx, input, opts, disasmOpts, w)
}

// ExecuteWithInput runs the processing pipeline with already loaded input.
// This is useful for testing and programmatic usage where the input is already in memory.
func (p *Pipeline) ExecuteWithInput(ctx context.Context, input *loader.Input, opts options.Program,
	disasmOpts options.Disassembler, w io.Writer) (*Result, error) {

	result := &Result{
		Image: input.Image,
	}

	if mover, ok := cassette.FindMover(input.Image.Blocks); ok {
		p.logger.Info("Found LMOFFSET mover",
			log.String("address", fmt.Sprintf("0x%04x", mover.Address)),
			log.String("mover", mover.String()))
		result.Detected = &mover
	}

	if opts.Undo {
		if result.Detected == nil {
			p.logger.Debug("No LMOFFSET mover found")
		} else if err := p.undoLMOffset(result, disasmOpts.BlockLength); err != nil {
			return nil, err
		}
	}

	result.Mode = outputMode(disasmOpts.Mode, result.Image)
	p.printInfo(opts, result)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := p.render(ctx, input, result, disasmOpts, w); err != nil {
		return nil, fmt.Errorf("writing %s output: %w", result.Mode, err)
	}

	if opts.Save != "" {
		if err := saveImage(opts.Save, result.Image); err != nil {
			return nil, err
		}
		p.logger.Info("Saved cassette image", log.String("file", opts.Save))
	}

	if opts.Verify {
		if err := verification.VerifyImage(ctx, p.logger, result.Image); err != nil {
			return nil, fmt.Errorf("verification failed: %w", err)
		}
		p.logger.Info("Verification successful")
	}

	return result, nil
}

// undoLMOffset replaces the image of the result by a copy with the
// relocation reversed.
func (p *Pipeline) undoLMOffset(result *Result, blockLen int) error {
	blocks, mover, err := cassette.UndoLMOffset(result.Image.Blocks, blockLen)
	if err != nil {
		return fmt.Errorf("reversing LMOFFSET: %w", err)
	}

	p.logger.Info("Reversed LMOFFSET mover",
		log.String("entry", fmt.Sprintf("0x%04x", mover.Entry)),
		log.Int("blocks", len(blocks)))

	img := *result.Image
	img.Blocks = blocks
	result.Image = &img
	result.Mover = &mover
	return nil
}

// outputMode resolves the automatic mode based on the image format.
func outputMode(mode options.Mode, img *cassette.Image) options.Mode {
	if mode != options.ModeAuto && mode != "" {
		return mode
	}
	if img.Basic {
		return options.ModeBasic
	}
	return options.ModeListing
}

func (p *Pipeline) render(ctx context.Context, input *loader.Input, result *Result,
	disasmOpts options.Disassembler, w io.Writer) error {

	out := writer.New(w)
	img := result.Image

	switch result.Mode {
	case options.ModeBasic:
		if !img.Basic {
			return ErrNotBasic
		}
		return out.WriteBasic(img.Blocks, basic.New(false))

	case options.ModeListing:
		return p.writeListing(ctx, input, img, disasmOpts, out)

	case options.ModeXML:
		data, err := cassette.MarshalXML(img)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing xml: %w", err)
		}
		return nil

	case options.ModeInfo:
		return out.WriteInfo(img)

	default:
		return fmt.Errorf("unsupported output mode '%s'", result.Mode)
	}
}

// writeListing disassembles the ROM and the memory ranges of the system blocks.
func (p *Pipeline) writeListing(ctx context.Context, input *loader.Input, img *cassette.Image,
	disasmOpts options.Disassembler, out *writer.Writer) error {

	ranges := img.SystemRanges()
	if len(ranges) == 0 && len(input.ROM) == 0 {
		return ErrNothingToList
	}

	mem := &disasm.Memory{}
	copy(mem[:], input.ROM)
	cassette.Flatten(img.Blocks, mem[:])

	dis := disasm.New(p.logger, input.Annotations, annotation.NewCache(),
		p.mapperFor(input.Annotations, img), disassemblerOptions(disasmOpts))

	if err := out.WriteCommentHeader(img); err != nil {
		return err
	}

	if len(input.ROM) > 0 {
		if err := out.WriteLines(dis.Listing(mem, 0, uint16(len(input.ROM)-1))); err != nil {
			return err
		}
	}

	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := out.WriteLines(dis.Listing(mem, uint16(r.Start), uint16(r.End-1))); err != nil {
			return err
		}
	}
	return nil
}

// mapperFor returns the character mapping of the annotated system or the
// machine of the image.
func (p *Pipeline) mapperFor(store *annotation.Store, img *cassette.Image) charset.Mapper {
	if store != nil && store.System() != "" {
		return charset.ForMachine(store.System())
	}
	return charset.ForMachine(img.Machine.String())
}

func disassemblerOptions(opts options.Disassembler) disasm.Options {
	return disasm.Options{
		Uppercase:     opts.Uppercase,
		CommentGlyphs: opts.CommentGlyphs,
		BytesPerLine:  opts.BytesPerLine,
		CommentColumn: max(disasm.DefaultCommentColumn, listingPrefixWidth+2*opts.BytesPerLine+24),
	}
}

// saveImage encodes the image and writes it to a file, no file is created
// if the image can not be encoded.
func saveImage(path string, img *cassette.Image) error {
	data, err := cassette.EncodeBytes(img)
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing cassette file %s: %w", path, err)
	}
	return nil
}

// printInfo prints information about the image being processed.
func (p *Pipeline) printInfo(opts options.Program, result *Result) {
	if opts.Quiet {
		return
	}

	img := result.Image
	p.logger.Info("Processing cassette image",
		log.String("file", opts.Input),
		log.String("machine", img.Machine.String()),
		log.String("name", img.Filename),
		log.Int("blocks", len(img.Blocks)),
		log.String("mode", string(result.Mode)),
	)
	if len(img.Diagnostics) > 0 {
		p.logger.Warn("Image contains decoding problems", log.Int("count", len(img.Diagnostics)))
	}
}
