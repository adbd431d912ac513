// Package writer implements the text output of listings, BASIC programs and
// image summaries.
package writer

import (
	"fmt"
	"hash/crc32"
	"io"

	"github.com/retroenv/cass80/internal/basic"
	"github.com/retroenv/cass80/internal/cassette"
)

// Writer writes the text output of a processed image.
type Writer struct {
	writer io.Writer
}

// New creates a new writer.
func New(writer io.Writer) *Writer {
	return &Writer{
		writer: writer,
	}
}

// WriteCommentHeader writes the image details and checksums as comments to the output.
func (w Writer) WriteCommentHeader(img *cassette.Image) error {
	if _, err := fmt.Fprintf(w.writer, "; Machine: %s\n", img.Machine); err != nil {
		return fmt.Errorf("writing machine: %w", err)
	}
	if _, err := fmt.Fprintf(w.writer, "; Filename: %s\n", img.Filename); err != nil {
		return fmt.Errorf("writing filename: %w", err)
	}
	if img.Header.Name != "" {
		if _, err := fmt.Fprintf(w.writer, "; Name: %s\n", img.Header.Name); err != nil {
			return fmt.Errorf("writing name: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w.writer, "; SHA1 of data: %s\n", img.DigestString()); err != nil {
		return fmt.Errorf("writing sha1 digest: %w", err)
	}
	if _, err := fmt.Fprintf(w.writer, "; CRC32 checksum: %08x\n", Checksum(img)); err != nil {
		return fmt.Errorf("writing crc32 checksum: %w", err)
	}
	if entry, ok := img.Entry(); ok {
		if _, err := fmt.Fprintf(w.writer, "; Entry point: $%04x\n", entry); err != nil {
			return fmt.Errorf("writing entry point: %w", err)
		}
	}
	if _, err := fmt.Fprintln(w.writer); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}

// WriteLines writes the lines of a listing.
func (w Writer) WriteLines(lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w.writer, line); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
	}
	return nil
}

// WriteBasic writes the detokenized lines of all BASIC blocks.
func (w Writer) WriteBasic(blocks []cassette.Block, detokenizer *basic.Detokenizer) error {
	for _, b := range blocks {
		if b.Kind != cassette.BasicBlock {
			continue
		}
		if _, err := fmt.Fprintf(w.writer, "%d %s\n", b.Line, detokenizer.Detokenize(b.Data)); err != nil {
			return fmt.Errorf("writing basic line %d: %w", b.Line, err)
		}
	}
	return nil
}

// WriteInfo writes a summary of the image, its blocks and decoding problems.
func (w Writer) WriteInfo(img *cassette.Image) error {
	if err := w.WriteCommentHeader(img); err != nil {
		return err
	}

	format := "system"
	if img.Basic {
		format = "basic"
	}
	if _, err := fmt.Fprintf(w.writer, "Format: %s, %d blocks, %d bytes\n", format, len(img.Blocks), img.Size()); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	for i, b := range img.Blocks {
		if _, err := fmt.Fprintf(w.writer, "#%03d %s\n", i, b); err != nil {
			return fmt.Errorf("writing block: %w", err)
		}
	}

	for _, d := range img.Diagnostics {
		if _, err := fmt.Fprintf(w.writer, "! %s\n", d); err != nil {
			return fmt.Errorf("writing diagnostic: %w", err)
		}
	}
	return nil
}

// Checksum returns the CRC32 checksum of the memory ranges covered by the
// system blocks in address order, or of the concatenated payload for BASIC
// images.
func Checksum(img *cassette.Image) uint32 {
	ranges := img.SystemRanges()
	if len(ranges) == 0 {
		return crc32.ChecksumIEEE(img.Data())
	}

	mem := make([]byte, 0x10000)
	cassette.Flatten(img.Blocks, mem)

	crc := crc32.NewIEEE()
	for _, r := range ranges {
		_, _ = crc.Write(mem[r.Start:r.End])
	}
	return crc.Sum32()
}
