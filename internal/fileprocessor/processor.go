// Package fileprocessor handles file loading and processing operations
package fileprocessor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/cass80/internal/options"
	"github.com/retroenv/cass80/internal/pipeline"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

// ProcessFile handles the complete file processing workflow
func ProcessFile(ctx context.Context, logger *log.Logger, opts options.Program, disasmOptions options.Disassembler) error {
	writer, err := createWriter(opts)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	defer func() { _ = writer.Close() }()

	result, err := pipeline.New(logger).Execute(ctx, opts, disasmOptions, writer)
	if err != nil {
		return err
	}

	if result.Mover != nil {
		logger.Debug("Relocation reversed", log.String("mover", result.Mover.String()))
	}
	return nil
}

// GetFilesToProcess returns list of files to process based on options
func GetFilesToProcess(opts *options.Program) ([]string, error) {
	if opts.Batch != "" {
		matches, err := filepath.Glob(opts.Batch)
		if err != nil {
			return nil, fmt.Errorf("globbing batch pattern: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match batch pattern '%s'", opts.Batch)
		}
		return matches, nil
	}
	return []string{opts.Input}, nil
}

// GenerateOutputFilename generates output filename for a given input file
// and output mode.
func GenerateOutputFilename(inputFile string, mode options.Mode) string {
	ext := filepath.Ext(inputFile)
	return inputFile[:len(inputFile)-len(ext)] + outputExtension(mode)
}

func outputExtension(mode options.Mode) string {
	switch mode {
	case options.ModeBasic:
		return ".bas"
	case options.ModeXML:
		return ".xml"
	case options.ModeInfo:
		return ".txt"
	default:
		return ".lst"
	}
}

func createWriter(opts options.Program) (io.WriteCloser, error) {
	if opts.Output == "" {
		return nopCloser{os.Stdout}, nil
	}

	file, err := os.Create(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("creating output file %s: %w", opts.Output, err)
	}
	return file, nil
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	logger.Info("cass80 - TRS-80 and Colour Genie cassette tool",
		log.String("version", buildinfo.Version(version, commit, date)))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Debug("Build", log.String("date", date))
	}
}

// nopCloser keeps stdout open after processing a file.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}
