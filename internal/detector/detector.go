// Package detector handles input format detection.
package detector

import (
	"path/filepath"
	"strings"

	"github.com/retroenv/cass80/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// Kind is the format of an input file.
type Kind uint8

// input kinds.
const (
	Cassette Kind = iota // tape image with sync bytes and block framing
	Binary               // raw memory dump
)

func (k Kind) String() string {
	if k == Binary {
		return "binary"
	}
	return "cassette"
}

// Detector handles input format detection from file extensions and options.
type Detector struct {
	logger *log.Logger
}

// New creates a new input format detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the input format from options or the file extension.
func (d *Detector) Detect(opts options.Program) Kind {
	if opts.Binary {
		return Binary
	}

	kind := d.detectFromFile(opts.Input)
	d.logger.Debug("Auto-detected input format",
		log.String("format", kind.String()),
		log.String("file", opts.Input))
	return kind
}

// detectFromFile determines the input format based on the file extension.
func (d *Detector) detectFromFile(filename string) Kind {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".bin", ".rom", ".cmd":
		return Binary
	default:
		// .cas, .cg and unknown extensions are tape images
		return Cassette
	}
}
