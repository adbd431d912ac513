// Package loader handles input file loading operations.
package loader

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"

	"github.com/retroenv/cass80/internal/annotation"
	"github.com/retroenv/cass80/internal/cassette"
	"github.com/retroenv/cass80/internal/detector"
	"github.com/retroenv/cass80/internal/options"
	"github.com/retroenv/retrogolib/log"
)

const (
	addressSpace   = 0x10000
	filenameLength = 6
)

// Input contains all loaded files of a single run.
type Input struct {
	Image       *cassette.Image
	ROM         []byte            // optional ROM image loaded at address 0
	Annotations *annotation.Store // empty store if no annotation file was given
}

// Loader handles loading input files from disk.
type Loader struct {
	logger  *log.Logger
	decoder *cassette.Decoder
}

// New creates a new input loader.
func New(logger *log.Logger) *Loader {
	return &Loader{
		logger:  logger,
		decoder: cassette.NewDecoder(logger),
	}
}

// Load loads the input file based on the detected kind, the optional ROM
// image and the optional annotation file.
func (l *Loader) Load(opts options.Program, kind detector.Kind, origin uint16) (*Input, error) {
	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", opts.Input, err)
	}

	img, err := l.LoadFromBytes(data, kind, origin, opts.Input)
	if err != nil {
		return nil, err
	}

	input := &Input{
		Image:       img,
		Annotations: annotation.NewStore(img.Machine.String()),
	}

	if opts.ROM != "" {
		input.ROM, err = os.ReadFile(opts.ROM)
		if err != nil {
			return nil, fmt.Errorf("reading ROM file %s: %w", opts.ROM, err)
		}
		if len(input.ROM) > addressSpace {
			return nil, fmt.Errorf("ROM file %s exceeds the address space with %d bytes", opts.ROM, len(input.ROM))
		}
	}

	if opts.Annotations != "" {
		input.Annotations, err = annotation.LoadFile(opts.Annotations)
		if err != nil {
			return nil, fmt.Errorf("loading annotations: %w", err)
		}
		l.logger.Debug("Loaded annotations",
			log.String("file", opts.Annotations),
			log.Int("entries", input.Annotations.Len()))
	}

	return input, nil
}

// LoadFromBytes decodes a cassette image or wraps a binary file into an
// image with system blocks at the origin address.
func (l *Loader) LoadFromBytes(data []byte, kind detector.Kind, origin uint16, filename string) (*cassette.Image, error) {
	if kind == detector.Cassette {
		img, err := l.decoder.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decoding cassette image: %w", err)
		}
		return img, nil
	}

	return binaryImage(data, origin, filename)
}

func binaryImage(data []byte, origin uint16, filename string) (*cassette.Image, error) {
	if len(data) == 0 {
		return nil, cassette.ErrEmptyImage
	}
	if int(origin)+len(data) > addressSpace {
		return nil, fmt.Errorf("binary of %d bytes at 0x%04x exceeds the address space", len(data), origin)
	}

	name := filepath.Base(filename)
	name = name[:len(name)-len(filepath.Ext(name))]
	if len(name) > filenameLength {
		name = name[:filenameLength]
	}

	digest := sha1.Sum(data)
	img := &cassette.Image{
		Machine:  cassette.ColourGenie,
		Filename: name,
		Digest:   digest[:],
	}

	for offset := 0; offset < len(data); offset += cassette.DefaultBlockLength {
		chunk := data[offset:min(len(data), offset+cassette.DefaultBlockLength)]
		address := origin + uint16(offset)
		img.Blocks = append(img.Blocks, cassette.Block{
			Kind:     cassette.SystemBlock,
			Address:  address,
			Checksum: cassette.Checksum(address, chunk),
			Data:     chunk,
		})
	}
	img.Blocks = append(img.Blocks, cassette.Block{Kind: cassette.EntryBlock, Address: origin})
	return img, nil
}
