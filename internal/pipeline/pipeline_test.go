package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/cass80/internal/annotation"
	"github.com/retroenv/cass80/internal/cassette"
	"github.com/retroenv/cass80/internal/loader"
	"github.com/retroenv/cass80/internal/options"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// systemTape is a Colour Genie tape with LD A,1 / RET at 0x5800.
var systemTape = []byte{
	0x66, 0x55, 'T', 'E', 'S', 'T', ' ', ' ',
	0x3c, 0x03, 0x00, 0x58, 0x3e, 0x01, 0xc9, 0x60,
	0x78, 0x00, 0x58,
}

// basicTape is a Colour Genie BASIC program: 10 PRINT "HI"
var basicTape = []byte{
	0x66, 'A',
	0x34, 0x12, 0x0a, 0x00, 0xb2, ' ', '"', 'H', 'I', '"', 0x00,
	0x00, 0x00,
}

func TestNew(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := New(logger)

	assert.NotNil(t, p)
	assert.NotNil(t, p.logger)
	assert.NotNil(t, p.detector)
	assert.NotNil(t, p.loader)
}

func TestExecute(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := New(logger)

	systemFile := createTempFile(t, "test.cas", systemTape)
	basicFile := createTempFile(t, "basic.cas", basicTape)

	tests := []struct {
		name     string
		input    string
		mode     options.Mode
		wantMode options.Mode
		contains []string
		wantErr  error
	}{
		{
			name:     "system image listing",
			input:    systemFile,
			mode:     options.ModeAuto,
			wantMode: options.ModeListing,
			contains: []string{"; Machine: eg2000", "; Entry point: $5800", "  5800: 3E01", "LD     A,1", "RET"},
		},
		{
			name:     "basic image",
			input:    basicFile,
			mode:     options.ModeAuto,
			wantMode: options.ModeBasic,
			contains: []string{"10 PRINT \"HI\"\n"},
		},
		{
			name:     "xml export",
			input:    systemFile,
			mode:     options.ModeXML,
			wantMode: options.ModeXML,
			contains: []string{"<cassette sha1=", "<machine>eg2000</machine>", "3e01c9"},
		},
		{
			name:     "info",
			input:    systemFile,
			mode:     options.ModeInfo,
			wantMode: options.ModeInfo,
			contains: []string{"Format: system, 2 blocks, 3 bytes", "#001 entry $5800"},
		},
		{
			name:    "basic listing of system image",
			input:   systemFile,
			mode:    options.ModeBasic,
			wantErr: ErrNotBasic,
		},
		{
			name:    "disassembly of basic image",
			input:   basicFile,
			mode:    options.ModeListing,
			wantErr: ErrNothingToList,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := options.Program{
				Parameters: options.Parameters{Input: tt.input},
				Flags:      options.Flags{Quiet: true},
			}
			disasmOpts := options.NewDisassembler()
			disasmOpts.Mode = tt.mode

			var buf bytes.Buffer
			result, err := p.Execute(context.Background(), opts, disasmOpts, &buf)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantMode, result.Mode)
			for _, s := range tt.contains {
				assert.True(t, strings.Contains(buf.String(), s))
			}
		})
	}
}

func TestExecuteErrors(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := New(logger)

	t.Run("non-existent file", func(t *testing.T) {
		opts := options.Program{
			Parameters: options.Parameters{Input: "/nonexistent/file.cas"},
		}
		var buf bytes.Buffer
		_, err := p.Execute(context.Background(), opts, options.NewDisassembler(), &buf)
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		opts := options.Program{
			Parameters: options.Parameters{Input: createTempFile(t, "test.cas", systemTape)},
		}
		var buf bytes.Buffer
		_, err := p.Execute(ctx, opts, options.NewDisassembler(), &buf)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, 0, buf.Len())
	})
}

func TestExecuteSaveAndVerify(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := New(logger)
	dir := t.TempDir()

	t.Run("system image", func(t *testing.T) {
		saved := filepath.Join(dir, "saved.cas")
		opts := options.Program{
			Parameters: options.Parameters{Input: createTempFile(t, "test.cas", systemTape), Save: saved},
			Flags:      options.Flags{Verify: true, Quiet: true},
		}

		var buf bytes.Buffer
		_, err := p.Execute(context.Background(), opts, options.NewDisassembler(), &buf)
		assert.NoError(t, err)

		data, err := os.ReadFile(saved)
		assert.NoError(t, err)
		assert.Equal(t, systemTape, data)
	})

	t.Run("basic image is not saved", func(t *testing.T) {
		saved := filepath.Join(dir, "basic.cas")
		opts := options.Program{
			Parameters: options.Parameters{Input: createTempFile(t, "basic.cas", basicTape), Save: saved},
			Flags:      options.Flags{Quiet: true},
		}

		var buf bytes.Buffer
		_, err := p.Execute(context.Background(), opts, options.NewDisassembler(), &buf)
		assert.True(t, errors.Is(err, cassette.ErrUnsupportedFormat))

		_, err = os.Stat(saved)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestExecuteWithInputUndo(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := New(logger)

	program := []byte{0x3e, 0x01, 0xc9}
	mover := []byte{0xf3, 0x21, 0x00, 0x80, 0x11, 0x00, 0x60, 0x01, 0x03, 0x00, 0xed, 0xb0, 0xc3, 0x00, 0x60}
	input := &loader.Input{
		Image: &cassette.Image{
			Machine: cassette.TRS80,
			Blocks: []cassette.Block{
				{Kind: cassette.SystemBlock, Address: 0x8000, Checksum: cassette.Checksum(0x8000, program), Data: program},
				{Kind: cassette.SystemBlock, Address: 0x9000, Checksum: cassette.Checksum(0x9000, mover), Data: mover},
				{Kind: cassette.EntryBlock, Address: 0x9000},
			},
		},
		Annotations: annotation.NewStore("", annotation.Entry{Address: 0x6000, Symbol: "START"}),
	}

	opts := options.Program{
		Flags: options.Flags{Undo: true, Verify: true, Quiet: true},
	}
	disasmOpts := options.NewDisassembler()

	var buf bytes.Buffer
	result, err := p.ExecuteWithInput(context.Background(), input, opts, disasmOpts, &buf)
	assert.NoError(t, err)
	assert.NotNil(t, result.Mover)
	assert.NotNil(t, result.Detected)
	assert.Equal(t, uint16(0x8000), result.Mover.Source)
	assert.Equal(t, []cassette.Block{
		{Kind: cassette.SystemBlock, Address: 0x6000, Checksum: cassette.Checksum(0x6000, program), Data: program},
		{Kind: cassette.EntryBlock, Address: 0x6000},
	}, result.Image.Blocks)
	assert.Equal(t, 3, len(input.Image.Blocks))

	output := buf.String()
	assert.True(t, strings.Contains(output, "START:"))
	assert.True(t, strings.Contains(output, "; Entry point: $6000"))
}

func TestExecuteWithInputDetectsMover(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := New(logger)

	mover := []byte{0xf3, 0x21, 0x00, 0x80, 0x11, 0x00, 0x60, 0x01, 0x03, 0x00, 0xed, 0xb0, 0xc3, 0x00, 0x60}
	img := &cassette.Image{
		Machine: cassette.TRS80,
		Blocks: []cassette.Block{
			{Kind: cassette.SystemBlock, Address: 0x8000, Data: []byte{0x3e, 0x01, 0xc9}},
			{Kind: cassette.SystemBlock, Address: 0x9000, Data: mover},
			{Kind: cassette.EntryBlock, Address: 0x9000},
		},
	}
	input := &loader.Input{Image: img, Annotations: annotation.NewStore("")}

	var buf bytes.Buffer
	result, err := p.ExecuteWithInput(context.Background(), input, options.Program{Flags: options.Flags{Quiet: true}},
		options.NewDisassembler(), &buf)
	assert.NoError(t, err)
	assert.NotNil(t, result.Detected)
	assert.Equal(t, uint16(0x9000), result.Detected.Address)
	assert.Equal(t, uint16(0x6000), result.Detected.Entry)
	assert.Nil(t, result.Mover)
	assert.True(t, result.Image == img)
}

func TestExecuteWithInputWithoutMover(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := New(logger)

	img := &cassette.Image{
		Machine: cassette.TRS80,
		Blocks:  []cassette.Block{{Kind: cassette.SystemBlock, Address: 0x4000, Data: []byte{0x00}}},
	}
	input := &loader.Input{Image: img, Annotations: annotation.NewStore("")}
	opts := options.Program{Flags: options.Flags{Undo: true, Quiet: true}}

	var buf bytes.Buffer
	result, err := p.ExecuteWithInput(context.Background(), input, opts, options.NewDisassembler(), &buf)
	assert.NoError(t, err)
	assert.Nil(t, result.Mover)
	assert.Nil(t, result.Detected)
	assert.True(t, result.Image == img)
}

func TestExecuteWithInputWrapsAround(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := New(logger)

	input := &loader.Input{
		Image: &cassette.Image{
			Machine: cassette.TRS80,
			Blocks:  []cassette.Block{{Kind: cassette.SystemBlock, Address: 0xfff0, Data: make([]byte, 32)}},
		},
		Annotations: annotation.NewStore(""),
	}
	disasmOpts := options.NewDisassembler()
	disasmOpts.Mode = options.ModeListing

	var buf bytes.Buffer
	_, err := p.ExecuteWithInput(context.Background(), input, options.Program{Flags: options.Flags{Quiet: true}}, disasmOpts, &buf)
	assert.NoError(t, err)

	output := buf.String()
	assert.True(t, strings.Contains(output, "  0000: 00"))
	assert.True(t, strings.Contains(output, "  000F: 00"))
	assert.True(t, strings.Contains(output, "  FFF0: 00"))
	assert.True(t, strings.Contains(output, "  FFFF: 00"))
	assert.False(t, strings.Contains(output, "  0010: "))
	assert.True(t, strings.Index(output, "  000F: 00") < strings.Index(output, "  FFF0: 00"))
}

func TestExecuteWithInputROM(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := New(logger)

	input := &loader.Input{
		Image: &cassette.Image{Machine: cassette.ColourGenie, Basic: true},
		ROM:   []byte{0xf3, 0xaf},
	}
	disasmOpts := options.NewDisassembler()
	disasmOpts.Mode = options.ModeListing

	var buf bytes.Buffer
	_, err := p.ExecuteWithInput(context.Background(), input, options.Program{}, disasmOpts, &buf)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "  0000: F3"))
	assert.True(t, strings.Contains(buf.String(), "XOR    A"))
}

func TestOutputMode(t *testing.T) {
	system := &cassette.Image{}
	program := &cassette.Image{Basic: true}

	assert.Equal(t, options.ModeListing, outputMode(options.ModeAuto, system))
	assert.Equal(t, options.ModeBasic, outputMode(options.ModeAuto, program))
	assert.Equal(t, options.ModeBasic, outputMode("", program))
	assert.Equal(t, options.ModeInfo, outputMode(options.ModeInfo, program))
}

func createTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, name)
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return tmpFile
}
