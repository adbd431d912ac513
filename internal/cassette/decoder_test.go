package cassette

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func decode(t *testing.T, data []byte) *Image {
	t.Helper()
	img, err := NewDecoder(log.NewTestLogger(t)).Decode(data)
	assert.NoError(t, err)
	return img
}

func digestOf(data []byte) []byte {
	sum := sha1.Sum(data)
	return sum[:]
}

// systemTape returns a TRS-80 system tape with a single data block.
func systemTape(address uint16, payload []byte, checksum byte) []byte {
	data := []byte{syncTRS80, systemHeader, 'F', 'O', 'O', 'O', 'O', 'O', systemData}
	data = append(data, byte(len(payload)), byte(address), byte(address>>8))
	data = append(data, payload...)
	return append(data, checksum)
}

func TestDecodeSystem(t *testing.T) {
	payload := []byte("HELLO")
	data := systemTape(0x1000, payload, Checksum(0x1000, payload))

	img := decode(t, data)
	assert.Equal(t, TRS80, img.Machine)
	assert.False(t, img.Basic)
	assert.Equal(t, "FOOOOO", img.Filename)
	assert.Equal(t, byte(syncTRS80), img.Sync)
	assert.Equal(t, byte(systemHeader), img.Prefix)
	assert.Equal(t, 0, len(img.Diagnostics))
	assert.Equal(t, []Block{
		{Kind: SystemBlock, Address: 0x1000, Checksum: 0x84, Data: payload},
	}, img.Blocks)
	assert.Equal(t, digestOf(data), img.Digest)
}

func TestDecodeChecksumMismatch(t *testing.T) {
	data := systemTape(0x1000, []byte("HELLO"), 0xc3)
	data = append(data, 0x38)

	img := decode(t, data)
	assert.Equal(t, 1, len(img.Blocks))
	assert.Equal(t, uint8(0xc3), img.Blocks[0].Checksum)
	assert.Equal(t, 2, len(img.Diagnostics))
	assert.Equal(t, ChecksumError, img.Diagnostics[0].Kind)
	assert.Equal(t, StateSystemCsum, img.Diagnostics[0].State)
	assert.Equal(t, len(data)-2, img.Diagnostics[0].Offset)
	assert.Equal(t, ProtocolError, img.Diagnostics[1].Kind)
	assert.Equal(t, StateSystemBlocktype, img.Diagnostics[1].State)
}

func TestDecodeEntryAndTrailingData(t *testing.T) {
	payload := []byte{0xc3, 0x00, 0x10}
	data := systemTape(0x1000, payload, Checksum(0x1000, payload))
	data = append(data, systemEntry, 0x00, 0x10)
	hashed := len(data)
	data = append(data, 0xff, 0xee)

	img := decode(t, data)
	assert.Equal(t, 3, len(img.Blocks))
	assert.Equal(t, EntryBlock, img.Blocks[1].Kind)
	assert.Equal(t, Block{Kind: RawBlock, Data: []byte{0xff, 0xee}}, img.Blocks[2])
	assert.Equal(t, digestOf(data[:hashed]), img.Digest)

	entry, ok := img.Entry()
	assert.True(t, ok)
	assert.Equal(t, uint16(0x1000), entry)
	assert.Equal(t, 0, len(img.Diagnostics))
}

func TestDecodeMultipleBlocks(t *testing.T) {
	first := bytes.Repeat([]byte{0x11}, 256)
	data := systemTape(0x5000, first, Checksum(0x5000, first))
	second := []byte{0x22, 0x33}
	data = append(data, systemData, 2, 0x00, 0x51)
	data = append(data, second...)
	data = append(data, Checksum(0x5100, second))
	data = append(data, systemEntry, 0x00, 0x50, systemData, 1, 0x00, 0x60, 0x44, Checksum(0x6000, []byte{0x44}))

	img := decode(t, data)
	assert.Equal(t, 0, len(img.Diagnostics))
	assert.Equal(t, 4, len(img.Blocks))
	assert.Equal(t, 256, img.Blocks[0].Size())
	assert.Equal(t, uint16(0x5100), img.Blocks[1].Address)
	assert.Equal(t, EntryBlock, img.Blocks[2].Kind)
	assert.Equal(t, uint16(0x6000), img.Blocks[3].Address)

	start, end, ok := img.SystemRange()
	assert.True(t, ok)
	assert.Equal(t, 0x5000, start)
	assert.Equal(t, 0x6001, end)
	assert.Equal(t, 259, img.Size())
}

func TestDecodeBasic(t *testing.T) {
	program := []byte{
		0x34, 0x12, 0x0a, 0x00, 0xb2, ' ', '"', 'H', 'I', '"', 0x00,
		0x40, 0x12, 0x14, 0x00, 0x80, 0x00,
		0x00, 0x00,
	}

	tests := []struct {
		name     string
		prefix   []byte
		hashed   int
		machine  Machine
		filename string
	}{
		{"colour genie", []byte{syncGenie, 'A'}, 0, ColourGenie, "A"},
		{"trs-80", []byte{0x00, 0x00, syncTRS80, basicHeader, basicHeader, basicHeader, 'B'}, 2, TRS80, "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append(append([]byte{}, tt.prefix...), program...)
			img := decode(t, data)

			assert.Equal(t, tt.machine, img.Machine)
			assert.True(t, img.Basic)
			assert.Equal(t, tt.filename, img.Filename)
			assert.Equal(t, 0, len(img.Diagnostics))
			assert.Equal(t, []Block{
				{Kind: BasicBlock, Address: 0x1234, Line: 10, Data: []byte{0xb2, ' ', '"', 'H', 'I', '"'}},
				{Kind: BasicBlock, Address: 0x1240, Line: 20, Data: []byte{0x80}},
			}, img.Blocks)
			assert.Equal(t, digestOf(data[tt.hashed:]), img.Digest)
		})
	}
}

func TestDecodeVirtualTape(t *testing.T) {
	var data []byte
	data = append(data, virtualTapeMarker...)
	data = append(data, "Name       : GAME\r\n"...)
	data = append(data, "Author     : ME\r\n"...)
	data = append(data, "Copyright  : 1983\r\n"...)
	data = append(data, "Description: first\r\n  second  \r\n"...)
	data = append(data, endOfComments, 0x00, preludeGenie, preludeGenie)
	tape := []byte{syncGenie, systemHeader, 'G', 'A', 'M', 'E', ' ', ' ', systemData, 1, 0x00, 0x50, 'X',
		Checksum(0x5000, []byte{'X'}), systemEntry, 0x00, 0x50}
	data = append(data, tape...)

	img := decode(t, data)
	assert.Equal(t, ColourGenie, img.Machine)
	assert.Equal(t, Header{Name: "GAME", Author: "ME", Copyright: "1983", Description: "first\nsecond"}, img.Header)
	assert.Equal(t, "GAME  ", img.Filename)
	assert.Equal(t, byte(syncGenie), img.Sync)
	assert.Equal(t, 2, len(img.Blocks))
	assert.Equal(t, 0, len(img.Diagnostics))
	assert.Equal(t, digestOf(tape), img.Digest)
}

func TestDecodeWithoutSync(t *testing.T) {
	img := decode(t, []byte{0x01, 0x02, 0x03})
	assert.Equal(t, ColourGenie, img.Machine)
	assert.Equal(t, []Block{{Kind: RawBlock, Data: []byte{0x01, 0x02, 0x03}}}, img.Blocks)
	assert.Equal(t, 1, len(img.Diagnostics))
	assert.Equal(t, StateNul, img.Diagnostics[0].State)
	assert.Equal(t, 0, img.Diagnostics[0].Offset)
}

func TestDecodeTruncatedHeader(t *testing.T) {
	img := decode(t, []byte{syncGenie, systemHeader, 'A'})
	assert.Equal(t, 0, len(img.Blocks))
	assert.Equal(t, 1, len(img.Diagnostics))
	assert.Equal(t, StateHeader, img.Diagnostics[0].State)
}

func TestDecodeEmpty(t *testing.T) {
	_, err := NewDecoder(log.NewTestLogger(t)).Decode(nil)
	assert.True(t, errors.Is(err, ErrEmptyImage))
}

func TestRead(t *testing.T) {
	payload := []byte("HELLO")
	data := systemTape(0x1000, payload, Checksum(0x1000, payload))

	img, err := NewDecoder(log.NewTestLogger(t)).Read(bytes.NewReader(data))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(img.Blocks))
	assert.Equal(t, "system $1000-$1004 (5 bytes)", img.Blocks[0].String())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "system checksum", StateSystemCsum.String())
	assert.Equal(t, "state(200)", State(200).String())
}
