package cassette

import (
	"bytes"
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestEncodeRoundTrip(t *testing.T) {
	payload := []byte("HELLO")
	data := systemTape(0x1000, payload, Checksum(0x1000, payload))
	data = append(data, systemEntry, 0x00, 0x10)
	img := decode(t, data)

	var buf bytes.Buffer
	assert.NoError(t, Encode(&buf, img))

	expected := append(make([]byte, leaderTRS80), data...)
	assert.Equal(t, expected, buf.Bytes())

	decoded := decode(t, buf.Bytes())
	assert.Equal(t, img.Blocks, decoded.Blocks)
	assert.Equal(t, img.Digest, decoded.Digest)
}

func TestEncodeColourGenie(t *testing.T) {
	img := &Image{
		Machine:  ColourGenie,
		Filename: "ab",
		Blocks: []Block{
			{Kind: SystemBlock, Address: 0x5800, Checksum: 0x99, Data: []byte{0x01}},
			{Kind: RawBlock, Data: []byte{0xff}},
			{Kind: EntryBlock, Address: 0x5800},
		},
	}

	data, err := EncodeBytes(img)
	assert.NoError(t, err)
	assert.Equal(t, []byte{
		syncGenie, systemHeader, 'A', 'B', ' ', ' ', ' ', ' ',
		systemData, 0x01, 0x00, 0x58, 0x01, 0x99,
		systemEntry, 0x00, 0x58,
	}, data)
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name string
		img  *Image
		err  error
	}{
		{"basic", &Image{Machine: TRS80, Basic: true}, ErrUnsupportedFormat},
		{"unknown machine", &Image{}, ErrUnknownMachine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Encode(&buf, tt.img)
			assert.True(t, errors.Is(err, tt.err))
			assert.Equal(t, 0, buf.Len())
		})
	}
}

func TestEncodeOversizedBlock(t *testing.T) {
	img := &Image{
		Machine: TRS80,
		Blocks:  []Block{{Kind: SystemBlock, Data: make([]byte, 257)}},
	}
	_, err := EncodeBytes(img)
	assert.Error(t, err)
}

func TestEncodeFilename(t *testing.T) {
	assert.Equal(t, "GAME  ", encodeFilename("game"))
	assert.Equal(t, "LONGNA", encodeFilename("longname"))
	assert.Equal(t, "      ", encodeFilename(""))
}
