package cassette

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned when encoding BASIC images.
	ErrUnsupportedFormat = errors.New("only SYSTEM images can be encoded")
	// ErrUnknownMachine is returned when encoding an image without a machine.
	ErrUnknownMachine = errors.New("invalid machine, neither TRS-80 nor Colour Genie")
)

const (
	leaderTRS80    = 256
	filenameLength = 6
)

// Encode writes the system and entry blocks of the image in the tape format
// of its machine. Nothing is written if the image can not be encoded.
func Encode(w io.Writer, img *Image) error {
	data, err := EncodeBytes(img)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing cassette image: %w", err)
	}
	return nil
}

// EncodeBytes returns the tape format encoding of the image.
func EncodeBytes(img *Image) ([]byte, error) {
	if img.Basic {
		return nil, ErrUnsupportedFormat
	}

	var buf bytes.Buffer
	switch img.Machine {
	case TRS80:
		buf.Write(make([]byte, leaderTRS80))
		buf.WriteByte(syncTRS80)
	case ColourGenie:
		buf.WriteByte(syncGenie)
	default:
		return nil, ErrUnknownMachine
	}

	buf.WriteByte(systemHeader)
	buf.WriteString(encodeFilename(img.Filename))

	for i, b := range img.Blocks {
		switch b.Kind {
		case SystemBlock:
			if len(b.Data) == 0 || len(b.Data) > maxBlockSize {
				return nil, fmt.Errorf("system block #%d has invalid size %d", i, len(b.Data))
			}
			buf.WriteByte(systemData)
			buf.WriteByte(byte(len(b.Data)))
			buf.WriteByte(byte(b.Address))
			buf.WriteByte(byte(b.Address >> 8))
			buf.Write(b.Data)
			buf.WriteByte(b.Checksum)

		case EntryBlock:
			buf.WriteByte(systemEntry)
			buf.WriteByte(byte(b.Address))
			buf.WriteByte(byte(b.Address >> 8))
		}
	}

	return buf.Bytes(), nil
}

// encodeFilename returns the upper cased filename as Latin-1, space padded
// or cut to 6 characters.
func encodeFilename(name string) string {
	var buf strings.Builder
	for _, r := range strings.ToUpper(name) {
		if buf.Len() == filenameLength {
			break
		}
		if r > 0xff {
			r = '?'
		}
		buf.WriteByte(byte(r))
	}
	for buf.Len() < filenameLength {
		buf.WriteByte(' ')
	}
	return buf.String()
}
