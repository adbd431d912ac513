package cassette

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/retroenv/retrogolib/log"
)

// ErrEmptyImage is returned for cassette images without any data.
var ErrEmptyImage = errors.New("empty cassette image")

// State is a state of the cassette decoder.
type State uint8

// decoder states.
const (
	StateComment State = iota
	StateEOF
	StateSilence
	StateNul
	StateHeader
	StateSystemBlocktype
	StateSystemCount
	StateSystemAddrLsb
	StateSystemAddrMsb
	StateSystemData
	StateSystemCsum
	StateSystemEntryLsb
	StateSystemEntryMsb
	StateBasicAddrLsb
	StateBasicAddrMsb
	StateBasicLineLsb
	StateBasicLineMsb
	StateBasicData
	StateAfterEntry
	StateIgnore
)

var stateNames = [...]string{
	StateComment:         "comment",
	StateEOF:             "eof",
	StateSilence:         "silence",
	StateNul:             "nul",
	StateHeader:          "header",
	StateSystemBlocktype: "system blocktype",
	StateSystemCount:     "system count",
	StateSystemAddrLsb:   "system address lsb",
	StateSystemAddrMsb:   "system address msb",
	StateSystemData:      "system data",
	StateSystemCsum:      "system checksum",
	StateSystemEntryLsb:  "system entry lsb",
	StateSystemEntryMsb:  "system entry msb",
	StateBasicAddrLsb:    "basic address lsb",
	StateBasicAddrMsb:    "basic address msb",
	StateBasicLineLsb:    "basic line lsb",
	StateBasicLineMsb:    "basic line msb",
	StateBasicData:       "basic data",
	StateAfterEntry:      "after entry",
	StateIgnore:          "ignore",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", s)
}

// DiagnosticKind classifies a decoding problem.
type DiagnosticKind uint8

// diagnostic kinds.
const (
	ProtocolError DiagnosticKind = iota
	ChecksumError
)

// Diagnostic is a non fatal problem found while decoding.
type Diagnostic struct {
	Offset  int // offset of the byte in the image
	State   State
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("offset %d (%s): %s", d.Offset, d.State, d.Message)
}

// header field prefixes of a virtual tape file, the value starts at column 13.
const headerValueColumn = 13

var headerFields = []struct {
	prefix string
	field  func(h *Header) *string
}{
	{"Name       :", func(h *Header) *string { return &h.Name }},
	{"Author     :", func(h *Header) *string { return &h.Author }},
	{"Copyright  :", func(h *Header) *string { return &h.Copyright }},
}

const descriptionPrefix = "Description:"

const (
	headerSize       = 8
	basicHeaderTRS80 = 4 // 3 header bytes and the filename
	basicHeaderGenie = 1 // filename
	maxBlockSize     = 256
)

// Decoder decodes cassette images.
type Decoder struct {
	logger *log.Logger
}

// NewDecoder returns a new cassette image decoder.
func NewDecoder(logger *log.Logger) *Decoder {
	return &Decoder{
		logger: logger,
	}
}

// Read reads and decodes a cassette image.
func (d *Decoder) Read(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading cassette image: %w", err)
	}
	return d.Decode(data)
}

// Decode decodes a cassette image. Protocol and checksum problems do not
// stop the decoding, they are returned as diagnostics of the image.
func (d *Decoder) Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	dec := &decoding{
		logger: d.logger,
		data:   data,
		img:    &Image{},
		hash:   sha1.New(),
	}
	dec.detect()

	for dec.pos < len(dec.data) {
		b := dec.data[dec.pos]
		dec.pos++
		dec.step(b)
	}
	dec.finish()

	d.logger.Info("Loaded cassette image",
		log.String("machine", dec.img.Machine.String()),
		log.Int("blocks", len(dec.img.Blocks)),
		log.Int("bytes", dec.img.Size()),
		log.String("sha1", dec.img.DigestString()))

	return dec.img, nil
}

// decoding holds the state of a single decoding run.
type decoding struct {
	logger *log.Logger
	data   []byte
	pos    int
	state  State
	img    *Image
	hash   hash.Hash

	line        []byte // comment line
	header      []byte
	block       Block
	count       int
	checksum    uint8
	raw         []byte
	nulReported bool
}

// detect determines the machine and the initial state from the image start.
func (dec *decoding) detect() {
	if bytes.HasPrefix(dec.data, []byte(virtualTapeMarker)) {
		dec.img.Machine = ColourGenie
		dec.pos = virtualTapeHeaderSize
		dec.state = StateComment
		return
	}

	start := -1
	for i, b := range dec.data {
		if b == syncTRS80 || b == syncGenie {
			start = i
			break
		}
	}

	if start < 0 {
		dec.img.Machine = ColourGenie
		dec.state = StateNul
		return
	}

	zeros := 0
	for zeros < start && dec.data[zeros] == silence {
		zeros++
	}

	// a Colour Genie BASIC program can contain a 0xa5 token, a TRS-80 image
	// only has silence before the sync byte
	if dec.data[start] == syncGenie || zeros < start {
		dec.img.Machine = ColourGenie
		dec.state = StateNul
		return
	}

	dec.img.Machine = TRS80
	dec.pos = start
	dec.state = StateSilence
}

func (dec *decoding) step(b byte) {
	switch dec.state {
	case StateComment:
		dec.comment(b)

	case StateEOF:
		if b == silence {
			dec.state = StateNul
			return
		}
		dec.protocolError(b)

	case StateSilence:
		if b == silence {
			return
		}
		dec.state = StateNul
		dec.nul(b)

	case StateNul:
		dec.nul(b)

	case StateHeader:
		dec.header = append(dec.header, b)
		if len(dec.header) == headerSize {
			dec.parseHeader()
		}

	case StateSystemBlocktype:
		dec.digest(b)
		switch b {
		case systemData:
			dec.state = StateSystemCount
		case systemEntry:
			dec.state = StateSystemEntryLsb
		default:
			dec.protocolError(b)
		}

	case StateSystemCount:
		dec.digest(b)
		dec.count = int(b)
		if dec.count == 0 {
			dec.count = maxBlockSize
		}
		dec.state = StateSystemAddrLsb

	case StateSystemAddrLsb:
		dec.digest(b)
		dec.block = Block{Kind: SystemBlock, Address: uint16(b)}
		dec.state = StateSystemAddrMsb

	case StateSystemAddrMsb:
		dec.digest(b)
		dec.block.Address |= uint16(b) << 8
		dec.block.Data = make([]byte, 0, dec.count)
		dec.checksum = uint8(dec.block.Address) + uint8(dec.block.Address>>8)
		dec.state = StateSystemData

	case StateSystemData:
		dec.digest(b)
		dec.block.Data = append(dec.block.Data, b)
		dec.checksum += b
		if len(dec.block.Data) == dec.count {
			dec.state = StateSystemCsum
		}

	case StateSystemCsum:
		dec.digest(b)
		if b != dec.checksum {
			dec.report(ChecksumError, fmt.Sprintf("block #%d checksum error (found:0x%02x calc:0x%02x)",
				len(dec.img.Blocks), b, dec.checksum))
		}
		// the received checksum is kept to reproduce the image
		dec.block.Checksum = b
		dec.img.Blocks = append(dec.img.Blocks, dec.block)
		dec.state = StateSystemBlocktype

	case StateSystemEntryLsb:
		dec.digest(b)
		dec.block = Block{Kind: EntryBlock, Address: uint16(b)}
		dec.state = StateSystemEntryMsb

	case StateSystemEntryMsb:
		dec.digest(b)
		dec.block.Address |= uint16(b) << 8
		dec.img.Blocks = append(dec.img.Blocks, dec.block)
		dec.logger.Debug("System entry point", log.String("address", fmt.Sprintf("0x%04X", dec.block.Address)))
		dec.state = StateAfterEntry

	case StateAfterEntry:
		switch b {
		case systemData:
			dec.digest(b)
			dec.state = StateSystemCount
		case systemEntry:
			dec.digest(b)
			dec.state = StateSystemEntryLsb
		default:
			dec.state = StateIgnore
			dec.raw = append(dec.raw, b)
		}

	case StateBasicAddrLsb:
		dec.digest(b)
		dec.block = Block{Kind: BasicBlock, Address: uint16(b)}
		dec.state = StateBasicAddrMsb

	case StateBasicAddrMsb:
		dec.digest(b)
		dec.block.Address |= uint16(b) << 8
		if dec.block.Address == 0 {
			dec.state = StateIgnore
			return
		}
		dec.state = StateBasicLineLsb

	case StateBasicLineLsb:
		dec.digest(b)
		dec.block.Line = uint16(b)
		dec.state = StateBasicLineMsb

	case StateBasicLineMsb:
		dec.digest(b)
		dec.block.Line |= uint16(b) << 8
		dec.block.Data = []byte{}
		dec.state = StateBasicData

	case StateBasicData:
		dec.digest(b)
		if b == 0 {
			dec.img.Blocks = append(dec.img.Blocks, dec.block)
			dec.state = StateBasicAddrLsb
			return
		}
		dec.block.Data = append(dec.block.Data, b)

	case StateIgnore:
		dec.raw = append(dec.raw, b)
	}
}

func (dec *decoding) comment(b byte) {
	switch b {
	case carriageRet:

	case lineFeed:
		dec.commentLine(string(dec.line))
		dec.line = dec.line[:0]

	case endOfComments:
		if dec.img.Header.Description != "" {
			dec.logger.Debug("Header description", log.String("description", dec.img.Header.Description))
		}
		dec.state = StateEOF

	default:
		dec.line = append(dec.line, b)
	}
}

func (dec *decoding) commentLine(line string) {
	h := &dec.img.Header
	for _, f := range headerFields {
		if strings.HasPrefix(line, f.prefix) {
			*f.field(h) = latin1(headerValue(line))
			return
		}
	}

	if strings.HasPrefix(line, descriptionPrefix) {
		h.Description = strings.TrimSpace(latin1(headerValue(line)))
		return
	}
	if h.Description != "" {
		h.Description += "\n" + strings.TrimSpace(latin1(line))
	}
}

func headerValue(line string) string {
	if len(line) <= headerValueColumn {
		return ""
	}
	return line[headerValueColumn:]
}

func (dec *decoding) nul(b byte) {
	switch b {
	case syncTRS80, syncGenie:
		dec.img.Sync = b
		dec.digest(b)
		dec.header = dec.header[:0]
		dec.nulReported = false
		dec.state = StateHeader

	case silence, preludeGenie:

	default:
		dec.raw = append(dec.raw, b)
		if !dec.nulReported {
			dec.protocolError(b)
			dec.nulReported = true
		}
	}
}

// parseHeader determines the image format from the 8 bytes following the
// sync byte. BASIC headers are shorter, the unused bytes are read again as
// program data.
func (dec *decoding) parseHeader() {
	h := dec.header
	dec.state = StateBasicAddrLsb

	switch {
	case h[0] == systemHeader && h[7] == systemData:
		dec.img.Filename = latin1(string(h[1:7]))
		dec.img.Prefix = h[0]
		dec.img.Basic = false
		dec.digest(h...)
		dec.state = StateSystemCount
		dec.logger.Debug("System tape", log.String("name", dec.img.Filename))

	case h[0] == basicHeader && h[1] == basicHeader && h[2] == basicHeader:
		dec.img.Filename = latin1(string(h[3:4]))
		dec.img.Basic = true
		dec.digest(h[:basicHeaderTRS80]...)
		dec.pos -= headerSize - basicHeaderTRS80
		dec.logger.Debug("TRS-80 BASIC tape", log.String("name", dec.img.Filename))

	default:
		dec.img.Filename = latin1(string(h[0:1]))
		dec.img.Basic = true
		dec.digest(h[:basicHeaderGenie]...)
		dec.pos -= headerSize - basicHeaderGenie
		dec.logger.Debug("Colour Genie BASIC tape", log.String("name", dec.img.Filename))
	}
}

func (dec *decoding) finish() {
	if dec.state == StateHeader && len(dec.header) > 0 {
		dec.report(ProtocolError, fmt.Sprintf("truncated header of %d bytes", len(dec.header)))
	}
	if len(dec.raw) > 0 {
		dec.img.Blocks = append(dec.img.Blocks, Block{Kind: RawBlock, Data: dec.raw})
	}
	dec.img.Digest = dec.hash.Sum(nil)
}

func (dec *decoding) digest(data ...byte) {
	_, _ = dec.hash.Write(data)
}

func (dec *decoding) protocolError(b byte) {
	dec.report(ProtocolError, fmt.Sprintf("unexpected %d (0x%02x)", b, b))
}

func (dec *decoding) report(kind DiagnosticKind, message string) {
	diag := Diagnostic{
		Offset:  dec.pos - 1,
		State:   dec.state,
		Kind:    kind,
		Message: message,
	}
	dec.img.Diagnostics = append(dec.img.Diagnostics, diag)
	dec.logger.Warn("Cassette decoding problem",
		log.Int("offset", diag.Offset),
		log.String("state", diag.State.String()),
		log.String("problem", message))
}

// latin1 converts a Latin-1 encoded string to UTF-8.
func latin1(s string) string {
	runes := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		runes[i] = rune(s[i])
	}
	return string(runes)
}
