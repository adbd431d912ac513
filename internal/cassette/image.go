// Package cassette decodes and encodes TRS-80 and Colour Genie cassette images.
package cassette

import (
	"encoding/hex"
	"fmt"
)

// Machine is the computer a cassette image was written for.
type Machine uint8

// machines.
const (
	UnknownMachine Machine = iota
	TRS80
	ColourGenie
)

// String returns the short name of the machine as used in exports.
func (m Machine) String() string {
	switch m {
	case TRS80:
		return "trs80"
	case ColourGenie:
		return "eg2000"
	default:
		return "invalid"
	}
}

// tape control bytes.
const (
	silence       = 0x00
	syncTRS80     = 0xa5
	basicHeader   = 0xd3
	preludeGenie  = 0xaa
	syncGenie     = 0x66
	systemHeader  = 0x55
	systemData    = 0x3c
	systemEntry   = 0x78
	lineFeed      = 0x0a
	carriageRet   = 0x0d
	endOfComments = 0x1a
)

// virtualTapeMarker starts Colour Genie images with a comment header.
const (
	virtualTapeMarker     = "Colour Genie - Virtual Tape File"
	virtualTapeHeaderSize = 32
)

// BlockKind is the type of a decoded block.
type BlockKind uint8

// block kinds.
const (
	BasicBlock BlockKind = iota
	SystemBlock
	EntryBlock
	RawBlock
)

// String returns the name of the block kind.
func (k BlockKind) String() string {
	switch k {
	case BasicBlock:
		return "basic"
	case SystemBlock:
		return "system"
	case EntryBlock:
		return "entry"
	case RawBlock:
		return "raw"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Block is a decoded unit of a cassette image.
type Block struct {
	Kind     BlockKind
	Address  uint16 // load address, entry point or BASIC line link
	Line     uint16 // BASIC line number
	Checksum uint8  // checksum of system blocks
	Data     []byte
}

// Size returns the payload size of the block.
func (b Block) Size() int {
	return len(b.Data)
}

// End returns the address following the last byte of the block.
func (b Block) End() int {
	return int(b.Address) + len(b.Data)
}

// String returns a short description of the block.
func (b Block) String() string {
	switch b.Kind {
	case BasicBlock:
		return fmt.Sprintf("basic line %d (%d bytes)", b.Line, b.Size())
	case EntryBlock:
		return fmt.Sprintf("entry $%04x", b.Address)
	case RawBlock:
		return fmt.Sprintf("raw (%d bytes)", b.Size())
	default:
		return fmt.Sprintf("system $%04x-$%04x (%d bytes)", b.Address, b.End()-1, b.Size())
	}
}

// Checksum computes the system block checksum of a load address and payload.
func Checksum(address uint16, data []byte) uint8 {
	sum := uint8(address) + uint8(address>>8)
	for _, b := range data {
		sum += b
	}
	return sum
}

// Header contains the comment fields of a virtual tape file.
type Header struct {
	Name        string
	Author      string
	Copyright   string
	Description string
}

// Image is a decoded cassette image.
type Image struct {
	Machine  Machine
	Header   Header
	Basic    bool   // BASIC program instead of a SYSTEM (machine code) image
	Sync     byte   // sync byte found on the tape
	Prefix   byte   // header byte of SYSTEM images
	Filename string // 6 characters for SYSTEM, 1 character for BASIC images

	Blocks      []Block
	Digest      []byte // SHA-1 of the decoded data
	Diagnostics []Diagnostic
}

// DigestString returns the digest as hex string.
func (img *Image) DigestString() string {
	return hex.EncodeToString(img.Digest)
}

// Size returns the total payload size of all blocks.
func (img *Image) Size() int {
	size := 0
	for _, b := range img.Blocks {
		size += b.Size()
	}
	return size
}

// Entry returns the entry point of the first entry block.
func (img *Image) Entry() (uint16, bool) {
	for _, b := range img.Blocks {
		if b.Kind == EntryBlock {
			return b.Address, true
		}
	}
	return 0, false
}

// addressSpace is the size of the Z80 address space, blocks running past
// its end continue at address 0.
const addressSpace = 0x10000

// AddressRange is a half open range of addresses.
type AddressRange struct {
	Start int
	End   int // address following the last byte, at most 0x10000
}

// SystemRange returns the lowest address and the address following the
// highest byte covered by system blocks. The end is limited to the end of
// the address space, see SystemRanges for blocks that wrap around.
func (img *Image) SystemRange() (int, int, bool) {
	start, end := -1, -1
	for _, b := range img.Blocks {
		if b.Kind != SystemBlock || b.Size() == 0 {
			continue
		}
		if start < 0 || int(b.Address) < start {
			start = int(b.Address)
		}
		if b.End() > end {
			end = b.End()
		}
	}
	return start, min(end, addressSpace), start >= 0
}

// SystemRanges returns the address ranges covered by system blocks in
// ascending order. A block running past 0xffff adds a second range that
// starts at address 0, both are merged if they meet.
func (img *Image) SystemRanges() []AddressRange {
	start, wrapEnd := -1, 0
	end := -1
	for _, b := range img.Blocks {
		if b.Kind != SystemBlock || b.Size() == 0 {
			continue
		}
		if start < 0 || int(b.Address) < start {
			start = int(b.Address)
		}
		end = max(end, b.End())
		wrapEnd = max(wrapEnd, b.End()-addressSpace)
	}
	if start < 0 {
		return nil
	}

	switch {
	case wrapEnd > 0 && wrapEnd >= start:
		return []AddressRange{{Start: 0, End: addressSpace}}
	case wrapEnd > 0:
		return []AddressRange{{Start: 0, End: wrapEnd}, {Start: start, End: addressSpace}}
	default:
		return []AddressRange{{Start: start, End: end}}
	}
}

// Flatten copies the payload of all system blocks to their load address
// in the memory, addresses wrap around at the end of the memory.
func Flatten(blocks []Block, mem []byte) {
	if len(mem) == 0 {
		return
	}
	for _, b := range blocks {
		if b.Kind != SystemBlock {
			continue
		}
		for i, v := range b.Data {
			mem[(int(b.Address)+i)%len(mem)] = v
		}
	}
}

// Data returns the concatenated payload of all blocks.
func (img *Image) Data() []byte {
	data := make([]byte, 0, img.Size())
	for _, b := range img.Blocks {
		data = append(data, b.Data...)
	}
	return data
}
