package cassette

import (
	"errors"
	"fmt"
)

// DefaultBlockLength is the payload size of rebuilt system blocks.
const DefaultBlockLength = 256

var (
	// ErrMoverNotFound is returned if no LMOFFSET mover stub is part of the blocks.
	ErrMoverNotFound = errors.New("no LMOFFSET mover found")
	// ErrInvalidBlockLength is returned for block lengths outside of 1..256.
	ErrInvalidBlockLength = errors.New("invalid block length")
)

// moverTemplate is the relocation stub appended by LMOFFSET:
//
//	DI
//	LD   HL,src
//	LD   DE,dst
//	LD   BC,size
//	LDIR
//	JP   entry
var moverTemplate = [...]byte{
	0xf3,
	0x21, 0x00, 0x00,
	0x11, 0x00, 0x00,
	0x01, 0x00, 0x00,
	0xed, 0xb0,
	0xc3, 0x00, 0x00,
}

// opcode offsets of the mover stub, the remaining bytes are operands.
var moverOpcodeOffsets = [...]int{0, 1, 4, 7, 10, 11, 12}

// Mover describes a relocation stub found in the blocks.
type Mover struct {
	Index       int // index of the block containing the stub
	Address     uint16
	Source      uint16
	Destination uint16
	Size        uint16
	Entry       uint16
}

func (m Mover) String() string {
	return fmt.Sprintf("src:0x%04x dst:0x%04x size:0x%04x entry:0x%04x",
		m.Source, m.Destination, m.Size, m.Entry)
}

// FindMover returns the first system block that looks like a mover stub.
// Any opcode byte matching the template marks the block as a stub.
//
// The match is loose, a block of exactly 15 bytes can be taken for a stub.
// Blocks returned by UndoLMOffset with a block length of 15 may end in such
// a block, so undoing twice is not guaranteed to keep the image unchanged.
func FindMover(blocks []Block) (Mover, bool) {
	for i, b := range blocks {
		if b.Kind != SystemBlock || len(b.Data) != len(moverTemplate) {
			continue
		}
		if !matchesMover(b.Data) {
			continue
		}

		d := b.Data
		return Mover{
			Index:       i,
			Address:     b.Address,
			Source:      uint16(d[2]) | uint16(d[3])<<8,
			Destination: uint16(d[5]) | uint16(d[6])<<8,
			Size:        uint16(d[8]) | uint16(d[9])<<8,
			Entry:       uint16(d[13]) | uint16(d[14])<<8,
		}, true
	}
	return Mover{}, false
}

func matchesMover(data []byte) bool {
	for _, offset := range moverOpcodeOffsets {
		if data[offset] == moverTemplate[offset] {
			return true
		}
	}
	return false
}

// UndoLMOffset reverses the relocation of a mover stub. It returns a new
// block list with the program at its final address, split into system blocks
// of at most blockLen bytes and followed by a single entry block.
// The passed blocks are not modified.
func UndoLMOffset(blocks []Block, blockLen int) ([]Block, Mover, error) {
	if blockLen < 1 || blockLen > DefaultBlockLength {
		return nil, Mover{}, fmt.Errorf("%w: %d", ErrInvalidBlockLength, blockLen)
	}

	mover, ok := FindMover(blocks)
	if !ok {
		return nil, Mover{}, ErrMoverNotFound
	}

	mem := make([]byte, 1<<16)
	Flatten(blocks, mem)

	src, dst := mover.Source, mover.Destination
	for i := uint16(0); i < mover.Size; i++ {
		mem[dst+i] = mem[src+i]
		if dst < src {
			mem[src+i] = 0
		}
	}

	sourceEnd := int(src) + int(mover.Size)
	result := make([]Block, 0, len(blocks))
	for i, b := range blocks {
		switch {
		case i == mover.Index:
		case b.Kind == EntryBlock:
		case b.Kind == SystemBlock && int(b.Address) >= int(src) && b.End() <= sourceEnd:
		default:
			result = append(result, b)
		}
	}

	for offset := 0; offset < int(mover.Size); offset += blockLen {
		size := min(blockLen, int(mover.Size)-offset)
		address := dst + uint16(offset)
		data := make([]byte, size)
		for i := range data {
			data[i] = mem[address+uint16(i)]
		}

		result = append(result, Block{
			Kind:     SystemBlock,
			Address:  address,
			Checksum: Checksum(address, data),
			Data:     data,
		})
	}

	result = append(result, Block{Kind: EntryBlock, Address: mover.Entry})
	return result, mover, nil
}
