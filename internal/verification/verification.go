// Package verification verifies that a decoded image encodes back to the same blocks.
package verification

import (
	"context"
	"fmt"

	"github.com/retroenv/cass80/internal/cassette"
	"github.com/retroenv/retrogolib/log"
)

// maxReportedMismatches limits the logged byte differences per block.
const maxReportedMismatches = 10

// VerifyImage encodes the image, decodes the result again and compares the
// system and entry blocks of both images.
func VerifyImage(ctx context.Context, logger *log.Logger, img *cassette.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := cassette.EncodeBytes(img)
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}

	decoded, err := cassette.NewDecoder(logger).Decode(encoded)
	if err != nil {
		return fmt.Errorf("decoding encoded image: %w", err)
	}
	if err := compareImageDetails(logger, img, decoded); err != nil {
		return fmt.Errorf("comparing image details: %w", err)
	}
	return nil
}

func compareImageDetails(logger *log.Logger, input, output *cassette.Image) error {
	if input.Machine != output.Machine {
		return fmt.Errorf("machine mismatch, expected %s but got %s", input.Machine, output.Machine)
	}

	expected := programBlocks(input.Blocks)
	got := programBlocks(output.Blocks)
	if len(expected) != len(got) {
		return fmt.Errorf("mismatched block count, %d != %d", len(expected), len(got))
	}

	for i := range expected {
		a, b := expected[i], got[i]
		if a.Kind != b.Kind {
			return fmt.Errorf("block #%d type mismatch, expected %s but got %s", i, a.Kind, b.Kind)
		}
		if a.Address != b.Address {
			return fmt.Errorf("block #%d address mismatch, expected $%04x but got $%04x", i, a.Address, b.Address)
		}
		if a.Checksum != b.Checksum {
			return fmt.Errorf("block #%d checksum mismatch, expected 0x%02x but got 0x%02x", i, a.Checksum, b.Checksum)
		}
		if err := checkBufferEqual(logger, a.Data, b.Data); err != nil {
			return fmt.Errorf("block #%d data mismatch: %w", i, err)
		}
	}
	return nil
}

// programBlocks returns the blocks that are part of an encoded image.
func programBlocks(blocks []cassette.Block) []cassette.Block {
	var result []cassette.Block
	for _, b := range blocks {
		if b.Kind == cassette.SystemBlock || b.Kind == cassette.EntryBlock {
			result = append(result, b)
		}
	}
	return result
}

func checkBufferEqual(logger *log.Logger, input, output []byte) error {
	if len(input) != len(output) {
		return fmt.Errorf("mismatched lengths, %d != %d", len(input), len(output))
	}

	var diffs uint64
	for i := range input {
		if input[i] == output[i] {
			continue
		}

		diffs++
		if diffs < maxReportedMismatches {
			logger.Warn("Offset mismatch",
				log.Int("offset", i),
				log.String("expected", fmt.Sprintf("0x%02x", input[i])),
				log.String("got", fmt.Sprintf("0x%02x", output[i])))
		}
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%d offset mismatches", diffs)
}
