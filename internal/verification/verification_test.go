package verification

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/retroenv/cass80/internal/cassette"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func testImage() *cassette.Image {
	data := []byte{0x3e, 0x01, 0xc9}
	return &cassette.Image{
		Machine:  cassette.ColourGenie,
		Filename: "TEST",
		Blocks: []cassette.Block{
			{Kind: cassette.SystemBlock, Address: 0x5800, Checksum: cassette.Checksum(0x5800, data), Data: data},
			{Kind: cassette.EntryBlock, Address: 0x5800},
			{Kind: cassette.RawBlock, Data: []byte{0x01}},
		},
	}
}

func TestVerifyImage(t *testing.T) {
	logger := log.NewTestLogger(t)
	assert.NoError(t, VerifyImage(context.Background(), logger, testImage()))
}

func TestVerifyImageBasic(t *testing.T) {
	logger := log.NewTestLogger(t)
	img := testImage()
	img.Basic = true

	err := VerifyImage(context.Background(), logger, img)
	assert.True(t, errors.Is(err, cassette.ErrUnsupportedFormat))
}

func TestVerifyImageCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := VerifyImage(ctx, log.NewTestLogger(t), testImage())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCompareImageDetails(t *testing.T) {
	logger := log.NewTestLogger(t)

	tests := []struct {
		name   string
		modify func(img *cassette.Image)
	}{
		{"machine", func(img *cassette.Image) { img.Machine = cassette.TRS80 }},
		{"block count", func(img *cassette.Image) { img.Blocks = img.Blocks[:1] }},
		{"address", func(img *cassette.Image) { img.Blocks[1].Address = 0x5801 }},
		{"checksum", func(img *cassette.Image) { img.Blocks[0].Checksum++ }},
		{"data", func(img *cassette.Image) { img.Blocks[0].Data = []byte{0x3e, 0x02, 0xc9} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := testImage()
			tt.modify(output)
			assert.Error(t, compareImageDetails(logger, testImage(), output))
		})
	}
}

func TestCheckBufferEqual(t *testing.T) {
	logger := log.NewTestLogger(t)

	assert.NoError(t, checkBufferEqual(logger, []byte{1, 2}, []byte{1, 2}))
	assert.Error(t, checkBufferEqual(logger, []byte{1, 2}, []byte{1}))
	assert.Error(t, checkBufferEqual(logger, []byte{1, 2}, []byte{1, 3}))
}

func TestCheckBufferEqualReportsAllMismatches(t *testing.T) {
	logger := log.NewTestLogger(t)

	input := make([]byte, 2*maxReportedMismatches)
	output := make([]byte, len(input))
	for i := range output {
		output[i] = 0xff
	}

	err := checkBufferEqual(logger, input, output)
	assert.ErrorContains(t, err, fmt.Sprintf("%d offset mismatches", len(input)))
}
