package xlog_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
	tst "github.com/julianstephens/go-utils/tests"

	"github.com/julianstephens/pgdig/internal/pgdig/xlog"
	"github.com/julianstephens/pgdig/internal/testutil"
)

var (
	catalogRelation = xlog.RelationLocator{Tablespace: 1663, Database: 1, Relation: 1247}
	userRelation    = xlog.RelationLocator{Tablespace: 1663, Database: 5, Relation: 16384}
)

func heapRecord() xlog.RecordHeader {
	return xlog.RecordHeader{TotalLength: 100, TransactionID: 746, ResourceManagerID: xlog.RmHeap}
}

// TestDecodeBlockReferenceFixture tests a hand-assembled image block with a locator
func TestDecodeBlockReferenceFixture(t *testing.T) {
	data := []byte{
		0x00, 0x11, 0x00, 0x00,
		0x00, 0x20, 0x00, 0x00, 0x02,
		0x7F, 0x06, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0xDF, 0x04, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
	}

	b, next, err := xlog.DecodeBlockReference(data, 0, nil)
	tst.RequireNoError(t, err)
	tst.AssertEqual(t, next, len(data), "expected to consume the whole fixture")

	tst.AssertEqual(t, b.ID, uint8(0), "unexpected id")
	tst.AssertEqual(t, b.Fork(), xlog.ForkFSM, "unexpected fork")
	tst.AssertTrue(t, b.HasImage(), "expected image")
	tst.AssertFalse(t, b.HasData(), "expected no data")
	tst.AssertFalse(t, b.SameRel(), "expected own locator")
	tst.RequireDeepEqual(t, *b.Image, xlog.ImageHeader{Length: 8192, HoleOffset: 0, Info: 2})
	tst.RequireDeepEqual(t, *b.Locator, catalogRelation)
	tst.RequireDeepEqual(t, b.Relation, catalogRelation)
	tst.AssertEqual(t, b.BlockNumber, uint32(2), "unexpected block number")
	tst.AssertEqual(t, b.String(), "blkref #0: rel 1663/1/1247 fork fsm blk 2 (FPW); hole: offset: 0, length: 0", "unexpected text")
}

// TestDecodeBlockReferencesCapturedHeap tests the block of the captured Heap record
func TestDecodeBlockReferencesCapturedHeap(t *testing.T) {
	rec, err := xlog.DecodeRecordHeader(capturedBuffer, capturedHeapRecordAt, xlog.RecordLayoutAligned)
	tst.RequireNoError(t, err)

	blocks, err := xlog.DecodeBlockReferences(capturedBuffer, capturedHeapRecordAt+24, rec)
	tst.RequireNoError(t, err)
	tst.AssertEqual(t, len(blocks), 1, "expected one block")

	b := blocks[0]
	tst.AssertEqual(t, b.Fork(), xlog.ForkMain, "unexpected fork")
	tst.AssertEqual(t, b.Flags(), xlog.BlockHasImage, "unexpected flags")
	tst.RequireDeepEqual(t, *b.Image, xlog.ImageHeader{
		Length:     1540,
		HoleOffset: 212,
		Info:       xlog.ImageHasHole | xlog.ImageApply,
		HoleLength: xlog.BlockSize - 1540,
	})
	tst.RequireDeepEqual(t, b.Relation, xlog.RelationLocator{Tablespace: 1663, Database: 5, Relation: 1259})
	tst.AssertEqual(t, b.BlockNumber, uint32(0), "unexpected block number")
}

// TestDecodeBlockReferenceFlagCombinations tests every combination of the four flag bits
func TestDecodeBlockReferenceFlagCombinations(t *testing.T) {
	prev := userRelation
	for flags := 0; flags < 16; flags++ {
		forkFlags := uint8(flags<<4) | uint8(xlog.ForkVisibilityMap) //nolint:gosec
		ref := xlog.BlockReference{ID: 3, ForkFlags: forkFlags, BlockNumber: 77}
		if ref.HasData() {
			ref.DataLength = 12
		}
		if ref.HasImage() {
			ref.Image = &xlog.ImageHeader{Length: 300, HoleOffset: 40, Info: xlog.ImageHasHole | xlog.ImageCompressLZ4, HoleLength: 100}
		}
		if !ref.SameRel() {
			ref.Locator = &catalogRelation
		}

		t.Run(ref.Flags().String(), func(t *testing.T) {
			data := testutil.EncodeBlockReference(ref)
			got, next, err := xlog.DecodeBlockReference(data, 0, &prev)
			assert.NoError(t, err)
			assert.Equal(t, len(data), next)
			assert.Equal(t, ref.Fork(), got.Fork())
			assert.Equal(t, ref.Flags(), got.Flags())
			assert.Equal(t, ref.DataLength, got.DataLength)
			assert.Equal(t, ref.Image, got.Image)
			assert.Equal(t, ref.Locator, got.Locator)
			assert.Equal(t, uint32(77), got.BlockNumber)
			if ref.SameRel() {
				assert.Equal(t, prev, got.Relation)
			} else {
				assert.Equal(t, catalogRelation, got.Relation)
			}
		})
	}
}

// TestDecodeImageHoleLength tests hole length for every image encoding
func TestDecodeImageHoleLength(t *testing.T) {
	testCases := []struct {
		name     string
		image    xlog.ImageHeader
		wantHole uint16
		wantSize int
	}{
		{"full page", xlog.ImageHeader{Length: 8192, Info: xlog.ImageApply}, 0, 4 + 5 + 12 + 4},
		{"hole uncompressed", xlog.ImageHeader{Length: 8000, HoleOffset: 24, Info: xlog.ImageHasHole}, 192, 4 + 5 + 12 + 4},
		{"compressed without hole", xlog.ImageHeader{Length: 2000, Info: xlog.ImageCompressPGLZ}, 0, 4 + 5 + 12 + 4},
		{"compressed with hole", xlog.ImageHeader{Length: 900, HoleOffset: 64, Info: xlog.ImageHasHole | xlog.ImageCompressZSTD, HoleLength: 4000}, 4000, 4 + 7 + 12 + 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			img := tc.image
			ref := xlog.BlockReference{ForkFlags: uint8(xlog.BlockHasImage), Image: &img, Locator: &userRelation}
			data := testutil.EncodeBlockReference(ref)
			tst.AssertEqual(t, len(data), tc.wantSize, "unexpected encoded size")

			got, next, err := xlog.DecodeBlockReference(data, 0, nil)
			tst.RequireNoError(t, err)
			tst.AssertEqual(t, next, tc.wantSize, "unexpected consumed size")
			tst.AssertEqual(t, got.Image.HoleLength, tc.wantHole, "unexpected hole length")
			tst.AssertEqual(t, got.Image.Compressed(), img.Compressed(), "unexpected compression")
		})
	}
}

// TestDecodeBlockReferenceTruncated tests that every prefix of a full header fails cleanly
func TestDecodeBlockReferenceTruncated(t *testing.T) {
	ref := xlog.BlockReference{
		ID:          1,
		ForkFlags:   uint8(xlog.BlockHasImage | xlog.BlockHasData),
		DataLength:  20,
		Image:       &xlog.ImageHeader{Length: 100, HoleOffset: 8, Info: xlog.ImageHasHole | xlog.ImageCompressPGLZ, HoleLength: 7000},
		Locator:     &userRelation,
		BlockNumber: 9,
	}
	data := testutil.EncodeBlockReference(ref)

	for n := 0; n < len(data); n++ {
		_, next, err := xlog.DecodeBlockReference(data[:n], 0, nil)
		tst.AssertTrue(t, errors.Is(err, xlog.ErrOutOfBounds), fmt.Sprintf("expected ErrOutOfBounds at length %d", n))
		tst.AssertEqual(t, next, 0, "expected offset not to advance on error")
	}
}

// TestDecodeBlockReferenceErrors tests header-level corruption
func TestDecodeBlockReferenceErrors(t *testing.T) {
	testCases := []struct {
		name    string
		data    []byte
		prev    *xlog.RelationLocator
		wantErr error
		value   uint64
	}{
		{
			name:    "id past max",
			data:    []byte{33, 0x00, 0, 0},
			wantErr: xlog.ErrInvalidBlockID,
			value:   33,
		},
		{
			name:    "same rel without previous",
			data:    testutil.EncodeBlockReference(xlog.BlockReference{ID: 4, ForkFlags: uint8(xlog.BlockSameRel)}),
			wantErr: xlog.ErrMissingPreviousRelation,
			value:   4,
		},
		{
			name:    "data flag without length",
			data:    testutil.EncodeBlockReference(xlog.BlockReference{ForkFlags: uint8(xlog.BlockHasData), Locator: &userRelation}),
			wantErr: xlog.ErrInconsistentBlock,
			value:   uint64(xlog.BlockHasData),
		},
		{
			name:    "length without data flag",
			data:    testutil.EncodeBlockReference(xlog.BlockReference{DataLength: 5, Locator: &userRelation}),
			wantErr: xlog.ErrInconsistentBlock,
			value:   0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := xlog.DecodeBlockReference(tc.data, 0, tc.prev)
			tst.AssertTrue(t, errors.Is(err, tc.wantErr), "unexpected error: "+fmt.Sprint(err))
			tst.AssertTrue(t, xlog.IsCorruption(err), "expected corruption")

			de, ok := xlog.AsDecodeError(err)
			tst.AssertTrue(t, ok, "expected *DecodeError")
			tst.AssertEqual(t, de.Value, tc.value, "unexpected offending value")
		})
	}
}

// TestDecodeBlockReferencesGates tests that reserved xids and non-heap records yield no blocks
func TestDecodeBlockReferencesGates(t *testing.T) {
	// Garbage after the header must not be read when a gate applies.
	garbage := []byte{0xF0, 0xF1, 0xF2}

	testCases := []struct {
		name   string
		record xlog.RecordHeader
	}{
		{"invalid xid", xlog.RecordHeader{TransactionID: 0, ResourceManagerID: xlog.RmHeap}},
		{"bootstrap xid", xlog.RecordHeader{TransactionID: 1, ResourceManagerID: xlog.RmHeap}},
		{"btree", xlog.RecordHeader{TransactionID: 746, ResourceManagerID: xlog.RmBtree}},
		{"xlog", xlog.RecordHeader{TransactionID: 746, ResourceManagerID: xlog.RmXLog}},
		{"heap2", xlog.RecordHeader{TransactionID: 746, ResourceManagerID: xlog.RmHeap2}},
		{"unknown rmid", xlog.RecordHeader{TransactionID: 746, ResourceManagerID: 200}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			blocks, err := xlog.DecodeBlockReferences(garbage, 0, tc.record)
			tst.RequireNoError(t, err)
			tst.AssertNotNil(t, blocks, "expected empty, non-nil blocks")
			tst.AssertEqual(t, len(blocks), 0, "expected no blocks")
		})
	}
}

// TestDecodeBlockReferencesTerminators tests every marker that ends the scan
func TestDecodeBlockReferencesTerminators(t *testing.T) {
	first := xlog.BlockReference{ID: 0, ForkFlags: uint8(xlog.BlockHasData), DataLength: 8, Locator: &userRelation, BlockNumber: 5}

	for _, marker := range []uint8{xlog.XLRBlockIDDataShort, xlog.XLRBlockIDDataLong, xlog.XLRBlockIDOrigin} {
		t.Run(fmt.Sprintf("0x%02x", marker), func(t *testing.T) {
			data := testutil.EncodeBlockReference(first)
			data = append(data, marker, 0xEE, 0xEE)

			blocks, err := xlog.DecodeBlockReferences(data, 0, heapRecord())
			tst.RequireNoError(t, err)
			tst.AssertEqual(t, len(blocks), 1, "expected the block before the marker")
			tst.AssertEqual(t, blocks[0].BlockNumber, uint32(5), "unexpected block number")
		})
	}
}

// TestDecodeBlockReferencesTopLevelXID tests that the top-level xid marker is skipped
func TestDecodeBlockReferencesTopLevelXID(t *testing.T) {
	rec := testutil.NewXLogDataBuilder().
		AddBlock(xlog.BlockReference{ID: 0, Locator: &userRelation, BlockNumber: 1}).
		AddTopLevelXID(745).
		AddBlock(xlog.BlockReference{ID: 1, ForkFlags: uint8(xlog.BlockSameRel), BlockNumber: 2}).
		AddMainData([]byte{0xAA}).
		Record()

	h, err := xlog.DecodeRecordHeader(rec, 0, xlog.RecordLayoutAligned)
	tst.RequireNoError(t, err)

	blocks, err := xlog.DecodeBlockReferences(rec, 24, h)
	tst.RequireNoError(t, err)
	tst.AssertEqual(t, len(blocks), 2, "expected both blocks")
	tst.RequireDeepEqual(t, blocks[1].Relation, userRelation)
	tst.AssertTrue(t, blocks[1].Locator == nil, "expected no locator on same-rel block")

	// A truncated xid is still a truncation.
	_, err = xlog.DecodeBlockReferences([]byte{xlog.XLRBlockIDTopLevelXID, 0x01, 0x02}, 0, heapRecord())
	tst.AssertTrue(t, errors.Is(err, xlog.ErrOutOfBounds), "expected truncated top-level xid to fail")
}

// TestDecodeBlockReferencesInvalidID tests ids in the gap between ordinary ids and markers
func TestDecodeBlockReferencesInvalidID(t *testing.T) {
	for _, id := range []uint8{33, 100, 251} {
		data := testutil.EncodeBlockReference(xlog.BlockReference{Locator: &userRelation})
		data = append(data, id)

		blocks, err := xlog.DecodeBlockReferences(data, 0, heapRecord())
		tst.AssertTrue(t, errors.Is(err, xlog.ErrInvalidBlockID), "expected ErrInvalidBlockID")
		tst.AssertTrue(t, blocks == nil, "expected accumulated blocks to be discarded")

		de, ok := xlog.AsDecodeError(err)
		tst.AssertTrue(t, ok, "expected *DecodeError")
		tst.AssertEqual(t, de.Value, uint64(id), "unexpected offending id")
		tst.AssertEqual(t, de.At, len(data)-1, "unexpected offset")
	}
}

// TestDecodeBlockReferencesMaxID tests that the highest ordinary id is accepted
func TestDecodeBlockReferencesMaxID(t *testing.T) {
	data := testutil.EncodeBlockReference(xlog.BlockReference{ID: xlog.XLRMaxBlockID, Locator: &userRelation, BlockNumber: 3})
	data = append(data, xlog.XLRBlockIDDataShort)

	blocks, err := xlog.DecodeBlockReferences(data, 0, heapRecord())
	tst.RequireNoError(t, err)
	tst.AssertEqual(t, len(blocks), 1, "expected one block")
	tst.AssertEqual(t, blocks[0].ID, xlog.XLRMaxBlockID, "unexpected id")
}

// TestDecodeBlockReferencesRunsOffEnd tests a block list with no terminator
func TestDecodeBlockReferencesRunsOffEnd(t *testing.T) {
	data := testutil.EncodeBlockReference(xlog.BlockReference{Locator: &userRelation})

	blocks, err := xlog.DecodeBlockReferences(data, 0, heapRecord())
	tst.AssertTrue(t, errors.Is(err, xlog.ErrOutOfBounds), "expected ErrOutOfBounds")
	tst.AssertTrue(t, blocks == nil, "expected no partial result")
}

// TestBlockFlagsString tests the flag text form
func TestBlockFlagsString(t *testing.T) {
	tst.AssertEqual(t, xlog.BlockFlags(0).String(), "none", "unexpected empty flags text")
	tst.AssertEqual(t, (xlog.BlockHasImage | xlog.BlockSameRel).String(), "HAS_IMAGE|SAME_REL", "unexpected flags text")
	tst.AssertEqual(t, xlog.ForkNumber(9).String(), "fork(9)", "unexpected fork text")
}
