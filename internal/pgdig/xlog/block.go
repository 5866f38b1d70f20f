package xlog

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Block id values (xlogrecord.h). Ids 0..XLRMaxBlockID are block references;
// the rest of the byte space holds a closed set of out-of-band markers.
const (
	XLRMaxBlockID         uint8 = 32
	XLRBlockIDDataShort   uint8 = 255
	XLRBlockIDDataLong    uint8 = 254
	XLRBlockIDOrigin      uint8 = 253
	XLRBlockIDTopLevelXID uint8 = 252
)

// BlockSize is BLCKSZ, the server page size.
const BlockSize = 8192

// BlockFlags are the upper four bits of fork_flags.
type BlockFlags uint8

const (
	BlockForkMask BlockFlags = 0x0F
	BlockFlagMask BlockFlags = 0xF0
	BlockHasImage BlockFlags = 0x10
	BlockHasData  BlockFlags = 0x20
	BlockWillInit BlockFlags = 0x40
	BlockSameRel  BlockFlags = 0x80
)

func (f BlockFlags) Has(flag BlockFlags) bool {
	return f&flag == flag
}

func (f BlockFlags) String() string {
	var names []string
	for _, fl := range []struct {
		flag BlockFlags
		name string
	}{
		{BlockHasImage, "HAS_IMAGE"},
		{BlockHasData, "HAS_DATA"},
		{BlockWillInit, "WILL_INIT"},
		{BlockSameRel, "SAME_REL"},
	} {
		if f.Has(fl.flag) {
			names = append(names, fl.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ForkNumber is the physical file of a relation a block belongs to.
type ForkNumber uint8

const (
	ForkMain ForkNumber = iota
	ForkFSM
	ForkVisibilityMap
	ForkInit
)

func (f ForkNumber) String() string {
	switch f {
	case ForkMain:
		return "main"
	case ForkFSM:
		return "fsm"
	case ForkVisibilityMap:
		return "vm"
	case ForkInit:
		return "init"
	default:
		return fmt.Sprintf("fork(%d)", uint8(f))
	}
}

// Image flags stored in bimg_info.
const (
	ImageHasHole      uint8 = 0x01
	ImageApply        uint8 = 0x02
	ImageCompressPGLZ uint8 = 0x04
	ImageCompressLZ4  uint8 = 0x08
	ImageCompressZSTD uint8 = 0x10
	imageCompressMask       = ImageCompressPGLZ | ImageCompressLZ4 | ImageCompressZSTD
)

// ImageHeader describes a full-page image attached to a block reference.
type ImageHeader struct {
	Length     uint16 `json:"length"`
	HoleOffset uint16 `json:"hole_offset"`
	Info       uint8  `json:"info"`
	// HoleLength is the size of the unused gap left out of the image.
	HoleLength uint16 `json:"hole_length"`
}

func (h ImageHeader) HasHole() bool    { return h.Info&ImageHasHole != 0 }
func (h ImageHeader) Compressed() bool { return h.Info&imageCompressMask != 0 }

// RelationLocator identifies a relation file (RelFileLocator).
type RelationLocator struct {
	Tablespace uint32 `json:"tablespace"`
	Database   uint32 `json:"database"`
	Relation   uint32 `json:"relation"`
}

func (r RelationLocator) String() string {
	return fmt.Sprintf("%d/%d/%d", r.Tablespace, r.Database, r.Relation)
}

// BlockReference is one decoded XLogRecordBlockHeader.
type BlockReference struct {
	ID         uint8  `json:"id"`
	ForkFlags  uint8  `json:"fork_flags"`
	DataLength uint16 `json:"data_length"`
	// Image is set iff HAS_IMAGE.
	Image *ImageHeader `json:"image,omitempty"`
	// Locator is set iff SAME_REL is clear.
	Locator *RelationLocator `json:"locator,omitempty"`
	// Relation is the effective relation, inherited from the previous block when SAME_REL is set.
	Relation    RelationLocator `json:"relation"`
	BlockNumber uint32          `json:"block_number"`
}

func (b BlockReference) Fork() ForkNumber {
	return ForkNumber(BlockFlags(b.ForkFlags) & BlockForkMask)
}

func (b BlockReference) Flags() BlockFlags {
	return BlockFlags(b.ForkFlags) & BlockFlagMask
}

func (b BlockReference) HasImage() bool { return b.Flags().Has(BlockHasImage) }
func (b BlockReference) HasData() bool  { return b.Flags().Has(BlockHasData) }
func (b BlockReference) WillInit() bool { return b.Flags().Has(BlockWillInit) }
func (b BlockReference) SameRel() bool  { return b.Flags().Has(BlockSameRel) }

func (b BlockReference) String() string {
	s := fmt.Sprintf("blkref #%d: rel %s fork %s blk %d", b.ID, b.Relation, b.Fork(), b.BlockNumber)
	if b.Image != nil {
		s += fmt.Sprintf(" (FPW); hole: offset: %d, length: %d", b.Image.HoleOffset, b.Image.HoleLength)
	}
	return s
}

// DecodeBlockReference decodes one block reference header at offset at and
// returns it together with the offset just past it. prev is the relation of
// the previous block in the same record, or nil for the first block.
// Format (LE): [id (1)][fork_flags (1)][data_length (2)]
//
//	[length (2)][hole_offset (2)][bimg_info (1)][hole_length (2)]?  if HAS_IMAGE
//	[spc (4)][db (4)][rel (4)]                                       if !SAME_REL
//	[block (4)]
func DecodeBlockReference(data []byte, at int, prev *RelationLocator) (BlockReference, int, error) {
	c := newCursor(data, at, binary.LittleEndian)
	var (
		b   BlockReference
		err error
	)

	if b.ID, err = c.u8("block_id"); err != nil {
		return BlockReference{}, at, err
	}
	if b.ID > XLRMaxBlockID {
		return BlockReference{}, at, invalidBlockID(at, b.ID)
	}
	if b.ForkFlags, err = c.u8("fork_flags"); err != nil {
		return BlockReference{}, at, err
	}
	if b.DataLength, err = c.u16("data_length"); err != nil {
		return BlockReference{}, at, err
	}

	if b.HasData() != (b.DataLength != 0) {
		de := newDecodeError(KindInconsistentBlock, "data_length", at, 0, int(b.DataLength))
		de.Value = uint64(b.ForkFlags)
		de.Err = fmt.Errorf("%w: has_data=%t data_length=%d", ErrInconsistentBlock, b.HasData(), b.DataLength)
		return BlockReference{}, at, de
	}

	if b.HasImage() {
		img, err := decodeImageHeader(c)
		if err != nil {
			return BlockReference{}, at, err
		}
		b.Image = &img
	}

	if b.SameRel() {
		if prev == nil {
			de := newDecodeError(KindMissingPreviousRelation, "fork_flags", at, 0, 0)
			de.Value = uint64(b.ID)
			return BlockReference{}, at, de
		}
		b.Relation = *prev
	} else {
		loc, err := decodeRelationLocator(c)
		if err != nil {
			return BlockReference{}, at, err
		}
		b.Locator = &loc
		b.Relation = loc
	}

	if b.BlockNumber, err = c.u32("block_number"); err != nil {
		return BlockReference{}, at, err
	}

	return b, c.off, nil
}

func decodeImageHeader(c *cursor) (ImageHeader, error) {
	var (
		h   ImageHeader
		err error
	)
	if h.Length, err = c.u16("bimg_length"); err != nil {
		return ImageHeader{}, err
	}
	if h.HoleOffset, err = c.u16("bimg_hole_offset"); err != nil {
		return ImageHeader{}, err
	}
	if h.Info, err = c.u8("bimg_info"); err != nil {
		return ImageHeader{}, err
	}

	switch {
	case h.HasHole() && h.Compressed():
		if h.HoleLength, err = c.u16("bimg_hole_length"); err != nil {
			return ImageHeader{}, err
		}
	case h.HasHole() && h.Length < BlockSize:
		h.HoleLength = BlockSize - h.Length
	}

	return h, nil
}

func decodeRelationLocator(c *cursor) (RelationLocator, error) {
	var (
		r   RelationLocator
		err error
	)
	if r.Tablespace, err = c.u32("spc_oid"); err != nil {
		return RelationLocator{}, err
	}
	if r.Database, err = c.u32("db_oid"); err != nil {
		return RelationLocator{}, err
	}
	if r.Relation, err = c.u32("rel_number"); err != nil {
		return RelationLocator{}, err
	}
	return r, nil
}

func invalidBlockID(at int, id uint8) error {
	de := newDecodeError(KindInvalidBlockID, "block_id", at, 0, 0)
	de.Value = uint64(id)
	de.Err = fmt.Errorf("%w: %d", ErrInvalidBlockID, id)
	return de
}

// SkipReason says why a record's block references were not decoded.
type SkipReason uint8

const (
	SkipNone SkipReason = iota
	SkipReservedTransaction
	SkipUnsupportedResourceManager
)

func (s SkipReason) String() string {
	switch s {
	case SkipNone:
		return "none"
	case SkipReservedTransaction:
		return "reserved_transaction"
	case SkipUnsupportedResourceManager:
		return "unsupported_resource_manager"
	default:
		return "unknown"
	}
}

func (s SkipReason) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// blockGate applies the transaction-id and resource-manager gates.
func blockGate(record RecordHeader) SkipReason {
	if record.HasReservedTransactionID() {
		return SkipReservedTransaction
	}
	if !IsHeap(record.ResourceManagerID) {
		return SkipUnsupportedResourceManager
	}
	return SkipNone
}

// DecodeBlockReferences scans the block reference headers that start at
// offset at, right after record's header. Records with a reserved
// transaction id or a resource manager other than Heap yield no blocks.
// The scan stops at the first data or origin marker and skips top-level
// xid markers. Any error discards the blocks decoded so far.
func DecodeBlockReferences(data []byte, at int, record RecordHeader) ([]BlockReference, error) {
	blocks, _, err := scanBlockReferences(data, at, record)
	return blocks, err
}

func scanBlockReferences(data []byte, at int, record RecordHeader) ([]BlockReference, SkipReason, error) {
	if skip := blockGate(record); skip != SkipNone {
		return []BlockReference{}, skip, nil
	}

	blocks := []BlockReference{}
	var prev *RelationLocator
	off := at
	for {
		id, err := ReadU8(data, off, "block_id")
		if err != nil {
			return nil, SkipNone, err
		}

		switch {
		case id <= XLRMaxBlockID:
			b, next, err := DecodeBlockReference(data, off, prev)
			if err != nil {
				return nil, SkipNone, err
			}
			rel := b.Relation
			prev = &rel
			blocks = append(blocks, b)
			off = next
		case id == XLRBlockIDDataShort, id == XLRBlockIDDataLong, id == XLRBlockIDOrigin:
			return blocks, SkipNone, nil
		case id == XLRBlockIDTopLevelXID:
			if _, err := ReadU32(data, off+1, binary.LittleEndian, "toplevel_xid"); err != nil {
				return nil, SkipNone, err
			}
			off += 5
		default:
			return nil, SkipNone, invalidBlockID(off, id)
		}
	}
}
