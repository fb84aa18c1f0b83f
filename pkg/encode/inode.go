package encode

import (
	. "github.com/weberc2/blockfs/pkg/types"
)

func EncodeInode(inode *Inode, b *[InodeSize]byte) {
	p := b[:]

	putU32(p, inodeModeStart, uint32(inode.Mode))
	putU32(p, inodePaddingStart, 0)
	putIno(p, inodeInoStart, inode.Ino)
	putBlock(p, inodeDataBlockStart, inode.DataBlock)

	// file size and children count share one field on disk
	if inode.IsDir() {
		putU64(p, inodeSizeStart, inode.ChildrenCount)
	} else {
		putU64(p, inodeSizeStart, uint64(inode.Size))
	}
}

func DecodeInode(inode *Inode, b *[InodeSize]byte) {
	p := b[:]

	// NB: the mode isn't validated here; the checker needs to see records
	// with invalid modes rather than failing to read them.
	*inode = Inode{
		Mode:      Mode(getU32(p, inodeModeStart)),
		Ino:       getIno(p, inodeInoStart),
		DataBlock: getBlock(p, inodeDataBlockStart),
	}
	if inode.IsDir() {
		inode.ChildrenCount = getU64(p, inodeSizeStart)
	} else {
		inode.Size = Byte(getU64(p, inodeSizeStart))
	}
}

// InodeOffset returns the offset of the `slot`th record within the inode
// store block.
func InodeOffset(slot uint64) Byte {
	return Byte(slot) * InodeSize
}

// InodeSlot returns the bytes of the `slot`th record within the inode store
// block.
func InodeSlot(block *[BlockSize]byte, slot uint64) *[InodeSize]byte {
	offset := InodeOffset(slot)
	return (*[InodeSize]byte)(block[offset : offset+InodeSize])
}

const (
	inodeModeStart = 0
	inodeModeSize  = 4
	inodeModeEnd   = inodeModeStart + inodeModeSize

	inodePaddingStart = inodeModeEnd
	inodePaddingSize  = 4
	inodePaddingEnd   = inodePaddingStart + inodePaddingSize

	inodeInoStart = inodePaddingEnd
	inodeInoSize  = 8
	inodeInoEnd   = inodeInoStart + inodeInoSize

	inodeDataBlockStart = inodeInoEnd
	inodeDataBlockSize  = 8
	inodeDataBlockEnd   = inodeDataBlockStart + inodeDataBlockSize

	inodeSizeStart = inodeDataBlockEnd
	inodeSizeSize  = 8
	inodeSizeEnd   = inodeSizeStart + inodeSizeSize
)

var _ [InodeSize - inodeSizeEnd]struct{}
