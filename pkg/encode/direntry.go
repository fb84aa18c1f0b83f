package encode

import (
	. "github.com/weberc2/blockfs/pkg/types"
)

func EncodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]
	putString(p, dirEntryNameStart, dirEntryNameSize, entry.Name)
	p[dirEntryPaddingStart] = 0
	putIno(p, dirEntryInoStart, entry.Ino)
}

func DecodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]
	entry.Name = getString(p, dirEntryNameStart, dirEntryNameSize)
	entry.Ino = getIno(p, dirEntryInoStart)
}

// DirEntrySlot returns the bytes of the `slot`th entry within a directory's
// data block.
func DirEntrySlot(block *[BlockSize]byte, slot uint64) *[DirEntrySize]byte {
	offset := Byte(slot) * DirEntrySize
	return (*[DirEntrySize]byte)(block[offset : offset+DirEntrySize])
}

const (
	dirEntryNameStart Byte = 0
	dirEntryNameSize  Byte = FilenameMaxLen
	dirEntryNameEnd        = dirEntryNameStart + dirEntryNameSize

	dirEntryPaddingStart = dirEntryNameEnd
	dirEntryPaddingSize  = 1
	dirEntryPaddingEnd   = dirEntryPaddingStart + dirEntryPaddingSize

	dirEntryInoStart = dirEntryPaddingEnd
	dirEntryInoSize  = 8
	dirEntryInoEnd   = dirEntryInoStart + dirEntryInoSize
)

var _ [DirEntrySize - dirEntryInoEnd]struct{}
