package encode

import (
	. "github.com/weberc2/blockfs/pkg/types"
)

func EncodeSuperblock(sb *Superblock, b *[BlockSize]byte) {
	p := b[:]
	putU64(p, superblockVersionStart, sb.Version)
	putU64(p, superblockMagicStart, sb.Magic)
	putU64(p, superblockBlockSizeStart, uint64(sb.BlockSize))
	putU64(p, superblockInodesCountStart, sb.InodesCount)
	putU64(p, superblockFreeBlocksStart, sb.FreeBlocks)
	copy(p[superblockVolumeIDStart:superblockVolumeIDEnd], sb.VolumeID[:])
	putString(p, superblockLabelStart, superblockLabelSize, sb.Label)
	for i := range p[superblockLabelEnd:] {
		p[superblockLabelEnd+Byte(i)] = 0
	}
}

// DecodeSuperblock performs no validation; callers check the magic and
// geometry fields.
func DecodeSuperblock(sb *Superblock, b *[BlockSize]byte) {
	p := b[:]
	sb.Version = getU64(p, superblockVersionStart)
	sb.Magic = getU64(p, superblockMagicStart)
	sb.BlockSize = Byte(getU64(p, superblockBlockSizeStart))
	sb.InodesCount = getU64(p, superblockInodesCountStart)
	sb.FreeBlocks = getU64(p, superblockFreeBlocksStart)
	copy(sb.VolumeID[:], p[superblockVolumeIDStart:superblockVolumeIDEnd])
	sb.Label = getString(p, superblockLabelStart, superblockLabelSize)
}

const (
	superblockVersionStart = 0
	superblockVersionSize  = 8
	superblockVersionEnd   = superblockVersionStart + superblockVersionSize

	superblockMagicStart = superblockVersionEnd
	superblockMagicSize  = 8
	superblockMagicEnd   = superblockMagicStart + superblockMagicSize

	superblockBlockSizeStart = superblockMagicEnd
	superblockBlockSizeSize  = 8
	superblockBlockSizeEnd   = superblockBlockSizeStart + superblockBlockSizeSize

	superblockInodesCountStart = superblockBlockSizeEnd
	superblockInodesCountSize  = 8
	superblockInodesCountEnd   = superblockInodesCountStart + superblockInodesCountSize

	superblockFreeBlocksStart = superblockInodesCountEnd
	superblockFreeBlocksSize  = 8
	superblockFreeBlocksEnd   = superblockFreeBlocksStart + superblockFreeBlocksSize

	superblockVolumeIDStart = superblockFreeBlocksEnd
	superblockVolumeIDSize  = 16
	superblockVolumeIDEnd   = superblockVolumeIDStart + superblockVolumeIDSize

	superblockLabelStart Byte = superblockVolumeIDEnd
	superblockLabelSize  Byte = LabelSize
	superblockLabelEnd        = superblockLabelStart + superblockLabelSize
)
