package types

import "github.com/google/uuid"

const (
	Magic   uint64 = 0x20200406
	Version uint64 = 1

	LabelSize Byte = 32
)

type Superblock struct {
	Version     uint64    `json:"version"`
	Magic       uint64    `json:"magic"`
	BlockSize   Byte      `json:"blockSize"`
	InodesCount uint64    `json:"inodesCount"`
	FreeBlocks  uint64    `json:"freeBlocks"`
	VolumeID    uuid.UUID `json:"volumeID"`
	Label       string    `json:"label"`
}

// NextIno returns the inode number the next created object receives.
func (sb *Superblock) NextIno() Ino {
	return Ino(sb.InodesCount) + StartIno - Ino(ReservedInodes) + 1
}
