package types

type Block uint64

type Byte int64

const (
	BlockSize Byte = 4096

	SuperblockBlock Block = 0
	InodeStoreBlock Block = 1
	RootDataBlock   Block = 2
)
