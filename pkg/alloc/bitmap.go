package alloc

import (
	"math/bits"

	. "github.com/weberc2/blockfs/pkg/types"
)

// Bitmap is the superblock's free-block mask: bit `i` set means block `i` is
// free.
type Bitmap uint64

func (bm Bitmap) IsFree(b Block) bool {
	return b < 64 && bm&(1<<b) != 0
}

// FirstFree returns the lowest free block in [from, to).
func (bm Bitmap) FirstFree(from, to Block) (Block, bool) {
	for b := from; b < to && b < 64; b++ {
		if bm.IsFree(b) {
			return b, true
		}
	}
	return 0, false
}

func (bm *Bitmap) Reserve(b Block) {
	*bm &^= 1 << b
}

func (bm *Bitmap) Free(b Block) {
	*bm |= 1 << b
}

// CountFree returns the number of free blocks in [from, to).
func (bm Bitmap) CountFree(from, to Block) int {
	if to > 64 {
		to = 64
	}
	if from >= to {
		return 0
	}
	var window uint64 = (1<<(to-from) - 1) << from
	if to-from == 64 {
		window = ^uint64(0)
	}
	return bits.OnesCount64(uint64(bm) & window)
}
