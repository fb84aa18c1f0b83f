package alloc

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	. "github.com/weberc2/blockfs/pkg/types"
)

const (
	// FirstBlock is the lowest block the allocator hands out; everything
	// below it belongs to the superblock, the inode store or the root
	// directory.
	FirstBlock = Block(ReservedInodes + 1)
	EndBlock   = Block(MaxObjects)
)

type SuperblockStore interface {
	Put(*Superblock) error
}

// BlockAllocator reserves data blocks in the superblock's free mask and
// persists the superblock before handing them out.
type BlockAllocator struct {
	superblock *Superblock
	store      SuperblockStore
	mutex      sync.Mutex
}

func NewBlockAllocator(sb *Superblock, store SuperblockStore) *BlockAllocator {
	return &BlockAllocator{superblock: sb, store: store}
}

// ReserveBlock takes the lowest free block. On failure the free mask is left
// exactly as it was.
func (a *BlockAllocator) ReserveBlock() (Block, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	bm := Bitmap(a.superblock.FreeBlocks)
	b, ok := bm.FirstFree(FirstBlock, EndBlock)
	if !ok {
		log.Warnf("no free blocks in [%d, %d)", FirstBlock, EndBlock)
		return 0, fmt.Errorf("reserving block: %w", NoSpaceErr)
	}

	previous := a.superblock.FreeBlocks
	bm.Reserve(b)
	a.superblock.FreeBlocks = uint64(bm)
	if err := a.store.Put(a.superblock); err != nil {
		a.superblock.FreeBlocks = previous
		return 0, fmt.Errorf("reserving block `%d`: %w", b, err)
	}
	return b, nil
}

// ReleaseBlock marks `b` free again and persists the superblock. Only blocks
// in the allocatable range can be released.
func (a *BlockAllocator) ReleaseBlock(b Block) error {
	if b < FirstBlock || b >= EndBlock {
		return fmt.Errorf("releasing block `%d`: %w", b, OutOfBoundsErr)
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	previous := a.superblock.FreeBlocks
	bm := Bitmap(previous)
	bm.Free(b)
	a.superblock.FreeBlocks = uint64(bm)
	if err := a.store.Put(a.superblock); err != nil {
		a.superblock.FreeBlocks = previous
		return fmt.Errorf("releasing block `%d`: %w", b, err)
	}
	return nil
}

// Available returns the number of blocks ReserveBlock can still hand out.
func (a *BlockAllocator) Available() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return Bitmap(a.superblock.FreeBlocks).CountFree(FirstBlock, EndBlock)
}
