package superblock

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/bcache"
	"github.com/weberc2/blockfs/pkg/encode"
	. "github.com/weberc2/blockfs/pkg/types"
)

type ErrBadMagic struct {
	Found uint64
}

func (err *ErrBadMagic) Error() string {
	return fmt.Sprintf("bad magic: wanted `%#x`; found `%#x`", Magic, err.Found)
}

func (err *ErrBadMagic) Unwrap() error { return InvalidFormatErr }

type ErrBadBlockSize struct {
	Found Byte
}

func (err *ErrBadBlockSize) Error() string {
	return fmt.Sprintf(
		"bad block size: wanted `%d`; found `%d`",
		BlockSize,
		err.Found,
	)
}

func (err *ErrBadBlockSize) Unwrap() error { return InvalidFormatErr }

type ErrBadVersion struct {
	Found uint64
}

func (err *ErrBadVersion) Error() string {
	return fmt.Sprintf(
		"unsupported version: wanted `%d`; found `%d`",
		Version,
		err.Found,
	)
}

func (err *ErrBadVersion) Unwrap() error { return InvalidFormatErr }

// New returns the superblock of an empty volume: only the reserved blocks are
// in use and the inode table holds the root.
func New() Superblock {
	return Superblock{
		Version:     Version,
		Magic:       Magic,
		BlockSize:   BlockSize,
		InodesCount: 1,
		FreeBlocks:  ^uint64(0) &^ (1<<ReservedInodes - 1),
	}
}

func Validate(sb *Superblock) error {
	if sb.Magic != Magic {
		return &ErrBadMagic{Found: sb.Magic}
	}
	if sb.BlockSize != BlockSize {
		return &ErrBadBlockSize{Found: sb.BlockSize}
	}
	if sb.Version != Version {
		return &ErrBadVersion{Found: sb.Version}
	}
	if sb.InodesCount > MaxObjects {
		return fmt.Errorf(
			"inodes count `%d` exceeds maximum `%d`: %w",
			sb.InodesCount,
			MaxObjects,
			InvalidFormatErr,
		)
	}
	return nil
}

// Load reads and validates the superblock. Nothing is returned for a volume
// that fails validation.
func Load(cache *bcache.Cache) (Superblock, error) {
	buf, err := cache.Get(SuperblockBlock)
	if err != nil {
		return Superblock{}, fmt.Errorf("loading superblock: %w", err)
	}
	defer cache.Release(buf)

	var sb Superblock
	encode.DecodeSuperblock(&sb, &buf.Data)
	if err := Validate(&sb); err != nil {
		return Superblock{}, fmt.Errorf("loading superblock: %w", err)
	}
	return sb, nil
}

// Persist writes `sb` to its block and returns once it is durable.
func Persist(cache *bcache.Cache, sb *Superblock) error {
	buf, err := cache.Get(SuperblockBlock)
	if err != nil {
		return fmt.Errorf("persisting superblock: %w", err)
	}
	defer cache.Release(buf)

	encode.EncodeSuperblock(sb, &buf.Data)
	cache.MarkDirty(buf)
	if err := cache.Sync(buf); err != nil {
		return fmt.Errorf("persisting superblock: %w", err)
	}
	return nil
}

// Store adapts Persist to the interface the allocator and inode store use.
type Store struct {
	Cache *bcache.Cache
}

func (store Store) Put(sb *Superblock) error {
	return Persist(store.Cache, sb)
}
