// Package fs is the mounted-volume handle. A Volume owns the in-memory
// superblock and serializes every mutation behind one lock; lookups and
// reads share a read lock.
package fs

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/weberc2/blockfs/pkg/alloc"
	"github.com/weberc2/blockfs/pkg/bcache"
	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/directory"
	"github.com/weberc2/blockfs/pkg/file"
	"github.com/weberc2/blockfs/pkg/inode"
	"github.com/weberc2/blockfs/pkg/math"
	"github.com/weberc2/blockfs/pkg/superblock"
	. "github.com/weberc2/blockfs/pkg/types"
)

const DefaultCacheCapacity = 16

type MountParams struct {
	// CacheCapacity is the number of block buffers kept in memory. Zero
	// selects DefaultCacheCapacity.
	CacheCapacity int
}

type Volume struct {
	mutex      sync.RWMutex
	superblock Superblock
	cache      *bcache.Cache
	allocator  *alloc.BlockAllocator
	fs         directory.FileSystem
	logger     *log.Entry
}

func Mount(dev device.Device, params MountParams) (*Volume, error) {
	capacity := params.CacheCapacity
	if capacity == 0 {
		capacity = DefaultCacheCapacity
	}
	cache := bcache.New(dev, capacity)

	sb, err := superblock.Load(cache)
	if err != nil {
		return nil, fmt.Errorf("mounting volume: %w", err)
	}

	v := &Volume{superblock: sb, cache: cache}
	store := superblock.Store{Cache: cache}
	v.allocator = alloc.NewBlockAllocator(&v.superblock, store)
	v.fs = directory.FileSystem{
		Cache:      cache,
		InodeStore: inode.NewStore(cache, &v.superblock, store),
	}
	v.logger = log.WithFields(log.Fields{
		"volume": sb.VolumeID.String(),
		"label":  sb.Label,
	})

	var root Inode
	if err := v.fs.InodeStore.Get(InoRoot, &root); err != nil {
		return nil, fmt.Errorf("mounting volume: loading root: %w", err)
	}
	if !root.IsDir() {
		return nil, fmt.Errorf(
			"mounting volume: root inode has mode `%s`: %w",
			root.Mode,
			InvalidFormatErr,
		)
	}

	v.logger.Infof(
		"mounted volume with `%d` inodes and `%d` free blocks",
		sb.InodesCount,
		v.allocator.Available(),
	)
	return v, nil
}

// Superblock returns a copy of the in-memory superblock.
func (v *Volume) Superblock() Superblock {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return v.superblock
}

// Available returns the number of objects that can still be created before
// the volume runs out of data blocks or inode slots.
func (v *Volume) Available() int {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return math.Min(
		v.allocator.Available(),
		int(MaxObjects-v.superblock.InodesCount),
	)
}

func (v *Volume) Stat(ino Ino) (Inode, error) {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	var inode Inode
	if err := v.fs.InodeStore.Get(ino, &inode); err != nil {
		return Inode{}, fmt.Errorf("stat: %w", err)
	}
	return inode, nil
}

func (v *Volume) Lookup(parentIno Ino, name string) (Inode, error) {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	var parent, child Inode
	if err := v.fs.InodeStore.Get(parentIno, &parent); err != nil {
		return Inode{}, fmt.Errorf("looking up `%s`: %w", name, err)
	}
	if err := directory.Lookup(&v.fs, &parent, name, &child); err != nil {
		return Inode{}, err
	}
	return child, nil
}

// Create makes a new directory or regular file named `name` in the directory
// `parentIno`.
//
// The mode, the name, the parent and the remaining capacity are all checked
// before anything is allocated. If inserting the directory entry fails after
// the inode has been appended, the inode and its block stay allocated and
// unreachable; Check reports them as orphans.
func (v *Volume) Create(parentIno Ino, name string, mode Mode) (Inode, error) {
	if err := mode.FileType().Validate(); err != nil {
		return Inode{}, fmt.Errorf(
			"creating `%s` with mode `%#o`: %w",
			name,
			uint32(mode),
			err,
		)
	}
	if err := directory.ValidateName(name); err != nil {
		return Inode{}, fmt.Errorf("creating `%s`: %w", name, err)
	}

	v.mutex.Lock()
	defer v.mutex.Unlock()

	var parent Inode
	if err := v.fs.InodeStore.Get(parentIno, &parent); err != nil {
		return Inode{}, fmt.Errorf(
			"creating `%s` in dir `%d`: %w",
			name,
			parentIno,
			err,
		)
	}
	var existing Inode
	if err := directory.Lookup(&v.fs, &parent, name, &existing); err == nil {
		return Inode{}, fmt.Errorf(
			"creating `%s` in dir `%d`: %w",
			name,
			parentIno,
			ExistsErr,
		)
	} else if !errors.Is(err, NotFoundErr) {
		return Inode{}, fmt.Errorf(
			"creating `%s` in dir `%d`: %w",
			name,
			parentIno,
			err,
		)
	}

	if v.superblock.InodesCount >= MaxObjects {
		v.logger.Warnf("inode table is full (`%d` inodes)", MaxObjects)
		return Inode{}, fmt.Errorf(
			"creating `%s` in dir `%d`: %w",
			name,
			parentIno,
			CapacityExceededErr,
		)
	}

	b, err := v.allocator.ReserveBlock()
	if err != nil {
		return Inode{}, fmt.Errorf(
			"creating `%s` in dir `%d`: %w",
			name,
			parentIno,
			err,
		)
	}

	if err := v.zeroBlock(b); err != nil {
		return Inode{}, v.releaseBlock(b, fmt.Errorf(
			"creating `%s` in dir `%d`: %w",
			name,
			parentIno,
			err,
		))
	}

	child := Inode{Ino: v.superblock.NextIno(), Mode: mode, DataBlock: b}
	if err := v.fs.InodeStore.Append(&child); err != nil {
		return Inode{}, v.releaseBlock(b, fmt.Errorf(
			"creating `%s` in dir `%d`: %w",
			name,
			parentIno,
			err,
		))
	}

	if err := directory.InsertEntry(&v.fs, &parent, name, child.Ino); err != nil {
		v.logger.WithField("ino", child.Ino).Warnf(
			"inserting entry `%s` failed; inode and block `%d` are orphaned",
			name,
			b,
		)
		return Inode{}, fmt.Errorf(
			"creating `%s` in dir `%d`: %w",
			name,
			parentIno,
			err,
		)
	}

	if err := v.fs.InodeStore.Save(&parent); err != nil {
		v.logger.WithField("ino", child.Ino).Warnf(
			"entry `%s` was written but dir `%d` kept its old child "+
				"count; the inode is orphaned",
			name,
			parentIno,
		)
		return Inode{}, fmt.Errorf(
			"creating `%s` in dir `%d`: saving parent: %w",
			name,
			parentIno,
			err,
		)
	}

	v.logger.WithField("ino", child.Ino).Debugf(
		"created `%s` in dir `%d` at block `%d`",
		name,
		parentIno,
		b,
	)
	return child, nil
}

func (v *Volume) Mkdir(parentIno Ino, name string, perm Mode) (Inode, error) {
	return v.Create(parentIno, name, ModeDir|perm.Perm())
}

func (v *Volume) CreateFile(parentIno Ino, name string, perm Mode) (Inode, error) {
	return v.Create(parentIno, name, ModeRegular|perm.Perm())
}

// releaseBlock returns `b` to the allocator after a failed creation and
// returns `cause`. A failure to release is logged; the block then shows up in
// Check as used without an owner.
func (v *Volume) releaseBlock(b Block, cause error) error {
	if err := v.allocator.ReleaseBlock(b); err != nil {
		v.logger.Warnf("releasing block `%d`: %v", b, err)
	}
	return cause
}

func (v *Volume) zeroBlock(b Block) error {
	buf, err := v.cache.GetZero(b)
	if err != nil {
		return fmt.Errorf("zeroing block `%d`: %w", b, err)
	}
	defer v.cache.Release(buf)
	if err := v.cache.Sync(buf); err != nil {
		return fmt.Errorf("zeroing block `%d`: %w", b, err)
	}
	return nil
}

func (v *Volume) Read(ino Ino, offset, length Byte) ([]byte, error) {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	var inode Inode
	if err := v.fs.InodeStore.Get(ino, &inode); err != nil {
		return nil, fmt.Errorf("reading file `%d`: %w", ino, err)
	}
	return file.Read(&v.fs, &inode, offset, length)
}

func (v *Volume) Write(ino Ino, offset Byte, data []byte) (int, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	var inode Inode
	if err := v.fs.InodeStore.Get(ino, &inode); err != nil {
		return 0, fmt.Errorf("writing file `%d`: %w", ino, err)
	}
	return file.Write(&v.fs, &inode, offset, data)
}

// OpenDir positions `h` before the first entry of directory `ino`.
func (v *Volume) OpenDir(ino Ino, h *directory.Handle) error {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	var dir Inode
	if err := v.fs.InodeStore.Get(ino, &dir); err != nil {
		return fmt.Errorf("opening dir `%d`: %w", ino, err)
	}
	return directory.Open(&v.fs, &dir, h)
}

// ReadDir returns the next entry of an open directory, or io.EOF.
func (v *Volume) ReadDir(h *directory.Handle, out *DirEntry) error {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return directory.ReadNext(&v.fs, h, out)
}

func (v *Volume) ReadDirAll(ino Ino) ([]DirEntry, error) {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	var dir Inode
	if err := v.fs.InodeStore.Get(ino, &dir); err != nil {
		return nil, fmt.Errorf("listing dir `%d`: %w", ino, err)
	}
	entries, err := directory.ReadAll(&v.fs, &dir)
	if err != nil {
		return nil, fmt.Errorf("listing dir `%d`: %w", ino, err)
	}
	return entries, nil
}

// Close writes back every dirty buffer. The device itself is left open.
func (v *Volume) Close() error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if err := v.cache.Flush(); err != nil {
		return fmt.Errorf("closing volume: %w", err)
	}
	return nil
}
