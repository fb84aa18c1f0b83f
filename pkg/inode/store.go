// Package inode stores inode records in the volume's inode store block.
// Records are located by a linear scan over the first `inodes_count` slots;
// with at most MaxObjects records the scan is never more than 64 decodes.
package inode

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/bcache"
	"github.com/weberc2/blockfs/pkg/encode"
	. "github.com/weberc2/blockfs/pkg/types"
)

type SuperblockStore interface {
	Put(*Superblock) error
}

type Store struct {
	cache      *bcache.Cache
	superblock *Superblock
	sbStore    SuperblockStore
}

func NewStore(
	cache *bcache.Cache,
	sb *Superblock,
	sbStore SuperblockStore,
) *Store {
	return &Store{cache: cache, superblock: sb, sbStore: sbStore}
}

func (store *Store) Count() uint64 { return store.superblock.InodesCount }

func (store *Store) Get(ino Ino, out *Inode) error {
	buf, err := store.cache.Get(InodeStoreBlock)
	if err != nil {
		return fmt.Errorf("getting inode `%d`: %w", ino, err)
	}
	defer store.cache.Release(buf)

	slot, found := store.find(buf, ino)
	if !found {
		return fmt.Errorf("getting inode `%d`: %w", ino, NotFoundErr)
	}
	encode.DecodeInode(out, encode.InodeSlot(&buf.Data, slot))
	return nil
}

// Append writes `inode` into the next free slot and persists the increased
// inode count.
func (store *Store) Append(inode *Inode) error {
	count := store.superblock.InodesCount
	if count >= MaxObjects {
		return fmt.Errorf(
			"appending inode `%d`: %w",
			inode.Ino,
			CapacityExceededErr,
		)
	}

	buf, err := store.cache.Get(InodeStoreBlock)
	if err != nil {
		return fmt.Errorf("appending inode `%d`: %w", inode.Ino, err)
	}
	defer store.cache.Release(buf)

	encode.EncodeInode(inode, encode.InodeSlot(&buf.Data, count))
	store.cache.MarkDirty(buf)
	if err := store.cache.Sync(buf); err != nil {
		return fmt.Errorf("appending inode `%d`: %w", inode.Ino, err)
	}

	store.superblock.InodesCount++
	if err := store.sbStore.Put(store.superblock); err != nil {
		store.superblock.InodesCount--
		return fmt.Errorf(
			"appending inode `%d`: updating inode count: %w",
			inode.Ino,
			err,
		)
	}
	return nil
}

// Save overwrites the existing record with the same inode number.
func (store *Store) Save(inode *Inode) error {
	buf, err := store.cache.Get(InodeStoreBlock)
	if err != nil {
		return fmt.Errorf("saving inode `%d`: %w", inode.Ino, err)
	}
	defer store.cache.Release(buf)

	slot, found := store.find(buf, inode.Ino)
	if !found {
		return fmt.Errorf("saving inode `%d`: %w", inode.Ino, NotFoundErr)
	}
	encode.EncodeInode(inode, encode.InodeSlot(&buf.Data, slot))
	store.cache.MarkDirty(buf)
	if err := store.cache.Sync(buf); err != nil {
		return fmt.Errorf("saving inode `%d`: %w", inode.Ino, err)
	}
	return nil
}

// All visits every record in slot order, stopping at the first error.
func (store *Store) All(f func(slot uint64, inode *Inode) error) error {
	buf, err := store.cache.Get(InodeStoreBlock)
	if err != nil {
		return fmt.Errorf("scanning inodes: %w", err)
	}
	defer store.cache.Release(buf)

	var inode Inode
	for slot := uint64(0); slot < store.superblock.InodesCount; slot++ {
		encode.DecodeInode(&inode, encode.InodeSlot(&buf.Data, slot))
		if err := f(slot, &inode); err != nil {
			return err
		}
	}
	return nil
}

func (store *Store) find(buf *bcache.Buffer, ino Ino) (uint64, bool) {
	var inode Inode
	for slot := uint64(0); slot < store.superblock.InodesCount; slot++ {
		encode.DecodeInode(&inode, encode.InodeSlot(&buf.Data, slot))
		if inode.Ino == ino {
			return slot, true
		}
	}
	return 0, false
}
