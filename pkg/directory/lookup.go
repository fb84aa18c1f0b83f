package directory

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/encode"
	. "github.com/weberc2/blockfs/pkg/types"
)

// Lookup resolves `name` in `parent` to the child's inode record.
func Lookup(fs *FileSystem, parent *Inode, name string, out *Inode) error {
	entry, found, err := find(fs, parent, name)
	if err != nil {
		return fmt.Errorf(
			"looking up `%s` in dir `%d`: %w",
			name,
			parent.Ino,
			err,
		)
	}
	if !found {
		return fmt.Errorf(
			"looking up `%s` in dir `%d`: %w",
			name,
			parent.Ino,
			NotFoundErr,
		)
	}

	if err := fs.InodeStore.Get(entry.Ino, out); err != nil {
		return fmt.Errorf(
			"looking up `%s` in dir `%d`: resolving entry: %w",
			name,
			parent.Ino,
			err,
		)
	}
	return nil
}

func find(
	fs *FileSystem,
	parent *Inode,
	name string,
) (DirEntry, bool, error) {
	if !parent.IsDir() {
		return DirEntry{}, false, NotADirErr
	}
	if err := validateCount(parent); err != nil {
		return DirEntry{}, false, err
	}

	buf, err := fs.Cache.Get(parent.DataBlock)
	if err != nil {
		return DirEntry{}, false, err
	}
	defer fs.Cache.Release(buf)

	var entry DirEntry
	for slot := uint64(0); slot < parent.ChildrenCount; slot++ {
		encode.DecodeDirEntry(&entry, encode.DirEntrySlot(&buf.Data, slot))
		if entry.Name == name {
			return entry, true, nil
		}
	}
	return DirEntry{}, false, nil
}

// validateCount rejects directories claiming more entries than one block
// holds.
func validateCount(dir *Inode) error {
	if dir.ChildrenCount > EntriesPerBlock {
		return fmt.Errorf(
			"dir `%d` has `%d` children (max `%d`): %w",
			dir.Ino,
			dir.ChildrenCount,
			EntriesPerBlock,
			InvalidFormatErr,
		)
	}
	return nil
}
