package directory

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/encode"
	. "github.com/weberc2/blockfs/pkg/types"
)

// InsertEntry appends an entry for `ino` to `parent`'s data block and bumps
// the in-memory child count. The caller persists `parent`.
func InsertEntry(fs *FileSystem, parent *Inode, name string, ino Ino) error {
	if err := ValidateName(name); err != nil {
		return fmt.Errorf(
			"inserting entry for `%d` in dir `%d`: %w",
			ino,
			parent.Ino,
			err,
		)
	}
	if parent.ChildrenCount >= EntriesPerBlock {
		return fmt.Errorf(
			"inserting entry `%s` in dir `%d`: %w",
			name,
			parent.Ino,
			DirectoryFullErr,
		)
	}

	_, exists, err := find(fs, parent, name)
	if err != nil {
		return fmt.Errorf(
			"inserting entry `%s` in dir `%d`: %w",
			name,
			parent.Ino,
			err,
		)
	}
	if exists {
		return fmt.Errorf(
			"inserting entry `%s` in dir `%d`: %w",
			name,
			parent.Ino,
			ExistsErr,
		)
	}

	buf, err := fs.Cache.Get(parent.DataBlock)
	if err != nil {
		return fmt.Errorf(
			"inserting entry `%s` in dir `%d`: %w",
			name,
			parent.Ino,
			err,
		)
	}
	defer fs.Cache.Release(buf)

	encode.EncodeDirEntry(
		&DirEntry{Name: name, Ino: ino},
		encode.DirEntrySlot(&buf.Data, parent.ChildrenCount),
	)
	fs.Cache.MarkDirty(buf)
	if err := fs.Cache.Sync(buf); err != nil {
		return fmt.Errorf(
			"inserting entry `%s` in dir `%d`: %w",
			name,
			parent.Ino,
			err,
		)
	}

	parent.ChildrenCount++
	return nil
}
