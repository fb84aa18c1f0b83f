package directory

import (
	"fmt"
	"io"

	"github.com/weberc2/blockfs/pkg/encode"
	. "github.com/weberc2/blockfs/pkg/types"
)

// Handle is a position in a directory. It covers the entries that existed
// when it was opened; entries are only ever appended, so those stay valid
// while later entries are added.
type Handle struct {
	ino   Ino
	block Block
	count uint64
	next  uint64
}

func (h *Handle) Ino() Ino { return h.ino }

// Rewind restarts iteration from the first entry.
func (h *Handle) Rewind() { h.next = 0 }

func Open(fs *FileSystem, dir *Inode, h *Handle) error {
	if !dir.IsDir() {
		return fmt.Errorf("opening dir `%d`: %w", dir.Ino, NotADirErr)
	}
	if err := validateCount(dir); err != nil {
		return fmt.Errorf("opening dir `%d`: %w", dir.Ino, err)
	}
	*h = Handle{ino: dir.Ino, block: dir.DataBlock, count: dir.ChildrenCount}
	return nil
}

// ReadNext returns the next entry in insertion order, or io.EOF once every
// entry has been read.
func ReadNext(fs *FileSystem, h *Handle, out *DirEntry) error {
	if h.next >= h.count {
		return io.EOF
	}

	buf, err := fs.Cache.Get(h.block)
	if err != nil {
		return fmt.Errorf(
			"reading entry `%d` from dir `%d`: %w",
			h.next,
			h.ino,
			err,
		)
	}
	defer fs.Cache.Release(buf)

	encode.DecodeDirEntry(out, encode.DirEntrySlot(&buf.Data, h.next))
	h.next++
	return nil
}

// ReadAll collects every entry of `dir`.
func ReadAll(fs *FileSystem, dir *Inode) ([]DirEntry, error) {
	var h Handle
	if err := Open(fs, dir, &h); err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, h.count)
	for {
		var entry DirEntry
		if err := ReadNext(fs, &h, &entry); err != nil {
			if err == io.EOF {
				return entries, nil
			}
			return entries, err
		}
		entries = append(entries, entry)
	}
}
