// Package file reads and writes the contents of regular files. Every file
// owns exactly one data block, so no file is ever larger than BlockSize.
package file

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/directory"
	"github.com/weberc2/blockfs/pkg/math"
	. "github.com/weberc2/blockfs/pkg/types"
)

type FileSystem = directory.FileSystem

// Read returns the bytes in [offset, offset+length) clamped to the file's
// size. Reading at or past the end returns an empty slice.
func Read(
	fs *FileSystem,
	inode *Inode,
	offset Byte,
	length Byte,
) ([]byte, error) {
	if inode.IsDir() {
		return nil, fmt.Errorf("reading file `%d`: %w", inode.Ino, IsADirErr)
	}
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf(
			"reading file `%d` at offset `%d` length `%d`: %w",
			inode.Ino,
			offset,
			length,
			OutOfBoundsErr,
		)
	}
	if inode.Size < 0 || inode.Size > BlockSize {
		return nil, fmt.Errorf(
			"reading file `%d` with size `%d`: %w",
			inode.Ino,
			inode.Size,
			InvalidFormatErr,
		)
	}
	if offset >= inode.Size {
		return []byte{}, nil
	}

	end := offset + math.Min(length, inode.Size-offset)

	buf, err := fs.Cache.Get(inode.DataBlock)
	if err != nil {
		return nil, fmt.Errorf(
			"reading file `%d` from block `%d`: %w",
			inode.Ino,
			inode.DataBlock,
			err,
		)
	}
	defer fs.Cache.Release(buf)

	out := make([]byte, end-offset)
	copy(out, buf.Data[offset:end])
	return out, nil
}

// Write copies `data` into the file's block at `offset`, sets the file size
// to `offset + len(data)` and saves the inode. Writes that would spill past
// the block are rejected without touching anything.
func Write(fs *FileSystem, inode *Inode, offset Byte, data []byte) (int, error) {
	if inode.IsDir() {
		return 0, fmt.Errorf("writing file `%d`: %w", inode.Ino, IsADirErr)
	}
	if offset < 0 || offset > BlockSize || Byte(len(data)) > BlockSize-offset {
		return 0, fmt.Errorf(
			"writing `%d` bytes to file `%d` at offset `%d`: %w",
			len(data),
			inode.Ino,
			offset,
			OutOfBoundsErr,
		)
	}

	end := offset + Byte(len(data))

	buf, err := fs.Cache.Get(inode.DataBlock)
	if err != nil {
		return 0, fmt.Errorf(
			"writing file `%d` to block `%d`: %w",
			inode.Ino,
			inode.DataBlock,
			err,
		)
	}
	defer fs.Cache.Release(buf)

	copy(buf.Data[offset:end], data)
	fs.Cache.MarkDirty(buf)
	if err := fs.Cache.Sync(buf); err != nil {
		return 0, fmt.Errorf(
			"writing file `%d` to block `%d`: %w",
			inode.Ino,
			inode.DataBlock,
			err,
		)
	}

	inode.Size = end
	if err := fs.InodeStore.Save(inode); err != nil {
		return len(data), fmt.Errorf(
			"writing file `%d`: updating size: %w",
			inode.Ino,
			err,
		)
	}
	return len(data), nil
}
