package io

import (
	"fmt"
	"os"

	. "github.com/weberc2/blockfs/pkg/types"
)

type FileVolume struct {
	file *os.File
}

func NewFileVolume(file *os.File) *FileVolume {
	return &FileVolume{file}
}

// OpenFileVolume opens (creating when necessary) the image at `path`. When
// `size` is positive the image is truncated to exactly that size.
func OpenFileVolume(path string, size Byte) (*FileVolume, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening volume file `%s`: %w", path, err)
	}
	if size > 0 {
		if err := file.Truncate(int64(size)); err != nil {
			file.Close()
			return nil, fmt.Errorf(
				"truncating volume file `%s` to `%d` bytes: %w",
				path,
				size,
				err,
			)
		}
	}
	return &FileVolume{file}, nil
}

func (volume *FileVolume) ReadAt(offset Byte, b []byte) error {
	if _, err := volume.file.ReadAt(b, int64(offset)); err != nil {
		return fmt.Errorf(
			"reading file `%s` at offset `%d`: %w",
			volume.file.Name(),
			offset,
			err,
		)
	}
	return nil
}

func (volume *FileVolume) WriteAt(offset Byte, b []byte) error {
	if _, err := volume.file.WriteAt(b, int64(offset)); err != nil {
		return fmt.Errorf(
			"writing file `%s` at offset `%d`: %w",
			volume.file.Name(),
			offset,
			err,
		)
	}
	return nil
}

func (volume *FileVolume) Sync() error {
	if err := volume.file.Sync(); err != nil {
		return fmt.Errorf("syncing file `%s`: %w", volume.file.Name(), err)
	}
	return nil
}

func (volume *FileVolume) Close() error {
	return volume.file.Close()
}
