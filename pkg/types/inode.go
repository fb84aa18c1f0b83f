package types

import (
	"fmt"
)

type Ino uint64

const (
	InoNil  Ino = 0
	InoRoot Ino = 1

	// StartIno, ReservedInodes and MaxObjects determine both inode
	// numbering and the range of blocks the allocator may hand out.
	StartIno       Ino    = 10
	ReservedInodes uint64 = 3
	MaxObjects     uint64 = 64

	InodeSize Byte = 32
)

// Inode is the in-memory copy of one inode table record. Size is only
// meaningful for regular files and ChildrenCount only for directories; both
// share the same on-disk field.
type Inode struct {
	Ino           Ino    `json:"ino"`
	Mode          Mode   `json:"mode"`
	DataBlock     Block  `json:"dataBlock"`
	Size          Byte   `json:"size"`
	ChildrenCount uint64 `json:"childrenCount"`
}

func (inode *Inode) FileType() FileType { return inode.Mode.FileType() }

func (inode *Inode) IsDir() bool { return inode.Mode.FileType() == FileTypeDir }

type Mode uint32

const (
	ModeTypeMask Mode = 0o170000
	ModePermMask Mode = 0o7777
	ModeDir      Mode = 0o040000
	ModeRegular  Mode = 0o100000
)

func (mode Mode) FileType() FileType {
	switch mode & ModeTypeMask {
	case ModeDir:
		return FileTypeDir
	case ModeRegular:
		return FileTypeRegular
	default:
		return FileTypeInvalid
	}
}

func (mode Mode) Perm() Mode { return mode & ModePermMask }

func (mode Mode) String() string {
	return fmt.Sprintf("%s(%04o)", mode.FileType(), uint32(mode.Perm()))
}

type FileType uint8

const (
	FileTypeInvalid FileType = iota
	FileTypeRegular
	FileTypeDir
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeInvalid:
		return "Invalid"
	case FileTypeRegular:
		return "Regular"
	case FileTypeDir:
		return "Dir"
	default:
		panic(fmt.Sprintf("invalid file type: `%d`", ft))
	}
}

func (ft FileType) MarshalJSON() ([]byte, error) {
	s := ft.String()
	out := make([]byte, len(s)+2)
	out[0] = '"'
	out[len(out)-1] = '"'
	copy(out[1:], s)
	return out, nil
}

func (ft FileType) Validate() error {
	if ft <= FileTypeInvalid || ft > FileTypeDir {
		return fmt.Errorf("validating file type `%d`: %w", ft, InvalidModeErr)
	}
	return nil
}
