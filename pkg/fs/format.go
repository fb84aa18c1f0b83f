package fs

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	log "github.com/sirupsen/logrus"
	"github.com/weberc2/blockfs/pkg/alloc"
	"github.com/weberc2/blockfs/pkg/bcache"
	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/encode"
	"github.com/weberc2/blockfs/pkg/superblock"
	. "github.com/weberc2/blockfs/pkg/types"
)

const (
	WelcomeFileName     = "README.txt"
	WelcomeFileIno      = Ino(InoRoot + 1)
	WelcomeFileBlock    = Block(ReservedInodes)
	WelcomeFileContents = "Welcome to blockfs!\n"

	DefaultDirPerm  Mode = 0o755
	DefaultFilePerm Mode = 0o644

	formatCacheCapacity = 4
)

type FormatParams struct {
	// Label is slugified and truncated to fit the superblock.
	Label string

	// Welcome adds a README.txt to the root directory.
	Welcome bool

	// IDFunc generates the volume id. Defaults to uuid.New.
	IDFunc func() uuid.UUID
}

// Format writes an empty volume to `dev`. The superblock is written last, so
// a device whose format was interrupted fails to mount.
func Format(dev device.Device, params FormatParams) error {
	idFunc := params.IDFunc
	if idFunc == nil {
		idFunc = uuid.New
	}

	label := slug.Make(params.Label)
	if Byte(len(label)) > LabelSize {
		label = label[:LabelSize]
	}

	sb := superblock.New()
	sb.VolumeID = idFunc()
	sb.Label = label

	cache := bcache.New(dev, formatCacheCapacity)

	inodes, err := cache.GetZero(InodeStoreBlock)
	if err != nil {
		return fmt.Errorf("formatting volume: %w", err)
	}
	defer cache.Release(inodes)

	rootData, err := cache.GetZero(RootDataBlock)
	if err != nil {
		return fmt.Errorf("formatting volume: %w", err)
	}
	defer cache.Release(rootData)

	root := Inode{
		Ino:       InoRoot,
		Mode:      ModeDir | DefaultDirPerm,
		DataBlock: RootDataBlock,
	}

	if params.Welcome {
		welcome := Inode{
			Ino:       WelcomeFileIno,
			Mode:      ModeRegular | DefaultFilePerm,
			DataBlock: WelcomeFileBlock,
			Size:      Byte(len(WelcomeFileContents)),
		}

		data, err := cache.GetZero(WelcomeFileBlock)
		if err != nil {
			return fmt.Errorf("formatting volume: %w", err)
		}
		copy(data.Data[:], WelcomeFileContents)
		err = cache.Sync(data)
		cache.Release(data)
		if err != nil {
			return fmt.Errorf("formatting volume: writing welcome file: %w", err)
		}

		encode.EncodeInode(&welcome, encode.InodeSlot(&inodes.Data, 1))
		encode.EncodeDirEntry(
			&DirEntry{Name: WelcomeFileName, Ino: WelcomeFileIno},
			encode.DirEntrySlot(&rootData.Data, 0),
		)
		(*alloc.Bitmap)(&sb.FreeBlocks).Reserve(WelcomeFileBlock)
		root.ChildrenCount = 1
		sb.InodesCount++
	}

	encode.EncodeInode(&root, encode.InodeSlot(&inodes.Data, 0))

	if err := cache.Sync(rootData); err != nil {
		return fmt.Errorf("formatting volume: writing root dir: %w", err)
	}
	if err := cache.Sync(inodes); err != nil {
		return fmt.Errorf("formatting volume: writing inode store: %w", err)
	}
	if err := superblock.Persist(cache, &sb); err != nil {
		return fmt.Errorf("formatting volume: %w", err)
	}

	log.WithFields(log.Fields{
		"volume": sb.VolumeID.String(),
		"label":  sb.Label,
	}).Infof("formatted volume with `%d` inodes", sb.InodesCount)
	return nil
}
