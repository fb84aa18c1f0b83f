package fs

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/weberc2/blockfs/pkg/alloc"
	"github.com/weberc2/blockfs/pkg/directory"
	. "github.com/weberc2/blockfs/pkg/types"
)

type Problem struct {
	Ino     Ino    `json:"ino,omitempty"`
	Block   Block  `json:"block,omitempty"`
	Message string `json:"message"`
}

type Report struct {
	Inodes     uint64    `json:"inodes"`
	UsedBlocks int       `json:"usedBlocks"`
	FreeBlocks int       `json:"freeBlocks"`
	Problems   []Problem `json:"problems"`
}

func (r *Report) OK() bool { return len(r.Problems) == 0 }

func (r *Report) problemf(ino Ino, b Block, format string, v ...interface{}) {
	r.Problems = append(
		r.Problems,
		Problem{Ino: ino, Block: b, Message: fmt.Sprintf(format, v...)},
	)
}

// Check walks the inode table and every directory and reports
// inconsistencies: orphaned or multiply-linked inodes, dangling entries, and
// blocks whose free bit disagrees with the inode table.
func (v *Volume) Check() (Report, error) {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	var report Report
	bitmap := alloc.Bitmap(v.superblock.FreeBlocks)
	report.Inodes = v.superblock.InodesCount
	if report.Inodes > MaxObjects {
		report.problemf(0, InodeStoreBlock, "`%d` inodes exceeds the maximum", report.Inodes)
	}

	for b := Block(0); b < Block(ReservedInodes); b++ {
		if bitmap.IsFree(b) {
			report.problemf(0, b, "reserved block is marked free")
		}
	}

	inodes := map[Ino]Inode{}
	owners := map[Block]Ino{}
	var dirs []Inode
	if err := v.fs.InodeStore.All(func(slot uint64, inode *Inode) error {
		if _, found := inodes[inode.Ino]; found {
			report.problemf(inode.Ino, 0, "duplicate inode in slot `%d`", slot)
			return nil
		}
		inodes[inode.Ino] = *inode

		switch inode.FileType() {
		case FileTypeDir:
			dirs = append(dirs, *inode)
			if inode.ChildrenCount > EntriesPerBlock {
				report.problemf(
					inode.Ino,
					0,
					"directory has `%d` children (max `%d`)",
					inode.ChildrenCount,
					EntriesPerBlock,
				)
			}
		case FileTypeRegular:
			if inode.Size > BlockSize {
				report.problemf(
					inode.Ino,
					0,
					"file size `%d` exceeds block size",
					inode.Size,
				)
			}
		default:
			report.problemf(inode.Ino, 0, "invalid mode `%s`", inode.Mode)
		}

		b := inode.DataBlock
		if b <= InodeStoreBlock || b >= Block(MaxObjects) {
			report.problemf(inode.Ino, b, "data block out of range")
			return nil
		}
		if owner, found := owners[b]; found {
			report.problemf(
				inode.Ino,
				b,
				"data block shared with inode `%d`",
				owner,
			)
			return nil
		}
		owners[b] = inode.Ino
		if bitmap.IsFree(b) {
			report.problemf(inode.Ino, b, "data block is marked free")
		}
		return nil
	}); err != nil {
		return Report{}, fmt.Errorf("checking volume: %w", err)
	}

	links := map[Ino]int{}
	for i := range dirs {
		// already reported above; their entries can't be decoded
		if dirs[i].ChildrenCount > EntriesPerBlock ||
			dirs[i].DataBlock <= InodeStoreBlock ||
			dirs[i].DataBlock >= Block(MaxObjects) {
			continue
		}
		entries, err := directory.ReadAll(&v.fs, &dirs[i])
		if err != nil {
			return Report{}, fmt.Errorf("checking volume: %w", err)
		}
		for _, entry := range entries {
			if _, found := inodes[entry.Ino]; !found {
				report.problemf(
					dirs[i].Ino,
					0,
					"entry `%s` points to missing inode `%d`",
					entry.Name,
					entry.Ino,
				)
				continue
			}
			links[entry.Ino]++
		}
	}

	for ino, inode := range inodes {
		switch n := links[ino]; {
		case ino == InoRoot && n > 0:
			report.problemf(ino, 0, "root is linked `%d` times", n)
		case ino != InoRoot && n == 0:
			report.problemf(ino, inode.DataBlock, "orphaned inode")
		case n > 1:
			report.problemf(ino, 0, "inode is linked `%d` times", n)
		}
	}

	for b := Block(ReservedInodes); b < Block(MaxObjects); b++ {
		if bitmap.IsFree(b) {
			report.FreeBlocks++
			continue
		}
		report.UsedBlocks++
		if _, found := owners[b]; !found {
			report.problemf(0, b, "block is marked used but has no owner")
		}
	}

	for _, p := range report.Problems {
		v.logger.WithFields(log.Fields{
			"ino":   p.Ino,
			"block": p.Block,
		}).Warn(p.Message)
	}
	return report, nil
}
