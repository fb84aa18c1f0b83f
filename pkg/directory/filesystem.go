package directory

import (
	"github.com/weberc2/blockfs/pkg/bcache"
	"github.com/weberc2/blockfs/pkg/inode"
)

type FileSystem struct {
	Cache      *bcache.Cache
	InodeStore *inode.Store
}
