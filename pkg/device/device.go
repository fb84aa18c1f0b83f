// Package device provides block-granular access to the storage backing a
// volume.
package device

import (
	. "github.com/weberc2/blockfs/pkg/types"
)

type Device interface {
	ReadBlock(b Block, p *[BlockSize]byte) error
	WriteBlock(b Block, p *[BlockSize]byte) error

	// Sync returns once every completed WriteBlock is durable.
	Sync() error
}

// Wiper is implemented by devices whose storage can be discarded wholesale
// before formatting.
type Wiper interface {
	Wipe() error
}

var (
	_ Device = (*VolumeDevice)(nil)
	_ Device = (*ObjectDevice)(nil)
	_ Device = (*PostgresDevice)(nil)
	_ Wiper  = (*ObjectDevice)(nil)
	_ Wiper  = (*PostgresDevice)(nil)
)
