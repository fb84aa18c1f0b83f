package device

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/io"
	. "github.com/weberc2/blockfs/pkg/types"
)

// VolumeDevice addresses a byte-oriented volume (an image file or memory
// buffer) in whole blocks.
type VolumeDevice struct {
	volume io.Volume
}

func NewVolumeDevice(volume io.Volume) *VolumeDevice {
	return &VolumeDevice{volume}
}

// NewMemory returns a device backed by a zeroed buffer of `blocks` blocks.
func NewMemory(blocks Block) *VolumeDevice {
	return NewVolumeDevice(io.NewBuffer(make([]byte, Byte(blocks)*BlockSize)))
}

func (d *VolumeDevice) ReadBlock(b Block, p *[BlockSize]byte) error {
	if err := d.volume.ReadAt(Byte(b)*BlockSize, p[:]); err != nil {
		return fmt.Errorf("reading block `%d`: %w", b, err)
	}
	return nil
}

func (d *VolumeDevice) WriteBlock(b Block, p *[BlockSize]byte) error {
	if err := d.volume.WriteAt(Byte(b)*BlockSize, p[:]); err != nil {
		return fmt.Errorf("writing block `%d`: %w", b, err)
	}
	return nil
}

func (d *VolumeDevice) Sync() error {
	if syncer, ok := d.volume.(io.Syncer); ok {
		return syncer.Sync()
	}
	return nil
}

func (d *VolumeDevice) Volume() io.Volume { return d.volume }
