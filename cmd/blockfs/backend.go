package main

import (
	"fmt"

	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/io"
	"github.com/weberc2/blockfs/pkg/objectstore"
	"github.com/weberc2/blockfs/pkg/pgutil"
	. "github.com/weberc2/blockfs/pkg/types"
)

// ImageSize is the size of a file-backed image: every block an object can
// occupy.
const ImageSize = Byte(MaxObjects) * BlockSize

// openDevice opens the configured backend. A positive `size` resizes file
// images; other backends ignore it.
func openDevice(c *Config, size Byte) (device.Device, func() error, error) {
	switch c.Backend {
	case BackendFile:
		if size > 0 {
			size += Byte(c.ImageOffset)
		}
		file, err := io.OpenFileVolume(c.Path, size)
		if err != nil {
			return nil, nil, err
		}
		var volume io.Volume = file
		if c.ImageOffset > 0 {
			volume = io.NewOffsetVolume(file, Byte(c.ImageOffset))
		}
		return device.NewVolumeDevice(volume), file.Close, nil

	case BackendS3:
		s3, err := objectstore.NewS3ObjectStore()
		if err != nil {
			return nil, nil, err
		}
		var store objectstore.ObjectStore = s3
		if c.Gzip {
			store = &objectstore.GzipObjectStore{ObjectStore: s3}
		}
		dev := device.NewObjectDevice(store, c.Bucket, c.Volume)
		if c.Prefix != "" {
			dev.Prefix = c.Prefix + "/" + dev.Prefix
		}
		return dev, func() error { return nil }, nil

	case BackendPostgres:
		db, err := pgutil.OpenEnvPing()
		if err != nil {
			return nil, nil, err
		}
		dev := device.NewPostgresDevice(db, c.Volume)
		if err := dev.EnsureTable(); err != nil {
			db.Close()
			return nil, nil, err
		}
		return dev, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("invalid backend `%s`", c.Backend)
	}
}
