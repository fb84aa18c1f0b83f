package device

import (
	"bytes"
	"errors"
	"fmt"
	stdio "io"

	"github.com/gosimple/slug"
	"github.com/weberc2/blockfs/pkg/objectstore"
	. "github.com/weberc2/blockfs/pkg/types"
)

// ObjectDevice keeps one object per block under `<Prefix>/blocks/`. Blocks
// that were never written read back as zeroes.
type ObjectDevice struct {
	Store  objectstore.ObjectStore
	Bucket string
	Prefix string
}

// NewObjectDevice derives the key prefix from a human-readable volume name.
func NewObjectDevice(
	store objectstore.ObjectStore,
	bucket string,
	name string,
) *ObjectDevice {
	return &ObjectDevice{Store: store, Bucket: bucket, Prefix: slug.Make(name)}
}

func (d *ObjectDevice) blocksPrefix() string {
	return d.Prefix + "/blocks/"
}

func (d *ObjectDevice) key(b Block) string {
	return fmt.Sprintf("%s%016x", d.blocksPrefix(), uint64(b))
}

func (d *ObjectDevice) ReadBlock(b Block, p *[BlockSize]byte) error {
	key := d.key(b)
	body, err := d.Store.GetObject(d.Bucket, key)
	if err != nil {
		var notFound *objectstore.ObjectNotFoundErr
		if errors.As(err, &notFound) {
			*p = [BlockSize]byte{}
			return nil
		}
		return fmt.Errorf("reading block `%d` from `%s`: %w", b, key, err)
	}
	defer body.Close()

	if _, err := stdio.ReadFull(body, p[:]); err != nil {
		return fmt.Errorf("reading block `%d` from `%s`: %w", b, key, err)
	}
	return nil
}

func (d *ObjectDevice) WriteBlock(b Block, p *[BlockSize]byte) error {
	key := d.key(b)
	if err := d.Store.PutObject(
		d.Bucket,
		key,
		bytes.NewReader(p[:]),
	); err != nil {
		return fmt.Errorf("writing block `%d` to `%s`: %w", b, key, err)
	}
	return nil
}

// Sync is a no-op: a successful PutObject is already durable.
func (d *ObjectDevice) Sync() error { return nil }

func (d *ObjectDevice) Wipe() error {
	keys, err := d.Store.ListObjects(d.Bucket, d.blocksPrefix())
	if err != nil {
		return fmt.Errorf("wiping volume `%s`: %w", d.Prefix, err)
	}
	for _, key := range keys {
		if err := d.Store.DeleteObject(d.Bucket, key); err != nil {
			return fmt.Errorf("wiping volume `%s`: %w", d.Prefix, err)
		}
	}
	return nil
}
