// Package bcache implements a fixed-capacity LRU buffer cache in front of a
// block device. Buffers handed out by Get are pinned until released and are
// never evicted while pinned.
package bcache

import (
	"fmt"
	"sync"

	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/math"
	. "github.com/weberc2/blockfs/pkg/types"
)

type Buffer struct {
	Block Block
	Data  [BlockSize]byte

	pins  int
	dirty bool
	prev  *Buffer
	next  *Buffer
}

type Cache struct {
	device   device.Device
	capacity int

	mutex  sync.Mutex
	lookup map[Block]*Buffer
	head   *Buffer // most recently used
	tail   *Buffer // least recently used
}

func New(dev device.Device, capacity int) *Cache {
	capacity = math.Max(capacity, 1)
	return &Cache{
		device:   dev,
		capacity: capacity,
		lookup:   make(map[Block]*Buffer, capacity),
	}
}

func (c *Cache) Device() device.Device { return c.device }

// Get returns the pinned buffer for block `b`, reading it from the device on
// a miss.
func (c *Cache) Get(b Block) (*Buffer, error) {
	return c.get(b, true)
}

// GetZero returns the pinned buffer for block `b` with its contents zeroed
// and marked dirty, without reading the device.
func (c *Cache) GetZero(b Block) (*Buffer, error) {
	buf, err := c.get(b, false)
	if err != nil {
		return nil, err
	}
	c.mutex.Lock()
	buf.Data = [BlockSize]byte{}
	buf.dirty = true
	c.mutex.Unlock()
	return buf, nil
}

func (c *Cache) get(b Block, read bool) (*Buffer, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if buf, exists := c.lookup[b]; exists {
		buf.pins++
		c.unlink(buf)
		c.pushFront(buf)
		return buf, nil
	}

	buf, err := c.claim()
	if err != nil {
		return nil, fmt.Errorf("getting block `%d`: %w", b, err)
	}

	if read {
		if err := c.device.ReadBlock(b, &buf.Data); err != nil {
			return nil, fmt.Errorf("getting block `%d`: %w", b, err)
		}
	}

	buf.Block = b
	buf.pins = 1
	buf.dirty = false
	c.lookup[b] = buf
	c.pushFront(buf)
	return buf, nil
}

// claim returns an unlinked buffer, evicting the least recently used unpinned
// buffer once the cache is at capacity.
func (c *Cache) claim() (*Buffer, error) {
	if len(c.lookup) < c.capacity {
		return new(Buffer), nil
	}

	for buf := c.tail; buf != nil; buf = buf.prev {
		if buf.pins > 0 {
			continue
		}
		if buf.dirty {
			if err := c.device.WriteBlock(buf.Block, &buf.Data); err != nil {
				return nil, fmt.Errorf(
					"evicting dirty block `%d`: %w",
					buf.Block,
					err,
				)
			}
			buf.dirty = false
		}
		c.unlink(buf)
		delete(c.lookup, buf.Block)
		return buf, nil
	}

	return nil, AllPinnedErr
}

func (c *Cache) Release(buf *Buffer) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if buf.pins < 1 {
		panic(fmt.Sprintf("releasing unpinned block `%d`", buf.Block))
	}
	buf.pins--
}

func (c *Cache) MarkDirty(buf *Buffer) {
	c.mutex.Lock()
	buf.dirty = true
	c.mutex.Unlock()
}

// Sync writes `buf` if it is dirty and waits for the device to make it
// durable.
func (c *Cache) Sync(buf *Buffer) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if buf.dirty {
		if err := c.device.WriteBlock(buf.Block, &buf.Data); err != nil {
			return fmt.Errorf("syncing block `%d`: %w", buf.Block, err)
		}
		buf.dirty = false
	}
	if err := c.device.Sync(); err != nil {
		return fmt.Errorf("syncing block `%d`: %w", buf.Block, err)
	}
	return nil
}

// Flush writes every dirty buffer and syncs the device.
func (c *Cache) Flush() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for buf := c.head; buf != nil; buf = buf.next {
		if !buf.dirty {
			continue
		}
		if err := c.device.WriteBlock(buf.Block, &buf.Data); err != nil {
			return fmt.Errorf("flushing block `%d`: %w", buf.Block, err)
		}
		buf.dirty = false
	}
	if err := c.device.Sync(); err != nil {
		return fmt.Errorf("flushing: %w", err)
	}
	return nil
}

func (c *Cache) unlink(buf *Buffer) {
	if buf.prev != nil {
		buf.prev.next = buf.next
	} else if c.head == buf {
		c.head = buf.next
	}
	if buf.next != nil {
		buf.next.prev = buf.prev
	} else if c.tail == buf {
		c.tail = buf.prev
	}
	buf.prev = nil
	buf.next = nil
}

func (c *Cache) pushFront(buf *Buffer) {
	buf.prev = nil
	buf.next = c.head
	if c.head != nil {
		c.head.prev = buf
	}
	c.head = buf
	if c.tail == nil {
		c.tail = buf
	}
}
