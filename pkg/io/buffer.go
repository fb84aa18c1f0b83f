package io

import (
	"fmt"
	"io"
	"sync"

	. "github.com/weberc2/blockfs/pkg/types"
)

// Buffer is an in-memory volume of fixed size.
type Buffer struct {
	mutex sync.RWMutex
	data  []byte
}

func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) ReadAt(offset Byte, p []byte) error {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	if offset < 0 || offset+Byte(len(p)) > Byte(len(b.data)) {
		return fmt.Errorf(
			"reading `%d` bytes from buffer at offset `%d`: %w",
			len(p),
			offset,
			io.EOF,
		)
	}
	copy(p, b.data[offset:])
	return nil
}

func (b *Buffer) WriteAt(offset Byte, p []byte) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if offset < 0 || offset+Byte(len(p)) > Byte(len(b.data)) {
		return fmt.Errorf(
			"writing `%d` bytes to buffer at offset `%d`: %w",
			len(p),
			offset,
			io.ErrShortWrite,
		)
	}
	copy(b.data[offset:], p)
	return nil
}

// Bytes returns the underlying storage. Callers must not use it concurrently
// with writes.
func (b *Buffer) Bytes() []byte { return b.data }
