package io

import (
	. "github.com/weberc2/blockfs/pkg/types"
)

type ReadAt interface {
	ReadAt(offset Byte, b []byte) error
}

type WriteAt interface {
	WriteAt(offset Byte, p []byte) error
}

type Volume interface {
	ReadAt
	WriteAt
}

// Syncer is implemented by volumes that can force written data to stable
// storage.
type Syncer interface {
	Sync() error
}
