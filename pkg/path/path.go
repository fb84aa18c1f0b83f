package path

import (
	"fmt"
	"strings"

	. "github.com/weberc2/blockfs/pkg/types"
)

const (
	NotAbsolutePathErr ConstError = "not an absolute path"
	RootPathErr        ConstError = "path refers to the root directory"
)

// Volume is the part of *fs.Volume that path resolution needs.
type Volume interface {
	Stat(ino Ino) (Inode, error)
	Lookup(parent Ino, name string) (Inode, error)
}

// Split breaks an absolute path into its non-empty components.
func Split(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("splitting path `%s`: %w", path, NotAbsolutePathErr)
	}
	var chunks []string
	for _, chunk := range strings.Split(path, "/") {
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

// Resolve walks `path` from the root directory.
func Resolve(vol Volume, path string) (Inode, error) {
	chunks, err := Split(path)
	if err != nil {
		return Inode{}, err
	}

	inode, err := vol.Stat(InoRoot)
	if err != nil {
		return Inode{}, fmt.Errorf("resolving path `%s`: %w", path, err)
	}
	for _, chunk := range chunks {
		if inode, err = vol.Lookup(inode.Ino, chunk); err != nil {
			return Inode{}, fmt.Errorf("resolving path `%s`: %w", path, err)
		}
	}
	return inode, nil
}

// ResolveParent resolves every component of `path` but the last, which it
// returns as `name`.
func ResolveParent(vol Volume, path string) (parent Inode, name string, err error) {
	chunks, err := Split(path)
	if err != nil {
		return Inode{}, "", err
	}
	if len(chunks) < 1 {
		return Inode{}, "", fmt.Errorf("resolving parent of `%s`: %w", path, RootPathErr)
	}

	name = chunks[len(chunks)-1]
	parent, err = Resolve(vol, "/"+strings.Join(chunks[:len(chunks)-1], "/"))
	if err != nil {
		return Inode{}, "", err
	}
	if !parent.IsDir() {
		return Inode{}, "", fmt.Errorf(
			"resolving parent of `%s`: %w",
			path,
			NotADirErr,
		)
	}
	return parent, name, nil
}
