package path_test

import (
	"errors"
	"testing"

	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/fs"
	"github.com/weberc2/blockfs/pkg/path"
	. "github.com/weberc2/blockfs/pkg/types"
)

func TestResolve(t *testing.T) {
	vol := newTree(t)

	type testCase struct {
		name        string
		path        string
		wantedName  string
		wantedRoot  bool
		wantedError error
	}

	for _, tc := range []testCase{{
		name:       "root",
		path:       "/",
		wantedRoot: true,
	}, {
		name:       "top-level file",
		path:       "/README.txt",
		wantedName: "README.txt",
	}, {
		name:       "nested",
		path:       "/a/b/c.txt",
		wantedName: "c.txt",
	}, {
		name:       "repeated slashes",
		path:       "//a//b/",
		wantedName: "b",
	}, {
		name:        "relative",
		path:        "a/b",
		wantedError: path.NotAbsolutePathErr,
	}, {
		name:        "missing",
		path:        "/a/missing",
		wantedError: NotFoundErr,
	}, {
		name:        "through a file",
		path:        "/a/b/c.txt/d",
		wantedError: NotADirErr,
	}} {
		t.Run(tc.name, func(t *testing.T) {
			inode, err := path.Resolve(vol, tc.path)
			if tc.wantedError != nil {
				if !errors.Is(err, tc.wantedError) {
					t.Fatalf("Resolve(): wanted `%v`; found `%v`", tc.wantedError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(): unexpected err: %v", err)
			}
			if tc.wantedRoot {
				if inode.Ino != InoRoot {
					t.Fatalf("Resolve(): wanted root; found `%+v`", inode)
				}
				return
			}

			parent, name, err := path.ResolveParent(vol, tc.path)
			if err != nil {
				t.Fatalf("ResolveParent(): unexpected err: %v", err)
			}
			if name != tc.wantedName {
				t.Fatalf("ResolveParent(): wanted name `%s`; found `%s`", tc.wantedName, name)
			}
			child, err := vol.Lookup(parent.Ino, name)
			if err != nil {
				t.Fatalf("Lookup(): unexpected err: %v", err)
			}
			if child != inode {
				t.Fatalf("Resolve(): wanted `%+v`; found `%+v`", child, inode)
			}
		})
	}
}

func TestResolveParent_Root(t *testing.T) {
	vol := newTree(t)
	if _, _, err := path.ResolveParent(vol, "/"); !errors.Is(err, path.RootPathErr) {
		t.Fatalf("ResolveParent(): wanted `%v`; found `%v`", path.RootPathErr, err)
	}
}

func newTree(t *testing.T) *fs.Volume {
	dev := device.NewMemory(Block(MaxObjects))
	if err := fs.Format(dev, fs.FormatParams{Welcome: true}); err != nil {
		t.Fatalf("Format(): unexpected err: %v", err)
	}
	vol, err := fs.Mount(dev, fs.MountParams{})
	if err != nil {
		t.Fatalf("Mount(): unexpected err: %v", err)
	}

	a, err := vol.Mkdir(InoRoot, "a", fs.DefaultDirPerm)
	if err != nil {
		t.Fatalf("Mkdir(): unexpected err: %v", err)
	}
	b, err := vol.Mkdir(a.Ino, "b", fs.DefaultDirPerm)
	if err != nil {
		t.Fatalf("Mkdir(): unexpected err: %v", err)
	}
	if _, err := vol.CreateFile(b.Ino, "c.txt", fs.DefaultFilePerm); err != nil {
		t.Fatalf("CreateFile(): unexpected err: %v", err)
	}
	return vol
}
