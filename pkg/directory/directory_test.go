package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	stdio "io"
	"strings"
	"testing"

	"github.com/weberc2/blockfs/pkg/bcache"
	"github.com/weberc2/blockfs/pkg/device"
	"github.com/weberc2/blockfs/pkg/inode"
	"github.com/weberc2/blockfs/pkg/superblock"
	. "github.com/weberc2/blockfs/pkg/types"
)

func TestInsertEntry(t *testing.T) {
	type testCase struct {
		name          string
		existing      []string
		inputName     string
		wantedError   error
		wantedEntries []string
	}

	full := make([]string, EntriesPerBlock)
	for i := range full {
		full[i] = fmt.Sprintf("file-%02d", i)
	}

	for _, tc := range []testCase{{
		name:          "empty dir",
		inputName:     "a",
		wantedEntries: []string{"a"},
	}, {
		name:          "append",
		existing:      []string{"a", "b"},
		inputName:     "c",
		wantedEntries: []string{"a", "b", "c"},
	}, {
		name:          "longest name",
		inputName:     strings.Repeat("n", int(FilenameMaxLen-1)),
		wantedEntries: []string{strings.Repeat("n", int(FilenameMaxLen-1))},
	}, {
		name:        "name too long",
		inputName:   strings.Repeat("n", int(FilenameMaxLen)),
		wantedError: NameTooLongErr,
	}, {
		name:        "empty name",
		inputName:   "",
		wantedError: InvalidNameErr,
	}, {
		name:        "slash",
		inputName:   "a/b",
		wantedError: InvalidNameErr,
	}, {
		name:          "duplicate",
		existing:      []string{"a"},
		inputName:     "a",
		wantedError:   ExistsErr,
		wantedEntries: []string{"a"},
	}, {
		name:          "full",
		existing:      full,
		inputName:     "overflow",
		wantedError:   DirectoryFullErr,
		wantedEntries: full,
	}} {
		t.Run(tc.name, func(t *testing.T) {
			fs := defaultFileSystem()
			dir := newDir(&fs, 2)
			for i, name := range tc.existing {
				if err := InsertEntry(&fs, &dir, name, Ino(100+i)); err != nil {
					t.Fatalf("preparing entry `%s`: unexpected err: %v", name, err)
				}
			}

			err := InsertEntry(&fs, &dir, tc.inputName, 99)
			if tc.wantedError != nil {
				if !errors.Is(err, tc.wantedError) {
					t.Fatalf(
						"InsertEntry(): wanted `%v`; found `%v`",
						tc.wantedError,
						err,
					)
				}
			} else if err != nil {
				t.Fatalf("InsertEntry(): unexpected err: %v", err)
			}

			if dir.ChildrenCount != uint64(len(tc.wantedEntries)) {
				t.Fatalf(
					"wanted children count `%d`; found `%d`",
					len(tc.wantedEntries),
					dir.ChildrenCount,
				)
			}

			entries, err := ReadAll(&fs, &dir)
			if err != nil {
				t.Fatalf("ReadAll(): unexpected err: %v", err)
			}
			var found []string
			for _, entry := range entries {
				found = append(found, entry.Name)
			}
			if strings.Join(found, ",") != strings.Join(tc.wantedEntries, ",") {
				wanted, err := json.Marshal(tc.wantedEntries)
				if err != nil {
					t.Fatalf("marshaling wanted entries: %v", err)
				}
				data, err := json.Marshal(found)
				if err != nil {
					t.Fatalf("marshaling found entries: %v", err)
				}
				t.Fatalf("wanted entries `%s`; found `%s`", wanted, data)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	fs := defaultFileSystem()
	dir := newDir(&fs, 2)

	children := map[string]Inode{}
	for i, name := range []string{"a", "b", "c"} {
		child := Inode{
			Ino:       Ino(10 + i),
			Mode:      ModeRegular | 0644,
			DataBlock: Block(4 + i),
		}
		if err := fs.InodeStore.Append(&child); err != nil {
			t.Fatalf("Append(): unexpected err: %v", err)
		}
		if err := InsertEntry(&fs, &dir, name, child.Ino); err != nil {
			t.Fatalf("InsertEntry(): unexpected err: %v", err)
		}
		children[name] = child
	}

	var found Inode
	if err := Lookup(&fs, &dir, "b", &found); err != nil {
		t.Fatalf("Lookup(): unexpected err: %v", err)
	}
	if found != children["b"] {
		t.Fatalf("Lookup(): wanted `%+v`; found `%+v`", children["b"], found)
	}

	if err := Lookup(&fs, &dir, "z", &found); !errors.Is(err, NotFoundErr) {
		t.Fatalf("Lookup(): wanted `%v`; found `%v`", NotFoundErr, err)
	}

	file := children["a"]
	if err := Lookup(&fs, &file, "b", &found); !errors.Is(err, NotADirErr) {
		t.Fatalf("Lookup() in file: wanted `%v`; found `%v`", NotADirErr, err)
	}
}

func TestReadNext(t *testing.T) {
	fs := defaultFileSystem()
	dir := newDir(&fs, 2)
	wanted := []DirEntry{{Name: "x", Ino: 10}, {Name: "y", Ino: 11}}
	for _, entry := range wanted {
		if err := InsertEntry(&fs, &dir, entry.Name, entry.Ino); err != nil {
			t.Fatalf("InsertEntry(): unexpected err: %v", err)
		}
	}

	var h Handle
	if err := Open(&fs, &dir, &h); err != nil {
		t.Fatalf("Open(): unexpected err: %v", err)
	}

	// entries added after Open are not part of this handle's sequence
	if err := InsertEntry(&fs, &dir, "z", 12); err != nil {
		t.Fatalf("InsertEntry(): unexpected err: %v", err)
	}

	for pass := 0; pass < 2; pass++ {
		var found []DirEntry
		for {
			var entry DirEntry
			if err := ReadNext(&fs, &h, &entry); err != nil {
				if err == stdio.EOF {
					break
				}
				t.Fatalf("ReadNext(): unexpected err: %v", err)
			}
			found = append(found, entry)
		}
		if len(found) != len(wanted) {
			t.Fatalf("pass `%d`: wanted `%d` entries; found `%d`", pass, len(wanted), len(found))
		}
		for i := range wanted {
			if !wanted[i].Equal(&found[i]) {
				t.Fatalf("pass `%d`: wanted `%+v`; found `%+v`", pass, wanted[i], found[i])
			}
		}
		h.Rewind()
	}

	file := Inode{Ino: 5, Mode: ModeRegular}
	if err := Open(&fs, &file, &h); !errors.Is(err, NotADirErr) {
		t.Fatalf("Open() on file: wanted `%v`; found `%v`", NotADirErr, err)
	}
}

func TestCorruptChildCount(t *testing.T) {
	fs := defaultFileSystem()
	dir := newDir(&fs, 2)
	dir.ChildrenCount = EntriesPerBlock + 5

	var found Inode
	if err := Lookup(&fs, &dir, "a", &found); !errors.Is(err, InvalidFormatErr) {
		t.Fatalf("Lookup(): wanted `%v`; found `%v`", InvalidFormatErr, err)
	}

	var h Handle
	if err := Open(&fs, &dir, &h); !errors.Is(err, InvalidFormatErr) {
		t.Fatalf("Open(): wanted `%v`; found `%v`", InvalidFormatErr, err)
	}
	if _, err := ReadAll(&fs, &dir); !errors.Is(err, InvalidFormatErr) {
		t.Fatalf("ReadAll(): wanted `%v`; found `%v`", InvalidFormatErr, err)
	}
}

func defaultFileSystem() FileSystem {
	cache := bcache.New(device.NewMemory(16), 8)
	sb := superblock.New()
	sb.InodesCount = 0
	return FileSystem{
		Cache:      cache,
		InodeStore: inode.NewStore(cache, &sb, superblock.Store{Cache: cache}),
	}
}

func newDir(fs *FileSystem, block Block) Inode {
	dir := Inode{Ino: InoRoot, Mode: ModeDir | 0755, DataBlock: block}
	if err := fs.InodeStore.Append(&dir); err != nil {
		panic(fmt.Sprintf("appending dir inode: %v", err))
	}
	return dir
}
