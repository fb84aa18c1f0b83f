package types

const (
	FilenameMaxLen Byte = 255

	// DirEntrySize is the name buffer, one byte of alignment padding and
	// the inode number.
	DirEntrySize    Byte = FilenameMaxLen + 1 + 8
	EntriesPerBlock      = uint64(BlockSize / DirEntrySize)
)

type DirEntry struct {
	Name string `json:"name"`
	Ino  Ino    `json:"ino"`
}

func (entry *DirEntry) Equal(other *DirEntry) bool {
	return entry.Name == other.Name && entry.Ino == other.Ino
}
