package types

type ConstError string

func (err ConstError) Error() string { return string(err) }

const (
	InvalidFormatErr    ConstError = "invalid filesystem format"
	NoSpaceErr          ConstError = "no free data blocks"
	CapacityExceededErr ConstError = "inode table is full"
	InvalidModeErr      ConstError = "mode is neither a directory nor a regular file"
	InvalidNameErr      ConstError = "invalid file name"
	NameTooLongErr      ConstError = "name too long"
	DirectoryFullErr    ConstError = "directory is full"
	NotFoundErr         ConstError = "not found"
	ExistsErr           ConstError = "file exists"
	NotADirErr          ConstError = "not a directory"
	IsADirErr           ConstError = "is a directory"
	OutOfBoundsErr      ConstError = "write exceeds block size"
	AllPinnedErr        ConstError = "all cache buffers are pinned"
)
