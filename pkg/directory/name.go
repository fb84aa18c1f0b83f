package directory

import (
	"fmt"
	"strings"

	. "github.com/weberc2/blockfs/pkg/types"
)

// ValidateName checks that `name` fits a directory entry's name buffer with
// room for the terminator and could be stored and read back unchanged.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("validating name `%s`: %w", name, InvalidNameErr)
	}
	if Byte(len(name)) > FilenameMaxLen-1 {
		return fmt.Errorf(
			"validating name of length `%d`: %w",
			len(name),
			NameTooLongErr,
		)
	}
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("validating name `%q`: %w", name, InvalidNameErr)
	}
	return nil
}
