//go:build !linux && !darwin

package directio

import "os"

const (
	AlignSize = 0
	BlockSize = 4096
	Enabled   = false
)

// OpenFile is a plain os.OpenFile on platforms with no direct I/O support.
func OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}
