//go:build darwin

package directio

import (
	"fmt"
	"os"
	"syscall"
)

const (
	AlignSize = 0
	BlockSize = 4096
	Enabled   = true
)

// OpenFile opens name and disables OS page-cache buffering via F_NOCACHE.
func OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	file, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	if _, _, errno := syscall.Syscall(syscall.SYS_FCNTL, uintptr(file.Fd()), syscall.F_NOCACHE, 1); errno != 0 {
		file.Close()
		return nil, fmt.Errorf("directio: F_NOCACHE failed: %w", errno)
	}
	return file, nil
}
