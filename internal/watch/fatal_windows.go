// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"syscall"
)

// fatalErrnos are the Win32 errors after which ReadDirectoryChangesW cannot
// continue:
//   - ERROR_TOO_MANY_OPEN_FILES (4)
//   - ERROR_INVALID_HANDLE (6)
//   - ERROR_NOT_ENOUGH_MEMORY (8)
var fatalErrnos = []error{syscall.Errno(4), syscall.Errno(6), syscall.Errno(8)}

func isFatal(err error) bool {
	for _, target := range fatalErrnos {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
