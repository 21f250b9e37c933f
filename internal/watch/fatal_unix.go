// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// fatalErrnos mean inotify ran out of watches or file descriptors; the
// watcher cannot recover from them.
var fatalErrnos = []error{syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE}

func isFatal(err error) bool {
	for _, target := range fatalErrnos {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
