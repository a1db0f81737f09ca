//go:build linux

package util

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// LockMemory locks current and future pages of the process into RAM so the
// scan loop does not stall on page faults. Usually needs CAP_IPC_LOCK.
func LockMemory() error {
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		return fmt.Errorf("mlockall: %w", err)
	}
	return nil
}

// UnlockMemory undoes LockMemory.
func UnlockMemory() error {
	return unix.Munlockall()
}
