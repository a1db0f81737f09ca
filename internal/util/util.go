//go:build !linux

package util

import "errors"

// LockMemory is only supported on Linux.
func LockMemory() error {
	return errors.New("memory locking is not supported on this platform")
}

// UnlockMemory is a no-op outside Linux.
func UnlockMemory() error { return nil }
