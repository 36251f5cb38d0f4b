//go:build unix

package lock

import (
	"errors"

	"golang.org/x/sys/unix"
)

// OwnerAlive reports whether the process recorded in h still exists on this
// host. EPERM means the process exists but belongs to another user.
func OwnerAlive(h Holder) bool {
	if h.PID <= 0 {
		return false
	}
	err := unix.Kill(h.PID, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
