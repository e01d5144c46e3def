//go:build !windows

package transport

import "golang.org/x/sys/unix"

// setSocketOptions enables address and port reuse so multiple responders
// can bind the same multicast port on one host. Unix platforms need both
// SO_REUSEADDR and SO_REUSEPORT for that.
func setSocketOptions(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return err
	}
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}
