//go:build windows

package transport

import "golang.org/x/sys/windows"

// setSocketOptions enables address reuse so multiple responders can bind
// the same multicast port on one host. Windows has no SO_REUSEPORT;
// SO_REUSEADDR alone covers multicast listeners there.
func setSocketOptions(fd uintptr) error {
	return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
}
