//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package term

// IsTerminal reports false; color stays off unless forced.
func IsTerminal(fd uintptr) bool { return false }
