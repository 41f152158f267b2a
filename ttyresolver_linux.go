//go:build linux

package brlapi

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// LinuxTTYResolver resolves tty references against /proc and the console
// device via ioctl(2), the same family of tty ioctls goserial's
// ioctl_linux.go issues against serial ports (TIOCGPGRP et al.) — here used
// read-only, against /dev/tty0, to find which virtual console is in the
// foreground. Which console a given peer process is attached to is read
// from /proc rather than by ioctl.
type LinuxTTYResolver struct {
	// ConsoleDir is the directory holding console device nodes, normally
	// /dev. Overridable for tests.
	ConsoleDir string
}

// NewLinuxTTYResolver returns a resolver rooted at /dev.
func NewLinuxTTYResolver() *LinuxTTYResolver {
	return &LinuxTTYResolver{ConsoleDir: "/dev"}
}

// ResolveControllingTTY reads the tty device a peer process is attached to
// from /proc/<pid>/stat (field 7, tty_nr) and extracts the minor number as
// the console number. This mirrors what brltty's original C core does when
// asked to resolve tty 0: look up the peer's controlling terminal rather
// than guessing from the server's own stdin.
func (r *LinuxTTYResolver) ResolveControllingTTY(peerPID int) (uint32, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", peerPID))
	if err != nil {
		return 0, fmt.Errorf("brlapi: resolve controlling tty for pid %d: %w", peerPID, err)
	}
	ttyNr, err := parseTTYNrField(data)
	if err != nil {
		return 0, fmt.Errorf("brlapi: resolve controlling tty for pid %d: %w", peerPID, err)
	}
	// The tty device's minor number within the "tty" major range is the
	// virtual console number for /dev/ttyN devices.
	return uint32(ttyNr & 0xff), nil
}

// ForegroundTTY asks the active virtual terminal driver which console is in
// the foreground via VT_GETSTATE against /dev/tty0 (the "current vt" alias).
func (r *LinuxTTYResolver) ForegroundTTY() (uint32, error) {
	dir := r.ConsoleDir
	if dir == "" {
		dir = "/dev"
	}
	fd, err := unix.Open(dir+"/tty0", unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return 0, fmt.Errorf("brlapi: open console: %w", err)
	}
	defer unix.Close(fd)

	var state vtState
	if err := vtGetState(fd, &state); err != nil {
		return 0, fmt.Errorf("brlapi: VT_GETSTATE: %w", err)
	}
	return uint32(state.active), nil
}

// vtState mirrors struct vt_stat from <linux/vt.h>.
type vtState struct {
	active  uint16
	signal  uint16
	state   uint16
}

const vtGetStateRequest = 0x5603 // VT_GETSTATE

func vtGetState(fd int, state *vtState) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(vtGetStateRequest), uintptr(unsafe.Pointer(state)))
	if errno != 0 {
		return errno
	}
	return nil
}
