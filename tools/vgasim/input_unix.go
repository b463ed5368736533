//go:build unix

package main

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"textos/emu"
)

func setNonblock(fd int, nonblocking bool) error {
	return syscall.SetNonblock(fd, nonblocking)
}

// readKeys feeds host keystrokes to the machine until ctx is cancelled or
// the user presses Ctrl-C or Ctrl-D.
func readKeys(ctx context.Context, m *emu.Machine, fd int) error {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := syscall.Read(fd, buf)
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || (err == nil && n == 0) {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}

		switch buf[0] {
		case keyCtrlC, keyCtrlD:
			return errQuit
		}

		if ch := hostKey(buf[0]); ch != 0 {
			if err := m.Type(string(ch)); err != nil {
				return err
			}
		}
	}
}
