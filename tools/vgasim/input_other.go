//go:build !unix

package main

import (
	"context"
	"errors"

	"textos/emu"
)

var errNoInteractive = errors.New("interactive mode is not supported on this platform; use -script")

func setNonblock(int, bool) error {
	return errNoInteractive
}

func readKeys(context.Context, *emu.Machine, int) error {
	return errNoInteractive
}
