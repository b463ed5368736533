// Package kmain contains the kernel entry point and boot sequence.
package kmain

import (
	"textos/device/video/console"
	"textos/kernel"
	"textos/kernel/cpu"
	"textos/kernel/hal"
	"textos/kernel/kfmt"
)

// machine is a package-level variable as there is no allocator to place it
// on the heap.
var machine hal.Machine

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. This function is invoked by the rt0 assembly code
// after entering protected mode and setting up a minimal g0 struct that
// allows Go code to use the stack allocated by the assembly code.
//
// Kmain never returns.
//
//go:noinline
func Kmain() {
	fb := console.MapFramebuffer(console.PhysAddr)

	if err := Boot(&machine, fb, hal.NativePlatform(), hal.DefaultConfig()); err != nil {
		panic(err)
	}

	// From here on all work happens in the keyboard interrupt handler.
	for {
		cpu.Halt()
	}
}

// Boot brings up the devices of m on top of fb, draws the banner and
// enables the keyboard interrupt.
func Boot(m *hal.Machine, fb console.Framebuffer, p hal.Platform, cfg hal.Config) *kernel.Error {
	m.Init(fb, p, cfg)
	m.DetectHardware()

	m.Console.WriteChar('\n')
	printBanner(&m.Console)
	m.Console.WriteChar('\n')

	if err := m.InstallInterrupts(); err != nil {
		return err
	}

	kfmt.Printf("[kmain] ready; keyboard input is echoed below\n")
	return nil
}
