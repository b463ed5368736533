// Package cpu exposes the processor intrinsics used by the kernel. The
// functions without a body are implemented in assembly.
package cpu

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt stops instruction execution until the next interrupt arrives.
func Halt()

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8

// LoadIDT loads the interrupt descriptor table register with the supplied
// table base address and limit (table size in bytes minus one). Once it
// returns, the processor dispatches interrupts through the new table.
func LoadIDT(base uintptr, limit uint16)

// saveFlagsAndDisable returns the current value of the flags register and
// then disables interrupts.
func saveFlagsAndDisable() uintptr
