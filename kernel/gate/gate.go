// Package gate builds the interrupt descriptor table and routes hardware
// interrupts to Go handlers.
package gate

import (
	"encoding/binary"
	"unsafe"

	"textos/kernel"
	"textos/kernel/kfmt"
)

// InterruptNumber describes an x86 interrupt/exception/trap slot.
type InterruptNumber uint8

const (
	// DoubleFault occurs when an exception is raised while the CPU is
	// trying to deliver another one. Vectors without a present gate end up
	// here.
	DoubleFault = InterruptNumber(8)

	// GPFException occurs when a general protection fault occurs.
	GPFException = InterruptNumber(13)

	// KeyboardVector is raised by IRQ1 once the PIC has been remapped to
	// start at vector 32.
	KeyboardVector = InterruptNumber(33)
)

const (
	// NumEntries is the number of gates in the table.
	NumEntries = 256

	// DescriptorSize is the size of a protected-mode gate descriptor.
	DescriptorSize = 8

	// KernelCodeSelector is the GDT selector of the flat kernel code
	// segment set up by the boot code.
	KernelCodeSelector = 0x08

	// FlagsInterruptGate marks a present, ring 0, 32-bit interrupt gate.
	FlagsInterruptGate = 0x8e

	flagPresent = 0x80
)

var (
	// ErrUnhandledVector is reported when an interrupt is raised for a
	// vector whose gate is not present. On real hardware this escalates to
	// a general protection fault.
	ErrUnhandledVector = &kernel.Error{Module: "gate", Message: "interrupt raised for a non-present gate"}

	errNoHandler = &kernel.Error{Module: "gate", Message: "no handler registered for interrupt"}

	// activeTable is the table most recently installed; the interrupt
	// entry points dispatch through it.
	activeTable *Table
)

// Descriptor is a protected-mode interrupt gate descriptor in the hardware
// layout.
type Descriptor struct {
	OffsetLow  uint16
	Selector   uint16
	Reserved   uint8
	Flags      uint8
	OffsetHigh uint16
}

// Handler returns the handler address encoded in the descriptor.
func (d *Descriptor) Handler() uintptr {
	return uintptr(d.OffsetHigh)<<16 | uintptr(d.OffsetLow)
}

// Present returns true if the gate is marked as present.
func (d *Descriptor) Present() bool {
	return d.Flags&flagPresent != 0
}

// Bytes returns the descriptor encoded in the byte order used by the CPU.
func (d *Descriptor) Bytes() [DescriptorSize]byte {
	var out [DescriptorSize]byte
	binary.LittleEndian.PutUint16(out[0:], d.OffsetLow)
	binary.LittleEndian.PutUint16(out[2:], d.Selector)
	out[4] = d.Reserved
	out[5] = d.Flags
	binary.LittleEndian.PutUint16(out[6:], d.OffsetHigh)
	return out
}

// IRQHandler is implemented by drivers that service a hardware interrupt.
type IRQHandler interface {
	HandleIRQ()
}

// Loader hands the table location to the CPU. On real hardware this is
// cpu.LoadIDT.
type Loader func(base uintptr, limit uint16)

// Table holds the gate descriptors and the Go handlers they dispatch to.
type Table struct {
	entries  [NumEntries]Descriptor
	handlers [NumEntries]IRQHandler
}

// Entry returns a copy of the descriptor for vector.
func (t *Table) Entry(vector InterruptNumber) Descriptor {
	return t.entries[vector]
}

// SetEntry points the gate for vector at handler. The 32-bit handler
// address is split into its low and high halves and the reserved byte is
// cleared.
func (t *Table) SetEntry(vector InterruptNumber, handler uintptr, selector uint16, flags uint8) {
	t.entries[vector] = Descriptor{
		OffsetLow:  uint16(handler & 0xffff),
		Selector:   selector,
		Flags:      flags,
		OffsetHigh: uint16((handler >> 16) & 0xffff),
	}
}

// Handle registers h as the Go handler invoked when vector is dispatched.
func (t *Table) Handle(vector InterruptNumber, h IRQHandler) {
	t.handlers[vector] = h
}

// Reset marks every gate as non-present. Registered handlers are kept.
func (t *Table) Reset() {
	for i := range t.entries {
		t.entries[i] = Descriptor{}
	}
}

// Base returns the address of the first descriptor.
func (t *Table) Base() uintptr {
	return uintptr(unsafe.Pointer(&t.entries[0]))
}

// Limit returns the offset of the last byte of the table, as expected by
// the LIDT instruction.
func (t *Table) Limit() uint16 {
	return NumEntries*DescriptorSize - 1
}

// Install zeroes the table, populates the keyboard gate with entry and
// passes the table location to load. Every vector other than the keyboard
// is left non-present; raising any of them faults.
func (t *Table) Install(entry uintptr, load Loader) {
	t.Reset()
	t.SetEntry(KeyboardVector, entry, KernelCodeSelector, FlagsInterruptGate)

	activeTable = t
	load(t.Base(), t.Limit())
}

// Dispatch invokes the Go handler registered for vector. It returns
// ErrUnhandledVector if the gate for vector is not present.
func (t *Table) Dispatch(vector InterruptNumber) *kernel.Error {
	if !t.entries[vector].Present() {
		return ErrUnhandledVector
	}

	h := t.handlers[vector]
	if h == nil {
		return errNoHandler
	}

	h.HandleIRQ()
	return nil
}

// KeyboardEntryAddr returns the address of the assembly entry point for the
// keyboard gate.
func KeyboardEntryAddr() uintptr {
	return keyboardEntryAddr()
}

// keyboardEntry saves the general purpose registers, calls
// dispatchKeyboard and returns from the interrupt.
func keyboardEntry()

func keyboardEntryAddr() uintptr

// dispatchKeyboard is invoked by keyboardEntry.
func dispatchKeyboard() {
	if activeTable == nil {
		kfmt.Panic(ErrUnhandledVector)
	}

	if err := activeTable.Dispatch(KeyboardVector); err != nil {
		kfmt.Panic(err)
	}
}
