// Package pic drives the pair of cascaded 8259A programmable interrupt
// controllers.
package pic

import (
	"io"

	"textos/kernel"
	"textos/kernel/cpu"
	"textos/kernel/kfmt"
)

const (
	MasterCommand = 0x20
	MasterData    = 0x21
	SlaveCommand  = 0xa0
	SlaveData     = 0xa1

	// CmdEOI is the non-specific end-of-interrupt command.
	CmdEOI = 0x20

	icw1Init = 0x10
	icw1ICW4 = 0x01
	icw4x86  = 0x01

	// CascadeIRQ is the master line the slave controller is wired to.
	CascadeIRQ = 2

	// DefaultMasterOffset and DefaultSlaveOffset move the hardware IRQs
	// past the vectors reserved for processor exceptions.
	DefaultMasterOffset = 0x20
	DefaultSlaveOffset  = 0x28
)

var errBadOffset = &kernel.Error{Module: "pic", Message: "vector offsets must be multiples of 8"}

// Controller programs the master and slave 8259A through an I/O port
// capability.
type Controller struct {
	ports cpu.PortIO

	masterOffset, slaveOffset uint8
	masterMask, slaveMask     uint8
}

// Init configures the controller to remap IRQs to the supplied vector
// offsets when DriverInit runs.
func (c *Controller) Init(ports cpu.PortIO, masterOffset, slaveOffset uint8) {
	c.ports = ports
	c.masterOffset = masterOffset
	c.slaveOffset = slaveOffset
	c.masterMask, c.slaveMask = 0xff, 0xff
}

// Remap runs the ICW1-ICW4 initialization sequence on both controllers so
// that IRQ 0-7 raise vectors masterOffset+0..7 and IRQ 8-15 raise
// slaveOffset+0..7. The current masks are restored afterwards.
func (c *Controller) Remap(masterOffset, slaveOffset uint8) *kernel.Error {
	if masterOffset&7 != 0 || slaveOffset&7 != 0 {
		return errBadOffset
	}

	c.ports.Write8(MasterCommand, icw1Init|icw1ICW4)
	c.ports.Write8(SlaveCommand, icw1Init|icw1ICW4)
	c.ports.Write8(MasterData, masterOffset)
	c.ports.Write8(SlaveData, slaveOffset)
	c.ports.Write8(MasterData, 1<<CascadeIRQ)
	c.ports.Write8(SlaveData, CascadeIRQ)
	c.ports.Write8(MasterData, icw4x86)
	c.ports.Write8(SlaveData, icw4x86)

	c.masterOffset, c.slaveOffset = masterOffset, slaveOffset
	c.SetMask(c.masterMask, c.slaveMask)
	return nil
}

// SetMask writes the interrupt mask registers. A set bit disables the
// corresponding IRQ line.
func (c *Controller) SetMask(master, slave uint8) {
	c.masterMask, c.slaveMask = master, slave
	c.ports.Write8(MasterData, master)
	c.ports.Write8(SlaveData, slave)
}

// Mask returns the current interrupt mask registers.
func (c *Controller) Mask() (master, slave uint8) {
	return c.masterMask, c.slaveMask
}

// Unmask enables IRQ line irq. Enabling a slave line also enables the
// cascade line on the master.
func (c *Controller) Unmask(irq uint8) {
	master, slave := c.masterMask, c.slaveMask
	if irq < 8 {
		master &^= 1 << irq
	} else {
		slave &^= 1 << (irq - 8)
		master &^= 1 << CascadeIRQ
	}
	c.SetMask(master, slave)
}

// EOI signals the end of the handler for irq. Slave IRQs must be
// acknowledged on both controllers.
func (c *Controller) EOI(irq uint8) {
	if irq >= 8 {
		c.ports.Write8(SlaveCommand, CmdEOI)
	}
	c.ports.Write8(MasterCommand, CmdEOI)
}

// Vector returns the interrupt vector raised by irq.
func (c *Controller) Vector(irq uint8) uint8 {
	if irq < 8 {
		return c.masterOffset + irq
	}
	return c.slaveOffset + irq - 8
}

// DriverName returns the name of this driver.
func (c *Controller) DriverName() string {
	return "i8259a"
}

// DriverVersion returns the version of this driver.
func (c *Controller) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit remaps the controllers to the configured offsets with every
// line except the cascade masked.
func (c *Controller) DriverInit(w io.Writer) *kernel.Error {
	c.masterMask, c.slaveMask = 0xff&^(1<<CascadeIRQ), 0xff
	if err := c.Remap(c.masterOffset, c.slaveOffset); err != nil {
		return err
	}

	kfmt.Fprintf(w, "IRQ 0-7 at 0x%2x, IRQ 8-15 at 0x%2x\n", c.masterOffset, c.slaveOffset)
	return nil
}
