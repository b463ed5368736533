// Package emu emulates the PC devices driven by the kernel so that the kernel
// drivers can run as an ordinary hosted program.
package emu

const (
	portPICMasterCmd  = 0x20
	portPICMasterData = 0x21
	portKbdData       = 0x60
	portKbdStatus     = 0x64
	portPICSlaveCmd   = 0xa0
	portPICSlaveData  = 0xa1
	portDACReadIndex  = 0x3c7
	portDACWriteIndex = 0x3c8
	portDACData       = 0x3c9
	portInputStatus   = 0x3da

	retraceBit       = 1 << 3
	kbdOutputFull    = 1 << 0
	kbdIRQ           = 1
	picCmdEOI        = 0x20
	picICW1          = 0x10
	picICW1NeedsICW4 = 0x01
)

// dac models the VGA DAC color registers and their auto-incrementing index
// registers.
type dac struct {
	regs                 [256][3]uint8
	writeIndex, writeCmp uint8
	readIndex, readCmp   uint8
}

func (d *dac) write(val uint8) {
	d.regs[d.writeIndex][d.writeCmp] = val & 0x3f
	if d.writeCmp++; d.writeCmp == 3 {
		d.writeCmp = 0
		d.writeIndex++
	}
}

func (d *dac) read() uint8 {
	val := d.regs[d.readIndex][d.readCmp]
	if d.readCmp++; d.readCmp == 3 {
		d.readCmp = 0
		d.readIndex++
	}
	return val
}

// i8259 models a single 8259A interrupt controller.
type i8259 struct {
	offset uint8

	// irr holds the pending requests, isr the requests being serviced and
	// imr the masked lines.
	irr, isr, imr uint8

	// initStep is the number of the next expected ICW, or 0 outside an
	// initialization sequence. initialized is set once a full sequence has
	// been received; a controller fresh from power-on delivers nothing.
	initStep    int
	needsICW4   bool
	initialized bool
	eois        int
}

func (p *i8259) writeCommand(val uint8) {
	switch {
	case val&picICW1 != 0:
		p.initStep = 2
		p.initialized = false
		p.needsICW4 = val&picICW1NeedsICW4 != 0
		p.irr, p.isr, p.imr = 0, 0, 0
	case val == picCmdEOI:
		p.eois++
		// Clear the highest priority in-service request.
		p.isr &= p.isr - 1
	}
}

func (p *i8259) writeData(val uint8) {
	switch p.initStep {
	case 2:
		p.offset = val &^ 7
		p.initStep = 3
	case 3:
		p.initStep = 4
		if !p.needsICW4 {
			p.initStep = 0
			p.initialized = true
		}
	case 4:
		p.initStep = 0
		p.initialized = true
	default:
		p.imr = val
	}
}

// acknowledge returns the vector of the highest priority request that can be
// delivered and moves it to the in-service register.
func (p *i8259) acknowledge() (uint8, bool) {
	if !p.initialized || p.initStep != 0 {
		return 0, false
	}

	for line := uint8(0); line < 8; line++ {
		bit := uint8(1) << line
		if p.isr&bit != 0 {
			// Lower priority requests wait for the EOI.
			return 0, false
		}

		if p.irr&bit != 0 && p.imr&bit == 0 {
			p.irr &^= bit
			p.isr |= bit
			return p.offset + line, true
		}
	}

	return 0, false
}

// Bus routes port I/O to the emulated devices. It implements cpu.PortIO.
// Bus is not safe for concurrent use; Machine serializes access to it.
type Bus struct {
	dac     dac
	retrace bool

	kbdQueue []uint8
	kbdLast  uint8

	master, slave i8259
}

// Read8 implements cpu.PortIO.
func (b *Bus) Read8(port uint16) uint8 {
	switch port {
	case portDACData:
		return b.dac.read()
	case portInputStatus:
		// Each read observes the opposite phase so that retrace waits
		// complete after a couple of polls.
		b.retrace = !b.retrace
		if b.retrace {
			return retraceBit
		}
		return 0
	case portKbdStatus:
		if len(b.kbdQueue) != 0 {
			return kbdOutputFull
		}
		return 0
	case portKbdData:
		if len(b.kbdQueue) != 0 {
			b.kbdLast = b.kbdQueue[0]
			b.kbdQueue = b.kbdQueue[1:]
		}
		return b.kbdLast
	case portPICMasterData:
		return b.master.imr
	case portPICSlaveData:
		return b.slave.imr
	case portPICMasterCmd:
		return b.master.irr
	case portPICSlaveCmd:
		return b.slave.irr
	}

	return 0xff
}

// Write8 implements cpu.PortIO.
func (b *Bus) Write8(port uint16, val uint8) {
	switch port {
	case portDACWriteIndex:
		b.dac.writeIndex, b.dac.writeCmp = val, 0
	case portDACReadIndex:
		b.dac.readIndex, b.dac.readCmp = val, 0
	case portDACData:
		b.dac.write(val)
	case portPICMasterCmd:
		b.master.writeCommand(val)
	case portPICMasterData:
		b.master.writeData(val)
	case portPICSlaveCmd:
		b.slave.writeCommand(val)
	case portPICSlaveData:
		b.slave.writeData(val)
	}
}

// QueueScancode places sc in the keyboard controller output buffer and
// raises IRQ1.
func (b *Bus) QueueScancode(sc uint8) {
	b.kbdQueue = append(b.kbdQueue, sc)
	b.master.irr |= 1 << kbdIRQ
}

// PendingScancodes returns the number of scancodes not yet read by the
// keyboard driver.
func (b *Bus) PendingScancodes() int {
	return len(b.kbdQueue)
}

// NextInterrupt returns the vector of the next interrupt the PIC delivers to
// the CPU, if any.
func (b *Bus) NextInterrupt() (uint8, bool) {
	// The controller keeps raising IRQ1 while its output buffer is full.
	if len(b.kbdQueue) != 0 {
		b.master.irr |= 1 << kbdIRQ
	}

	return b.master.acknowledge()
}

// DACEntry returns the raw 6-bit components of DAC register index.
func (b *Bus) DACEntry(index uint8) (red, green, blue uint8) {
	reg := b.dac.regs[index]
	return reg[0], reg[1], reg[2]
}

// PICMask returns the interrupt mask registers of the master and slave PIC.
func (b *Bus) PICMask() (master, slave uint8) {
	return b.master.imr, b.slave.imr
}

// PICOffsets returns the vector offsets programmed into the master and slave
// PIC.
func (b *Bus) PICOffsets() (master, slave uint8) {
	return b.master.offset, b.slave.offset
}

// EOIs returns the number of end-of-interrupt commands received by the
// master PIC.
func (b *Bus) EOIs() int {
	return b.master.eois
}
