package keyboard

import (
	"io"

	"textos/kernel"
	"textos/kernel/cpu"
	"textos/kernel/kfmt"
)

const (
	portData   = 0x60
	portStatus = 0x64

	// statusOutputFull is set while the controller holds a byte for the
	// CPU to read.
	statusOutputFull = 1 << 0

	releaseBit = 0x80

	// maxStaleBytes bounds the number of bytes DriverInit drains from the
	// controller.
	maxStaleBytes = 16
)

// IRQ is the interrupt line the keyboard controller is wired to.
const IRQ = 1

// Echoer is implemented by the output device that displays typed
// characters.
type Echoer interface {
	WriteChar(byte)
}

// Acknowledger is implemented by interrupt controllers that need an
// end-of-interrupt notification once an IRQ has been serviced.
type Acknowledger interface {
	EOI(irq uint8)
}

// Driver services keyboard interrupts. Each key press that maps to a
// character is appended to the input buffer and echoed.
type Driver struct {
	ports  cpu.PortIO
	keymap *KeyMap
	echo   Echoer
	pic    Acknowledger

	buf InputBuffer
}

// Init configures the driver. A nil keymap selects USLayout. If pic is nil
// the interrupt is never acknowledged.
func (drv *Driver) Init(ports cpu.PortIO, keymap *KeyMap, echo Echoer, pic Acknowledger) {
	if keymap == nil {
		keymap = &USLayout
	}

	drv.ports = ports
	drv.keymap = keymap
	drv.echo = echo
	drv.pic = pic
	drv.buf.Reset()
}

// HandleIRQ reads one scancode from the controller and processes it. Key
// releases and unmapped keys are ignored. Characters rejected by a full
// input buffer are not echoed.
func (drv *Driver) HandleIRQ() {
	sc := drv.ports.Read8(portData)

	if sc&releaseBit == 0 {
		if ch := drv.keymap.Lookup(sc); ch != 0 && drv.buf.Append(ch) && drv.echo != nil {
			drv.echo.WriteChar(ch)
		}
	}

	if drv.pic != nil {
		drv.pic.EOI(IRQ)
	}
}

// Buffer returns the input buffer filled by HandleIRQ.
func (drv *Driver) Buffer() *InputBuffer {
	return &drv.buf
}

// DriverName returns the name of this driver.
func (drv *Driver) DriverName() string {
	return "ps2_keyboard"
}

// DriverVersion returns the version of this driver.
func (drv *Driver) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit discards any bytes left in the controller output buffer by the
// firmware.
func (drv *Driver) DriverInit(w io.Writer) *kernel.Error {
	var drained int
	for ; drained < maxStaleBytes && drv.ports.Read8(portStatus)&statusOutputFull != 0; drained++ {
		drv.ports.Read8(portData)
	}

	if drained != 0 {
		kfmt.Fprintf(w, "discarded %d stale bytes\n", drained)
	}
	return nil
}
