package emu

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"textos/device/keyboard"
	"textos/device/video/console"
	"textos/device/video/palette"
	"textos/kernel/gate"
	"textos/kernel/hal"
	"textos/kernel/kfmt"
	"textos/kernel/kmain"
)

// KeyboardEntry is the address installed in the keyboard gate. Interrupts
// are dispatched to the Go handler directly, so it is never jumped to.
const KeyboardEntry = 0x00100400

var (
	// ErrNotBooted is returned by operations that need the kernel devices
	// to be initialized.
	ErrNotBooted = errors.New("machine not booted")

	// ErrNoScancode is returned by Type for characters that no key
	// produces.
	ErrNoScancode = errors.New("no scancode for character")

	// bootMu serializes boots. The kernel log sink and the installed
	// interrupt table are process-wide, so only one machine may be
	// booting at a time.
	bootMu sync.Mutex
)

// Machine is an emulated PC running the kernel drivers. The methods of a
// Machine are safe for concurrent use. Several machines may run in one
// process; after a boot the kernel log follows the most recently booted
// machine.
type Machine struct {
	mu sync.Mutex

	grid console.Grid
	bus  Bus
	irq  IRQ
	hal  hal.Machine
	cfg  hal.Config

	booted   bool
	idtBase  uintptr
	idtLimit uint16
	idtLoads int
}

// New returns a powered-on machine with a blank screen.
func New() *Machine {
	return &Machine{}
}

// Boot runs the kernel boot sequence against the emulated devices.
func (m *Machine) Boot(cfg hal.Config) error {
	bootMu.Lock()
	defer bootMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Drop log output buffered for another machine.
	kfmt.SetOutputSink(io.Discard)
	kfmt.SetOutputSink(nil)

	m.cfg = cfg
	if err := kmain.Boot(&m.hal, console.NewFramebuffer(&m.grid), m.platform(), cfg); err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	m.booted = true
	return nil
}

func (m *Machine) platform() hal.Platform {
	return hal.Platform{
		Ports: &m.bus,
		IRQ:   &m.irq,
		LoadIDT: func(base uintptr, limit uint16) {
			m.idtBase, m.idtLimit = base, limit
			m.idtLoads++
		},
		EnableInterrupts: m.irq.Enable,
		KeyboardEntry:    KeyboardEntry,
	}
}

// Press queues a scancode in the keyboard controller and delivers any
// interrupts the PIC raises as a result.
func (m *Machine) Press(scancode uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bus.QueueScancode(scancode)
	return m.service()
}

// Release queues the break code of scancode.
func (m *Machine) Release(scancode uint8) error {
	return m.Press(scancode | 0x80)
}

// Type presses and releases the key producing each character of s using the
// configured key map.
func (m *Machine) Type(s string) error {
	m.mu.Lock()
	km := m.cfg.KeyMap
	m.mu.Unlock()

	if km == nil {
		km = &keyboard.USLayout
	}

	for i := 0; i < len(s); i++ {
		sc, ok := km.ScancodeFor(s[i])
		if !ok {
			return fmt.Errorf("type %q: %w", s[i], ErrNoScancode)
		}

		if err := m.Press(sc); err != nil {
			return err
		}
		if err := m.Release(sc); err != nil {
			return err
		}
	}

	return nil
}

// Interrupt raises vector as if an external device had fired it. Vectors
// without a present gate return gate.ErrUnhandledVector.
func (m *Machine) Interrupt(vector uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.dispatch(vector)
}

// service delivers interrupts while the CPU accepts them and the PIC has
// requests ready.
func (m *Machine) service() error {
	for m.irq.Enabled() {
		vector, ok := m.bus.NextInterrupt()
		if !ok {
			return nil
		}

		if err := m.dispatch(vector); err != nil {
			return err
		}
	}

	return nil
}

// dispatch enters the handler for vector with the interrupt flag cleared and
// restores it on return, as an interrupt gate and IRET do.
func (m *Machine) dispatch(vector uint8) error {
	if !m.booted {
		return ErrNotBooted
	}

	wasEnabled := m.irq.Enabled()
	m.irq.enabled = false
	err := m.hal.IDT.Dispatch(gate.InterruptNumber(vector))
	m.irq.enabled = wasEnabled

	if err != nil {
		return fmt.Errorf("vector %d: %w", vector, err)
	}
	return nil
}

// Print writes s to the console.
func (m *Machine) Print(s string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.booted {
		return ErrNotBooted
	}

	m.hal.Console.WriteString(s)
	return nil
}

// SetColor selects the console attribute for subsequent writes.
func (m *Machine) SetColor(fg, bg console.Attr) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.booted {
		return ErrNotBooted
	}

	m.hal.Console.SetColor(fg, bg)
	return nil
}

// Cursor returns the console cursor position.
func (m *Machine) Cursor() (col, row int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.hal.Console.Cursor()
}

// Input returns the characters collected by the keyboard driver.
func (m *Machine) Input() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return string(m.hal.Keyboard.Buffer().Bytes())
}

// Grid returns a copy of the screen contents.
func (m *Machine) Grid() console.Grid {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.grid
}

// Palette returns the colors currently programmed into the DAC, read back
// through the palette driver.
func (m *Machine) Palette() (palette.Palette, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.readPalette()
}

func (m *Machine) readPalette() (palette.Palette, error) {
	var pal palette.Palette
	if !m.booted {
		return pal, ErrNotBooted
	}

	for i := range pal {
		pal[i] = m.hal.Palette.Entry(uint8(i))
	}
	return pal, nil
}

// Snapshot renders the screen as it would appear on a monitor.
func (m *Machine) Snapshot() (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pal, err := m.readPalette()
	if err != nil {
		return nil, err
	}

	grid := m.grid
	return Snapshot(&grid, &pal), nil
}

// Bus returns the emulated I/O bus.
func (m *Machine) Bus() *Bus {
	return &m.bus
}

// IRQ returns the emulated interrupt flag.
func (m *Machine) IRQ() *IRQ {
	return &m.irq
}

// IDTRegister returns the values passed to the last table load and the
// number of loads.
func (m *Machine) IDTRegister() (base uintptr, limit uint16, loads int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.idtBase, m.idtLimit, m.idtLoads
}

// Kernel returns the kernel devices. Callers must not use them concurrently
// with other Machine methods.
func (m *Machine) Kernel() *hal.Machine {
	return &m.hal
}
