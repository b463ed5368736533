// Package hal wires the kernel device drivers together and brings them up.
package hal

import (
	"textos/device"
	"textos/device/keyboard"
	"textos/device/pic"
	"textos/device/video/console"
	"textos/device/video/palette"
	"textos/kernel"
	"textos/kernel/cpu"
	"textos/kernel/gate"
	"textos/kernel/kfmt"
)

var (
	errKeyboardNotReady = &kernel.Error{Module: "hal", Message: "keyboard or interrupt controller failed to initialize"}
	errVectorMismatch   = &kernel.Error{Module: "hal", Message: "keyboard IRQ is not routed to the keyboard gate"}
)

// Platform bundles the processor operations the drivers depend on. Hosted
// builds substitute emulated implementations.
type Platform struct {
	Ports            cpu.PortIO
	IRQ              cpu.IRQGuard
	LoadIDT          gate.Loader
	EnableInterrupts func()

	// KeyboardEntry is the address installed in the keyboard gate.
	KeyboardEntry uintptr
}

// NativePlatform returns a Platform backed by the running CPU.
func NativePlatform() Platform {
	return Platform{
		Ports:            cpu.Ports{},
		IRQ:              cpu.LocalIRQ{},
		LoadIDT:          cpu.LoadIDT,
		EnableInterrupts: cpu.EnableInterrupts,
		KeyboardEntry:    gate.KeyboardEntryAddr(),
	}
}

// Config holds the compile-time device settings.
type Config struct {
	// Palette is loaded into the DAC. nil selects palette.Default.
	Palette *palette.Palette

	// KeyMap decodes keyboard scancodes. nil selects keyboard.USLayout.
	KeyMap *keyboard.KeyMap

	PICMasterOffset, PICSlaveOffset uint8

	// AcknowledgeIRQ controls whether the keyboard handler sends an
	// end-of-interrupt to the PIC. Without it the PIC never delivers a
	// second keyboard interrupt.
	AcknowledgeIRQ bool
}

// DefaultConfig returns the configuration used by the kernel.
func DefaultConfig() Config {
	return Config{
		PICMasterOffset: pic.DefaultMasterOffset,
		PICSlaveOffset:  pic.DefaultSlaveOffset,
		AcknowledgeIRQ:  true,
	}
}

const (
	drvConsole = iota
	drvPalette
	drvPIC
	drvKeyboard
	numDrivers
)

// Machine owns the kernel devices and the interrupt table. It contains no
// pointers to heap memory and is meant to be declared as a package-level
// variable.
type Machine struct {
	Console  console.Console
	Palette  palette.Controller
	PIC      pic.Controller
	Keyboard keyboard.Driver
	IDT      gate.Table

	platform Platform
	ready    [numDrivers]bool

	prefix    prefixBuf
	logWriter kfmt.PrefixWriter
}

// Init attaches the drivers to fb and the platform operations. No hardware
// is touched until DetectHardware is called.
func (m *Machine) Init(fb console.Framebuffer, p Platform, cfg Config) {
	m.platform = p
	m.ready = [numDrivers]bool{}

	m.Console.Init(fb, p.IRQ)
	m.Palette.Init(p.Ports, p.IRQ, cfg.Palette)
	m.PIC.Init(p.Ports, cfg.PICMasterOffset, cfg.PICSlaveOffset)

	var ack keyboard.Acknowledger
	if cfg.AcknowledgeIRQ {
		ack = &m.PIC
	}
	m.Keyboard.Init(p.Ports, cfg.KeyMap, &m.Console, ack)
}

// DetectHardware initializes each driver in turn. The console is brought up
// first and becomes the kfmt output sink so that the log output of the
// remaining drivers is visible. A driver whose init fails is logged and
// skipped.
func (m *Machine) DetectHardware() {
	drivers := [numDrivers]device.Driver{
		drvConsole:  &m.Console,
		drvPalette:  &m.Palette,
		drvPIC:      &m.PIC,
		drvKeyboard: &m.Keyboard,
	}

	// Output is held in the early print buffer until this machine's
	// console takes over as the sink.
	m.logWriter = kfmt.PrefixWriter{}
	for i, drv := range drivers {
		m.prefix.reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&m.prefix, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		m.logWriter.Prefix = m.prefix.bytes()

		if err := drv.DriverInit(&m.logWriter); err != nil {
			kfmt.Fprintf(&m.logWriter, "init failed: %s\n", err.Message)
			continue
		}

		kfmt.Fprintf(&m.logWriter, "initialized\n")
		m.ready[i] = true

		if i == drvConsole {
			kfmt.SetOutputSink(&m.Console)
			m.logWriter.Sink = &m.Console
		}
	}
}

// InstallInterrupts registers the keyboard handler, installs the interrupt
// table, unmasks the keyboard line and enables interrupts.
func (m *Machine) InstallInterrupts() *kernel.Error {
	if !m.ready[drvPIC] || !m.ready[drvKeyboard] {
		return errKeyboardNotReady
	}

	if m.PIC.Vector(keyboard.IRQ) != uint8(gate.KeyboardVector) {
		return errVectorMismatch
	}

	m.IDT.Handle(gate.KeyboardVector, &m.Keyboard)
	m.IDT.Install(m.platform.KeyboardEntry, m.platform.LoadIDT)
	m.PIC.Unmask(keyboard.IRQ)
	m.platform.EnableInterrupts()

	kfmt.Printf("[hal] interrupt table at 0x%x, keyboard on vector %d\n", m.IDT.Base(), uint8(gate.KeyboardVector))
	return nil
}

// prefixBuf is a fixed-size io.Writer used to build the log prefix of each
// driver without allocating.
type prefixBuf struct {
	data [64]byte
	len  int
}

func (b *prefixBuf) Write(p []byte) (int, error) {
	n := copy(b.data[b.len:], p)
	b.len += n
	return n, nil
}

func (b *prefixBuf) reset() {
	b.len = 0
}

func (b *prefixBuf) bytes() []byte {
	return b.data[:b.len]
}
