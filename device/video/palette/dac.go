package palette

import (
	"image/color"
	"io"

	"textos/kernel"
	"textos/kernel/cpu"
	"textos/kernel/kfmt"
)

const (
	portDACReadIndex  = 0x3c7
	portDACWriteIndex = 0x3c8
	portDACData       = 0x3c9

	// portInputStatus is the color-mode input status #1 register. Bit 3 is
	// set while the display is in vertical retrace.
	portInputStatus = 0x3da
	retraceBit      = 1 << 3
)

// Controller reprograms the DAC color registers through an I/O port
// capability.
type Controller struct {
	ports   cpu.PortIO
	guard   cpu.IRQGuard
	palette *Palette
}

// Init configures the controller. The supplied palette is loaded by
// DriverInit; passing nil selects Default.
func (c *Controller) Init(ports cpu.PortIO, guard cpu.IRQGuard, pal *Palette) {
	if pal == nil {
		pal = &Default
	}

	c.ports = ports
	c.guard = guard
	c.palette = pal
}

// SetEntry programs DAC register index with rgb. The components are reduced
// to 6 bits. The register writes are delayed until the start of the next
// vertical retrace and issued with interrupts masked, as a torn
// index/component sequence corrupts the register. Indices above 15 are not
// rejected.
func (c *Controller) SetEntry(index uint8, rgb color.RGBA) {
	c.waitRetrace()

	state := c.guard.Disable()
	c.ports.Write8(portDACWriteIndex, index)
	c.ports.Write8(portDACData, ToDAC(rgb.R))
	c.ports.Write8(portDACData, ToDAC(rgb.G))
	c.ports.Write8(portDACData, ToDAC(rgb.B))
	c.guard.Restore(state)
}

// Load programs entries 0 to 15 from pal, in order.
func (c *Controller) Load(pal *Palette) {
	for i := range pal {
		c.SetEntry(uint8(i), pal[i])
	}
}

// ReadRaw returns the 6-bit components currently programmed in DAC register
// index.
func (c *Controller) ReadRaw(index uint8) (r, g, b uint8) {
	state := c.guard.Disable()
	c.ports.Write8(portDACReadIndex, index)
	r = c.ports.Read8(portDACData)
	g = c.ports.Read8(portDACData)
	b = c.ports.Read8(portDACData)
	c.guard.Restore(state)

	return r, g, b
}

// Entry returns the color currently programmed in DAC register index,
// expanded to 8-bit components.
func (c *Controller) Entry(index uint8) color.RGBA {
	r, g, b := c.ReadRaw(index)
	return color.RGBA{R: FromDAC(r), G: FromDAC(g), B: FromDAC(b), A: 255}
}

// waitRetrace waits for the start of a vertical retrace interval: first for
// any retrace in progress to end and then for the next one to begin.
func (c *Controller) waitRetrace() {
	for c.ports.Read8(portInputStatus)&retraceBit != 0 {
	}
	for c.ports.Read8(portInputStatus)&retraceBit == 0 {
	}
}

// DriverName returns the name of this driver.
func (c *Controller) DriverName() string {
	return "vga_dac"
}

// DriverVersion returns the version of this driver.
func (c *Controller) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit loads the configured palette.
func (c *Controller) DriverInit(w io.Writer) *kernel.Error {
	c.Load(c.palette)

	kfmt.Fprintf(w, "loaded %d colors\n", Size)
	return nil
}
