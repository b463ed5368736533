package kmain

import (
	"strings"
	"testing"

	"textos/device/video/console"
	"textos/kernel/cpu"
	"textos/kernel/hal"
	"textos/kernel/kfmt"
)

type nopPorts struct {
	retrace bool
}

func (p *nopPorts) Read8(port uint16) uint8 {
	if port == 0x3da {
		p.retrace = !p.retrace
		if p.retrace {
			return 1 << 3
		}
	}
	return 0
}

func (p *nopPorts) Write8(uint16, uint8) {}

type nopGuard struct{}

func (nopGuard) Disable() cpu.IRQState { return 0 }
func (nopGuard) Restore(cpu.IRQState)  {}

func rowText(fb console.Framebuffer, row int) string {
	var sb strings.Builder
	for col := 0; col < console.Cols; col++ {
		sb.WriteByte(fb.At(col, row).Char)
	}
	return strings.TrimRight(sb.String(), " ")
}

func testPlatform(enabled *bool) hal.Platform {
	return hal.Platform{
		Ports:            &nopPorts{},
		IRQ:              nopGuard{},
		LoadIDT:          func(uintptr, uint16) {},
		EnableInterrupts: func() { *enabled = true },
		KeyboardEntry:    0x1000,
	}
}

func TestBoot(t *testing.T) {
	defer kfmt.SetOutputSink(nil)

	var (
		grid    console.Grid
		m       hal.Machine
		enabled bool
	)

	fb := console.NewFramebuffer(&grid)
	if err := Boot(&m, fb, testPlatform(&enabled), hal.DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	if !enabled {
		t.Fatal("expected interrupts to be enabled")
	}

	var bannerRow = -1
	for row := 0; row < console.Rows; row++ {
		if rowText(fb, row) == strings.TrimRight(banner[0], " ") {
			bannerRow = row
			break
		}
	}

	if bannerRow == -1 {
		t.Fatal("expected the banner to be printed")
	}

	for i, line := range banner {
		if got := rowText(fb, bannerRow+i); got != line {
			t.Errorf("expected banner line %d to be %q; got %q", i, line, got)
		}
	}

	// '#' is drawn in light magenta and spaces keep the default color.
	if got := fb.At(1, bannerRow).Attr; got != console.MakeAttr(console.LightMagenta, console.Black) {
		t.Errorf("expected banner glyph attribute 0x%x; got 0x%x", console.MakeAttr(console.LightMagenta, console.Black), got)
	}

	if got := m.Console.Attr(); got != console.DefaultAttr {
		t.Errorf("expected the attribute to be restored after the banner; got 0x%x", got)
	}

	col, row := m.Console.Cursor()
	if col != 0 || !strings.HasPrefix(rowText(fb, row-1), "[kmain] ready") {
		t.Errorf("expected the ready message above the cursor; cursor at (%d, %d)", col, row)
	}
}

func TestBootFailsWithMisroutedKeyboard(t *testing.T) {
	defer kfmt.SetOutputSink(nil)

	var (
		grid    console.Grid
		m       hal.Machine
		enabled bool
	)

	cfg := hal.DefaultConfig()
	cfg.PICMasterOffset = 0x40
	if err := Boot(&m, console.NewFramebuffer(&grid), testPlatform(&enabled), cfg); err == nil {
		t.Fatal("expected Boot to fail")
	}

	if enabled {
		t.Fatal("expected interrupts to stay disabled")
	}
}

func TestBannerColor(t *testing.T) {
	specs := []struct {
		ch  byte
		exp console.Attr
	}{
		{'#', console.LightMagenta},
		{'=', console.LightBlue},
		{'.', console.Grey},
		{' ', console.White},
	}

	for specIndex, spec := range specs {
		if got := bannerColor(spec.ch); got != spec.exp {
			t.Errorf("[spec %d] expected %q to be drawn with color %d; got %d", specIndex, spec.ch, spec.exp, got)
		}
	}
}
