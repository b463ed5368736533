package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"textos/device/keyboard"
	"textos/device/video/console"
	"textos/emu"
	"textos/kernel/hal"
)

const (
	keyCtrlC = 0x03
	keyCtrlD = 0x04
)

var errQuit = errors.New("quit")

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[vgasim] error: %s\n", err.Error())
	os.Exit(1)
}

// hostKey translates a byte read from a raw-mode terminal to the character
// produced by the US keyboard layout. Keys without a scancode are reported
// as 0.
func hostKey(b byte) byte {
	switch {
	case b == '\r':
		b = '\n'
	case b == 0x7f:
		b = '\b'
	case b >= 'A' && b <= 'Z':
		b += 'a' - 'A'
	}

	if _, ok := keyboard.USLayout.ScancodeFor(b); !ok {
		return 0
	}
	return b
}

func render(m *emu.Machine) error {
	pal, err := m.Palette()
	if err != nil {
		return err
	}

	grid := m.Grid()
	return emu.RenderANSI(os.Stdout, &grid, &pal)
}

// refreshScreen repaints the terminal every interval until ctx is cancelled.
func refreshScreen(ctx context.Context, m *emu.Machine, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := render(m); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func interactive(m *emu.Machine, interval time.Duration, headless bool) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("stdin is not a terminal; use -script for non-interactive runs")
	}

	if !headless {
		w, h, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			return fmt.Errorf("query terminal size: %w", err)
		}
		if w < console.Cols || h < console.Rows {
			return fmt.Errorf("terminal is %dx%d; at least %dx%d is required", w, h, console.Cols, console.Rows)
		}
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	if err := setNonblock(fd, true); err != nil {
		return fmt.Errorf("set nonblocking stdin: %w", err)
	}
	defer setNonblock(fd, false)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return readKeys(ctx, m, fd) })
	if !headless {
		fmt.Fprint(os.Stdout, "\x1b[?25l\x1b[2J")
		defer fmt.Fprint(os.Stdout, "\x1b[0m\x1b[2J\x1b[H\x1b[?25h")
		g.Go(func() error { return refreshScreen(ctx, m, interval) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

func runTool() error {
	scriptFile := flag.String("script", "", "run a Lua script instead of reading keys from the terminal")
	pngFile := flag.String("png", "", "save a snapshot of the screen to this file before exiting")
	interval := flag.Duration("refresh", 50*time.Millisecond, "the screen refresh interval")
	noEOI := flag.Bool("no-eoi", false, "do not acknowledge keyboard interrupts")
	headless := flag.Bool("headless", false, "do not draw the screen on the terminal")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "vgasim: run the textos console and keyboard drivers on an emulated PC\n\n")
		fmt.Fprint(os.Stderr, "Usage: vgasim [options]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := hal.DefaultConfig()
	cfg.AcknowledgeIRQ = !*noEOI

	m := emu.New()
	if err := m.Boot(cfg); err != nil {
		return err
	}

	if *scriptFile != "" {
		if err := runScript(m, *scriptFile); err != nil {
			return err
		}

		if !*headless {
			if err := render(m); err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, "\n")
		}
	} else if err := interactive(m, *interval, *headless); err != nil {
		return err
	}

	if *pngFile == "" {
		return nil
	}

	img, err := m.Snapshot()
	if err != nil {
		return err
	}
	return emu.WritePNG(*pngFile, img)
}

func main() {
	if err := runTool(); err != nil {
		exit(err)
	}
}
