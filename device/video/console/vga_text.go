package console

import (
	"io"

	"textos/kernel"
	"textos/kernel/cpu"
	"textos/kernel/kfmt"
)

// Console implements an 80x25 VGA text console on top of a Framebuffer. It
// tracks a cursor and the color attribute applied to subsequent writes.
//
// The console is shared by the main kernel flow and the keyboard interrupt
// handler, so every operation that touches the cursor or moves more than one
// cell runs with interrupts masked through the IRQGuard supplied to Init.
type Console struct {
	fb    Framebuffer
	guard cpu.IRQGuard

	col, row int
	attr     Attr
}

// Init attaches the console to fb. The cursor is placed at the top-left
// corner and the attribute reset to DefaultAttr. The framebuffer contents
// are left untouched; call Clear to erase them.
func (cons *Console) Init(fb Framebuffer, guard cpu.IRQGuard) {
	cons.fb = fb
	cons.guard = guard
	cons.col, cons.row = 0, 0
	cons.attr = DefaultAttr
}

// Framebuffer returns the framebuffer the console renders into.
func (cons *Console) Framebuffer() Framebuffer {
	return cons.fb
}

// Clear fills every cell with a space using the current attribute. The
// cursor position is not modified.
func (cons *Console) Clear() {
	state := cons.guard.Disable()
	for row := 0; row < Rows; row++ {
		cons.fb.FillRow(row, Cell{Char: ' ', Attr: cons.attr})
	}
	cons.guard.Restore(state)
}

// ClearRow fills a single row with spaces using the current attribute.
// Rows outside the grid are ignored.
func (cons *Console) ClearRow(row int) {
	if row < 0 || row >= Rows {
		return
	}

	state := cons.guard.Disable()
	cons.fb.FillRow(row, Cell{Char: ' ', Attr: cons.attr})
	cons.guard.Restore(state)
}

// WriteChar writes c at the cursor position and advances the cursor. A
// newline moves the cursor to the start of the next line. Reaching the end
// of a line wraps the cursor to the start of the next one; reaching the end
// of the last line scrolls the console up.
func (cons *Console) WriteChar(c byte) {
	state := cons.guard.Disable()
	defer cons.guard.Restore(state)

	if c == '\n' {
		cons.Newline()
		return
	}

	// Unreachable through the exported API, which keeps col < Cols.
	if cons.col >= Cols {
		cons.Newline()
	}

	cons.fb.Set(cons.col, cons.row, Cell{Char: c, Attr: cons.attr})
	cons.col++
	if cons.col == Cols {
		cons.Newline()
	}
}

// WriteString writes each byte of s up to, but not including, the first NUL
// byte.
func (cons *Console) WriteString(s string) {
	for i := 0; i < len(s) && s[i] != 0; i++ {
		cons.WriteChar(s[i])
	}
}

// Write implements io.Writer so the console can act as a kfmt output sink.
func (cons *Console) Write(p []byte) (int, error) {
	for _, b := range p {
		cons.WriteChar(b)
	}
	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (cons *Console) WriteByte(b byte) error {
	cons.WriteChar(b)
	return nil
}

// Newline moves the cursor to the first column of the next row, scrolling
// the console if the cursor is already on the last row.
func (cons *Console) Newline() {
	state := cons.guard.Disable()
	defer cons.guard.Restore(state)

	cons.col = 0
	if cons.row < Rows-1 {
		cons.row++
		return
	}

	cons.Scroll()
}

// Scroll moves every row up by one, discards the top row and clears the
// bottom row using the current attribute. The cursor is not modified.
func (cons *Console) Scroll() {
	state := cons.guard.Disable()
	cons.fb.ScrollUp()
	cons.ClearRow(Rows - 1)
	cons.guard.Restore(state)
}

// SetColor selects the attribute for subsequent writes. Only the low 4 bits
// of fg and bg are used. Cells that have already been written keep their
// attribute.
func (cons *Console) SetColor(fg, bg Attr) {
	cons.attr = MakeAttr(fg, bg)
}

// Attr returns the attribute used for subsequent writes.
func (cons *Console) Attr() Attr {
	return cons.attr
}

// Cursor returns the current cursor position.
func (cons *Console) Cursor() (col, row int) {
	return cons.col, cons.row
}

// SetCursor moves the cursor to (col, row), clipping both coordinates to the
// grid.
func (cons *Console) SetCursor(col, row int) {
	switch {
	case col < 0:
		col = 0
	case col >= Cols:
		col = Cols - 1
	}

	switch {
	case row < 0:
		row = 0
	case row >= Rows:
		row = Rows - 1
	}

	state := cons.guard.Disable()
	cons.col, cons.row = col, row
	cons.guard.Restore(state)
}

// DriverName returns the name of this driver.
func (cons *Console) DriverName() string {
	return "vga_text_console"
}

// DriverVersion returns the version of this driver.
func (cons *Console) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit clears the screen and homes the cursor.
func (cons *Console) DriverInit(w io.Writer) *kernel.Error {
	cons.Clear()
	cons.SetCursor(0, 0)

	kfmt.Fprintf(w, "framebuffer at 0x%x (%dx%d)\n", cons.fb.Addr(), Cols, Rows)
	return nil
}
