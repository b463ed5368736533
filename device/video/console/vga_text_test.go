package console

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"textos/device"
	"textos/kernel/cpu"
)

// fakeGuard implements cpu.IRQGuard and tracks the masking depth.
type fakeGuard struct {
	depth, maxDepth, disableCalls int
}

func (g *fakeGuard) Disable() cpu.IRQState {
	g.depth++
	g.disableCalls++
	if g.depth > g.maxDepth {
		g.maxDepth = g.depth
	}
	return cpu.IRQState(cpu.FlagIF)
}

func (g *fakeGuard) Restore(cpu.IRQState) {
	g.depth--
}

func newTestConsole() (*Console, *Grid, *fakeGuard) {
	var (
		grid  Grid
		guard fakeGuard
		cons  Console
	)

	cons.Init(NewFramebuffer(&grid), &guard)
	cons.Clear()
	return &cons, &grid, &guard
}

// rowText returns the characters of a row with trailing spaces removed.
func rowText(grid *Grid, row int) string {
	var buf bytes.Buffer
	for col := 0; col < Cols; col++ {
		buf.WriteByte(grid[row*Cols+col].Char)
	}
	return strings.TrimRight(buf.String(), " ")
}

func assertCursor(t *testing.T, cons *Console, expCol, expRow int) {
	t.Helper()
	if col, row := cons.Cursor(); col != expCol || row != expRow {
		t.Fatalf("expected cursor to be at (%d, %d); got (%d, %d)", expCol, expRow, col, row)
	}
}

func TestConsoleInit(t *testing.T) {
	cons, grid, _ := newTestConsole()

	assertCursor(t, cons, 0, 0)
	if got := cons.Attr(); got != DefaultAttr {
		t.Fatalf("expected default attribute 0x%x; got 0x%x", DefaultAttr, got)
	}

	for i, cell := range grid {
		if cell != (Cell{' ', DefaultAttr}) {
			t.Fatalf("expected cell %d to be cleared; got %+v", i, cell)
		}
	}
}

func TestConsoleWriteSingleChar(t *testing.T) {
	cons, grid, _ := newTestConsole()

	cons.WriteString("A")

	if got := grid[0]; got != (Cell{'A', DefaultAttr}) {
		t.Fatalf("expected cell (0,0) to be {'A', 0x%x}; got %+v", DefaultAttr, got)
	}
	assertCursor(t, cons, 1, 0)
}

func TestConsoleWrapAtLineEnd(t *testing.T) {
	cons, grid, _ := newTestConsole()

	cons.WriteString(strings.Repeat("X", Cols))

	if got := rowText(grid, 0); got != strings.Repeat("X", Cols) {
		t.Fatalf("expected row 0 to be filled with X; got %q", got)
	}
	assertCursor(t, cons, 0, 1)

	for col := 0; col < Cols; col++ {
		if got := grid[Cols+col]; got != (Cell{' ', DefaultAttr}) {
			t.Fatalf("expected row 1 to be untouched; cell %d is %+v", col, got)
		}
	}

	// The next char lands on row 1 without a blank cell in between.
	cons.WriteChar('Y')
	if got := grid[Cols].Char; got != 'Y' {
		t.Fatalf("expected cell (0,1) to contain 'Y'; got %q", got)
	}
	assertCursor(t, cons, 1, 1)
}

func TestConsoleLayout(t *testing.T) {
	specs := []struct {
		input   string
		expRows []string
		expCol  int
		expRow  int
	}{
		{"", []string{""}, 0, 0},
		{"hello\nworld", []string{"hello", "world"}, 5, 1},
		{"\n\nx", []string{"", "", "x"}, 1, 2},
		{"trailing\n", []string{"trailing", ""}, 0, 1},
		{
			strings.Repeat("a", Cols+5),
			[]string{strings.Repeat("a", Cols), "aaaaa"},
			5, 1,
		},
		{
			strings.Repeat("b", Cols) + "\nc",
			[]string{strings.Repeat("b", Cols), "", "c"},
			1, 2,
		},
		{"stop\x00ignored", []string{"stop"}, 4, 0},
	}

	for specIndex, spec := range specs {
		cons, grid, _ := newTestConsole()
		cons.WriteString(spec.input)

		for row, exp := range spec.expRows {
			if got := rowText(grid, row); got != exp {
				t.Errorf("[spec %d] expected row %d to be %q; got %q", specIndex, row, exp, got)
			}
		}

		for row := len(spec.expRows); row < Rows; row++ {
			if got := rowText(grid, row); got != "" {
				t.Errorf("[spec %d] expected row %d to be empty; got %q", specIndex, row, got)
			}
		}

		if col, row := cons.Cursor(); col != spec.expCol || row != spec.expRow {
			t.Errorf("[spec %d] expected cursor (%d, %d); got (%d, %d)", specIndex, spec.expCol, spec.expRow, col, row)
		}
	}
}

func TestConsoleScroll(t *testing.T) {
	cons, grid, _ := newTestConsole()

	for i := 0; i < Rows; i++ {
		cons.WriteString(fmt.Sprintf("line %02d\n", i))
	}
	cons.WriteString("END")

	for row := 0; row < Rows-1; row++ {
		if exp, got := fmt.Sprintf("line %02d", row+1), rowText(grid, row); got != exp {
			t.Errorf("expected row %d to be %q; got %q", row, exp, got)
		}
	}

	if got := rowText(grid, Rows-1); got != "END" {
		t.Errorf("expected last row to be %q; got %q", "END", got)
	}
	assertCursor(t, cons, 3, Rows-1)
}

func TestConsoleScrollKeepsMostRecentLines(t *testing.T) {
	cons, grid, _ := newTestConsole()

	const lines = 3*Rows + 7
	for i := 0; i < lines; i++ {
		cons.WriteString(fmt.Sprintf("%d\n", i))
	}

	// The final newline leaves an empty last row.
	for row := 0; row < Rows-1; row++ {
		if exp, got := fmt.Sprint(lines-(Rows-1)+row), rowText(grid, row); got != exp {
			t.Errorf("expected row %d to be %q; got %q", row, exp, got)
		}
	}
	if got := rowText(grid, Rows-1); got != "" {
		t.Errorf("expected last row to be empty; got %q", got)
	}
}

func TestConsoleWrapOnLastRowScrolls(t *testing.T) {
	cons, grid, _ := newTestConsole()

	cons.SetCursor(0, Rows-1)
	cons.WriteString(strings.Repeat("Z", Cols))

	if got := rowText(grid, Rows-2); got != strings.Repeat("Z", Cols) {
		t.Fatalf("expected the full line to scroll up to row %d; got %q", Rows-2, got)
	}
	if got := rowText(grid, Rows-1); got != "" {
		t.Fatalf("expected last row to be cleared; got %q", got)
	}
	assertCursor(t, cons, 0, Rows-1)
}

func TestConsoleScrollClearsWithCurrentAttr(t *testing.T) {
	cons, grid, guard := newTestConsole()

	cons.SetColor(Yellow, Blue)
	cons.Scroll()

	exp := Cell{' ', MakeAttr(Yellow, Blue)}
	for col := 0; col < Cols; col++ {
		if got := grid[(Rows-1)*Cols+col]; got != exp {
			t.Fatalf("expected last row cell %d to be %+v; got %+v", col, exp, got)
		}
	}

	if guard.depth != 0 || guard.disableCalls == 0 {
		t.Fatalf("expected Scroll to run with interrupts masked and restore them; depth %d, calls %d", guard.depth, guard.disableCalls)
	}
}

func TestConsoleSetColor(t *testing.T) {
	cons, grid, _ := newTestConsole()

	cons.WriteChar('a')
	cons.SetColor(Red, Black)
	cons.WriteChar('Z')

	if got := grid[0].Attr; got != DefaultAttr {
		t.Errorf("expected previously written cell to keep attribute 0x%x; got 0x%x", DefaultAttr, got)
	}

	if got := grid[1]; got != (Cell{'Z', 0x04}) {
		t.Errorf("expected cell (1,0) to be {'Z', 0x04}; got %+v", got)
	}

	specs := []struct {
		fg, bg  Attr
		expAttr Attr
	}{
		{White, Black, 0x0f},
		{LightGrey, Blue, 0x17},
		{0x1f, 0x23, 0x3f},
		{0xff, 0xff, 0xff},
	}

	for specIndex, spec := range specs {
		cons.SetColor(spec.fg, spec.bg)
		if got := cons.Attr(); got != spec.expAttr {
			t.Errorf("[spec %d] expected attribute 0x%x; got 0x%x", specIndex, spec.expAttr, got)
		}
	}
}

func TestConsoleClear(t *testing.T) {
	cons, grid, _ := newTestConsole()

	cons.WriteString("some text\nmore")
	cons.SetColor(Blue, Green)
	cons.Clear()

	exp := Cell{' ', MakeAttr(Blue, Green)}
	for i, cell := range grid {
		if cell != exp {
			t.Fatalf("expected cell %d to be %+v; got %+v", i, exp, cell)
		}
	}

	assertCursor(t, cons, 4, 1)

	cons.WriteString("\nrow")
	cons.SetColor(White, Black)
	cons.ClearRow(2)
	cons.ClearRow(-1)
	cons.ClearRow(Rows)
	if got := rowText(grid, 2); got != "" {
		t.Fatalf("expected row 2 to be cleared; got %q", got)
	}
	if got := grid[2*Cols].Attr; got != 0x0f {
		t.Fatalf("expected cleared row to use attribute 0x0f; got 0x%x", got)
	}
}

func TestConsoleSetCursor(t *testing.T) {
	specs := []struct {
		inCol, inRow   int
		expCol, expRow int
	}{
		{20, 10, 20, 10},
		{100, 10, Cols - 1, 10},
		{10, 200, 10, Rows - 1},
		{-5, -5, 0, 0},
	}

	cons, _, _ := newTestConsole()
	for specIndex, spec := range specs {
		cons.SetCursor(spec.inCol, spec.inRow)
		if col, row := cons.Cursor(); col != spec.expCol || row != spec.expRow {
			t.Errorf("[spec %d] expected cursor (%d, %d); got (%d, %d)", specIndex, spec.expCol, spec.expRow, col, row)
		}
	}
}

func TestConsoleWriteAfterSetCursorAtLastColumn(t *testing.T) {
	cons, grid, _ := newTestConsole()

	cons.SetCursor(Cols+10, 3)
	cons.WriteChar('Q')

	if got := grid[3*Cols+Cols-1].Char; got != 'Q' {
		t.Fatalf("expected 'Q' in the last column of row 3; got %q", got)
	}
	assertCursor(t, cons, 0, 4)
}

func TestConsoleMaskedOperations(t *testing.T) {
	specs := []struct {
		name string
		fn   func(*Console)
	}{
		{"Clear", func(cons *Console) { cons.Clear() }},
		{"ClearRow", func(cons *Console) { cons.ClearRow(3) }},
		{"WriteChar", func(cons *Console) { cons.WriteChar('x') }},
		{"Newline", func(cons *Console) { cons.Newline() }},
		{"Scroll", func(cons *Console) { cons.Scroll() }},
		{"SetCursor", func(cons *Console) { cons.SetCursor(4, 4) }},
	}

	for specIndex, spec := range specs {
		cons, _, guard := newTestConsole()
		guard.depth, guard.maxDepth, guard.disableCalls = 0, 0, 0

		spec.fn(cons)

		if guard.disableCalls == 0 || guard.depth != 0 {
			t.Errorf("[spec %d] expected %s to run with interrupts masked and restore them; depth %d, calls %d", specIndex, spec.name, guard.depth, guard.disableCalls)
		}
	}
}

func TestConsoleWriterInterfaces(t *testing.T) {
	cons, grid, guard := newTestConsole()

	n, err := cons.Write([]byte("io\nok"))
	if err != nil || n != 5 {
		t.Fatalf("expected Write to report 5 bytes and no error; got %d, %v", n, err)
	}

	if err := cons.WriteByte('!'); err != nil {
		t.Fatal(err)
	}

	if got := rowText(grid, 0) + "|" + rowText(grid, 1); got != "io|ok!" {
		t.Fatalf("expected %q; got %q", "io|ok!", got)
	}

	if guard.depth != 0 {
		t.Fatalf("expected interrupt masking to be balanced; depth is %d", guard.depth)
	}
}

func TestConsoleDriverInterface(t *testing.T) {
	cons, grid, _ := newTestConsole()
	var dev device.Driver = cons

	if dev.DriverName() == "" {
		t.Fatal("DriverName() returned an empty string")
	}

	if major, minor, patch := dev.DriverVersion(); major+minor+patch == 0 {
		t.Fatal("DriverVersion() returned an invalid version number")
	}

	cons.WriteString("leftover")

	var buf bytes.Buffer
	if err := dev.DriverInit(&buf); err != nil {
		t.Fatal(err)
	}

	if got := rowText(grid, 0); got != "" {
		t.Fatalf("expected DriverInit to clear the screen; row 0 is %q", got)
	}
	assertCursor(t, cons, 0, 0)

	if !strings.Contains(buf.String(), "80x25") {
		t.Fatalf("expected DriverInit to log the console dimensions; got %q", buf.String())
	}
}
