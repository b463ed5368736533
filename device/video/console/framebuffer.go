package console

import (
	"unsafe"

	"textos/kernel"
)

const (
	// Cols is the number of character columns of the text console.
	Cols = 80

	// Rows is the number of character rows of the text console.
	Rows = 25

	// PhysAddr is the physical address of the color text-mode framebuffer.
	PhysAddr = uintptr(0xb8000)
)

var errCellOutOfRange = &kernel.Error{Module: "console", Message: "framebuffer cell out of range"}

// Cell is a single character cell. Its memory layout matches the hardware
// layout: the character code followed by the color attribute.
type Cell struct {
	Char uint8
	Attr Attr
}

// Grid is the fixed-size backing array of a Framebuffer, addressed by
// row*Cols+col.
type Grid [Rows * Cols]Cell

// Framebuffer is a handle to a Grid. It is created once during
// initialization and never reallocated. All cell access goes through
// bounds-checked accessors.
type Framebuffer struct {
	grid *Grid
}

// MapFramebuffer returns a Framebuffer for the memory-mapped grid located at
// physAddr. The region must be identity-mapped.
func MapFramebuffer(physAddr uintptr) Framebuffer {
	return Framebuffer{grid: (*Grid)(unsafe.Pointer(physAddr))}
}

// NewFramebuffer returns a Framebuffer backed by an ordinary Grid.
func NewFramebuffer(grid *Grid) Framebuffer {
	return Framebuffer{grid: grid}
}

// Addr returns the address of the first cell.
func (fb Framebuffer) Addr() uintptr {
	return uintptr(unsafe.Pointer(fb.grid))
}

// At returns the cell at (col, row). Out of range coordinates are a contract
// violation and cause a panic.
func (fb Framebuffer) At(col, row int) Cell {
	return fb.grid[index(col, row)]
}

// Set stores cell at (col, row). Out of range coordinates are a contract
// violation and cause a panic.
func (fb Framebuffer) Set(col, row int, cell Cell) {
	fb.grid[index(col, row)] = cell
}

// FillRow sets every cell of row to cell.
func (fb Framebuffer) FillRow(row int, cell Cell) {
	start := index(0, row)
	for i := start; i < start+Cols; i++ {
		fb.grid[i] = cell
	}
}

// ScrollUp moves rows 1..Rows-1 up by one row, discarding row 0. The
// contents of the last row are left untouched.
func (fb Framebuffer) ScrollUp() {
	copy(fb.grid[:(Rows-1)*Cols], fb.grid[Cols:])
}

// CopyTo copies the whole grid to dst.
func (fb Framebuffer) CopyTo(dst *Grid) {
	*dst = *fb.grid
}

func index(col, row int) int {
	if col < 0 || col >= Cols || row < 0 || row >= Rows {
		panic(errCellOutOfRange)
	}
	return row*Cols + col
}
