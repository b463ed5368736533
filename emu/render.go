package emu

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"textos/device/video/console"
	"textos/device/video/palette"
)

const (
	// CellWidth and CellHeight are the pixel dimensions of a character
	// cell in a snapshot. They match the 9x16 text mode without the ninth
	// column.
	CellWidth  = 8
	CellHeight = 16

	// glyphBaseline is the baseline offset of basicfont.Face7x13 inside a
	// cell, leaving the glyph vertically centered.
	glyphBaseline = 13
)

// Snapshot renders grid using the supplied palette. Each cell is filled with
// its background color and the character drawn in its foreground color.
func Snapshot(grid *console.Grid, pal *palette.Palette) image.Image {
	dc := gg.NewContext(console.Cols*CellWidth, console.Rows*CellHeight)
	dc.SetFontFace(basicfont.Face7x13)

	for row := 0; row < console.Rows; row++ {
		for col := 0; col < console.Cols; col++ {
			cell := grid[row*console.Cols+col]
			x, y := float64(col*CellWidth), float64(row*CellHeight)

			dc.SetColor(pal[cell.Attr.Bg()])
			dc.DrawRectangle(x, y, CellWidth, CellHeight)
			dc.Fill()

			if cell.Char <= ' ' || cell.Char >= 0x7f {
				continue
			}

			dc.SetColor(pal[cell.Attr.Fg()])
			dc.DrawString(string(rune(cell.Char)), x, y+glyphBaseline)
		}
	}

	return dc.Image()
}

// WritePNG saves img to path in PNG format.
func WritePNG(path string, img image.Image) error {
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// RenderANSI draws grid on an ANSI terminal using 24-bit color escape
// sequences. Each row is positioned explicitly so the output can be
// repainted in place.
func RenderANSI(w io.Writer, grid *console.Grid, pal *palette.Palette) error {
	var (
		buf          []byte
		lastFg       color.RGBA
		lastBg       color.RGBA
		haveLastAttr bool
	)

	for row := 0; row < console.Rows; row++ {
		buf = fmt.Appendf(buf, "\x1b[%d;1H", row+1)
		haveLastAttr = false

		for col := 0; col < console.Cols; col++ {
			cell := grid[row*console.Cols+col]
			fg, bg := pal[cell.Attr.Fg()], pal[cell.Attr.Bg()]

			if !haveLastAttr || fg != lastFg || bg != lastBg {
				buf = fmt.Appendf(buf, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm", fg.R, fg.G, fg.B, bg.R, bg.G, bg.B)
				lastFg, lastBg, haveLastAttr = fg, bg, true
			}

			ch := cell.Char
			if ch < ' ' || ch >= 0x7f {
				ch = ' '
			}
			buf = append(buf, ch)
		}
	}
	buf = append(buf, "\x1b[0m"...)

	_, err := w.Write(buf)
	return err
}
