// Package palette programs the 16-entry color table of the VGA DAC.
package palette

import "image/color"

// Size is the number of palette entries used by the text console.
const Size = 16

// Palette is a full set of text-mode colors indexed by color attribute
// nibble.
type Palette [Size]color.RGBA

// Default is the standard 16-color text-mode palette.
var Default = Palette{
	{R: 0, G: 0, B: 0, A: 255},       // black
	{R: 0, G: 0, B: 170, A: 255},     // blue
	{R: 0, G: 170, B: 0, A: 255},     // green
	{R: 0, G: 170, B: 170, A: 255},   // cyan
	{R: 170, G: 0, B: 0, A: 255},     // red
	{R: 170, G: 0, B: 170, A: 255},   // magenta
	{R: 170, G: 85, B: 0, A: 255},    // brown
	{R: 170, G: 170, B: 170, A: 255}, // light grey
	{R: 85, G: 85, B: 85, A: 255},    // grey
	{R: 85, G: 85, B: 255, A: 255},   // light blue
	{R: 85, G: 255, B: 85, A: 255},   // light green
	{R: 85, G: 255, B: 255, A: 255},  // light cyan
	{R: 255, G: 85, B: 85, A: 255},   // light red
	{R: 255, G: 85, B: 255, A: 255},  // light magenta
	{R: 255, G: 255, B: 85, A: 255},  // yellow
	{R: 255, G: 255, B: 255, A: 255}, // white
}

// ToDAC converts an 8-bit color component to the 6-bit range used by the
// DAC. The two low bits are discarded.
func ToDAC(v uint8) uint8 {
	return v >> 2
}

// FromDAC expands a 6-bit DAC component back to the 8-bit range.
func FromDAC(v uint8) uint8 {
	v &= 0x3f
	return v<<2 | v>>4
}
