package console

// Attr is a packed color attribute: the foreground color index occupies the
// low nibble and the background color index the high nibble.
type Attr uint8

// The 16 color indices of the text-mode palette.
const (
	Black Attr = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGrey
	Grey
	LightBlue
	LightGreen
	LightCyan
	LightRed
	LightMagenta
	Yellow
	White
)

// DefaultAttr is the attribute active after Init: white text on black.
const DefaultAttr = White | Black<<4

// MakeAttr packs a foreground and a background color index into an Attr.
// Only the low 4 bits of each index are used.
func MakeAttr(fg, bg Attr) Attr {
	return fg&0xf | (bg&0xf)<<4
}

// Fg returns the foreground color index.
func (a Attr) Fg() Attr {
	return a & 0xf
}

// Bg returns the background color index.
func (a Attr) Bg() Attr {
	return a >> 4
}
