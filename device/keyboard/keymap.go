// Package keyboard decodes PS/2 keyboard interrupts into characters.
package keyboard

// KeyMap translates a make code (scancode set 1, release bit cleared) to an
// ASCII character. Entries containing 0 are unmapped.
type KeyMap [128]byte

// USLayout is the US keyboard layout for scancode set 1. Only unshifted
// characters are mapped; modifiers, function and cursor keys are ignored.
var USLayout = KeyMap{
	0, 27, '1', '2', '3', '4', '5', '6', '7', '8', '9', '0', '-', '=', '\b',
	'\t', 'q', 'w', 'e', 'r', 't', 'y', 'u', 'i', 'o', 'p', '[', ']', '\n',
	0, 'a', 's', 'd', 'f', 'g', 'h', 'j', 'k', 'l', ';', '\'', '`', 0,
	'\\', 'z', 'x', 'c', 'v', 'b', 'n', 'm', ',', '.', '/', 0,
	'*', 0, ' ',
}

// Lookup returns the character mapped to scancode. The release bit is
// ignored.
func (km *KeyMap) Lookup(scancode uint8) byte {
	return km[scancode&0x7f]
}

// ScancodeFor returns the make code that produces ch. If more than one code
// maps to ch the lowest one is returned.
func (km *KeyMap) ScancodeFor(ch byte) (uint8, bool) {
	if ch == 0 {
		return 0, false
	}

	for sc, mapped := range km {
		if mapped == ch {
			return uint8(sc), true
		}
	}

	return 0, false
}
