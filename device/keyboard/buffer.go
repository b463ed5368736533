package keyboard

import "textos/kernel"

// BufferSize is the size of the input buffer store including the NUL
// terminator.
const BufferSize = 256

var errInputOutOfRange = &kernel.Error{Module: "keyboard", Message: "input buffer index out of range"}

// InputBuffer accumulates decoded characters. The contents are always
// followed by a NUL byte, so at most BufferSize-1 characters fit. Characters
// appended to a full buffer are rejected and counted.
type InputBuffer struct {
	data    [BufferSize]byte
	len     int
	dropped uint32
}

// Append stores ch after the last character and returns true. If the buffer
// is full, ch is discarded, the drop counter is incremented and Append
// returns false.
func (b *InputBuffer) Append(ch byte) bool {
	if b.len >= b.Cap() {
		b.dropped++
		return false
	}

	b.data[b.len] = ch
	b.len++
	b.data[b.len] = 0
	return true
}

// Len returns the number of stored characters.
func (b *InputBuffer) Len() int {
	return b.len
}

// Cap returns the maximum number of characters the buffer can hold.
func (b *InputBuffer) Cap() int {
	return BufferSize - 1
}

// At returns the character at index i. Reading past the stored characters
// panics.
func (b *InputBuffer) At(i int) byte {
	if i < 0 || i >= b.len {
		panic(errInputOutOfRange)
	}

	return b.data[i]
}

// Bytes returns the stored characters without the NUL terminator. The
// returned slice aliases the buffer.
func (b *InputBuffer) Bytes() []byte {
	return b.data[:b.len]
}

// Dropped returns the number of characters rejected because the buffer was
// full.
func (b *InputBuffer) Dropped() uint32 {
	return b.dropped
}

// Reset discards all stored characters and clears the drop counter.
func (b *InputBuffer) Reset() {
	b.len = 0
	b.dropped = 0
	b.data[0] = 0
}
