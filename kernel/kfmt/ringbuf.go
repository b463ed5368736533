package kfmt

import "io"

// ringBufferSize is large enough to capture a full 80x25 screen of output.
// It must be a power of 2.
const ringBufferSize = 2048

// ringBuffer keeps the most recent ringBufferSize bytes written to it. When
// full, new bytes overwrite the oldest ones.
type ringBuffer struct {
	buffer     [ringBufferSize]byte
	head, size int
}

// Write implements io.Writer. It never fails.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[(rb.head+rb.size)&(ringBufferSize-1)] = b
		if rb.size < ringBufferSize {
			rb.size++
		} else {
			rb.head = (rb.head + 1) & (ringBufferSize - 1)
		}
	}

	return len(p), nil
}

// Read implements io.Reader. It returns io.EOF once the buffer is drained.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.size == 0 {
		return 0, io.EOF
	}

	chunk := rb.chunk()
	n := copy(p, chunk)
	rb.consume(n)
	return n, nil
}

// WriteTo implements io.WriterTo, draining the buffer into w without an
// intermediate copy.
func (rb *ringBuffer) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for rb.size > 0 {
		n, err := w.Write(rb.chunk())
		total += int64(n)
		rb.consume(n)
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// chunk returns the longest contiguous run of unread bytes.
func (rb *ringBuffer) chunk() []byte {
	end := rb.head + rb.size
	if end > ringBufferSize {
		end = ringBufferSize
	}
	return rb.buffer[rb.head:end]
}

func (rb *ringBuffer) consume(n int) {
	rb.head = (rb.head + n) & (ringBufferSize - 1)
	rb.size -= n
}
