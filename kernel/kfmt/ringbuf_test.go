package kfmt

import (
	"bytes"
	"io"
	"testing"
)

func TestRingBufferReadWrite(t *testing.T) {
	var (
		rb  ringBuffer
		buf [64]byte
	)

	if _, err := rb.Read(buf[:]); err != io.EOF {
		t.Fatalf("expected reading an empty buffer to return io.EOF; got %v", err)
	}

	rb.Write([]byte("hello"))
	n, err := rb.Read(buf[:3])
	if err != nil || string(buf[:n]) != "hel" {
		t.Fatalf("expected to read %q; got %q (err %v)", "hel", buf[:n], err)
	}

	n, _ = rb.Read(buf[:])
	if string(buf[:n]) != "lo" {
		t.Fatalf("expected to read %q; got %q", "lo", buf[:n])
	}
}

func TestRingBufferOverwritesOldest(t *testing.T) {
	var rb ringBuffer

	for i := 0; i < ringBufferSize; i++ {
		rb.Write([]byte{'a'})
	}
	rb.Write([]byte("XYZ"))

	var out bytes.Buffer
	n, err := rb.WriteTo(&out)
	if err != nil {
		t.Fatal(err)
	}

	if n != ringBufferSize {
		t.Fatalf("expected to drain %d bytes; got %d", ringBufferSize, n)
	}

	got := out.Bytes()
	if !bytes.HasSuffix(got, []byte("XYZ")) || got[0] != 'a' {
		t.Fatalf("expected the oldest bytes to be overwritten; got suffix %q", got[len(got)-8:])
	}

	if _, err := rb.Read(make([]byte, 1)); err != io.EOF {
		t.Fatalf("expected drained buffer to return io.EOF; got %v", err)
	}
}
