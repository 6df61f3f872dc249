// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"io"
)

// Buffer is an append-only byte buffer backed by an arena.
// It implements io.Writer, io.ByteWriter, io.StringWriter and io.WriterTo.
// Growing the buffer allocates a larger region from the arena; the old
// region stays allocated until the arena is reset or released.
type Buffer struct {
	arena Arena
	buf   []byte
}

// NewArenaBuffer creates a new Buffer backed by the given arena.
// If arena is nil, it will fall back to standard Go allocation.
func NewArenaBuffer(arena Arena) *Buffer {
	return &Buffer{arena: arena}
}

// Write implements io.Writer interface.
// If the arena cannot grow the buffer nothing is written and the allocation error is returned.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := b.grow(len(p)); err != nil {
		return 0, err
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte writes a single byte to the buffer.
func (b *Buffer) WriteByte(c byte) error {
	if err := b.grow(1); err != nil {
		return err
	}
	b.buf = append(b.buf, c)
	return nil
}

// WriteString writes a string to the buffer.
func (b *Buffer) WriteString(s string) (n int, err error) {
	if len(s) == 0 {
		return 0, nil
	}
	if err := b.grow(len(s)); err != nil {
		return 0, err
	}
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// WriteTo implements io.WriterTo. Written bytes are dropped from the buffer.
func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	if len(b.buf) == 0 {
		return 0, nil
	}
	m, err := w.Write(b.buf)
	if m > 0 {
		n = int64(m)
		rest := copy(b.buf, b.buf[m:])
		b.buf = b.buf[:rest]
	}
	if err == nil && len(b.buf) > 0 {
		err = io.ErrShortWrite
	}
	return n, err
}

// Bytes returns the buffer contents. The slice aliases arena memory and is
// valid for use only until the next buffer modification.
func (b *Buffer) Bytes() []byte {
	if len(b.buf) == 0 {
		return []byte{}
	}
	return b.buf
}

// String returns the contents of the buffer as a string on the Go heap.
func (b *Buffer) String() string {
	return string(b.buf)
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Cap returns the capacity of the buffer's underlying byte slice.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset resets the buffer to be empty, keeping its capacity.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

// Truncate discards all but the first n bytes from the buffer.
// It panics if n is negative or greater than the length of the buffer.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > len(b.buf) {
		panic("arena: truncation out of range")
	}
	b.buf = b.buf[:n]
}

func (b *Buffer) grow(n int) error {
	buf, err := growSlice(b.arena, b.buf, n)
	if err != nil {
		return err
	}
	b.buf = buf
	return nil
}
