// Package buffer implements the fixed-capacity, two-cursor byte region
// described in spec.md §3 and the exact-read/exact-write framing helpers
// of §4.1.
package buffer

import (
	"errors"
	"io"
)

// ErrShortBuffer is returned when a caller asks to read more bytes than
// the buffer has writable capacity for.
var ErrShortBuffer = errors.New("buffer: requested read exceeds capacity")

// Buffer is a fixed-capacity byte region with two cursors, start <= cur
// <= size. Bytes in [start, cur) are readable payload; bytes in
// [cur, size) are writable space. clear() resets both to zero.
type Buffer struct {
	data  []byte
	start int
	cur   int
}

// New allocates a Buffer with the given fixed capacity.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// Cap returns the fixed capacity of the buffer.
func (b *Buffer) Cap() int { return len(b.data) }

// Len returns the number of readable payload bytes currently buffered.
func (b *Buffer) Len() int { return b.cur - b.start }

// Free returns the number of writable bytes remaining.
func (b *Buffer) Free() int { return len(b.data) - b.cur }

// Readable returns the current readable payload slice, [start, cur).
// The returned slice aliases the buffer; callers must not retain it past
// the next mutating call.
func (b *Buffer) Readable() []byte { return b.data[b.start:b.cur] }

// Clear resets both cursors to zero, discarding any buffered payload.
func (b *Buffer) Clear() {
	b.start = 0
	b.cur = 0
	b.checkInvariant()
}

// Advance moves start forward by n bytes, as a reader consuming payload.
// It panics on underflow — that is always a caller bug, never a runtime
// condition reachable from network input.
func (b *Buffer) Advance(n int) {
	b.start += n
	b.checkInvariant()
}

// Append copies src into the writable region and advances cur. It
// returns ErrShortBuffer if src doesn't fit in the remaining capacity.
func (b *Buffer) Append(src []byte) error {
	if len(src) > b.Free() {
		return ErrShortBuffer
	}
	copy(b.data[b.cur:], src)
	b.cur += len(src)
	b.checkInvariant()
	return nil
}

func (b *Buffer) checkInvariant() {
	if b.start < 0 || b.start > b.cur || b.cur > len(b.data) {
		panic("buffer: invariant violated: 0 <= start <= cur <= size")
	}
}

// Reader is the read side of a socket a Buffer frames reads against.
type Reader interface {
	Read(p []byte) (int, error)
}

// Writer is the write side of a socket a Buffer frames writes against.
type Writer interface {
	Write(p []byte) (int, error)
}

// ReadExact reads exactly n bytes from r into buf's writable region,
// appending. It returns n on success, 0 on peer EOF before any byte was
// read, a partial count on mid-stream EOF, or an error (spec.md §4.1).
// touch, if non-nil, is invoked after every successful underlying read to
// update the owning tunnel's last-activity timestamp.
func ReadExact(r Reader, buf *Buffer, n int, touch func(int)) (int, error) {
	if n > buf.Free() {
		return 0, ErrShortBuffer
	}
	start := buf.cur
	total := 0
	for total < n {
		readInto := buf.data[buf.cur : buf.cur+(n-total)]
		nr, err := r.Read(readInto)
		if nr > 0 {
			buf.cur += nr
			total += nr
			if touch != nil {
				touch(nr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				buf.checkInvariant()
				return total, nil
			}
			buf.checkInvariant()
			return total, err
		}
		if nr == 0 {
			// No progress and no error: treat as EOF rather than spin.
			break
		}
	}
	_ = start
	buf.checkInvariant()
	return total, nil
}

// WriteExact writes exactly n bytes from buf's readable region to w,
// advancing start. It returns n on success or an error (spec.md §4.1).
func WriteExact(w Writer, buf *Buffer, n int, touch func(int)) (int, error) {
	if n > buf.Len() {
		return 0, ErrShortBuffer
	}
	total := 0
	for total < n {
		nw, err := w.Write(buf.data[buf.start+total : buf.start+n])
		if nw > 0 {
			total += nw
			if touch != nil {
				touch(nw)
			}
		}
		if err != nil {
			buf.start += total
			buf.checkInvariant()
			return total, err
		}
	}
	buf.start += total
	buf.checkInvariant()
	return total, nil
}
