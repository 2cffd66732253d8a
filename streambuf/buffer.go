// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package streambuf

import "bytes"

// A Buffer is an append-only byte accumulator supporting destructive
// consumption from the front. The zero value is an empty buffer ready
// for use.
//
// All consume operations advance past the bytes they return. Peek does
// not.
type Buffer struct {
	b []byte
}

// New returns a new empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Append adds p to the end of the buffer. The bytes are copied, so the
// caller may reuse p.
func (b *Buffer) Append(p []byte) {
	b.b = append(b.b, p...)
}

// AppendString adds s to the end of the buffer.
func (b *Buffer) AppendString(s string) {
	b.b = append(b.b, s...)
}

// Len returns the number of unconsumed bytes in the buffer.
func (b *Buffer) Len() int {
	return len(b.b)
}

// Peek returns the unconsumed bytes without consuming them. The
// returned slice aliases the buffer's storage and is only valid until
// the next mutating call.
func (b *Buffer) Peek() []byte {
	return b.b
}

// Clear drains the buffer, discarding all unconsumed bytes.
func (b *Buffer) Clear() {
	b.b = b.b[:0]
}

// ConsumeAll drains the buffer and returns all the bytes drained.
func (b *Buffer) ConsumeAll() []byte {
	out := make([]byte, len(b.b))
	copy(out, b.b)
	b.b = b.b[:0]
	return out
}

// ConsumeLine consumes and returns the bytes preceding the first '\n'
// in the buffer. An immediately preceding '\r' is stripped from the
// returned line, and the '\n' itself is consumed but not returned.
//
// If the buffer contains no '\n', the buffer is left untouched and
// ConsumeLine returns (nil, false).
func (b *Buffer) ConsumeLine() ([]byte, bool) {
	i := bytes.IndexByte(b.b, '\n')
	if i < 0 {
		return nil, false
	}
	end := i
	if end > 0 && b.b[end-1] == '\r' {
		end--
	}
	line := make([]byte, end)
	copy(line, b.b[:end])
	b.b = b.b[i+1:]
	return line, true
}

// ConsumeUntil consumes through the first occurrence of delim and
// returns the bytes preceding it. If include is true, the returned
// bytes include the delimiter itself; either way the buffer advances
// past the delimiter.
//
// If delim does not occur in the buffer, the buffer is left untouched
// and ConsumeUntil returns (nil, false).
func (b *Buffer) ConsumeUntil(delim []byte, include bool) ([]byte, bool) {
	i := bytes.Index(b.b, delim)
	if i < 0 {
		return nil, false
	}
	end := i
	if include {
		end = i + len(delim)
	}
	out := make([]byte, end)
	copy(out, b.b[:end])
	b.b = b.b[i+len(delim):]
	return out, true
}

// ConsumeBytes consumes and returns up to n bytes from the front of
// the buffer. If the buffer holds fewer than n bytes, all of them are
// consumed and returned.
func (b *Buffer) ConsumeBytes(n int) []byte {
	if n > len(b.b) {
		n = len(b.b)
	}
	if n < 0 {
		n = 0
	}
	out := make([]byte, n)
	copy(out, b.b[:n])
	b.b = b.b[n:]
	return out
}
