// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package streambuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferAppendPeek(t *testing.T) {
	b := New()
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Peek())
	b.Append([]byte("hello"))
	b.AppendString(" world")
	assert.Equal(t, 11, b.Len())
	assert.Equal(t, "hello world", string(b.Peek()))
	// Peek does not consume.
	assert.Equal(t, "hello world", string(b.Peek()))
}

func TestBufferConsumeAll(t *testing.T) {
	b := New()
	b.AppendString("abc")
	assert.Equal(t, "abc", string(b.ConsumeAll()))
	assert.Zero(t, b.Len())
	assert.Empty(t, b.ConsumeAll())
}

func TestBufferClear(t *testing.T) {
	b := New()
	b.AppendString("abc")
	b.Clear()
	assert.Zero(t, b.Len())
}

func TestBufferConsumeLine(t *testing.T) {
	b := New()
	b.AppendString("one\r\ntwo\nthr")

	line, ok := b.ConsumeLine()
	assert.True(t, ok)
	assert.Equal(t, "one", string(line))

	line, ok = b.ConsumeLine()
	assert.True(t, ok)
	assert.Equal(t, "two", string(line))

	// No newline yet: buffer untouched.
	_, ok = b.ConsumeLine()
	assert.False(t, ok)
	assert.Equal(t, "thr", string(b.Peek()))

	b.AppendString("ee\n\n")
	line, ok = b.ConsumeLine()
	assert.True(t, ok)
	assert.Equal(t, "three", string(line))

	// Blank line yields an empty slice, not a miss.
	line, ok = b.ConsumeLine()
	assert.True(t, ok)
	assert.Empty(t, line)
}

func TestBufferConsumeUntil(t *testing.T) {
	b := New()
	b.AppendString("key=value;rest")

	part, ok := b.ConsumeUntil([]byte("="), false)
	assert.True(t, ok)
	assert.Equal(t, "key", string(part))

	part, ok = b.ConsumeUntil([]byte(";"), true)
	assert.True(t, ok)
	assert.Equal(t, "value;", string(part))

	_, ok = b.ConsumeUntil([]byte("!"), false)
	assert.False(t, ok)
	assert.Equal(t, "rest", string(b.Peek()))
}

func TestBufferConsumeBytes(t *testing.T) {
	b := New()
	b.AppendString("abcdef")
	assert.Equal(t, "abcd", string(b.ConsumeBytes(4)))
	assert.Equal(t, "ef", string(b.ConsumeBytes(100)))
	assert.Empty(t, b.ConsumeBytes(1))
	assert.Empty(t, b.ConsumeBytes(-1))
}
