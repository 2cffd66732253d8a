// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gogama/swarm/streambuf"
)

func TestTransferURLSync(t *testing.T) {
	tr := New("https://a.example.com")
	assert.Equal(t, "https://a.example.com", tr.URL())
	v, ok := tr.Option(OptURL)
	assert.True(t, ok)
	assert.Equal(t, "https://a.example.com", v)

	tr.SetURL("https://b.example.com")
	assert.Equal(t, "https://b.example.com", tr.URL())
	v, _ = tr.Option(OptURL)
	assert.Equal(t, "https://b.example.com", v)
}

func TestTransferTimeouts(t *testing.T) {
	tr := New("https://example.com")
	assert.Zero(t, tr.TotalTimeout())
	assert.Equal(t, DefaultTimeout, tr.EffectiveTotalTimeout())

	tr.SetTotalTimeout(2 * time.Second)
	tr.SetConnectTimeout(500 * time.Millisecond)
	assert.Equal(t, 2*time.Second, tr.TotalTimeout())
	assert.Equal(t, 2*time.Second, tr.EffectiveTotalTimeout())
	v, _ := tr.Option(OptTimeoutMS)
	assert.Equal(t, int64(2000), v)
	v, _ = tr.Option(OptConnectTimeoutMS)
	assert.Equal(t, int64(500), v)

	tr.SetTotalTimeout(0)
	_, ok := tr.Option(OptTimeoutMS)
	assert.False(t, ok)
}

func TestTransferStreamable(t *testing.T) {
	tr := New("https://example.com")
	assert.False(t, tr.Streamable())
	tr.SetOnStream(func(*streambuf.Buffer, Scheduler) bool { return true })
	assert.True(t, tr.Streamable())
	tr.SetStreamable(false)
	assert.False(t, tr.Streamable())
	assert.NotNil(t, tr.StreamHook())
}

func TestTransferHandle(t *testing.T) {
	tr := New("https://example.com")
	assert.False(t, tr.InFlight())
	tr.Buffer().AppendString("stale")
	tr.MarkStreamAborted()

	tr.AttachHandle("h1")
	assert.True(t, tr.InFlight())
	assert.Equal(t, "h1", tr.HandleID())
	// Attach resets the per-attempt state.
	assert.Zero(t, tr.Buffer().Len())
	assert.False(t, tr.StreamAborted())

	tr.DetachHandle()
	assert.False(t, tr.InFlight())
	assert.Empty(t, tr.HandleID())
}

func TestTransferChain(t *testing.T) {
	a := New("https://example.com/a")
	b := New("https://example.com/b")
	c := New("https://example.com/c")

	a.AppendNext(b)
	a.AppendNext(c)
	assert.Same(t, b, a.Next())
	assert.Same(t, c, b.Next())

	head := a.PopNext()
	assert.Same(t, b, head)
	assert.Nil(t, a.Next())
	// The remainder of the chain stays with the popped head.
	assert.Same(t, c, head.Next())
}

func TestTransferSetBefore(t *testing.T) {
	main := New("https://example.com/main")
	pre := New("https://example.com/pre")

	main.SetBefore(pre, true)
	assert.Same(t, pre, main.Before())
	assert.Same(t, main, pre.Next())

	got := main.PopBefore()
	assert.Same(t, pre, got)
	assert.Nil(t, main.Before())
}

func TestTransferSetBeforeReturnsAfterSuccessors(t *testing.T) {
	main := New("https://example.com/main")
	pre := New("https://example.com/pre")
	notify := New("https://example.com/notify")
	pre.AppendNext(notify)

	main.SetBefore(pre, true)
	// main lands at the end of pre's chain, after notify.
	assert.Same(t, notify, pre.Next())
	assert.Same(t, main, notify.Next())
}

func TestTransferClone(t *testing.T) {
	tr := New("https://example.com")
	tr.SetTotalTimeout(time.Second)
	tr.SetOption(OptVerbose, true)
	tr.SetOnStream(func(*streambuf.Buffer, Scheduler) bool { return true })
	tr.SetOnReady(func(*Info, *streambuf.Buffer, Scheduler) {})
	tr.Buffer().AppendString("data")
	tr.MarkStreamAborted()
	tr.AttachHandle("h")
	tr.AppendNext(New("https://example.com/next"))

	c := tr.Clone()
	assert.Equal(t, tr.URL(), c.URL())
	assert.Equal(t, time.Second, c.TotalTimeout())
	assert.True(t, c.BoolOption(OptVerbose))
	assert.True(t, c.Streamable())
	// Fresh-request state: buffer, abort flag, handle, links, hooks.
	assert.Zero(t, c.Buffer().Len())
	assert.False(t, c.StreamAborted())
	assert.False(t, c.InFlight())
	assert.Nil(t, c.Next())
	assert.Nil(t, c.Before())
	assert.Nil(t, c.StreamHook())
	assert.Nil(t, c.ReadyHook())

	// The option table is a copy, not shared.
	c.SetOption(OptVerbose, nil)
	assert.True(t, tr.BoolOption(OptVerbose))
}
