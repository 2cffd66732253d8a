// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"time"

	"github.com/gogama/swarm/streambuf"
)

// DefaultTimeout is the total timeout assumed for reporting purposes
// when a transfer does not set one. The backend does not enforce it;
// an unset timeout means the backend default applies.
const DefaultTimeout = 300 * time.Second

// A Transfer is the base descriptor for a single outbound request. It
// carries everything the engine needs to realize the request: the URL,
// the backend option table, the observer hooks, and the follow-up
// links chaining further transfers behind this one.
//
// A Transfer is configured before submission and must not be mutated
// while it is in flight. It may be resubmitted after it completes; the
// engine resets its per-attempt state (stream buffer, abort flag) each
// time it is scheduled.
type Transfer struct {
	url            string
	opts           map[Option]interface{}
	connectTimeout time.Duration
	totalTimeout   time.Duration
	streamable     bool
	streamAborted  bool
	buf            *streambuf.Buffer
	handleID       string
	before         *Transfer
	next           *Transfer

	onReady     ReadyFunc
	onTimeout   TimeoutFunc
	onError     ErrorFunc
	onStream    StreamFunc
	onComplete  CompleteFunc
	onException ExceptionFunc
	onHeaders   HeadersFunc
	onSubmit    SubmitFunc
}

// New returns a new Transfer targeting the given URL.
func New(url string) *Transfer {
	t := &Transfer{
		opts: make(map[Option]interface{}),
	}
	t.SetURL(url)
	return t
}

// URL returns the transfer's URL.
func (t *Transfer) URL() string {
	return t.url
}

// SetURL changes the transfer's URL, keeping the OptURL entry of the
// option table in sync.
func (t *Transfer) SetURL(url string) {
	t.url = url
	t.opts[OptURL] = url
}

// Option returns the value of the given backend option and whether it
// is set.
func (t *Transfer) Option(o Option) (interface{}, bool) {
	v, ok := t.opts[o]
	return v, ok
}

// SetOption sets a backend option. Setting a nil value removes the
// option from the table.
func (t *Transfer) SetOption(o Option, v interface{}) {
	if v == nil {
		delete(t.opts, o)
		return
	}
	t.opts[o] = v
}

// BoolOption returns the value of a boolean option, or false if the
// option is unset or holds a non-boolean value.
func (t *Transfer) BoolOption(o Option) bool {
	b, _ := t.opts[o].(bool)
	return b
}

// StringOption returns the value of a string option, or "" if the
// option is unset or holds a non-string value.
func (t *Transfer) StringOption(o Option) string {
	s, _ := t.opts[o].(string)
	return s
}

// ConnectTimeout returns the connection timeout, or zero if unset.
func (t *Transfer) ConnectTimeout() time.Duration {
	return t.connectTimeout
}

// SetConnectTimeout sets the connection timeout, keeping the
// OptConnectTimeoutMS option in sync. A non-positive d clears the
// timeout.
func (t *Transfer) SetConnectTimeout(d time.Duration) {
	if d <= 0 {
		t.connectTimeout = 0
		delete(t.opts, OptConnectTimeoutMS)
		return
	}
	t.connectTimeout = d
	t.opts[OptConnectTimeoutMS] = d.Milliseconds()
}

// TotalTimeout returns the total timeout, or zero if unset.
func (t *Transfer) TotalTimeout() time.Duration {
	return t.totalTimeout
}

// SetTotalTimeout sets the total timeout, keeping the OptTimeoutMS
// option in sync. A non-positive d clears the timeout.
func (t *Transfer) SetTotalTimeout(d time.Duration) {
	if d <= 0 {
		t.totalTimeout = 0
		delete(t.opts, OptTimeoutMS)
		return
	}
	t.totalTimeout = d
	t.opts[OptTimeoutMS] = d.Milliseconds()
}

// EffectiveTotalTimeout returns the total timeout, substituting
// DefaultTimeout when none is set.
func (t *Transfer) EffectiveTotalTimeout() time.Duration {
	if t.totalTimeout > 0 {
		return t.totalTimeout
	}
	return DefaultTimeout
}

// EffectiveConnectTimeout returns the connection timeout, substituting
// DefaultTimeout when none is set.
func (t *Transfer) EffectiveConnectTimeout() time.Duration {
	if t.connectTimeout > 0 {
		return t.connectTimeout
	}
	return DefaultTimeout
}

// Streamable reports whether the stream hook is invoked chunk by chunk
// while the response body arrives. The response bytes are appended to
// the stream buffer either way.
func (t *Transfer) Streamable() bool {
	return t.streamable
}

// SetStreamable forces or clears the streamable flag. Installing a
// stream hook sets the flag implicitly; flavors that decide the mode
// from response headers clear it mid-flight.
func (t *Transfer) SetStreamable(streamable bool) {
	t.streamable = streamable
}

// StreamAborted reports whether the stream hook requested an abort of
// the in-flight transfer. The engine consults the flag to convert the
// resulting write-error completion into a ready completion.
func (t *Transfer) StreamAborted() bool {
	return t.streamAborted
}

// MarkStreamAborted records that the stream hook requested an abort.
func (t *Transfer) MarkStreamAborted() {
	t.streamAborted = true
}

// Buffer returns the transfer's stream buffer, allocating it on first
// use. All observed response bytes are appended to the buffer before
// any hook runs.
func (t *Transfer) Buffer() *streambuf.Buffer {
	if t.buf == nil {
		t.buf = streambuf.New()
	}
	return t.buf
}

// AttachHandle associates the transfer with a backend handle
// identifier and resets the per-attempt state (stream buffer, abort
// flag) for a fresh response.
func (t *Transfer) AttachHandle(id string) {
	t.handleID = id
	t.streamAborted = false
	if t.buf != nil {
		t.buf.Clear()
	}
}

// DetachHandle clears the handle back-reference.
func (t *Transfer) DetachHandle() {
	t.handleID = ""
}

// HandleID returns the backend handle identifier while the transfer is
// in flight, and "" otherwise.
func (t *Transfer) HandleID() string {
	return t.handleID
}

// InFlight reports whether the transfer is currently associated with a
// backend handle.
func (t *Transfer) InFlight() bool {
	return t.handleID != ""
}

// Before returns the transfer's predecessor link, or nil.
func (t *Transfer) Before() *Transfer {
	return t.before
}

// Next returns the head of the transfer's follow-up chain, or nil.
func (t *Transfer) Next() *Transfer {
	return t.next
}

// AppendNext walks the follow-up chain to its tail and attaches n
// there. The chain is expected to be short; the walk is linear in its
// length.
func (t *Transfer) AppendNext(n *Transfer) {
	tail := t
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = n
}

// SetBefore attaches b as the transfer's predecessor. When the
// transfer is scheduled, the engine runs b in its stead. If
// setThisAsNext is true, the transfer is appended to the end of b's
// follow-up chain, so that after b and any pre-existing successors
// run, control returns to this transfer.
func (t *Transfer) SetBefore(b *Transfer, setThisAsNext bool) {
	t.before = b
	if setThisAsNext {
		b.AppendNext(t)
	}
}

// PopNext detaches and returns the head of the follow-up chain, or nil
// if the chain is empty. The remainder of the chain stays attached to
// the returned head.
func (t *Transfer) PopNext() *Transfer {
	n := t.next
	t.next = nil
	return n
}

// PopBefore detaches and returns the predecessor link, or nil if none
// is set.
func (t *Transfer) PopBefore() *Transfer {
	b := t.before
	t.before = nil
	return b
}

// SetOnReady installs the hook observing successful completion.
func (t *Transfer) SetOnReady(f ReadyFunc) {
	t.onReady = f
}

// ReadyHook returns the installed ready hook, or nil.
func (t *Transfer) ReadyHook() ReadyFunc {
	return t.onReady
}

// SetOnTimeout installs the hook observing timeout completions.
func (t *Transfer) SetOnTimeout(f TimeoutFunc) {
	t.onTimeout = f
}

// TimeoutHook returns the installed timeout hook, or nil.
func (t *Transfer) TimeoutHook() TimeoutFunc {
	return t.onTimeout
}

// SetOnError installs the hook observing transport errors.
func (t *Transfer) SetOnError(f ErrorFunc) {
	t.onError = f
}

// ErrorHook returns the installed error hook, or nil.
func (t *Transfer) ErrorHook() ErrorFunc {
	return t.onError
}

// SetOnStream installs the stream hook and marks the transfer
// streamable.
func (t *Transfer) SetOnStream(f StreamFunc) {
	t.onStream = f
	if f != nil {
		t.streamable = true
	}
}

// StreamHook returns the installed stream hook, or nil.
func (t *Transfer) StreamHook() StreamFunc {
	return t.onStream
}

// SetOnComplete installs the hook observing transfer teardown.
func (t *Transfer) SetOnComplete(f CompleteFunc) {
	t.onComplete = f
}

// CompleteHook returns the installed completion hook, or nil.
func (t *Transfer) CompleteHook() CompleteFunc {
	return t.onComplete
}

// SetOnException installs the hook observing panics raised by the
// transfer's other hooks.
func (t *Transfer) SetOnException(f ExceptionFunc) {
	t.onException = f
}

// ExceptionHook returns the installed exception hook, or nil.
func (t *Transfer) ExceptionHook() ExceptionFunc {
	return t.onException
}

// SetOnHeaders installs the hook observing the response status and
// headers.
func (t *Transfer) SetOnHeaders(f HeadersFunc) {
	t.onHeaders = f
}

// HeadersHook returns the installed headers hook, or nil.
func (t *Transfer) HeadersHook() HeadersFunc {
	return t.onHeaders
}

// SetOnSubmit installs the hook observing submission of the transfer
// to a scheduler.
func (t *Transfer) SetOnSubmit(f SubmitFunc) {
	t.onSubmit = f
}

// SubmitHook returns the installed submit hook, or nil.
func (t *Transfer) SubmitHook() SubmitFunc {
	return t.onSubmit
}

// Clone returns a copy of the transfer representing a fresh outgoing
// request: the option table is deep-copied, while the stream buffer,
// abort flag, handle back-reference, follow-up links, and observer
// hooks are all reset.
func (t *Transfer) Clone() *Transfer {
	c := &Transfer{
		url:            t.url,
		opts:           make(map[Option]interface{}, len(t.opts)),
		connectTimeout: t.connectTimeout,
		totalTimeout:   t.totalTimeout,
		streamable:     t.streamable,
	}
	for o, v := range t.opts {
		c.opts[o] = v
	}
	return c
}
