// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"net/http"
	"time"

	"github.com/gogama/swarm/streambuf"
)

// A Scheduler is the view of the engine available to transfer hooks.
// Hooks may call back into the Scheduler to submit further transfers;
// submissions made during a hook become eligible on the engine's next
// scheduling pass.
type Scheduler interface {
	// Submit adds t to the scheduler's backlog. Use Front to insert at
	// the head of the backlog and After to defer the submission.
	Submit(t *Transfer, opts ...SubmitOption)
	// Context returns the opaque user payload installed on the engine,
	// or nil if none was installed.
	Context() interface{}
}

// A SubmitConfig collects the effect of the SubmitOption values passed
// to Scheduler.Submit.
type SubmitConfig struct {
	// Front inserts the transfer at the head of the backlog instead of
	// the tail.
	Front bool
	// Delay holds the transfer in the delay queue until the given
	// duration has elapsed.
	Delay time.Duration
}

// A SubmitOption customizes a single Submit call.
type SubmitOption func(*SubmitConfig)

// Front returns a SubmitOption that inserts the transfer at the head
// of the backlog, ahead of transfers submitted with the default
// policy.
func Front() SubmitOption {
	return func(c *SubmitConfig) {
		c.Front = true
	}
}

// After returns a SubmitOption that holds the transfer in the delay
// queue for d before it becomes eligible for scheduling. A
// non-positive d is equivalent to no delay.
func After(d time.Duration) SubmitOption {
	return func(c *SubmitConfig) {
		if d > 0 {
			c.Delay = d
		}
	}
}

// A ReadyFunc observes the successful completion of a transfer. The
// body buffer contains the full response body, or the bytes buffered
// before the stream hook requested an abort.
type ReadyFunc func(info *Info, body *streambuf.Buffer, s Scheduler)

// A TimeoutFunc observes a transfer that failed because its connection
// or total timeout elapsed.
type TimeoutFunc func(kind TimeoutKind, elapsed time.Duration, s Scheduler)

// An ErrorFunc observes a transfer that failed with a transport error.
// The info block is always non-nil but may be sparsely populated when
// the failure occurred before a response was received.
type ErrorFunc func(msg string, code ErrorCode, info *Info, s Scheduler)

// A StreamFunc observes each chunk of response bytes as it arrives.
// The chunk has already been appended to buf when the hook runs.
// Returning false aborts the in-flight transfer; the engine then
// reports the transfer as ready with whatever bytes were buffered.
type StreamFunc func(buf *streambuf.Buffer, s Scheduler) bool

// A CompleteFunc observes the teardown of a transfer after its
// terminal hook (ready, timeout, or error) has run.
type CompleteFunc func(t *Transfer, s Scheduler)

// An ExceptionFunc observes a panic raised by one of the transfer's
// other hooks. A panic value that is an error is passed as is; any
// other value is wrapped in an error. If no exception hook is
// installed the panic propagates.
type ExceptionFunc func(err error, t *Transfer, s Scheduler)

// A HeadersFunc observes the response status and headers before any
// body bytes are delivered.
type HeadersFunc func(status int, header http.Header)

// A SubmitFunc observes the transfer entering a scheduler: on
// submission, before the transfer enters the backlog or delay queue,
// and again when the transfer is promoted into flight in a
// successor's stead (predecessors enter flight without an explicit
// Submit call).
type SubmitFunc func(s Scheduler)
