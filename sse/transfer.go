// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import (
	"github.com/gogama/swarm/streambuf"
	"github.com/gogama/swarm/transfer"
)

// An EventFunc observes each parsed Server-Sent Event. Returning false
// aborts the in-flight transfer; the engine then reports the transfer
// as ready.
type EventFunc func(ev Event, s transfer.Scheduler) bool

// A Transfer is an HTTP transfer that parses its response as a
// text/event-stream and delivers the framed events to an application
// hook. It is always streamable.
type Transfer struct {
	transfer.HTTP
	parser  Parser
	onEvent EventFunc
}

// New returns a new SSE transfer issuing a GET to the given URL with
// an Accept: text/event-stream header.
func New(url string) (*Transfer, error) {
	h, err := transfer.NewHTTP("GET", url, nil, "")
	if err != nil {
		return nil, err
	}
	t := &Transfer{HTTP: *h}
	t.SetHeader("accept", "text/event-stream")
	t.install()
	return t, nil
}

func (t *Transfer) install() {
	t.HTTP.SetOnStream(func(buf *streambuf.Buffer, s transfer.Scheduler) bool {
		return t.parser.Feed(buf, func(ev Event) bool {
			if t.onEvent == nil {
				return true
			}
			return t.onEvent(ev, s)
		})
	})
}

// SetOnEvent installs the hook observing parsed events.
func (t *Transfer) SetOnEvent(f EventFunc) {
	t.onEvent = f
}

// Parser returns the transfer's SSE parser state, exposing the last
// event identifier and the advertised retry delay.
func (t *Transfer) Parser() *Parser {
	return &t.parser
}

// SetLastEventID installs a Last-Event-ID header so the server can
// resume the stream after the identified event. An empty id removes
// the header.
func (t *Transfer) SetLastEventID(id string) {
	t.SetHeader("last-event-id", id)
}

// Clone returns a fresh SSE transfer with the same URL, headers, and
// options, a reset parser, and no event hook.
func (t *Transfer) Clone() *Transfer {
	c := &Transfer{HTTP: *t.HTTP.Clone()}
	c.install()
	return c
}
