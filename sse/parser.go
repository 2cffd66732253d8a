// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sse

import (
	"strconv"
	"strings"
	"time"

	"github.com/gogama/swarm/streambuf"
)

// DefaultRetry is the reconnection delay assumed until the server
// sends a numeric retry field.
const DefaultRetry = 3 * time.Second

// An Event is one dispatched Server-Sent Event.
type Event struct {
	// Name is the event type from the most recent "event" field, or ""
	// if the frame did not name one.
	Name string
	// Data is the event payload: the "data" field values joined by
	// newlines, with at most one trailing newline stripped.
	Data string
	// LastID is the last event identifier seen on the stream at
	// dispatch time. Identifiers persist across events until the
	// server replaces them.
	LastID string
}

// A Parser incrementally parses a text/event-stream byte sequence into
// Events. The zero value is ready for use.
type Parser struct {
	name    string
	data    strings.Builder
	lastID  string
	retry   time.Duration
	started bool
}

// LastID returns the last event identifier seen on the stream, or "".
func (p *Parser) LastID() string {
	return p.lastID
}

// Retry returns the reconnection delay most recently advertised by the
// server, or DefaultRetry.
func (p *Parser) Retry() time.Duration {
	if !p.started || p.retry == 0 {
		return DefaultRetry
	}
	return p.retry
}

// Feed consumes complete lines from buf and dispatches an event to
// emit at each blank-line boundary whose accumulated data is
// non-empty. Bytes after the final newline stay in buf for the next
// Feed call.
//
// Feed stops early and returns false if emit returns false; otherwise
// it returns true when buf holds no further complete line.
func (p *Parser) Feed(buf *streambuf.Buffer, emit func(Event) bool) bool {
	p.started = true
	for {
		line, ok := buf.ConsumeLine()
		if !ok {
			return true
		}
		if len(line) == 0 {
			if !p.dispatch(emit) {
				return false
			}
			continue
		}
		p.field(string(line))
	}
}

func (p *Parser) dispatch(emit func(Event) bool) bool {
	name := p.name
	data := p.data.String()
	p.name = ""
	p.data.Reset()
	if data == "" {
		return true
	}
	data = strings.TrimSuffix(data, "\n")
	return emit(Event{Name: name, Data: data, LastID: p.lastID})
}

func (p *Parser) field(line string) {
	if strings.HasPrefix(line, ":") {
		return
	}
	name := line
	var value string
	if i := strings.IndexByte(line, ':'); i >= 0 {
		name = line[:i]
		value = strings.TrimPrefix(line[i+1:], " ")
	}
	switch name {
	case "event":
		p.name = value
	case "data":
		p.data.WriteString(value)
		p.data.WriteByte('\n')
	case "id":
		// An identifier containing NUL is ignored per the SSE spec.
		if !strings.ContainsRune(value, 0) {
			p.lastID = value
		}
	case "retry":
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms >= 0 {
			p.retry = time.Duration(ms) * time.Millisecond
		}
	}
}
