// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package sse implements Server-Sent Event framing on top of streaming
transfers.

A Parser consumes the bytes accumulated in a transfer's stream buffer
and dispatches an Event at each blank-line boundary, following the
text/event-stream field rules: "event" names the next event, "data"
lines accumulate joined by newlines, "id" persists across events, and
a numeric "retry" updates the reconnection delay.

The Transfer type packages a Parser over an HTTP transfer, delivering
parsed events to an application hook:

	t, err := sse.New("https://stream.example.com/events")
	...
	t.SetOnEvent(func(ev sse.Event, s transfer.Scheduler) bool {
		fmt.Println(ev.Data)
		return true // false aborts the stream
	})
*/
package sse
