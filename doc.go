// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package swarm provides a concurrent HTTP client engine: it schedules,
dispatches, and observes large numbers of in-flight HTTP transfers
under a fixed concurrency budget.

Create an Engine, submit transfers, and run the engine to drain them.

	eng := swarm.New(10)
	t, err := transfer.NewHTTP("GET", "https://www.example.com", nil, "")
	...
	t.SetOnReady(func(info *transfer.Info, body *streambuf.Buffer, s transfer.Scheduler) {
		fmt.Println(info.StatusCode, body.Len())
	})
	eng.Submit(t)
	err = eng.Run(context.Background())

Submissions may be deferred with transfer.After and front-inserted
with transfer.Front. A refill hook keeps long-running crawls fed: the
engine invokes it whenever the backlog falls below the low watermark,
and the hook submits more work.

	eng.SetRefillHook(func(backlogLen, maxConcurrency int) {
		...
	})

Transfers observe their own lifecycle through hooks: a stream hook
fires for each arriving chunk of response body (and may abort the
transfer by returning false), then exactly one of the ready, timeout,
or error hooks fires, then the completion hook. Connection-phase and
total-phase timeouts are distinguished and dispatched separately.
Follow-up transfers chained with AppendNext are enqueued when their
predecessor completes, and a transfer carrying a predecessor link runs
its predecessor first.

Higher-level transfer flavors build on the engine: package sse frames
text/event-stream responses, and package mcp implements the Model
Context Protocol "Streamable HTTP" binding, including automatic
session initialization and recovery.
*/
package swarm
