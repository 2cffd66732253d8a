// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transfer contains the transfer descriptors consumed by the
swarm engine.

A Transfer describes a single outbound request: its URL, its backend
option table, the observer hooks to invoke as the transfer progresses,
and the follow-up links that chain further transfers behind it. The
HTTP type specializes Transfer with a validated method, body encoding,
and a case-folded header table. Higher-level flavors (Server-Sent
Events, MCP) build on HTTP in their own packages.

Construct transfers directly, or use a Builder to stamp out transfers
sharing a common default configuration:

	b := &transfer.Builder{
		TotalTimeout:   10 * time.Second,
		ConnectTimeout: 2 * time.Second,
	}
	t, err := b.Build("https://api.example.com/items")
	...
	t.SetOnReady(func(info *transfer.Info, body *streambuf.Buffer, s transfer.Scheduler) {
		...
	})

Hooks receive a Scheduler, the narrow view of the engine that lets a
hook submit follow-up transfers without this package importing the
engine itself.
*/
package transfer
