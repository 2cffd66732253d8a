// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package mcp implements the client side of the Model Context Protocol
"Streamable HTTP" binding as a transfer flavor for the swarm engine.

An mcp.Transfer sends one JSON-RPC 2.0 message over HTTP POST and
interprets the response in one of two modes decided from the response
headers: a buffered JSON body (one message or a batch), or a
text/event-stream whose data lines carry messages. Either way, each
message is delivered to the transfer's message hook:

	msg, _ := jsonrpc.NewRequest("tools/list", nil, nil)
	t, err := mcp.New("https://mcp.example.com/", msg)
	...
	t.SetOnMessage(func(m *jsonrpc.Message, s transfer.Scheduler) bool {
		...
		return true
	})

EnableAutoInitialize arms the session bootstrap protocol: when the
transfer is submitted without a session id, the engine first runs an
initialize exchange and an initialized notification, capturing the
server-assigned Mcp-Session-Id and propagating it to the main
transfer. When a session id is already present, an internal error
handler transparently re-initializes once if the server reports the
session invalid (HTTP 404 or a "no valid session" body).
*/
package mcp
