// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package jsonrpc provides the JSON-RPC 2.0 message value type used by
the MCP transfer flavor.

A Message is one of four kinds: request, notification, response, or
error. Factories construct well-formed messages, auto-assigning
monotonic request identifiers when the caller supplies none:

	msg, err := jsonrpc.NewRequest("tools/list", nil, nil)

Params and results are held as raw JSON so that arbitrary payloads,
including metadata under a _meta key, survive a round-trip unchanged.
Empty request params serialize as an empty object rather than an empty
array.
*/
package jsonrpc
