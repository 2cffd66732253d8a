// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"fmt"
	"time"

	"github.com/gogama/swarm/jsonrpc"
	"github.com/gogama/swarm/transfer"
)

// EnableAutoInitialize arms the automatic session bootstrap protocol
// on the transfer.
//
// A clone of the transfer is built carrying an initialize request with
// the given client info and capabilities (nil values substitute
// defaults). When the main transfer is submitted without a session id,
// the engine runs the chain initialize → notifications/initialized →
// main transfer, capturing the server-assigned Mcp-Session-Id from the
// initialize response and propagating it along the chain. When the
// main transfer is submitted with a session id, an internal error
// handler instead watches for the server reporting the session invalid
// (HTTP 404 or a "no valid session" body) and transparently
// re-initializes once, resubmitting the main transfer.
//
// If the initialize response is a JSON-RPC error, the failure is
// raised as an initialization error through the main transfer's
// exception hook. Transport errors and timeouts on the initialize
// exchange forward to the main transfer's corresponding hooks.
//
// onInitialized, if non-nil, is invoked with the captured session id
// when the initialize exchange succeeds.
func (t *Transfer) EnableAutoInitialize(clientInfo *ClientInfo, caps *Capabilities, onInitialized func(sessionID string)) error {
	msg, err := NewInitializeRequest(clientInfo, caps)
	if err != nil {
		return err
	}
	init := t.Clone()
	if err := init.SetRPCMessage(msg); err != nil {
		return err
	}
	init.SetOnMessage(func(m *jsonrpc.Message, s transfer.Scheduler) bool {
		return t.initResponse(init, m, s, onInitialized)
	})
	init.SetOnError(func(msg string, code transfer.ErrorCode, info *transfer.Info, s transfer.Scheduler) {
		if t.userError != nil {
			t.userError(msg, code, info, s)
		}
	})
	init.base().SetOnTimeout(func(kind transfer.TimeoutKind, elapsed time.Duration, s transfer.Scheduler) {
		if f := t.base().TimeoutHook(); f != nil {
			f(kind, elapsed, s)
		}
	})
	init.base().SetOnException(func(err error, _ *transfer.Transfer, s transfer.Scheduler) {
		if f := t.base().ExceptionHook(); f != nil {
			f(err, t.base(), s)
			return
		}
		panic(err)
	})
	t.initTransfer = init
	return nil
}

// initResponse handles a message delivered on the initialize transfer.
func (t *Transfer) initResponse(init *Transfer, m *jsonrpc.Message, s transfer.Scheduler, onInitialized func(string)) bool {
	if m.Kind() == jsonrpc.KindError {
		t.raise(fmt.Errorf("MCP initialization error: %s (Code: %d)", m.Err.Message, m.Err.Code), s)
		return false
	}
	if m.Kind() != jsonrpc.KindResponse || init.msg == nil || !m.ID.Equal(init.msg.ID) {
		return true
	}
	sid := init.sessionID
	if sid != "" {
		t.SetSessionID(sid)
	}
	if onInitialized != nil {
		onInitialized(sid)
	}
	notify := init.Clone()
	nmsg, err := NewInitializedNotification()
	if err == nil {
		err = notify.SetRPCMessage(nmsg)
	}
	if err != nil {
		t.raise(fmt.Errorf("MCP initialization error: %v", err), s)
		return false
	}
	notify.base().AppendNext(t.base())
	init.base().AppendNext(notify.base())
	// Close the initialize connection; the engine treats the abort as
	// a completed transfer and runs the chained follow-ups.
	return false
}
