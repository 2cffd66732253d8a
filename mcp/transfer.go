// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/elnormous/contenttype"
	json "github.com/goccy/go-json"

	"github.com/gogama/swarm/jsonrpc"
	"github.com/gogama/swarm/sse"
	"github.com/gogama/swarm/streambuf"
	"github.com/gogama/swarm/transfer"
)

const (
	sessionIDHeader         = "mcp-session-id"
	lastEventIDHeader       = "last-event-id"
	resourceIndicatorHeader = "resource-indicator"
)

var eventStreamType = contenttype.NewMediaType("text/event-stream")

var invalidSessionRe = regexp.MustCompile(`(?i)session.*?(not found|expired)|no valid session`)

// A MessageFunc observes each JSON-RPC message delivered by an MCP
// response, whether buffered or streamed. Returning false stops
// processing: remaining messages in a buffered batch are dropped, and
// a streaming response is aborted.
type MessageFunc func(msg *jsonrpc.Message, s transfer.Scheduler) bool

// A Transfer sends a single JSON-RPC message over HTTP and interprets
// the response as either buffered JSON or a Server-Sent Event stream,
// decided from the response headers. See the package documentation for
// the mode rules and the automatic initialization protocol.
type Transfer struct {
	transfer.HTTP
	parser          sse.Parser
	msg             *jsonrpc.Message
	sessionID       string
	lastEventID     string
	respContentType string
	httpStatus      int
	initTransfer    *Transfer
	onMessage       MessageFunc
	userError       transfer.ErrorFunc
	reinitDone      bool
}

// New returns a new MCP transfer for the given endpoint, carrying msg
// as its body. A nil msg leaves the body unset until SetRPCMessage is
// called.
func New(url string, msg *jsonrpc.Message) (*Transfer, error) {
	h, err := transfer.NewHTTP("POST", url, nil, "application/json")
	if err != nil {
		return nil, err
	}
	t := &Transfer{HTTP: *h}
	t.HTTP.SetHeader("accept", "application/json, text/event-stream")
	t.install()
	if msg != nil {
		if err := t.SetRPCMessage(msg); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// install binds the transfer's internal hooks onto the embedded base.
// It must be re-run whenever the embedded base is replaced wholesale,
// as Clone does.
func (t *Transfer) install() {
	t.HTTP.SetOnHeaders(t.headerHook)
	t.HTTP.SetOnStream(t.streamHook)
	t.HTTP.SetOnReady(t.readyHook)
	t.HTTP.Transfer.SetOnError(t.errorHook)
	t.HTTP.SetOnSubmit(t.submitHook)
	t.HTTP.SetStreamable(true)
}

func (t *Transfer) base() *transfer.Transfer {
	return &t.HTTP.Transfer
}

// RPCMessage returns the JSON-RPC message this transfer sends, or nil.
func (t *Transfer) RPCMessage() *jsonrpc.Message {
	return t.msg
}

// SetRPCMessage replaces the JSON-RPC message this transfer sends,
// re-serializing the request body.
func (t *Transfer) SetRPCMessage(msg *jsonrpc.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("swarm/mcp: cannot serialize message: %w", err)
	}
	if err := t.SetBody(data, "application/json"); err != nil {
		return err
	}
	t.msg = msg
	return nil
}

// SessionID returns the MCP session identifier, or "".
func (t *Transfer) SessionID() string {
	return t.sessionID
}

// SetSessionID sets the MCP session identifier, keeping the
// Mcp-Session-Id request header in sync. An empty id removes the
// header.
func (t *Transfer) SetSessionID(id string) {
	t.sessionID = id
	t.SetHeader(sessionIDHeader, id)
}

// LastEventID returns the identifier of the last Server-Sent Event
// observed on this transfer, or the value installed with
// SetLastEventID.
func (t *Transfer) LastEventID() string {
	return t.lastEventID
}

// SetLastEventID installs a Last-Event-ID header so the server can
// resume an interrupted stream. An empty id removes the header.
func (t *Transfer) SetLastEventID(id string) {
	t.lastEventID = id
	t.SetHeader(lastEventIDHeader, id)
}

// SetResourceIndicator installs a Resource-Indicator header (RFC 8707)
// naming the protected resource the request is for.
func (t *Transfer) SetResourceIndicator(uri string) {
	t.SetHeader(resourceIndicatorHeader, uri)
}

// ResponseContentType returns the Content-Type of the most recent
// response, or "".
func (t *Transfer) ResponseContentType() string {
	return t.respContentType
}

// HTTPStatus returns the status code of the most recent response, or
// zero.
func (t *Transfer) HTTPStatus() int {
	return t.httpStatus
}

// InitializeTransfer returns the transfer carrying the automatic
// initialize request, or nil if EnableAutoInitialize has not been
// called.
func (t *Transfer) InitializeTransfer() *Transfer {
	return t.initTransfer
}

// SetOnMessage installs the hook observing delivered JSON-RPC
// messages.
func (t *Transfer) SetOnMessage(f MessageFunc) {
	t.onMessage = f
}

// SetOnError installs the hook observing transport and HTTP failures.
// When automatic initialization is armed, the internal invalid-session
// handler runs first and may consume the failure.
func (t *Transfer) SetOnError(f transfer.ErrorFunc) {
	t.userError = f
}

// SetHeader sets a request header, mirroring the mutation to the
// initialize transfer if one is armed.
//
// Only mutations made through this method, SetOption, and the methods
// built on them (SetSessionID, SetLastEventID, SetResourceIndicator)
// are mirrored. Helpers promoted from the embedded transfer.HTTP, such
// as SetBearerToken, SetBasicAuth, SetContentType, SetFollowRedirects,
// and the timeout setters, change this transfer only.
func (t *Transfer) SetHeader(name, value string) {
	t.HTTP.SetHeader(name, value)
	if t.initTransfer != nil {
		t.initTransfer.SetHeader(name, value)
	}
}

// SetOption sets a backend option, mirroring the mutation to the
// initialize transfer if one is armed. The aggregate header option is
// not mirrored through the option path; header mirroring happens in
// SetHeader so the aggregate is not applied twice.
func (t *Transfer) SetOption(o transfer.Option, v interface{}) {
	t.HTTP.SetOption(o, v)
	if t.initTransfer != nil && o != transfer.OptHTTPHeader {
		t.initTransfer.SetOption(o, v)
	}
}

// Clone returns a fresh MCP transfer with the same endpoint, headers,
// options, and session state, no body, and no application hooks.
func (t *Transfer) Clone() *Transfer {
	c := &Transfer{HTTP: *t.HTTP.Clone()}
	c.sessionID = t.sessionID
	c.lastEventID = t.lastEventID
	_ = c.HTTP.SetMethod("POST")
	c.install()
	return c
}

// headerHook records the final response status and content type and
// decides the response mode: streaming when the content type begins
// with text/event-stream and the status is below 400, buffered
// otherwise. It also captures a server-assigned session id.
func (t *Transfer) headerHook(status int, header http.Header) {
	t.httpStatus = status
	t.respContentType = header.Get("Content-Type")
	if sid := header.Get("Mcp-Session-Id"); sid != "" {
		t.SetSessionID(sid)
	}
	t.SetStreamable(status < 400 && t.eventStream())
}

func (t *Transfer) eventStream() bool {
	if t.respContentType == "" {
		return false
	}
	mt := contenttype.NewMediaType(t.respContentType)
	return mt.Type == eventStreamType.Type && mt.Subtype == eventStreamType.Subtype
}

// streamHook parses Server-Sent Event frames from the stream buffer
// and delivers each frame carrying data as a JSON-RPC message.
func (t *Transfer) streamHook(buf *streambuf.Buffer, s transfer.Scheduler) bool {
	return t.parser.Feed(buf, func(ev sse.Event) bool {
		if ev.LastID != "" {
			t.lastEventID = ev.LastID
		}
		if ev.Data == "" {
			return true
		}
		msg, err := jsonrpc.Decode([]byte(ev.Data))
		if err != nil {
			t.raise(fmt.Errorf("swarm/mcp: invalid message in event stream: %w", err), s)
			return true
		}
		return t.deliver(msg, s)
	})
}

// readyHook handles buffered-mode completion: an HTTP failure status
// synthesizes an error-hook delivery; otherwise the body is framed as
// one message or a batch and dispatched in order.
func (t *Transfer) readyHook(info *transfer.Info, body *streambuf.Buffer, s transfer.Scheduler) {
	if info.StatusCode >= 400 {
		t.errorHook(fmt.Sprintf("swarm/mcp: HTTP returned error: status %d", info.StatusCode),
			transfer.CodeHTTPReturnedError, info, s)
		return
	}
	t.reinitDone = false
	if t.Streamable() {
		// Streaming mode: events were delivered as they arrived.
		return
	}
	if body.Len() == 0 {
		return
	}
	msgs, err := jsonrpc.DecodeBatch(body.Peek())
	if err != nil {
		t.raise(fmt.Errorf("swarm/mcp: invalid response body: %w", err), s)
		return
	}
	for _, m := range msgs {
		if !t.deliver(m, s) {
			break
		}
	}
}

func (t *Transfer) deliver(msg *jsonrpc.Message, s transfer.Scheduler) bool {
	if t.onMessage == nil {
		return true
	}
	return t.onMessage(msg, s)
}

// errorHook runs the internal invalid-session handler before the
// application's error hook.
func (t *Transfer) errorHook(msg string, code transfer.ErrorCode, info *transfer.Info, s transfer.Scheduler) {
	if t.handleInvalidSession(info, s) {
		return
	}
	if t.userError != nil {
		t.userError(msg, code, info, s)
	}
}

// handleInvalidSession recovers from a server that no longer knows the
// transfer's session: HTTP 404, or a body reporting the session
// missing or expired. Recovery clears the session id, prepends the
// initialize transfer, and re-enqueues this transfer — at most once
// until a completion succeeds.
func (t *Transfer) handleInvalidSession(info *transfer.Info, s transfer.Scheduler) bool {
	if t.initTransfer == nil || t.reinitDone {
		return false
	}
	status := 0
	if info != nil {
		status = info.StatusCode
	}
	if status != 404 && !invalidSessionRe.Match(t.Buffer().Peek()) {
		return false
	}
	t.reinitDone = true
	t.SetSessionID("")
	t.base().SetBefore(t.initTransfer.base(), false)
	s.Submit(t.base())
	return true
}

// submitHook resets the per-response state for a fresh attempt and,
// when automatic initialization is armed and no session is
// established, prepends the initialize transfer.
func (t *Transfer) submitHook(s transfer.Scheduler) {
	t.httpStatus = 0
	t.respContentType = ""
	t.parser = sse.Parser{}
	t.SetStreamable(true)
	if t.initTransfer == nil {
		return
	}
	if t.sessionID == "" && t.base().Before() == nil {
		t.base().SetBefore(t.initTransfer.base(), false)
	}
}

// raise routes an internal failure to the exception hook, or
// propagates it when none is installed.
func (t *Transfer) raise(err error, s transfer.Scheduler) {
	if f := t.base().ExceptionHook(); f != nil {
		f(err, t.base(), s)
		return
	}
	panic(err)
}
