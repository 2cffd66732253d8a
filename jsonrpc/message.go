// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package jsonrpc

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// Version is the JSON-RPC protocol version carried by every message.
const Version = "2.0"

var emptyObject = json.RawMessage("{}")

// A Kind identifies which of the four JSON-RPC message forms a Message
// takes.
type Kind int

const (
	// KindRequest is a call carrying a method and an id.
	KindRequest Kind = iota
	// KindNotification is a call carrying a method but no id.
	KindNotification
	// KindResponse is a successful reply carrying a result.
	KindResponse
	// KindError is a failed reply carrying an error object.
	KindError
)

var kindNames = []string{"request", "notification", "response", "error"}

// String returns the name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// An Error is a JSON-RPC error object.
type Error struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("swarm/jsonrpc: %s (Code: %d)", e.Message, e.Code)
}

// A Message is a single JSON-RPC 2.0 value: a request, notification,
// response, or error. Params and Result hold raw JSON so arbitrary
// payloads survive a round-trip unchanged.
//
// Construct messages with the factory functions rather than literally,
// so that structural invariants hold and request ids are assigned.
type Message struct {
	// Method names the called procedure. Non-empty exactly for
	// requests and notifications.
	Method string
	// Params is the raw call payload. Empty params serialize as {}.
	Params json.RawMessage
	// Result is the raw reply payload of a successful response.
	Result json.RawMessage
	// Err is the error object of a failed response.
	Err *Error
	// ID identifies the request this message makes or answers. Nil for
	// notifications.
	ID *ID
}

// NewRequest returns a request message. If id is nil an identifier is
// auto-assigned from the monotonic counter. The params value is
// serialized immediately; a nil params serializes as an empty object.
func NewRequest(method string, params interface{}, id *ID) (*Message, error) {
	if method == "" {
		return nil, errors.New("swarm/jsonrpc: empty method")
	}
	raw, err := marshalPayload(params)
	if err != nil {
		return nil, err
	}
	if id == nil {
		id = NextID()
	}
	return &Message{Method: method, Params: raw, ID: id}, nil
}

// NewNotification returns a notification message. The params value is
// serialized immediately; a nil params serializes as an empty object.
func NewNotification(method string, params interface{}) (*Message, error) {
	if method == "" {
		return nil, errors.New("swarm/jsonrpc: empty method")
	}
	raw, err := marshalPayload(params)
	if err != nil {
		return nil, err
	}
	return &Message{Method: method, Params: raw}, nil
}

// NewResponse returns a successful response message answering id.
func NewResponse(id *ID, result interface{}) (*Message, error) {
	raw, err := marshalPayload(result)
	if err != nil {
		return nil, err
	}
	return &Message{Result: raw, ID: id}, nil
}

// NewError returns an error response message answering id. A nil data
// omits the error's data member.
func NewError(id *ID, code int64, message string, data interface{}) (*Message, error) {
	e := &Error{Code: code, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("swarm/jsonrpc: cannot marshal error data: %w", err)
		}
		e.Data = raw
	}
	return &Message{Err: e, ID: id}, nil
}

func marshalPayload(v interface{}) (json.RawMessage, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return x, nil
	case []byte:
		return json.RawMessage(x), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("swarm/jsonrpc: cannot marshal payload: %w", err)
	}
	return raw, nil
}

// Kind returns which of the four message forms m takes.
func (m *Message) Kind() Kind {
	if m.Method != "" {
		if m.ID == nil {
			return KindNotification
		}
		return KindRequest
	}
	if m.Err != nil {
		return KindError
	}
	return KindResponse
}

type wireMessage struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method,omitempty"`
	Params         json.RawMessage `json:"params,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *ID             `json:"id,omitempty"`
}

// MarshalJSON implements json.Marshaler. Requests and notifications
// with empty params serialize with an empty params object; responses
// with an empty result serialize a null result.
func (m *Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{
		JSONRPCVersion: Version,
		Method:         m.Method,
		Error:          m.Err,
		ID:             m.ID,
	}
	if m.Method != "" {
		w.Params = m.Params
		if len(w.Params) == 0 {
			w.Params = emptyObject
		}
	} else if m.Err == nil {
		w.Result = m.Result
		if len(w.Result) == 0 {
			w.Result = json.RawMessage("null")
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler, enforcing JSON-RPC 2.0
// structure: the version must be "2.0", a message with a method must
// not carry a result or error, and a message without a method must
// carry exactly one of result and error.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("swarm/jsonrpc: invalid JSON: %w", err)
	}
	if w.JSONRPCVersion != Version {
		return fmt.Errorf("swarm/jsonrpc: invalid version: expected %q, got %q", Version, w.JSONRPCVersion)
	}
	hasResult := len(w.Result) > 0 && !bytes.Equal(w.Result, []byte("null"))
	if w.Method != "" {
		if hasResult || w.Error != nil {
			return errors.New("swarm/jsonrpc: request cannot carry result or error")
		}
	} else {
		if hasResult && w.Error != nil {
			return errors.New("swarm/jsonrpc: response cannot carry both result and error")
		}
		if len(w.Result) == 0 && w.Error == nil {
			return errors.New("swarm/jsonrpc: response must carry a result or error")
		}
	}
	m.Method = w.Method
	m.Params = w.Params
	m.Result = w.Result
	m.Err = w.Error
	m.ID = w.ID
	return nil
}

// Decode parses a single JSON-RPC message.
func Decode(data []byte) (*Message, error) {
	m := &Message{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeBatch parses a response body as either a single JSON-RPC
// message or a batch. The body is a batch exactly when its top-level
// JSON value is an array of objects; a single message whose result is
// an array is never treated as a batch.
func DecodeBatch(data []byte) ([]*Message, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] != '[' {
		m, err := Decode(trimmed)
		if err != nil {
			return nil, err
		}
		return []*Message{m}, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("swarm/jsonrpc: invalid batch: %w", err)
	}
	msgs := make([]*Message, 0, len(elems))
	for i, raw := range elems {
		e := bytes.TrimLeft(raw, " \t\r\n")
		if len(e) == 0 || e[0] != '{' {
			return nil, fmt.Errorf("swarm/jsonrpc: batch element %d is not an object", i)
		}
		m, err := Decode(e)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
