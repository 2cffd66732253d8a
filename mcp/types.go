// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	json "github.com/goccy/go-json"

	"github.com/gogama/swarm/jsonrpc"
)

// ProtocolVersion is the MCP protocol version this package speaks.
const ProtocolVersion = "2025-06-18"

// A ClientInfo identifies the client implementation in the initialize
// request.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

var defaultClientInfo = ClientInfo{Name: "swarm", Version: "1.0"}

// An Object is a JSON object value. Unlike a plain map, a nil or empty
// Object serializes as {} rather than null, which the MCP wire format
// requires for empty capability fields.
type Object map[string]interface{}

// MarshalJSON implements json.Marshaler.
func (o Object) MarshalJSON() ([]byte, error) {
	if len(o) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]interface{}(o))
}

// Capabilities declares the client capabilities sent in the initialize
// request. Every field is an object on the wire; unset fields
// serialize as empty objects.
type Capabilities struct {
	Experimental Object `json:"experimental"`
	Sampling     Object `json:"sampling"`
	Logging      Object `json:"logging"`
	Completions  Object `json:"completions"`
	Roots        Object `json:"roots"`
	Prompts      Object `json:"prompts"`
	Resources    Object `json:"resources"`
	Tools        Object `json:"tools"`
	Elicitation  Object `json:"elicitation"`
}

// MarshalJSON implements json.Marshaler, writing every unset field as
// an empty object.
func (c Capabilities) MarshalJSON() ([]byte, error) {
	type plain Capabilities
	p := plain(c)
	for _, f := range []*Object{&p.Experimental, &p.Sampling, &p.Logging, &p.Completions,
		&p.Roots, &p.Prompts, &p.Resources, &p.Tools, &p.Elicitation} {
		if *f == nil {
			*f = Object{}
		}
	}
	return json.Marshal(p)
}

type initializeParams struct {
	ProtocolVersion string        `json:"protocolVersion"`
	Capabilities    *Capabilities `json:"capabilities"`
	ClientInfo      *ClientInfo   `json:"clientInfo"`
}

// NewInitializeRequest returns an initialize request carrying the
// given client info and capabilities. A nil clientInfo substitutes a
// default identity; nil capabilities declare none (all empty objects).
func NewInitializeRequest(clientInfo *ClientInfo, caps *Capabilities) (*jsonrpc.Message, error) {
	if clientInfo == nil {
		ci := defaultClientInfo
		clientInfo = &ci
	}
	if caps == nil {
		caps = &Capabilities{}
	}
	return jsonrpc.NewRequest("initialize", &initializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    caps,
		ClientInfo:      clientInfo,
	}, nil)
}

// NewInitializedNotification returns the notifications/initialized
// message that acknowledges a completed initialize exchange.
func NewInitializedNotification() (*jsonrpc.Message, error) {
	return jsonrpc.NewNotification("notifications/initialized", nil)
}
