// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"fmt"
	"sort"
	"strings"
)

// An HTTP transfer specializes Transfer with a validated request
// method, an encoded request body, and a case-folded header table.
//
// The header table stores names lower-cased and keeps the aggregate
// OptHTTPHeader option in sync on every mutation. The method and body
// are likewise mirrored into the option table (OptPost, OptPostFields,
// OptCustomRequest) so the engine realizes the request purely from
// options.
type HTTP struct {
	Transfer
	method      string
	body        []byte
	contentType string
	headers     map[string]string
}

// NewHTTP returns a new HTTP transfer. The method must be GET or POST;
// an empty method means GET. The body parameter accepts the types
// documented on EncodeBody; mapping bodies are encoded according to
// contentType, defaulting to JSON. A non-empty contentType installs a
// Content-Type header.
func NewHTTP(method, url string, body interface{}, contentType string) (*HTTP, error) {
	h := &HTTP{
		Transfer: *New(url),
		method:   "GET",
		headers:  make(map[string]string),
	}
	if err := h.SetMethod(method); err != nil {
		return nil, err
	}
	if err := h.SetBody(body, contentType); err != nil {
		return nil, err
	}
	return h, nil
}

// Method returns the transfer's request method.
func (h *HTTP) Method() string {
	return h.method
}

// SetMethod changes the request method. Only GET and POST are
// accepted; an empty method means GET.
func (h *HTTP) SetMethod(method string) error {
	switch strings.ToUpper(method) {
	case "", "GET":
		h.method = "GET"
	case "POST":
		h.method = "POST"
	default:
		return fmt.Errorf("swarm/transfer: invalid method %q", method)
	}
	h.syncBodyOptions()
	return nil
}

// Body returns the encoded request body, or nil.
func (h *HTTP) Body() []byte {
	return h.body
}

// ContentType returns the body content type, or "".
func (h *HTTP) ContentType() string {
	return h.contentType
}

// SetBody replaces the request body. The body parameter accepts the
// types documented on EncodeBody. A non-empty contentType installs a
// Content-Type header; an empty contentType leaves any existing
// Content-Type header untouched.
func (h *HTTP) SetBody(body interface{}, contentType string) error {
	b, err := EncodeBody(body, contentType)
	if err != nil {
		return err
	}
	h.body = b
	if contentType != "" {
		h.SetContentType(contentType)
	}
	h.syncBodyOptions()
	return nil
}

// SetContentType records the body content type and installs the
// corresponding Content-Type header. An empty ct removes the header.
func (h *HTTP) SetContentType(ct string) {
	h.contentType = ct
	h.SetHeader("content-type", ct)
}

// syncBodyOptions composes the method and body into backend options:
// POST sets the post flag and moves the body into the post-fields
// option; GET with a non-empty body sets the custom-request method to
// GET and also places the body into the post-fields option.
func (h *HTTP) syncBodyOptions() {
	if h.method == "POST" {
		h.opts[OptPost] = true
		delete(h.opts, OptCustomRequest)
		if len(h.body) > 0 {
			h.opts[OptPostFields] = h.body
		} else {
			delete(h.opts, OptPostFields)
		}
		return
	}
	delete(h.opts, OptPost)
	if len(h.body) > 0 {
		h.opts[OptCustomRequest] = "GET"
		h.opts[OptPostFields] = h.body
	} else {
		delete(h.opts, OptCustomRequest)
		delete(h.opts, OptPostFields)
	}
}

// SetHeader sets a request header. Names are case-insensitive and
// stored lower-cased; each name holds a single value. Setting an empty
// value removes the header. Every mutation re-pushes the aggregate
// header option.
func (h *HTTP) SetHeader(name, value string) {
	name = strings.ToLower(name)
	if value == "" {
		delete(h.headers, name)
	} else {
		h.headers[name] = value
	}
	h.pushHeaders()
}

// Header returns the value of the named header and whether it is set.
// The name is case-insensitive.
func (h *HTTP) Header(name string) (string, bool) {
	v, ok := h.headers[strings.ToLower(name)]
	return v, ok
}

// Headers returns a copy of the header table with lower-cased names.
func (h *HTTP) Headers() map[string]string {
	m := make(map[string]string, len(h.headers))
	for k, v := range h.headers {
		m[k] = v
	}
	return m
}

// pushHeaders serializes the header table as "<lower-name>: <value>"
// lines, in name order, into the OptHTTPHeader option.
func (h *HTTP) pushHeaders() {
	if len(h.headers) == 0 {
		delete(h.opts, OptHTTPHeader)
		return
	}
	names := make([]string, 0, len(h.headers))
	for name := range h.headers {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = name + ": " + h.headers[name]
	}
	h.opts[OptHTTPHeader] = lines
}

// SetBasicAuth configures HTTP basic authentication through the
// user-password option.
func (h *HTTP) SetBasicAuth(username, password string) {
	h.opts[OptUserPwd] = username + ":" + password
}

// SetBearerToken installs an Authorization header carrying the given
// bearer token. An empty token removes the header.
func (h *HTTP) SetBearerToken(token string) {
	if token == "" {
		h.SetHeader("authorization", "")
		return
	}
	h.SetHeader("authorization", "Bearer "+token)
}

// SetFollowRedirects controls whether the backend follows redirect
// responses for this transfer.
func (h *HTTP) SetFollowRedirects(follow bool) {
	h.opts[OptFollowLocation] = follow
}

// SetMaxRedirects caps the number of redirects followed. A
// non-positive n clears the cap.
func (h *HTTP) SetMaxRedirects(n int) {
	if n <= 0 {
		delete(h.opts, OptMaxRedirs)
		return
	}
	h.opts[OptMaxRedirs] = n
}

// Clone returns a copy of the transfer representing a fresh outgoing
// request. The URL, headers, timeouts, and remaining options are
// copied; the body, any method override, and the post and
// custom-request options are dropped, and the per-attempt state and
// hooks are reset as for Transfer.Clone.
func (h *HTTP) Clone() *HTTP {
	c := &HTTP{
		Transfer: *h.Transfer.Clone(),
		method:   "GET",
		headers:  make(map[string]string, len(h.headers)),
	}
	for k, v := range h.headers {
		c.headers[k] = v
	}
	delete(c.opts, OptPost)
	delete(c.opts, OptPostFields)
	delete(c.opts, OptCustomRequest)
	return c
}
