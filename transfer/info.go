// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"net/http"
	"time"
)

// An Info block describes the observable outcome of a completed
// transfer: the final response metadata plus the timing and size
// measurements the backend collected while driving it.
//
// An Info is delivered to the ready hook on success and to the error
// hook on failure. On failure the fields describing the response
// (StatusCode, ContentType, Header) are zero valued if the failure
// occurred before a response arrived.
type Info struct {
	// URL is the effective URL of the transfer after any redirects
	// were followed.
	URL string

	// StatusCode is the HTTP status code of the final response, or
	// zero if no response was received.
	StatusCode int

	// ContentType is the Content-Type header of the final response.
	ContentType string

	// Header contains the final response headers. It is nil if no
	// response was received.
	Header http.Header

	// NameLookup is the time taken to resolve the host name.
	NameLookup time.Duration

	// Connect is the time from transfer start until the TCP connection
	// to the remote host was established. Zero if the connection was
	// reused or never established.
	Connect time.Duration

	// AppConnect is the time from transfer start until the TLS
	// handshake completed. Zero for cleartext transfers.
	AppConnect time.Duration

	// Pretransfer is the time from transfer start until the request
	// was fully written.
	Pretransfer time.Duration

	// StartTransfer is the time from transfer start until the first
	// response byte arrived.
	StartTransfer time.Duration

	// Total is the total duration of the transfer.
	Total time.Duration

	// SizeDownload is the number of response body bytes received.
	SizeDownload int64
}

// A TimeoutKind distinguishes the phase of the transfer in which a
// timeout occurred.
type TimeoutKind int

const (
	// ConnectionTimeout indicates the transfer timed out before a
	// connection to the remote host was established.
	ConnectionTimeout TimeoutKind = iota
	// TotalTimeout indicates the transfer connected and sent its
	// request but timed out before completing.
	TotalTimeout
)

var timeoutKindNames = []string{
	"ConnectionTimeout",
	"TotalTimeout",
}

// String returns the name of the timeout kind.
func (k TimeoutKind) String() string {
	if int(k) < len(timeoutKindNames) {
		return timeoutKindNames[k]
	}
	return "TimeoutKind(?)"
}

// An ErrorCode is the backend-native classification of a transfer
// failure, delivered alongside the error message to the error hook.
type ErrorCode int

const (
	// CodeUnknown covers failures no more specific code describes.
	CodeUnknown ErrorCode = iota
	// CodeResolveHost indicates the remote host name did not resolve.
	CodeResolveHost
	// CodeConnect indicates the connection to the remote host failed
	// or was refused.
	CodeConnect
	// CodeTLSHandshake indicates the TLS handshake failed, including
	// certificate verification failures.
	CodeTLSHandshake
	// CodeTimedOut indicates the transfer timed out. Timeouts are
	// normally delivered to the timeout hook rather than the error
	// hook; the code exists for Info-level reporting.
	CodeTimedOut
	// CodeRecv indicates the connection failed while receiving the
	// response, for example a mid-body connection reset.
	CodeRecv
	// CodeHTTPReturnedError indicates the response carried an HTTP
	// status >= 400 and either the fail-on-error option was set or a
	// transfer flavor reported the status as a failure (the mcp package
	// does so for every status >= 400).
	CodeHTTPReturnedError
	// CodeTooManyRedirects indicates the redirect limit was exceeded.
	CodeTooManyRedirects
	// CodeCanceled indicates the transfer was canceled by the engine's
	// run context.
	CodeCanceled
)

var errorCodeNames = []string{
	"CodeUnknown",
	"CodeResolveHost",
	"CodeConnect",
	"CodeTLSHandshake",
	"CodeTimedOut",
	"CodeRecv",
	"CodeHTTPReturnedError",
	"CodeTooManyRedirects",
	"CodeCanceled",
}

// String returns the name of the error code.
func (c ErrorCode) String() string {
	if int(c) < len(errorCodeNames) {
		return errorCodeNames[c]
	}
	return "ErrorCode(?)"
}
