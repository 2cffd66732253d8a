// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transfer

// An Option identifies a backend option in a transfer's option table.
// Options are passed through to the engine's HTTP backend when the
// transfer is scheduled. The engine ignores options it does not
// recognize.
type Option int

const (
	// OptURL is the request URL (string). Kept in sync with the
	// transfer's URL field by SetURL.
	OptURL Option = iota
	// OptPost marks the transfer as a POST (bool).
	OptPost
	// OptPostFields is the request body ([]byte). Sent even for a
	// custom GET request method.
	OptPostFields
	// OptCustomRequest overrides the request method string (string).
	OptCustomRequest
	// OptHTTPHeader is the aggregate header list ([]string of
	// "name: value" lines). Managed by the HTTP transfer's header
	// table.
	OptHTTPHeader
	// OptTimeoutMS is the total transfer timeout in milliseconds
	// (int64). Kept in sync by SetTotalTimeout.
	OptTimeoutMS
	// OptConnectTimeoutMS is the connection timeout in milliseconds
	// (int64). Kept in sync by SetConnectTimeout.
	OptConnectTimeoutMS
	// OptFollowLocation enables following redirect responses (bool).
	OptFollowLocation
	// OptMaxRedirs caps the number of redirects followed (int).
	OptMaxRedirs
	// OptCookieJar names a cookie jar shared by transfers using the
	// same name (string).
	OptCookieJar
	// OptHTTPVersion selects the HTTP protocol version (HTTPVersion).
	OptHTTPVersion
	// OptUserPwd supplies basic-auth credentials as "user:password"
	// (string).
	OptUserPwd
	// OptSSLVerifyPeer controls TLS certificate chain verification
	// (bool).
	OptSSLVerifyPeer
	// OptSSLVerifyHost controls TLS host name verification (bool).
	OptSSLVerifyHost
	// OptProxy is the proxy URL (string).
	OptProxy
	// OptProxyUserPwd supplies proxy credentials as "user:password"
	// (string).
	OptProxyUserPwd
	// OptVerbose enables per-transfer logging through the engine's
	// logger (bool).
	OptVerbose
	// OptForbidReuse prevents reuse of the connection after the
	// transfer completes (bool).
	OptForbidReuse
	// OptFreshConnect forces a new connection for the transfer (bool).
	OptFreshConnect
	// OptFailOnError converts completions with HTTP status >= 400 into
	// error-hook deliveries (bool).
	OptFailOnError
)

// An HTTPVersion is a value for the OptHTTPVersion option.
type HTTPVersion int

const (
	// VersionDefault lets the backend negotiate the protocol version.
	VersionDefault HTTPVersion = iota
	// Version11 restricts the transfer to HTTP/1.1.
	Version11
	// Version2 requests HTTP/2 over TLS.
	Version2
)
