// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// A Category is the failure category of a transfer error, as reported
// by Categorize. The engine maps categories onto the error codes and
// timeout kinds it delivers to transfer hooks.
type Category int

const (
	// Not indicates a nil error, or an error no other category
	// describes.
	Not Category = iota
	// Timeout indicates a client-side timeout. Categorize returns
	// Timeout if the first error in the chain (the error itself or a
	// wrapped cause) that has a Timeout() function reports true, or if
	// the chain contains context.DeadlineExceeded. Causes wrapped
	// beneath that first Timeout() error are not consulted for it.
	Timeout
	// Canceled indicates the operation's context was canceled before
	// it completed.
	Canceled
	// DNSFailure indicates the remote host name could not be
	// resolved.
	DNSFailure
	// ConnRefused indicates the remote host refused the connection,
	// corresponding to the POSIX error code ECONNREFUSED.
	ConnRefused
	// ConnReset indicates the remote host reset a previously active
	// TCP connection, corresponding to the POSIX error code
	// ECONNRESET.
	ConnReset
)

// Categorize returns the failure category of the given error, walking
// wrapped causes with errors.As and errors.Is. A nil error produces
// Not.
//
// Timeouts are checked first: an error that both times out and wraps a
// DNS or connection failure is categorized as Timeout, since the
// enclosing deadline is what ended the operation. Categorize never
// consults Temporary(), as its semantics are not well defined.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	if errors.Is(err, context.Canceled) {
		return Canceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return DNSFailure
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if errno == syscall.ECONNRESET {
			return ConnReset
		} else if errno == syscall.ECONNREFUSED {
			return ConnRefused
		}
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
