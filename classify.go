// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package swarm

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/gogama/swarm/transfer"
	"github.com/gogama/swarm/transient"
)

// describeError maps a completion error onto the message and
// backend-native code delivered to the error hook.
func describeError(err error) (string, transfer.ErrorCode) {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("HTTP returned error: status %d", statusErr.status), transfer.CodeHTTPReturnedError
	}

	if code, ok := tlsFailure(err); ok {
		return fmt.Sprintf("TLS connect error: %v", err), code
	}

	switch transient.Categorize(err) {
	case transient.DNSFailure:
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.Name != "" {
			return fmt.Sprintf("could not resolve host %q: %v", dnsErr.Name, err), transfer.CodeResolveHost
		}
		return fmt.Sprintf("could not resolve host: %v", err), transfer.CodeResolveHost
	case transient.ConnRefused:
		return fmt.Sprintf("failed to connect: %v", err), transfer.CodeConnect
	case transient.ConnReset:
		return fmt.Sprintf("connection reset while receiving: %v", err), transfer.CodeRecv
	case transient.Canceled:
		return fmt.Sprintf("transfer canceled: %v", err), transfer.CodeCanceled
	case transient.Timeout:
		return fmt.Sprintf("transfer timed out: %v", err), transfer.CodeTimedOut
	}

	if strings.Contains(err.Error(), "redirects") {
		return err.Error(), transfer.CodeTooManyRedirects
	}
	return err.Error(), transfer.CodeUnknown
}

func tlsFailure(err error) (transfer.ErrorCode, bool) {
	var (
		recordErr  tls.RecordHeaderError
		verifyErr  *tls.CertificateVerificationError
		authErr    x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
	)
	if errors.As(err, &recordErr) || errors.As(err, &verifyErr) ||
		errors.As(err, &authErr) || errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr) {
		return transfer.CodeTLSHandshake, true
	}
	return 0, false
}
