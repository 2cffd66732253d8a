// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

// deadlineErr reports Timeout() true regardless of what it wraps,
// mimicking net.Error timeouts.
type deadlineErr struct {
	cause error
}

func (e deadlineErr) Error() string { return "deadline elapsed" }
func (e deadlineErr) Timeout() bool { return true }
func (e deadlineErr) Unwrap() error { return e.cause }

// calmErr has a Timeout() method that reports false, so categorization
// must keep unwrapping past it.
type calmErr struct {
	cause error
}

func (e calmErr) Error() string { return "calm" }
func (e calmErr) Timeout() bool { return false }
func (e calmErr) Unwrap() error { return e.cause }

func TestCategorize(t *testing.T) {
	wrap := func(err error) error {
		return fmt.Errorf("attempt failed: %w", err)
	}
	cases := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, Not},
		{"plain", errors.New("foo"), Not},
		{"wrapped plain", wrap(errors.New("bar")), Not},
		{"etimedout", syscall.ETIMEDOUT, Timeout},
		{"timeout method", deadlineErr{}, Timeout},
		{"deadline exceeded", context.DeadlineExceeded, Timeout},
		{"url error around etimedout", &url.Error{Err: syscall.ETIMEDOUT}, Timeout},
		{"deeply wrapped timeout", wrap(wrap(deadlineErr{})), Timeout},
		{"timeout wins over cause", deadlineErr{cause: syscall.ECONNREFUSED}, Timeout},
		{"dns timeout", &net.DNSError{Err: "i/o timeout", IsTimeout: true}, Timeout},
		{"canceled", context.Canceled, Canceled},
		{"url error around canceled", &url.Error{Err: context.Canceled}, Canceled},
		{"dns not found", &net.DNSError{Err: "no such host", Name: "x.invalid", IsNotFound: true}, DNSFailure},
		{"wrapped dns failure", wrap(&url.Error{Err: &net.DNSError{Err: "no such host"}}), DNSFailure},
		{"econnreset", syscall.ECONNRESET, ConnReset},
		{"reset past calm timeout", calmErr{cause: syscall.ECONNRESET}, ConnReset},
		{"econnrefused", syscall.ECONNREFUSED, ConnRefused},
		{"refused through layers", &url.Error{Err: wrap(calmErr{cause: syscall.ECONNREFUSED})}, ConnRefused},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Categorize(tc.err))
		})
	}
}
