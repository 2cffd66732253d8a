// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transfer

import "time"

// A Builder stamps out HTTP transfers sharing a common default
// configuration. Its zero value builds plain GET transfers with no
// defaults applied.
//
// A Builder replaces the shared-prototype pattern: it holds no global
// state, and every Build call yields an independent transfer carrying
// copies of the defaults.
type Builder struct {
	// Method is the default request method. Empty means GET.
	Method string
	// ContentType is the default body content type. Mapping bodies are
	// encoded according to it, and a non-empty value installs a
	// Content-Type header on every built transfer, with or without a
	// body.
	ContentType string
	// Headers contains default request headers applied to every built
	// transfer.
	Headers map[string]string
	// ConnectTimeout and TotalTimeout are applied to every built
	// transfer when positive.
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
	// Options contains additional backend options applied to every
	// built transfer.
	Options map[Option]interface{}
}

// Build returns a new HTTP transfer for the given URL carrying the
// builder's default method, headers, timeouts, and options, and no
// body.
func (b *Builder) Build(url string) (*HTTP, error) {
	return b.BuildWith(b.Method, url, nil)
}

// BuildWith returns a new HTTP transfer for the given method, URL, and
// body, carrying the builder's default headers, timeouts, and options.
// Mapping bodies are encoded according to the builder's ContentType.
func (b *Builder) BuildWith(method, url string, body interface{}) (*HTTP, error) {
	h, err := NewHTTP(method, url, body, b.ContentType)
	if err != nil {
		return nil, err
	}
	for name, value := range b.Headers {
		h.SetHeader(name, value)
	}
	if b.ConnectTimeout > 0 {
		h.SetConnectTimeout(b.ConnectTimeout)
	}
	if b.TotalTimeout > 0 {
		h.SetTotalTimeout(b.TotalTimeout)
	}
	for o, v := range b.Options {
		h.SetOption(o, v)
	}
	return h, nil
}
