// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package swarm

import "net/http"

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously in use but are now
// sitting idle in a "keep-alive" state. It does not interrupt any
// connections currently in use.
type IdleCloser interface {
	CloseIdleConnections()
}

// CloseIdleConnections invokes the same method on the engine's
// underlying HTTPDoer.
//
// If the HTTPDoer has no CloseIdleConnections method, this method does
// nothing.
func (g *Engine) CloseIdleConnections() {
	if ic, ok := g.HTTPDoer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
