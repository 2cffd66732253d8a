// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package swarm

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptrace"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/http2"

	"github.com/gogama/swarm/transfer"
)

// A completion reports the outcome of one in-flight transfer back to
// the scheduling loop.
type completion struct {
	h            *handle
	info         *transfer.Info
	err          error
	elapsed      time.Duration
	connected    bool
	wrote        bool
	connTimedOut bool
}

// traceState collects connection timing evidence from httptrace
// callbacks and the connect watchdog, which fire on other goroutines.
type traceState struct {
	mu           sync.Mutex
	start        time.Time
	nameLookup   time.Duration
	connect      time.Duration
	appConnect   time.Duration
	pretransfer  time.Duration
	firstByte    time.Duration
	connected    bool
	connTimedOut bool
}

func newTraceState(start time.Time) *traceState {
	return &traceState{start: start}
}

func (ts *traceState) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSDone: func(httptrace.DNSDoneInfo) {
			ts.mu.Lock()
			ts.nameLookup = time.Since(ts.start)
			ts.mu.Unlock()
		},
		ConnectDone: func(_, _ string, err error) {
			if err != nil {
				return
			}
			ts.mu.Lock()
			ts.connect = time.Since(ts.start)
			ts.connected = true
			ts.mu.Unlock()
		},
		GotConn: func(httptrace.GotConnInfo) {
			ts.mu.Lock()
			ts.connected = true
			ts.mu.Unlock()
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err != nil {
				return
			}
			ts.mu.Lock()
			ts.appConnect = time.Since(ts.start)
			ts.mu.Unlock()
		},
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err != nil {
				return
			}
			ts.mu.Lock()
			ts.pretransfer = time.Since(ts.start)
			ts.mu.Unlock()
		},
		GotFirstResponseByte: func() {
			ts.mu.Lock()
			ts.firstByte = time.Since(ts.start)
			ts.mu.Unlock()
		},
	}
}

func (ts *traceState) isConnected() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.connected
}

func (ts *traceState) markConnTimedOut() {
	ts.mu.Lock()
	ts.connTimedOut = true
	ts.mu.Unlock()
}

// fill copies the collected evidence into the completion. It must run
// after the watchdog goroutine has been joined, so that no writer
// remains concurrent with the completion's trip through the channel.
func (ts *traceState) fill(info *transfer.Info, c *completion) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	info.NameLookup = ts.nameLookup
	info.Connect = ts.connect
	info.AppConnect = ts.appConnect
	info.Pretransfer = ts.pretransfer
	info.StartTransfer = ts.firstByte
	c.connected = ts.connected
	c.wrote = ts.pretransfer > 0
	c.connTimedOut = ts.connTimedOut
}

// perform drives one transfer to completion on its own goroutine and
// reports the outcome on the completions channel.
func (g *Engine) perform(ctx context.Context, h *handle) {
	g.completions <- g.exchange(ctx, h)
}

func (g *Engine) exchange(ctx context.Context, h *handle) *completion {
	t := h.t
	start := time.Now()
	info := &transfer.Info{URL: t.URL()}
	c := &completion{h: h, info: info}
	ts := newTraceState(start)
	defer func() {
		c.elapsed = time.Since(start)
		info.Total = c.elapsed
		ts.fill(info, c)
	}()

	req, client, custom, err := g.materialize(t)
	if err != nil {
		c.err = err
		return c
	}
	if custom {
		if ic, ok := client.(IdleCloser); ok {
			defer ic.CloseIdleConnections()
		}
	}

	actx := ctx
	if d := t.TotalTimeout(); d > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(actx, d)
		defer cancel()
	}
	actx, cancelAttempt := context.WithCancel(actx)
	defer cancelAttempt()
	req = req.WithContext(httptrace.WithClientTrace(actx, ts.clientTrace()))

	if d := t.ConnectTimeout(); d > 0 {
		stop := make(chan struct{})
		watchdogDone := make(chan struct{})
		go func() {
			defer close(watchdogDone)
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
				if !ts.isConnected() {
					ts.markConnTimedOut()
					cancelAttempt()
				}
			case <-stop:
			}
		}()
		// Join the watchdog before the deferred fill runs: the
		// completion must not leave this goroutine while the watchdog
		// can still write.
		defer func() {
			close(stop)
			<-watchdogDone
		}()
	}

	resp, err := client.Do(req)
	if err != nil {
		c.err = urlErrorWrap(req, err)
		return c
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	info.StatusCode = resp.StatusCode
	info.ContentType = resp.Header.Get("Content-Type")
	info.Header = resp.Header
	if resp.Request != nil && resp.Request.URL != nil {
		info.URL = resp.Request.URL.String()
	}
	if hh := t.HeadersHook(); hh != nil {
		g.invoke(t, func() {
			hh(resp.StatusCode, resp.Header)
		})
	}

	buf := make([]byte, 32*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			t.Buffer().Append(buf[:n])
			info.SizeDownload += int64(n)
			if t.Streamable() {
				if f := t.StreamHook(); f != nil {
					cont := true
					g.invoke(t, func() {
						cont = f(t.Buffer(), g)
					})
					if !cont {
						t.MarkStreamAborted()
						cancelAttempt()
						return c
					}
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if !t.StreamAborted() {
				c.err = urlErrorWrap(req, rerr)
			}
			return c
		}
	}

	if t.BoolOption(transfer.OptFailOnError) && resp.StatusCode >= 400 {
		c.err = &httpStatusError{status: resp.StatusCode}
	}
	return c
}

// httpStatusError marks a completion failed under the fail-on-error
// option.
type httpStatusError struct {
	status int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("swarm: HTTP returned error: status %d", e.status)
}

// materialize builds the HTTP request and client realizing the
// transfer's option table. The custom return value reports whether the
// client was built specifically for this transfer.
func (g *Engine) materialize(t *transfer.Transfer) (*http.Request, HTTPDoer, bool, error) {
	method := "GET"
	if t.BoolOption(transfer.OptPost) {
		method = "POST"
	}
	if cr := t.StringOption(transfer.OptCustomRequest); cr != "" {
		method = cr
	}
	req, err := http.NewRequest(method, t.URL(), nil)
	if err != nil {
		return nil, nil, false, err
	}
	if v, ok := t.Option(transfer.OptPostFields); ok {
		if body, ok := v.([]byte); ok && len(body) > 0 {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.GetBody = func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(body)), nil
			}
			req.ContentLength = int64(len(body))
		}
	}
	if v, ok := t.Option(transfer.OptHTTPHeader); ok {
		if lines, ok := v.([]string); ok {
			for _, line := range lines {
				if i := strings.IndexByte(line, ':'); i > 0 {
					req.Header.Set(strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]))
				}
			}
		}
	}
	if up := t.StringOption(transfer.OptUserPwd); up != "" {
		user, pass, _ := strings.Cut(up, ":")
		req.SetBasicAuth(user, pass)
	}
	client, custom, err := g.clientFor(t)
	if err != nil {
		return nil, nil, false, err
	}
	return req, client, custom, nil
}

// clientAffectingOptions are the options that require a client built
// specifically for the transfer rather than the engine's shared doer.
var clientAffectingOptions = []transfer.Option{
	transfer.OptFollowLocation,
	transfer.OptMaxRedirs,
	transfer.OptCookieJar,
	transfer.OptHTTPVersion,
	transfer.OptSSLVerifyPeer,
	transfer.OptSSLVerifyHost,
	transfer.OptProxy,
	transfer.OptProxyUserPwd,
	transfer.OptForbidReuse,
	transfer.OptFreshConnect,
}

func (g *Engine) clientFor(t *transfer.Transfer) (HTTPDoer, bool, error) {
	custom := false
	for _, o := range clientAffectingOptions {
		if _, ok := t.Option(o); ok {
			custom = true
			break
		}
	}
	if !custom {
		if g.HTTPDoer != nil {
			return g.HTTPDoer, false, nil
		}
		return http.DefaultClient, false, nil
	}

	cl := &http.Client{}
	if v, ok := t.Option(transfer.OptFollowLocation); ok {
		if follow, _ := v.(bool); !follow {
			cl.CheckRedirect = func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}
		}
	}
	if v, ok := t.Option(transfer.OptMaxRedirs); ok && cl.CheckRedirect == nil {
		if max, _ := v.(int); max > 0 {
			cl.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
				if len(via) >= max {
					return fmt.Errorf("stopped after %d redirects", max)
				}
				return nil
			}
		}
	}
	if name := t.StringOption(transfer.OptCookieJar); name != "" {
		jar, err := g.jar(name)
		if err != nil {
			return nil, false, err
		}
		cl.Jar = jar
	}

	tr := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: true,
	}
	if proxy := t.StringOption(transfer.OptProxy); proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, false, fmt.Errorf("swarm: invalid proxy %q: %w", proxy, err)
		}
		if up := t.StringOption(transfer.OptProxyUserPwd); up != "" {
			user, pass, _ := strings.Cut(up, ":")
			u.User = url.UserPassword(user, pass)
		}
		tr.Proxy = http.ProxyURL(u)
	}
	tlsConfig := &tls.Config{}
	if v, ok := t.Option(transfer.OptSSLVerifyPeer); ok {
		if verify, _ := v.(bool); !verify {
			tlsConfig.InsecureSkipVerify = true
		}
	}
	// Go's TLS stack verifies the host name as part of chain
	// verification, so disabling host verification disables both.
	if v, ok := t.Option(transfer.OptSSLVerifyHost); ok {
		if verify, _ := v.(bool); !verify {
			tlsConfig.InsecureSkipVerify = true
		}
	}
	tr.TLSClientConfig = tlsConfig
	if t.BoolOption(transfer.OptForbidReuse) || t.BoolOption(transfer.OptFreshConnect) {
		tr.DisableKeepAlives = true
	}
	if v, ok := t.Option(transfer.OptHTTPVersion); ok {
		switch v {
		case transfer.Version11:
			tr.ForceAttemptHTTP2 = false
			tr.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
		case transfer.Version2:
			if err := http2.ConfigureTransport(tr); err != nil {
				return nil, false, err
			}
		}
	}
	cl.Transport = tr
	return cl, true, nil
}

// jar returns the engine-lifetime cookie jar registered under name,
// creating it on first use.
func (g *Engine) jar(name string) (http.CookieJar, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.jars == nil {
		g.jars = make(map[string]http.CookieJar)
	}
	if jar, ok := g.jars[name]; ok {
		return jar, nil
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	g.jars[name] = jar
	return jar, nil
}

// urlErrorWrap wraps err in a *url.Error if it is not one already, so
// completion classification sees a uniform shape.
func urlErrorWrap(req *http.Request, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}
	return &url.Error{
		Op:  urlErrorOp(req.Method),
		URL: req.URL.String(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
