// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package swarm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/swarm/streambuf"
	"github.com/gogama/swarm/transfer"
)

func newGet(t *testing.T, url string) *transfer.HTTP {
	ht, err := transfer.NewHTTP("GET", url, nil, "")
	require.NoError(t, err)
	return ht
}

func TestEngineConcurrencyCap(t *testing.T) {
	resetServerLoad()
	eng := New(3)
	var ready []string
	var errs, timeouts int
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("%d", i)
		ht := newGet(t, serverURL("/get?pause=150ms&id="+id))
		ht.SetOnReady(func(info *transfer.Info, body *streambuf.Buffer, s transfer.Scheduler) {
			assert.Equal(t, 200, info.StatusCode)
			assert.LessOrEqual(t, eng.InFlightLen(), 3)
			var reply struct {
				Args struct {
					ID string `json:"id"`
				} `json:"args"`
			}
			require.NoError(t, json.Unmarshal(body.Peek(), &reply))
			ready = append(ready, reply.Args.ID)
		})
		ht.SetOnError(func(msg string, code transfer.ErrorCode, info *transfer.Info, s transfer.Scheduler) {
			errs++
		})
		ht.SetOnTimeout(func(kind transfer.TimeoutKind, elapsed time.Duration, s transfer.Scheduler) {
			timeouts++
		})
		eng.Submit(&ht.Transfer)
	}
	require.NoError(t, eng.Run(context.Background()))
	assert.ElementsMatch(t, []string{"1", "2", "3", "4", "5"}, ready)
	assert.Zero(t, errs)
	assert.Zero(t, timeouts)
	assert.LessOrEqual(t, maxServerLoad(), 3)
	assert.GreaterOrEqual(t, maxServerLoad(), 2)
	assert.Zero(t, eng.InFlightLen())
	assert.Zero(t, eng.BacklogLen())
}

func TestEngineFIFO(t *testing.T) {
	eng := New(1)
	var order []string
	for _, id := range []string{"a", "b", "c"} {
		id := id
		ht := newGet(t, serverURL("/get?id="+id))
		ht.SetOnReady(func(*transfer.Info, *streambuf.Buffer, transfer.Scheduler) {
			order = append(order, id)
		})
		eng.Submit(&ht.Transfer)
	}
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestEngineFrontInsert(t *testing.T) {
	eng := New(1)
	var order []string
	submit := func(id string, opts ...transfer.SubmitOption) {
		ht := newGet(t, serverURL("/get?id="+id))
		ht.SetOnReady(func(*transfer.Info, *streambuf.Buffer, transfer.Scheduler) {
			order = append(order, id)
		})
		eng.Submit(&ht.Transfer, opts...)
	}
	submit("a")
	submit("b")
	submit("c", transfer.Front())
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, []string{"c", "a", "b"}, order)
}

func TestEngineDelayOrdering(t *testing.T) {
	eng := New(1)
	var order []string
	var readyB time.Time
	submit := func(id string, opts ...transfer.SubmitOption) {
		ht := newGet(t, serverURL("/get?id="+id))
		ht.SetOnReady(func(*transfer.Info, *streambuf.Buffer, transfer.Scheduler) {
			order = append(order, id)
			if id == "b" {
				readyB = time.Now()
			}
		})
		eng.Submit(&ht.Transfer, opts...)
	}
	start := time.Now()
	submit("a")
	submit("b", transfer.After(300*time.Millisecond))
	submit("c", transfer.After(100*time.Millisecond))
	assert.Equal(t, 2, eng.DelayQueueLen())
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, []string{"a", "c", "b"}, order)
	assert.GreaterOrEqual(t, readyB.Sub(start), 300*time.Millisecond)
	assert.Zero(t, eng.DelayQueueLen())
}

func TestEngineTotalTimeout(t *testing.T) {
	eng := New(1)
	ht := newGet(t, serverURL("/delay?d=1500ms"))
	ht.SetConnectTimeout(5 * time.Second)
	ht.SetTotalTimeout(500 * time.Millisecond)
	var ready, errs int
	var kind transfer.TimeoutKind
	var elapsed time.Duration
	var timeouts int
	ht.SetOnReady(func(*transfer.Info, *streambuf.Buffer, transfer.Scheduler) { ready++ })
	ht.SetOnError(func(string, transfer.ErrorCode, *transfer.Info, transfer.Scheduler) { errs++ })
	ht.SetOnTimeout(func(k transfer.TimeoutKind, e time.Duration, s transfer.Scheduler) {
		timeouts++
		kind = k
		elapsed = e
	})
	eng.Submit(&ht.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, 1, timeouts)
	assert.Zero(t, ready)
	assert.Zero(t, errs)
	assert.Equal(t, transfer.TotalTimeout, kind)
	assert.GreaterOrEqual(t, elapsed, 450*time.Millisecond)
	assert.Less(t, elapsed, 1400*time.Millisecond)
}

func TestEngineTimeoutClassification(t *testing.T) {
	cases := []struct {
		name string
		c    completion
		want transfer.TimeoutKind
	}{
		{
			name: "connect watchdog",
			c:    completion{err: context.DeadlineExceeded, connTimedOut: true},
			want: transfer.ConnectionTimeout,
		},
		{
			name: "deadline before connect",
			c:    completion{err: context.DeadlineExceeded},
			want: transfer.ConnectionTimeout,
		},
		{
			name: "deadline after request written",
			c:    completion{err: context.DeadlineExceeded, connected: true, wrote: true},
			want: transfer.TotalTimeout,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng := New(1)
			tr := transfer.New(serverURL("/get"))
			var got transfer.TimeoutKind
			var timeouts int
			tr.SetOnTimeout(func(k transfer.TimeoutKind, _ time.Duration, _ transfer.Scheduler) {
				timeouts++
				got = k
			})
			h := &handle{id: "h", t: tr, cancel: func() {}}
			eng.inFlight[h.id] = h
			c := tc.c
			c.h = h
			c.info = &transfer.Info{}
			eng.finish(&c, true)
			assert.Equal(t, 1, timeouts)
			assert.Equal(t, tc.want, got)
			assert.False(t, tr.InFlight())
		})
	}
}

func TestEngineDNSError(t *testing.T) {
	eng := New(1)
	ht := newGet(t, "http://nonexistent.invalid/")
	var ready, timeouts int
	var errs int
	var msg string
	var code transfer.ErrorCode
	ht.SetOnReady(func(*transfer.Info, *streambuf.Buffer, transfer.Scheduler) { ready++ })
	ht.SetOnTimeout(func(transfer.TimeoutKind, time.Duration, transfer.Scheduler) { timeouts++ })
	ht.SetOnError(func(m string, c transfer.ErrorCode, _ *transfer.Info, _ transfer.Scheduler) {
		errs++
		msg = m
		code = c
	})
	eng.Submit(&ht.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, 1, errs)
	assert.Zero(t, ready)
	assert.Zero(t, timeouts)
	assert.Equal(t, transfer.CodeResolveHost, code)
	assert.Contains(t, msg, "resolve")
}

func TestEngineStreamAbort(t *testing.T) {
	eng := New(1)
	ht := newGet(t, serverURL("/stream"))
	var chunks int
	ht.SetOnStream(func(buf *streambuf.Buffer, s transfer.Scheduler) bool {
		chunks++
		return chunks < 2
	})
	var ready, errs int
	var body []byte
	ht.SetOnReady(func(info *transfer.Info, buf *streambuf.Buffer, s transfer.Scheduler) {
		ready++
		body = buf.ConsumeAll()
	})
	ht.SetOnError(func(string, transfer.ErrorCode, *transfer.Info, transfer.Scheduler) { errs++ })
	eng.Submit(&ht.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, 1, ready)
	assert.Zero(t, errs)
	assert.True(t, ht.StreamAborted())
	assert.Contains(t, string(body), "chunk-0;")
	assert.NotContains(t, string(body), "chunk-4;")
}

func TestEngineStreamBufferMonotonic(t *testing.T) {
	eng := New(1)
	ht := newGet(t, serverURL("/stream"))
	var seen []string
	ht.SetOnStream(func(buf *streambuf.Buffer, s transfer.Scheduler) bool {
		seen = append(seen, string(buf.Peek()))
		return true
	})
	var full string
	ht.SetOnReady(func(_ *transfer.Info, buf *streambuf.Buffer, _ transfer.Scheduler) {
		full = string(buf.Peek())
	})
	eng.Submit(&ht.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	require.NotEmpty(t, seen)
	for _, s := range seen {
		assert.True(t, strings.HasPrefix(full, s))
	}
	assert.Equal(t, "chunk-0;chunk-1;chunk-2;chunk-3;chunk-4;", full)
}

func TestEngineNextChain(t *testing.T) {
	eng := New(1)
	var order []string
	var completes int
	mk := func(id string) *transfer.HTTP {
		ht := newGet(t, serverURL("/get?id="+id))
		ht.SetOnReady(func(*transfer.Info, *streambuf.Buffer, transfer.Scheduler) {
			order = append(order, id)
		})
		ht.SetOnComplete(func(*transfer.Transfer, transfer.Scheduler) {
			completes++
		})
		return ht
	}
	a := mk("a")
	b := mk("b")
	c := mk("c")
	a.AppendNext(&b.Transfer)
	a.AppendNext(&c.Transfer)
	eng.Submit(&a.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 3, completes)
}

func TestEngineBeforeChain(t *testing.T) {
	eng := New(1)
	var order []string
	mk := func(id string) *transfer.HTTP {
		ht := newGet(t, serverURL("/get?id="+id))
		ht.SetOnReady(func(*transfer.Info, *streambuf.Buffer, transfer.Scheduler) {
			order = append(order, id)
		})
		return ht
	}
	main := mk("main")
	pre := mk("pre")
	main.SetBefore(&pre.Transfer, true)
	eng.Submit(&main.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, []string{"pre", "main"}, order)
}

func TestEngineBeforeChainFiresSubmitHook(t *testing.T) {
	eng := New(1)
	main := newGet(t, serverURL("/get?id=main"))
	pre := newGet(t, serverURL("/get?id=pre"))
	var mainSubmits, preSubmits int
	main.SetOnSubmit(func(transfer.Scheduler) { mainSubmits++ })
	// The predecessor never passes through Submit; its hook must fire
	// when it is promoted into flight in the main transfer's stead.
	pre.SetOnSubmit(func(transfer.Scheduler) { preSubmits++ })
	main.SetBefore(&pre.Transfer, true)
	eng.Submit(&main.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	// Once for the application's Submit, once when the predecessor
	// chain re-enqueues the main transfer.
	assert.Equal(t, 2, mainSubmits)
	assert.Equal(t, 1, preSubmits)
}

func TestEngineRefillHook(t *testing.T) {
	eng := New(2)
	var ready int
	submitted := 0
	submit := func() {
		submitted++
		ht := newGet(t, serverURL("/get?id=r"))
		ht.SetOnReady(func(*transfer.Info, *streambuf.Buffer, transfer.Scheduler) {
			ready++
		})
		eng.Submit(&ht.Transfer)
	}
	eng.SetRefillHook(func(backlogLen, maxConcurrency int) {
		assert.Less(t, backlogLen, maxConcurrency*DefaultLowWatermarkFactor)
		assert.Equal(t, 2, maxConcurrency)
		if submitted < 5 {
			submit()
		}
	})
	submit()
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, 5, ready)
}

func TestEngineReentrantSubmit(t *testing.T) {
	eng := New(2)
	var order []string
	child := newGet(t, serverURL("/get?id=child"))
	child.SetOnReady(func(*transfer.Info, *streambuf.Buffer, transfer.Scheduler) {
		order = append(order, "child")
	})
	parent := newGet(t, serverURL("/get?id=parent"))
	parent.SetOnReady(func(_ *transfer.Info, _ *streambuf.Buffer, s transfer.Scheduler) {
		order = append(order, "parent")
		s.Submit(&child.Transfer)
	})
	eng.Submit(&parent.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, []string{"parent", "child"}, order)
}

func TestEngineContextPayload(t *testing.T) {
	eng := New(1)
	eng.SetContext("payload")
	var got interface{}
	ht := newGet(t, serverURL("/get?id=x"))
	ht.SetOnReady(func(_ *transfer.Info, _ *streambuf.Buffer, s transfer.Scheduler) {
		got = s.Context()
	})
	eng.Submit(&ht.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, "payload", got)
}

func TestEngineFailOnError(t *testing.T) {
	eng := New(1)
	ht := newGet(t, serverURL("/missing"))
	ht.SetOption(transfer.OptFailOnError, true)
	var ready int
	var errs int
	var code transfer.ErrorCode
	ht.SetOnReady(func(*transfer.Info, *streambuf.Buffer, transfer.Scheduler) { ready++ })
	ht.SetOnError(func(_ string, c transfer.ErrorCode, info *transfer.Info, _ transfer.Scheduler) {
		errs++
		code = c
		assert.Equal(t, 404, info.StatusCode)
	})
	eng.Submit(&ht.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	assert.Zero(t, ready)
	assert.Equal(t, 1, errs)
	assert.Equal(t, transfer.CodeHTTPReturnedError, code)
}

func TestEngineExceptionHook(t *testing.T) {
	eng := New(1)
	ht := newGet(t, serverURL("/get?id=x"))
	boom := errors.New("boom")
	ht.SetOnReady(func(*transfer.Info, *streambuf.Buffer, transfer.Scheduler) {
		panic(boom)
	})
	var caught error
	ht.SetOnException(func(err error, tr *transfer.Transfer, s transfer.Scheduler) {
		caught = err
		assert.Same(t, &ht.Transfer, tr)
	})
	eng.Submit(&ht.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	assert.Same(t, boom, caught)
}

func TestEngineRunContextCancel(t *testing.T) {
	eng := New(1)
	ht := newGet(t, serverURL("/delay?d=5s"))
	var errs int
	var code transfer.ErrorCode
	ht.SetOnError(func(_ string, c transfer.ErrorCode, _ *transfer.Info, _ transfer.Scheduler) {
		errs++
		code = c
	})
	eng.Submit(&ht.Transfer)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()
	err := eng.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, errs)
	assert.Equal(t, transfer.CodeCanceled, code)
	assert.Zero(t, eng.InFlightLen())
}

func TestEngineHTTP2(t *testing.T) {
	h2 := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	h2.EnableHTTP2 = true
	h2.StartTLS()
	defer h2.Close()

	eng := New(1)
	ht := newGet(t, h2.URL)
	ht.SetOption(transfer.OptSSLVerifyPeer, false)
	ht.SetOption(transfer.OptHTTPVersion, transfer.Version2)
	var ready int
	ht.SetOnReady(func(info *transfer.Info, body *streambuf.Buffer, _ transfer.Scheduler) {
		ready++
		assert.Equal(t, 200, info.StatusCode)
		assert.Equal(t, "ok", string(body.Peek()))
	})
	eng.Submit(&ht.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, 1, ready)
}

func TestEngineVerboseLogging(t *testing.T) {
	var logBuf bytes.Buffer
	eng := New(1)
	eng.Logger = slog.New(slog.NewTextHandler(&logBuf, nil))
	ht := newGet(t, serverURL("/get?id=v"))
	ht.SetOption(transfer.OptVerbose, true)
	eng.Submit(&ht.Transfer)
	require.NoError(t, eng.Run(context.Background()))
	assert.Contains(t, logBuf.String(), "transfer starting")
	assert.Contains(t, logBuf.String(), "transfer ready")
}

func TestEngineDefaults(t *testing.T) {
	eng := New(0)
	assert.Equal(t, DefaultMaxConcurrency, eng.MaxConcurrency())
	assert.Panics(t, func() { eng.SetLowWatermarkFactor(0) })
	assert.Zero(t, eng.BacklogLen())
	assert.Zero(t, eng.InFlightLen())
	assert.Zero(t, eng.DelayQueueLen())
}
