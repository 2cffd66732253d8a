// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package swarm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gogama/swarm/transfer"
	"github.com/gogama/swarm/transient"
)

// DefaultMaxConcurrency is the concurrency cap selected when New is
// given a non-positive value.
const DefaultMaxConcurrency = 10

// DefaultLowWatermarkFactor is the default multiplier in the low
// watermark formula maxConcurrency × factor.
const DefaultLowWatermarkFactor = 2

// An Engine schedules, dispatches, and observes HTTP transfers under a
// fixed concurrency budget.
//
// Submitted transfers wait in a backlog (or, when deferred, in a delay
// queue) until Run promotes them into flight. Run drives all in-flight
// transfers concurrently, dispatches each transfer's observer hooks as
// it completes, enqueues follow-up transfers, and returns when the
// backlog, the delay queue, and the in-flight set are all empty.
//
// Submit is safe to call from any goroutine, including from transfer
// hooks while Run is in progress. Terminal hooks (ready, timeout,
// error) and the completion hook run serialized on the goroutine that
// called Run; stream hooks run on the in-flight transfer's own
// goroutine.
type Engine struct {
	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses for transfers whose options do not require a
	// purpose-built client.
	//
	// If HTTPDoer is nil, http.DefaultClient from the standard
	// net/http package is used.
	HTTPDoer HTTPDoer
	// Logger receives a structured record of the lifecycle of each
	// transfer carrying the verbose option. If Logger is nil, verbose
	// transfers are silent.
	Logger *slog.Logger

	maxConcurrency     int
	lowWatermarkFactor int
	refillHook         func(backlogLen, maxConcurrency int)
	userContext        interface{}

	mu       sync.Mutex
	backlog  []*transfer.Transfer
	delay    delayQueue
	inFlight map[string]*handle
	jars     map[string]http.CookieJar

	completions chan *completion
	wake        chan struct{}
}

// A handle associates an in-flight transfer with its backend state.
type handle struct {
	id     string
	t      *transfer.Transfer
	cancel context.CancelFunc
}

// New returns a new Engine with the given concurrency cap. A
// non-positive maxConcurrency selects DefaultMaxConcurrency.
func New(maxConcurrency int) *Engine {
	if maxConcurrency < 1 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Engine{
		maxConcurrency:     maxConcurrency,
		lowWatermarkFactor: DefaultLowWatermarkFactor,
		inFlight:           make(map[string]*handle),
		completions:        make(chan *completion, maxConcurrency),
		wake:               make(chan struct{}, 1),
	}
}

// MaxConcurrency returns the engine's concurrency cap.
func (g *Engine) MaxConcurrency() int {
	return g.maxConcurrency
}

// SetLowWatermarkFactor changes the multiplier in the low watermark
// formula maxConcurrency × factor. SetLowWatermarkFactor panics if
// factor is less than 1.
func (g *Engine) SetLowWatermarkFactor(factor int) {
	if factor < 1 {
		panic("swarm: low watermark factor must be positive")
	}
	g.lowWatermarkFactor = factor
}

// SetRefillHook installs a hook invoked synchronously from the
// scheduling loop whenever the backlog size falls below the low
// watermark. The hook typically submits more transfers through Submit.
func (g *Engine) SetRefillHook(f func(backlogLen, maxConcurrency int)) {
	g.refillHook = f
}

// SetContext installs an opaque user payload retrievable from hooks
// through the Scheduler's Context method.
func (g *Engine) SetContext(v interface{}) {
	g.userContext = v
}

// Context returns the opaque user payload installed with SetContext,
// or nil.
func (g *Engine) Context() interface{} {
	return g.userContext
}

// BacklogLen returns the number of transfers waiting in the backlog.
func (g *Engine) BacklogLen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.backlog)
}

// InFlightLen returns the number of transfers currently in flight.
func (g *Engine) InFlightLen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inFlight)
}

// DelayQueueLen returns the number of deferred submissions not yet
// promoted to the backlog.
func (g *Engine) DelayQueueLen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.delay.len()
}

// Submit adds a transfer to the engine's backlog, or to its delay
// queue when the After option is given. The Front option inserts at
// the head of the backlog, ahead of transfers submitted with the
// default policy.
//
// Submit may be called before Run, and from any goroutine or transfer
// hook while Run is in progress. There is no way to cancel a
// submitted transfer; streaming transfers may abort cooperatively by
// returning false from their stream hook.
func (g *Engine) Submit(t *transfer.Transfer, opts ...transfer.SubmitOption) {
	var cfg transfer.SubmitConfig
	for _, o := range opts {
		o(&cfg)
	}
	if f := t.SubmitHook(); f != nil {
		f(g)
	}
	g.mu.Lock()
	if cfg.Delay > 0 {
		g.delay.push(delayEntry{t: t, front: cfg.Front, due: time.Now().Add(cfg.Delay)})
	} else if cfg.Front {
		g.backlog = append([]*transfer.Transfer{t}, g.backlog...)
	} else {
		g.backlog = append(g.backlog, t)
	}
	g.mu.Unlock()
	g.notify()
}

func (g *Engine) notify() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// Run drives the engine until the backlog, the delay queue, and the
// in-flight set are all empty, then returns nil.
//
// If ctx is canceled, Run cancels all in-flight transfers, delivers
// their error hooks with CodeCanceled, discards the remaining backlog
// and delay queue, and returns the context's error. A nil ctx is
// treated as the background context.
func (g *Engine) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		g.promoteDue()
		g.maybeRefill()
		g.topUp(ctx)

		g.mu.Lock()
		active := len(g.inFlight)
		backlogLen := len(g.backlog)
		g.mu.Unlock()

		if active == 0 && backlogLen == 0 {
			d, ok := g.nextDue()
			if !ok {
				return nil
			}
			if d > 0 {
				if err := g.sleep(ctx, d); err != nil {
					g.drain()
					return err
				}
			}
			continue
		}

		if err := g.wait(ctx); err != nil {
			return err
		}
	}
}

// sleep pauses the scheduling loop until d elapses, a submission
// arrives, or ctx is canceled.
func (g *Engine) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-g.wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wait blocks until a transfer completes, the earliest delay-queue
// entry comes due, a submission arrives, or the bounded wait interval
// elapses. Completions are drained and dispatched before returning.
func (g *Engine) wait(ctx context.Context) error {
	d := time.Second
	if nd, ok := g.nextDue(); ok {
		if d > 100*time.Millisecond {
			d = 100 * time.Millisecond
		}
		if nd > 0 && nd < d {
			d = nd
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case c := <-g.completions:
		g.finish(c, true)
		for {
			select {
			case c2 := <-g.completions:
				g.finish(c2, true)
			default:
				return nil
			}
		}
	case <-timer.C:
		return nil
	case <-g.wake:
		return nil
	case <-ctx.Done():
		g.cancelAll()
		g.drain()
		return ctx.Err()
	}
}

// promoteDue moves due delay-queue entries to the backlog, honoring
// each entry's front-insert flag.
func (g *Engine) promoteDue() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range g.delay.processDue(time.Now()) {
		if e.front {
			g.backlog = append([]*transfer.Transfer{e.t}, g.backlog...)
		} else {
			g.backlog = append(g.backlog, e.t)
		}
	}
}

func (g *Engine) nextDue() (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.delay.nextDelay(time.Now())
}

// maybeRefill invokes the refill hook when the backlog has fallen
// below the low watermark.
func (g *Engine) maybeRefill() {
	if g.refillHook == nil {
		return
	}
	g.mu.Lock()
	backlogLen := len(g.backlog)
	g.mu.Unlock()
	if backlogLen < g.maxConcurrency*g.lowWatermarkFactor {
		g.refillHook(backlogLen, g.maxConcurrency)
	}
}

// topUp promotes transfers from the backlog front into flight until
// the concurrency cap is reached. A transfer with a predecessor link
// yields its slot to the predecessor; the original stays reachable
// through the predecessor chain's follow-up links.
//
// A predecessor enters flight without passing through Submit, so its
// submit hook is fired here, at substitution time.
func (g *Engine) topUp(ctx context.Context) {
	for {
		g.mu.Lock()
		if len(g.inFlight) >= g.maxConcurrency || len(g.backlog) == 0 {
			g.mu.Unlock()
			return
		}
		t := g.backlog[0]
		g.backlog = g.backlog[1:]
		g.mu.Unlock()
		for {
			b := t.PopBefore()
			if b == nil {
				break
			}
			t = b
			if f := t.SubmitHook(); f != nil {
				f(g)
			}
		}
		g.launch(ctx, t)
	}
}

func (g *Engine) launch(ctx context.Context, t *transfer.Transfer) {
	id := uuid.NewString()
	t.AttachHandle(id)
	actx, cancel := context.WithCancel(ctx)
	h := &handle{id: id, t: t, cancel: cancel}
	g.mu.Lock()
	g.inFlight[id] = h
	g.mu.Unlock()
	g.logTransfer(t, "transfer starting", "handle", id, "url", t.URL())
	go g.perform(actx, h)
}

func (g *Engine) logTransfer(t *transfer.Transfer, msg string, args ...interface{}) {
	if g.Logger != nil && t.BoolOption(transfer.OptVerbose) {
		g.Logger.Info(msg, args...)
	}
}

// finish classifies a completion and dispatches the transfer's
// terminal hook, then tears the transfer down.
func (g *Engine) finish(c *completion, enqueueNext bool) {
	t := c.h.t
	switch {
	case t.StreamAborted() || c.err == nil:
		g.logTransfer(t, "transfer ready", "handle", c.h.id, "status", c.info.StatusCode, "aborted", t.StreamAborted())
		if f := t.ReadyHook(); f != nil {
			g.invoke(t, func() {
				f(c.info, t.Buffer(), g)
			})
		}
	case g.isTimeout(c):
		kind := transfer.ConnectionTimeout
		if !c.connTimedOut && c.connected && c.wrote {
			kind = transfer.TotalTimeout
		}
		g.logTransfer(t, "transfer timed out", "handle", c.h.id, "kind", kind.String(), "elapsed", c.elapsed)
		if f := t.TimeoutHook(); f != nil {
			g.invoke(t, func() {
				f(kind, c.elapsed, g)
			})
		}
	default:
		msg, code := describeError(c.err)
		g.logTransfer(t, "transfer failed", "handle", c.h.id, "code", code.String(), "error", msg)
		if f := t.ErrorHook(); f != nil {
			g.invoke(t, func() {
				f(msg, code, c.info, g)
			})
		}
	}
	g.closeTransfer(t, c.h, enqueueNext)
}

func (g *Engine) isTimeout(c *completion) bool {
	if c.connTimedOut {
		return true
	}
	return transient.Categorize(c.err) == transient.Timeout
}

// closeTransfer removes the transfer from the in-flight set, releases
// its backend handle, clears the back-reference, runs the completion
// hook, and enqueues the head of the follow-up chain at the front of
// the backlog.
func (g *Engine) closeTransfer(t *transfer.Transfer, h *handle, enqueueNext bool) {
	g.mu.Lock()
	delete(g.inFlight, h.id)
	g.mu.Unlock()
	h.cancel()
	t.DetachHandle()
	if f := t.CompleteHook(); f != nil {
		g.invoke(t, func() {
			f(t, g)
		})
	}
	if enqueueNext {
		if n := t.PopNext(); n != nil {
			g.Submit(n, transfer.Front())
		}
	}
}

// cancelAll cancels every in-flight transfer and waits for each to
// report its completion, dispatching hooks as they arrive. Follow-up
// chains are not enqueued.
func (g *Engine) cancelAll() {
	g.mu.Lock()
	handles := make([]*handle, 0, len(g.inFlight))
	for _, h := range g.inFlight {
		handles = append(handles, h)
	}
	g.mu.Unlock()
	for _, h := range handles {
		h.cancel()
	}
	for range handles {
		c := <-g.completions
		g.finish(c, false)
	}
}

// drain discards the backlog and delay queue after a canceled run.
func (g *Engine) drain() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.backlog = nil
	g.delay = delayQueue{}
}

// invoke runs a hook, converting a panic into an exception-hook
// delivery. If the transfer has no exception hook the panic
// propagates.
func (g *Engine) invoke(t *transfer.Transfer, f func()) {
	defer func() {
		if r := recover(); r != nil {
			eh := t.ExceptionHook()
			if eh == nil {
				panic(r)
			}
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("swarm: hook panic: %v", r)
			}
			eh(err, t, g)
		}
	}()
	f()
}
