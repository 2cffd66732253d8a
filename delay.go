// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package swarm

import (
	"sort"
	"time"

	"github.com/gogama/swarm/transfer"
)

// A delayEntry is one deferred submission: the transfer, whether to
// front-insert it when promoted, and when it becomes due.
type delayEntry struct {
	t     *transfer.Transfer
	front bool
	due   time.Time
}

// A delayQueue holds deferred submissions ordered by due time. Inserts
// invalidate the sorted flag; the queue re-sorts lazily when next
// consulted.
type delayQueue struct {
	entries []delayEntry
	sorted  bool
}

func (q *delayQueue) push(e delayEntry) {
	q.entries = append(q.entries, e)
	q.sorted = false
}

func (q *delayQueue) len() int {
	return len(q.entries)
}

func (q *delayQueue) ensureSorted() {
	if q.sorted {
		return
	}
	sort.SliceStable(q.entries, func(i, j int) bool {
		return q.entries[i].due.Before(q.entries[j].due)
	})
	q.sorted = true
}

// processDue removes and returns the entries due at or before now, in
// due order.
func (q *delayQueue) processDue(now time.Time) []delayEntry {
	q.ensureSorted()
	n := 0
	for n < len(q.entries) && !q.entries[n].due.After(now) {
		n++
	}
	if n == 0 {
		return nil
	}
	due := make([]delayEntry, n)
	copy(due, q.entries[:n])
	q.entries = q.entries[n:]
	return due
}

// nextDelay returns the delay until the earliest remaining entry, or
// false if the queue is empty. The delay may be non-positive if the
// entry is already due.
func (q *delayQueue) nextDelay(now time.Time) (time.Duration, bool) {
	if len(q.entries) == 0 {
		return 0, false
	}
	q.ensureSorted()
	return q.entries[0].due.Sub(now), true
}
