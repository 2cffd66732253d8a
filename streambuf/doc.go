// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package streambuf provides an append-only byte buffer with destructive
line, delimiter, and byte-count consumption primitives.

A Buffer accumulates the bytes of an in-flight HTTP response as they
arrive. Stream observers consume the buffer incrementally, for example
line by line when parsing a text/event-stream response, while buffered
consumers read the whole accumulated body at completion time.

A Buffer is owned by a single transfer and is not safe for concurrent
use by multiple goroutines.
*/
package streambuf
