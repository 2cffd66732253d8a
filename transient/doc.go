// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors from HTTP transfer execution
// into the failure categories the swarm engine reports through its
// timeout and error hooks. It is also handy on its own, for example
// for bucketing error metrics.
//
// Package transient is extremely lightweight, as it depends only on
// the standard library, so it doesn't bring any significant
// dependencies when imported as a standalone package.
package transient
