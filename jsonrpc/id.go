// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package jsonrpc

import (
	"fmt"
	"strconv"
	"sync/atomic"

	json "github.com/goccy/go-json"
)

// An ID is a JSON-RPC request identifier, which the wire format allows
// to be either a string or a number.
type ID struct {
	value interface{}
}

// NewID returns an ID wrapping the given string or numeric value. Any
// other type yields a nil-valued ID.
func NewID(value interface{}) *ID {
	switch v := value.(type) {
	case string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return &ID{value: v}
	default:
		return &ID{value: nil}
	}
}

var idCounter int64

// NextID returns an auto-assigned identifier: a monotonically
// increasing decimal string. NextID is safe for concurrent use.
func NextID() *ID {
	n := atomic.AddInt64(&idCounter, 1)
	return &ID{value: strconv.FormatInt(n, 10)}
}

// String returns the string representation of the ID, or "" for a nil
// or nil-valued ID.
func (id *ID) String() string {
	if id == nil || id.value == nil {
		return ""
	}
	switch v := id.value.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Value returns the underlying string or numeric value, or nil.
func (id *ID) Value() interface{} {
	if id == nil {
		return nil
	}
	return id.value
}

// Equal reports whether two identifiers have the same string
// representation. A nil or nil-valued ID has the representation "", so
// it equals another nil or nil-valued ID and also an ID holding "".
func (id *ID) Equal(other *ID) bool {
	return id.String() == other.String()
}

// MarshalJSON implements json.Marshaler.
func (id *ID) MarshalJSON() ([]byte, error) {
	if id == nil || id.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler. Numbers with no
// fractional part decode as int64; anything that is neither a number
// nor a string is an error.
func (id *ID) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		if num == float64(int64(num)) {
			id.value = int64(num)
		} else {
			id.value = num
		}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		id.value = str
		return nil
	}
	return fmt.Errorf("swarm/jsonrpc: id must be a string or number, got %s", string(data))
}
