// Copyright 2025 The swarm Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

const badBodyTypeMsg = "swarm/transfer: invalid type (for body use nil, " +
	"string, []byte, io.Reader, io.ReadCloser, url.Values or " +
	"map[string]interface{})"

// BodyBytes converts a generic body parameter to a byte slice for use
// as a transfer body.
//
// The body parameter may be nil, or it may be a string, []byte,
// io.Reader, or io.ReadCloser. If body is an io.Reader, it is read to
// the end and buffered. If body is an io.ReadCloser, it is closed
// after buffering. Any other type results in an error.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.ReadCloser:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		err = x.Close()
		if err != nil {
			return nil, err
		}
		return b, nil
	case io.Reader:
		return BodyBytes(io.NopCloser(x))
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}

// EncodeBody converts a generic body parameter to a byte slice,
// encoding mapping bodies according to contentType.
//
// Scalar bodies (nil, string, []byte, io.Reader, io.ReadCloser) are
// buffered as-is via BodyBytes; contentType plays no role. Mapping
// bodies (map[string]interface{} or url.Values) are encoded:
//
// • application/json or text/json (case-insensitive), or an empty
// content type: JSON encoding;
//
// • application/x-www-form-urlencoded: standard form encoding, with
// bracketed key nesting for mapping and slice values;
//
// • any other content type: an error.
func EncodeBody(body interface{}, contentType string) ([]byte, error) {
	switch x := body.(type) {
	case map[string]interface{}:
		return encodeMapping(x, contentType)
	case url.Values:
		return encodeMapping(valuesToMapping(x), contentType)
	default:
		return BodyBytes(body)
	}
}

func encodeMapping(m map[string]interface{}, contentType string) ([]byte, error) {
	switch mediaType(contentType) {
	case "", "application/json", "text/json":
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("swarm/transfer: cannot JSON-encode body: %w", err)
		}
		return b, nil
	case "application/x-www-form-urlencoded":
		return []byte(formEncode(m)), nil
	default:
		return nil, fmt.Errorf("swarm/transfer: unsupported content type %q for mapping body", contentType)
	}
}

// mediaType strips any parameters from a Content-Type value and folds
// the media type to lower case.
func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func valuesToMapping(v url.Values) map[string]interface{} {
	m := make(map[string]interface{}, len(v))
	for k, vs := range v {
		if len(vs) == 1 {
			m[k] = vs[0]
		} else {
			s := make([]interface{}, len(vs))
			for i, x := range vs {
				s[i] = x
			}
			m[k] = s
		}
	}
	return m
}

// formEncode performs standard form encoding of a mapping, nesting
// mapping and slice values with bracketed keys (a[b]=1, a[0]=x).
func formEncode(m map[string]interface{}) string {
	var pairs []string
	appendFormPairs(&pairs, "", m)
	return strings.Join(pairs, "&")
}

func appendFormPairs(pairs *[]string, prefix string, v interface{}) {
	switch x := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			appendFormPairs(pairs, formKey(prefix, k), x[k])
		}
	case []interface{}:
		for i, e := range x {
			appendFormPairs(pairs, formKey(prefix, fmt.Sprintf("%d", i)), e)
		}
	case nil:
		*pairs = append(*pairs, url.QueryEscape(prefix)+"=")
	default:
		*pairs = append(*pairs, url.QueryEscape(prefix)+"="+url.QueryEscape(fmt.Sprintf("%v", x)))
	}
}

func formKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "[" + key + "]"
}
