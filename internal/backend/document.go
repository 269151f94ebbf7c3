// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"encoding/json"
	"fmt"
	"time"
)

// Document is one stored record with its store-assigned id.
type Document struct {
	ID     string
	Fields map[string]any
}

// String returns a string field or "".
func (d Document) String(key string) string {
	if s, ok := d.Fields[key].(string); ok {
		return s
	}
	return ""
}

// Time returns a timestamp field. ok is false when the field is missing or
// is not a timestamp.
func (d Document) Time(key string) (t time.Time, ok bool) {
	t, ok = d.Fields[key].(time.Time)
	return t, ok
}

// Int returns a numeric field truncated to int64, or 0.
func (d Document) Int(key string) int64 {
	switch v := d.Fields[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	}
	return 0
}

// serverTimestamp is the type of the ServerTimestamp sentinel.
type serverTimestamp struct{}

// ServerTimestamp, used as a field value on write, is replaced by the
// store's clock at the moment the write is applied.
var ServerTimestamp = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// IncrementOp is a field value that adds N to the stored number.
type IncrementOp struct {
	N int64
}

// Increment returns a field value that atomically adds n to the stored value.
// A missing or non-numeric stored value counts as zero.
func Increment(n int64) IncrementOp {
	return IncrementOp{N: n}
}

func (op IncrementOp) String() string {
	return fmt.Sprintf("increment(%d)", op.N)
}
