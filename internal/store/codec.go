package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olegiv/gamehub/internal/backend"
)

// tsKey marks a stored timestamp: {"__ts": <unix nanos>}.
const tsKey = "__ts"

// resolveFields replaces write sentinels and time values with their stored
// form. existing is the current field set, used to resolve increments.
func resolveFields(fields, existing map[string]any, now time.Time) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		rv, err := resolveValue(v, existing[k], now)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = rv
	}
	return out, nil
}

func resolveValue(v, current any, now time.Time) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return encodeTime(val), nil
	case *time.Time:
		if val == nil {
			return nil, nil
		}
		return encodeTime(*val), nil
	case backend.IncrementOp:
		return numberValue(current) + val.N, nil
	case map[string]any:
		return resolveFields(val, nil, now)
	}
	if backend.IsServerTimestamp(v) {
		return encodeTime(now), nil
	}
	return v, nil
}

func encodeTime(t time.Time) map[string]any {
	return map[string]any{tsKey: t.UnixNano()}
}

func numberValue(v any) int64 {
	d := backend.Document{Fields: map[string]any{"v": v}}
	return d.Int("v")
}

// encodeFields serializes a resolved field set.
func encodeFields(fields map[string]any) (string, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encoding fields: %w", err)
	}
	return string(b), nil
}

// decodeFields parses a stored field set, turning timestamp markers back
// into time.Time and keeping numbers as json.Number.
func decodeFields(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decoding fields: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	for k, v := range fields {
		fields[k] = decodeValue(v)
	}
	return fields, nil
}

func decodeValue(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if n, ok := m[tsKey].(json.Number); ok && len(m) == 1 {
		if nanos, err := n.Int64(); err == nil {
			return time.Unix(0, nanos).UTC()
		}
	}
	for k, inner := range m {
		m[k] = decodeValue(inner)
	}
	return m
}
