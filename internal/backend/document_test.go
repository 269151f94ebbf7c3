package backend

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDocumentAccessors(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	d := Document{ID: "g1", Fields: map[string]any{
		"name":      "Snake",
		"plays":     json.Number("42"),
		"uses":      float64(3),
		"createdAt": now,
		"bad":       []any{1},
	}}

	if got := d.String("name"); got != "Snake" {
		t.Errorf("String(name) = %q", got)
	}
	if got := d.String("plays"); got != "" {
		t.Errorf("String(plays) = %q, want empty", got)
	}
	if got := d.Int("plays"); got != 42 {
		t.Errorf("Int(plays) = %d, want 42", got)
	}
	if got := d.Int("uses"); got != 3 {
		t.Errorf("Int(uses) = %d, want 3", got)
	}
	if got := d.Int("missing"); got != 0 {
		t.Errorf("Int(missing) = %d, want 0", got)
	}
	if got, ok := d.Time("createdAt"); !ok || !got.Equal(now) {
		t.Errorf("Time(createdAt) = %v, %v", got, ok)
	}
	if _, ok := d.Time("bad"); ok {
		t.Error("Time(bad) should not be ok")
	}
}

func TestSentinels(t *testing.T) {
	if !IsServerTimestamp(ServerTimestamp) {
		t.Error("ServerTimestamp not recognized")
	}
	if IsServerTimestamp(time.Now()) {
		t.Error("time.Time recognized as ServerTimestamp")
	}
	if got := Increment(2).String(); got != "increment(2)" {
		t.Errorf("Increment(2).String() = %q", got)
	}
}
