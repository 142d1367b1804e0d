package id

import (
	"strings"
	"testing"
)

func TestGenerateString(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.GenerateString()
	id2 := gen.GenerateString()

	if id1 == id2 {
		t.Error("expected unique IDs")
	}
	if len(id1) != 26 {
		t.Errorf("expected 26-char ULID, got %d chars", len(id1))
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	id := gen.GenerateWithPrefix("trace")
	if !strings.HasPrefix(id, "trace_") {
		t.Errorf("expected trace_ prefix, got %s", id)
	}
}

func TestTypedIDs(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		prefix string
	}{
		{"trace", NewTraceID().String(), TracePrefix},
		{"span", NewSpanID().String(), SpanPrefix},
		{"session", NewSessionID().String(), SessionPrefix},
		{"request", NewRequestID().String(), RequestPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.HasPrefix(tt.id, tt.prefix+"_") {
				t.Errorf("expected %s_ prefix, got %s", tt.prefix, tt.id)
			}
			raw := strings.TrimPrefix(tt.id, tt.prefix+"_")
			if !IsValid(raw) {
				t.Errorf("expected valid ULID after prefix, got %s", raw)
			}
		})
	}
}

func TestSortability(t *testing.T) {
	gen := NewGenerator()

	// A burst this size lands many IDs in the same millisecond; monotonic
	// entropy must keep them strictly ordered anyway.
	ids := make([]string, 1000)
	for i := range ids {
		ids[i] = gen.GenerateString()
	}

	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Errorf("IDs not strictly sorted at %d: %s >= %s", i, ids[i-1], ids[i])
		}
	}
}

func TestTimestamp(t *testing.T) {
	gen := NewGenerator()
	id := gen.GenerateString()

	ts, err := Timestamp(id)
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if ts.IsZero() {
		t.Error("expected non-zero timestamp")
	}
}

func TestIsValid(t *testing.T) {
	if IsValid("not-a-ulid") {
		t.Error("expected invalid")
	}
	if !IsValid(NewGenerator().GenerateString()) {
		t.Error("expected valid")
	}
}
