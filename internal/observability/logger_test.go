package observability

import (
	"context"
	"testing"
)

func TestWithFieldsAccumulates(t *testing.T) {
	ctx := context.Background()
	ctx = WithFields(ctx, Field{"call_id", "abc"})
	ctx = WithFields(ctx, Field{"phone_number", "+15551234567"})

	fields := getObservabilityFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != "call_id" || fields[1].Key != "phone_number" {
		t.Errorf("unexpected field keys: %v, %v", fields[0].Key, fields[1].Key)
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	parent := WithFields(context.Background(), Field{"a", 1})
	_ = WithFields(parent, Field{"b", 2})

	if got := len(getObservabilityFields(parent)); got != 1 {
		t.Errorf("parent context should still have 1 field, got %d", got)
	}
}

func TestWithFieldsSiblingsDoNotShareStorage(t *testing.T) {
	// Force spare capacity on the parent's slice so in-place appends by two
	// children would land in the same backing array.
	base := make([]Field, 0, 8)
	base = append(base, Field{"request_id", "req-1"})
	parent := context.WithValue(context.Background(), observabilityKey, base)

	first := WithFields(parent, Field{"call_id", "call-a"})
	_ = WithFields(parent, Field{"call_id", "call-b"})

	fields := getObservabilityFields(first)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[1].Value != "call-a" {
		t.Errorf("sibling context overwrote field: got %v", fields[1].Value)
	}
}

func TestMergeFieldsDeduplicates(t *testing.T) {
	ctx := WithFields(context.Background(), Field{"status", "connecting"})

	merged := mergeFields(ctx, []MetricField{
		{"status", "connected"},
		{"latency", 42},
	})

	if len(merged) != 2 {
		t.Fatalf("expected 2 merged fields, got %d", len(merged))
	}
}

func TestGetObservabilityFieldsEmptyContext(t *testing.T) {
	if fields := getObservabilityFields(context.Background()); fields != nil {
		t.Errorf("expected nil fields for empty context, got %v", fields)
	}
}
