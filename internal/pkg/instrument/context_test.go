package instrument

import (
	"context"
	"testing"
)

func TestCorrelationID(t *testing.T) {
	t.Run("round trips through the context", func(t *testing.T) {
		ctx := SetCorrelationID(context.Background(), "cid-123")

		if got := GetCorrelationID(ctx); got != "cid-123" {
			t.Errorf("GetCorrelationID = %q, want %q", got, "cid-123")
		}
	})

	t.Run("empty when unset", func(t *testing.T) {
		if got := GetCorrelationID(context.Background()); got != "" {
			t.Errorf("GetCorrelationID = %q, want empty", got)
		}
	})

	t.Run("overwrites a previous value", func(t *testing.T) {
		ctx := SetCorrelationID(context.Background(), "first")
		ctx = SetCorrelationID(ctx, "second")

		if got := GetCorrelationID(ctx); got != "second" {
			t.Errorf("GetCorrelationID = %q, want %q", got, "second")
		}
	})
}
