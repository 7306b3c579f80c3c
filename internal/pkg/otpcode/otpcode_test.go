package otpcode

import (
	"errors"
	"testing"
)

func TestNewNumeric(t *testing.T) {
	if _, err := NewNumeric(3); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := NewNumeric(11); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := NewNumeric(6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNumericGenerate(t *testing.T) {
	gen, err := NewNumeric(6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]struct{})
	for range 200 {
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
		seen[code] = struct{}{}
	}

	// 200 draws from a million-code space should not all collide.
	if len(seen) < 100 {
		t.Fatalf("codes are not random enough: %d unique of 200", len(seen))
	}
}
