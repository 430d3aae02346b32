package feedback_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/MrWong99/elocute/internal/feedback"
)

func intPtr(n int) *int { return &n }

func equalScore(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtScore(p *int) any {
	if p == nil {
		return "nil"
	}
	return *p
}

func TestNormalizeScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  any
		want *int
	}{
		{"ten point scale", 7.5, intPtr(75)},
		{"ten maps to hundred", 10, intPtr(100)},
		{"small fraction", 0.04, intPtr(0)},
		{"half rounds up after scaling", 0.25, intPtr(3)},
		{"zero stays zero", 0, intPtr(0)},
		{"percent scale", 87, intPtr(87)},
		{"just above ten", 10.4, intPtr(10)},
		{"half rounds up", 42.5, intPtr(43)},
		{"negative half rounds up", -0.5, intPtr(0)},
		{"clamped high", 150, intPtr(100)},
		{"clamped low", -5, intPtr(0)},
		{"huge", 1e300, intPtr(100)},
		{"float32", float32(9), intPtr(90)},
		{"int64", int64(55), intPtr(55)},
		{"uint8", uint8(3), intPtr(30)},
		{"json number", json.Number("8"), intPtr(80)},
		{"json number overflow", json.Number("1e400"), nil},
		{"string is not coerced", "90", nil},
		{"bool", true, nil},
		{"nil", nil, nil},
		{"NaN", math.NaN(), nil},
		{"positive infinity", math.Inf(1), nil},
		{"negative infinity", math.Inf(-1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := feedback.NormalizeScore(tt.raw)
			if !equalScore(got, tt.want) {
				t.Errorf("NormalizeScore(%v) = %v, want %v", tt.raw, fmtScore(got), fmtScore(tt.want))
			}
		})
	}
}

func TestNormalizeScore_ScalingProperty(t *testing.T) {
	t.Parallel()

	for i := 1; i <= 200; i++ {
		x := float64(i) / 20
		got := feedback.NormalizeScore(x)
		want := int(math.Min(100, math.Floor(x*10+0.5)))
		if got == nil || *got != want {
			t.Fatalf("NormalizeScore(%v) = %v, want %d", x, fmtScore(got), want)
		}
	}
	for x := 10.5; x <= 200; x += 0.5 {
		got := feedback.NormalizeScore(x)
		want := int(math.Min(100, math.Floor(x+0.5)))
		if got == nil || *got != want {
			t.Fatalf("NormalizeScore(%v) = %v, want %d", x, fmtScore(got), want)
		}
	}
}
