package feedback_test

import (
	"testing"

	"github.com/MrWong99/elocute/internal/feedback"
)

func TestGuard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		overall     *int
		targetMatch *int
		confidence  *int
		isTarget    bool
		want        int
	}{
		{"trusted", intPtr(90), intPtr(95), intPtr(80), true, 90},
		{"capped by target match", intPtr(90), intPtr(30), intPtr(80), true, 30},
		{"low english confidence", intPtr(90), intPtr(95), intPtr(30), true, 20},
		{"confidence at threshold", intPtr(90), intPtr(95), intPtr(50), true, 90},
		{"not target sentence", intPtr(90), intPtr(95), intPtr(80), false, 20},
		{"not target sentence low score", intPtr(12), nil, nil, false, 12},
		{"unknown overall", nil, intPtr(95), intPtr(80), true, 0},
		{"unknown target match passes through", intPtr(77), nil, intPtr(80), true, 77},
		{"unknown confidence trusted", intPtr(64), intPtr(70), nil, true, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := feedback.Guard(tt.overall, tt.targetMatch, tt.confidence, tt.isTarget)
			if got != tt.want {
				t.Errorf("Guard() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGuard_NotTargetNeverAboveCeiling(t *testing.T) {
	t.Parallel()

	values := []*int{nil, intPtr(0), intPtr(20), intPtr(21), intPtr(50), intPtr(100)}
	for _, o := range values {
		for _, m := range values {
			for _, c := range values {
				if got := feedback.Guard(o, m, c, false); got > feedback.UnverifiedCeiling {
					t.Fatalf("Guard(%v, %v, %v, false) = %d, want <= %d",
						fmtScore(o), fmtScore(m), fmtScore(c), got, feedback.UnverifiedCeiling)
				}
			}
		}
	}
}

func TestGuard_Monotonic(t *testing.T) {
	t.Parallel()

	conf := intPtr(90)
	for _, isTarget := range []bool{true, false} {
		for fixed := 0; fixed <= 100; fixed += 10 {
			prevO, prevM := -1, -1
			for v := 0; v <= 100; v++ {
				byOverall := feedback.Guard(intPtr(v), intPtr(fixed), conf, isTarget)
				if byOverall < prevO {
					t.Fatalf("not monotonic in overall at %d (targetMatch=%d)", v, fixed)
				}
				prevO = byOverall

				byMatch := feedback.Guard(intPtr(fixed), intPtr(v), conf, isTarget)
				if byMatch < prevM {
					t.Fatalf("not monotonic in targetMatch at %d (overall=%d)", v, fixed)
				}
				prevM = byMatch
			}
		}
	}
}
