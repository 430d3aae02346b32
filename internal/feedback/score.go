package feedback

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// NormalizeScore converts a raw model score to an integer percentage.
//
// Values in (0, 10] are read as a ten-point scale and multiplied by 10. The
// result is rounded half up and clamped to [0, 100]. Non-numeric input and
// NaN or infinite values yield nil. Strings are never coerced, even when they
// spell a number.
//
// raw may be any Go integer or float kind, or a [json.Number].
func NormalizeScore(raw any) *int {
	v, ok := toFloat(raw)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	if v > 0 && v <= 10 {
		v *= 10
	}
	n := int(math.Max(MinScore, math.Min(MaxScore, math.Floor(v+0.5))))
	return &n
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case json.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil && !math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case float64:
		return v, true
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// clamp bounds n to [MinScore, MaxScore].
func clamp(n int) int {
	return max(MinScore, min(MaxScore, n))
}
