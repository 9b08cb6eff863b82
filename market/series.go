package market

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// closeKeys are the map keys checked, in order, for a closing price.
var closeKeys = []string{"Close", "close", "CLOSE", "c", "price", "value"}

// ToNumber converts a loosely typed close value into a finite float.
//
// Accepted shapes: any integer or float kind, strings (a comma decimal
// separator is accepted) and decoded JSON objects keyed by one of the close
// field names. Anything else reports false.
func ToNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case string:
		s := strings.Replace(strings.TrimSpace(x), ",", ".", 1)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return finite(n)
	case map[string]any:
		for _, k := range closeKeys {
			if c, ok := x[k]; ok && c != nil {
				return ToNumber(c)
			}
		}
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Pointer:
		if rv.IsNil() {
			return 0, false
		}
		return ToNumber(rv.Elem().Interface())
	}
	return 0, false
}

func finite(x float64) (float64, bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

// Sanitize keeps the positive finite closes from values, in order.
// Invalid entries are dropped, never zero-filled.
func Sanitize(values []any) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if n, ok := ToNumber(v); ok && n > 0 {
			out = append(out, n)
		}
	}
	return out
}

// SanitizeFloats drops non-finite and non-positive closes.
func SanitizeFloats(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if n, ok := finite(v); ok && n > 0 {
			out = append(out, n)
		}
	}
	return out
}

// Last returns the final close of a series.
func Last(closes []float64) (float64, bool) {
	if len(closes) == 0 {
		return 0, false
	}
	return closes[len(closes)-1], true
}
