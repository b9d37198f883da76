package misc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

func Float64Pointer(f float64) *float64 {
	return &f
}

// ToFloat converts a decoded JSON value into a float64.
// Numbers and numeric strings are accepted, everything else is an error.
func ToFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	case nil:
		return 0, fmt.Errorf("value is missing")
	default:
		return 0, fmt.Errorf("value of type %T is not numeric", v)
	}
}

// ToString converts a decoded JSON scalar into a string, missing values become ""
func ToString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}
