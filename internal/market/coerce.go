// Package market implements the normalization and selection pipeline: it turns
// loosely typed Gamma records into MarketRecords, admits tradable candidates
// inside a time window and picks one crypto and one sports focus market.
//
// Everything here is synchronous and free of shared state; the only impure
// input is the clock read when computing hours to close.
package market

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ParseListField accepts a native slice or a JSON-encoded string of an array
// and returns its elements. Any other input, including JSON that decodes to a
// non-array, yields ok=false.
func ParseListField(v any) ([]any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case []any:
		return val, true
	case string:
		return decodeList([]byte(val))
	case json.RawMessage:
		return decodeList(val)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func decodeList(data []byte) ([]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	list, ok := parsed.([]any)
	if !ok {
		return nil, false
	}
	return list, true
}

// ParseFloat coerces numbers, json.Number and numeric strings to float64.
// It reports ok=false on nil, malformed strings and unsupported types.
func ParseFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := strconv.ParseFloat(val.String(), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// parseBool follows the Gamma convention of sending flags as JSON bools,
// "true"/"false" strings or 0/1 numbers. Anything unrecognized is false.
func parseBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		s := strings.TrimSpace(val)
		return strings.EqualFold(s, "true") || s == "1"
	case nil:
		return false
	}
	if f, ok := ParseFloat(v); ok {
		return f != 0
	}
	return false
}

// stringify renders a scalar the way it appeared upstream. Numbers keep their
// full digits so 76-digit token ids are not mangled into exponent form.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// optionalString passes a metadata field through, mapping absent to nil.
func optionalString(v any) *string {
	if v == nil {
		return nil
	}
	s := stringify(v)
	return &s
}
