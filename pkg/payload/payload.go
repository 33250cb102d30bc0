// Package payload provides tolerant accessors over loosely-typed backend
// results.
//
// Analysis modules return JSON whose shape is not enforced anywhere upstream:
// any field may be missing, null or of an unexpected type. Values are kept as
// gjson results so object keys stay in the order the backend sent them, and
// every accessor here degrades to "absent" instead of failing.
package payload

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// maxSafeInteger is the largest integer a JSON number holds without loss.
const maxSafeInteger = 1<<53 - 1

// Parse parses raw JSON bytes. Invalid JSON yields an absent value.
func Parse(data []byte) gjson.Result {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}
	}
	return gjson.ParseBytes(data)
}

// FromValue converts an already-decoded Go value into a result. Go maps carry
// no key order, so object keys come back sorted.
func FromValue(v any) gjson.Result {
	data, err := json.Marshal(v)
	if err != nil {
		return gjson.Result{}
	}
	return Parse(data)
}

// IsObject reports whether v is a JSON object.
func IsObject(v gjson.Result) bool {
	return v.Exists() && v.IsObject()
}

// IsArray reports whether v is a JSON array.
func IsArray(v gjson.Result) bool {
	return v.Exists() && v.IsArray()
}

// Present reports whether v exists and is not null.
func Present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

// Field returns the value of the first name that is present on obj. Missing
// and null values fall through to the next name; empty strings and false do
// not. Keys are compared literally, so names may contain characters that are
// special in gjson paths. For duplicate keys the last occurrence wins.
func Field(obj gjson.Result, names ...string) gjson.Result {
	if !IsObject(obj) {
		return gjson.Result{}
	}
	for _, name := range names {
		if v := lookup(obj, name); Present(v) {
			return v
		}
	}
	return gjson.Result{}
}

func lookup(obj gjson.Result, name string) gjson.Result {
	var found gjson.Result
	obj.ForEach(func(key, value gjson.Result) bool {
		if key.String() == name {
			found = value
		}
		return true
	})
	return found
}

// Each calls fn for every element of an array, in order. Non-arrays are
// ignored.
func Each(arr gjson.Result, fn func(v gjson.Result)) {
	if !IsArray(arr) {
		return
	}
	arr.ForEach(func(_, value gjson.Result) bool {
		fn(value)
		return true
	})
}

// EachEntry calls fn for every key/value pair of an object, in document order.
// Non-objects are ignored.
func EachEntry(obj gjson.Result, fn func(key string, v gjson.Result)) {
	if !IsObject(obj) {
		return
	}
	obj.ForEach(func(key, value gjson.Result) bool {
		fn(key.String(), value)
		return true
	})
}

// Len returns the number of elements of an array, or 0 for anything else.
func Len(arr gjson.Result) int {
	n := 0
	Each(arr, func(gjson.Result) { n++ })
	return n
}

// Scalar stringifies a string, number or boolean. Null, missing values,
// objects and arrays are not identifiers and report false.
func Scalar(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		return v.Str, true
	case gjson.Number:
		return FormatNumber(v.Num), true
	case gjson.True:
		return "true", true
	case gjson.False:
		return "false", true
	default:
		return "", false
	}
}

// FormatNumber prints a number in its shortest decimal form, so 1, 1.0 and
// 1e0 all become "1".
func FormatNumber(n float64) string {
	if math.Abs(n) >= 1e21 {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// BlockID extracts a block id from an integral number or a string of ASCII
// digits. Any other value is absent, which is distinct from block 0.
func BlockID(v gjson.Result) (int, bool) {
	switch v.Type {
	case gjson.Number:
		n := v.Num
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || math.Abs(n) > maxSafeInteger {
			return 0, false
		}
		return int(n), true
	case gjson.String:
		if !isDigits(v.Str) {
			return 0, false
		}
		id, err := strconv.Atoi(v.Str)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Lines converts an array into text lines. Scalars are stringified, null
// becomes "null" and composite items keep their raw JSON text. Non-arrays
// yield nil.
func Lines(arr gjson.Result) []string {
	if !IsArray(arr) {
		return nil
	}
	lines := make([]string, 0)
	Each(arr, func(item gjson.Result) {
		lines = append(lines, Text(item))
	})
	return lines
}

// Text renders a single value as one line of text.
func Text(v gjson.Result) string {
	if s, ok := Scalar(v); ok {
		return s
	}
	if v.Type == gjson.Null {
		return "null"
	}
	return v.Raw
}
