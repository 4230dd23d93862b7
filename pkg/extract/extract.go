// Package extract resolves dot-delimited paths inside parsed JSON documents and
// coerces the values it finds to the types facilities are built from.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrPathNotFound = errors.New("path not found")
	ErrTypeMismatch = errors.New("type mismatch")
)

// PathError reports a failed lookup or coercion. ItemID is set when the
// failure happened inside an item whose id is already known.
type PathError struct {
	Path   string
	ItemID string
	Err    error
	detail string
}

func (e *PathError) Error() string {
	msg := fmt.Sprintf("%s: %q", e.Err, e.Path)
	if e.ItemID != "" {
		msg += fmt.Sprintf(" (item %q)", e.ItemID)
	}
	if e.detail != "" {
		msg += ": " + e.detail
	}
	return msg
}

func (e *PathError) Unwrap() error { return e.Err }

// WithItem attaches the enclosing item id to a PathError. Other errors are
// returned untouched.
func WithItem(err error, itemID string) error {
	var pe *PathError
	if errors.As(err, &pe) {
		cp := *pe
		cp.ItemID = itemID
		return &cp
	}
	return err
}

func notFound(path string) error {
	return &PathError{Path: path, Err: ErrPathNotFound}
}

func mismatch(path string, format string, args ...interface{}) error {
	return &PathError{Path: path, Err: ErrTypeMismatch, detail: fmt.Sprintf(format, args...)}
}

// Parse decodes a JSON document keeping numbers as json.Number. Trailing data
// after the first value is an error.
func Parse(body []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON value")
	}
	return doc, nil
}

// Lookup walks nested objects one path segment at a time.
func Lookup(doc interface{}, path string) (interface{}, error) {
	if path == "" {
		return nil, notFound(path)
	}
	current := doc
	for _, segment := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, notFound(path)
		}
		next, ok := obj[segment]
		if !ok {
			return nil, notFound(path)
		}
		current = next
	}
	return current, nil
}

// List resolves path to an array of objects.
func List(doc interface{}, path string) ([]map[string]interface{}, error) {
	v, err := Lookup(doc, path)
	if err != nil {
		return nil, err
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, mismatch(path, "expected a list, got %s", kindOf(v))
	}
	items := make([]map[string]interface{}, 0, len(raw))
	for i, entry := range raw {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			return nil, mismatch(path, "element %d is %s, expected an object", i, kindOf(entry))
		}
		items = append(items, obj)
	}
	return items, nil
}

func String(doc interface{}, path string) (string, error) {
	v, err := Lookup(doc, path)
	if err != nil {
		return "", err
	}
	return toString(v, path)
}

// NullableString returns nil for a JSON null.
func NullableString(doc interface{}, path string) (*string, error) {
	v, err := Lookup(doc, path)
	if err != nil || v == nil {
		return nil, err
	}
	s, err := toString(v, path)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func Float(doc interface{}, path string) (float64, error) {
	v, err := Lookup(doc, path)
	if err != nil {
		return 0, err
	}
	var f float64
	switch val := v.(type) {
	case json.Number:
		if f, err = val.Float64(); err != nil {
			return 0, mismatch(path, "%s is not a float", val)
		}
	case float64:
		f = val
	case string:
		if f, err = strconv.ParseFloat(strings.TrimSpace(val), 64); err != nil {
			return 0, mismatch(path, "%q is not a float", val)
		}
	default:
		return 0, mismatch(path, "expected a number, got %s", kindOf(v))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, mismatch(path, "%v is not a finite number", v)
	}
	return f, nil
}

func Int(doc interface{}, path string) (int, error) {
	v, err := Lookup(doc, path)
	if err != nil {
		return 0, err
	}
	return toInt(v, path)
}

// NullableInt returns nil for a JSON null.
func NullableInt(doc interface{}, path string) (*int, error) {
	v, err := Lookup(doc, path)
	if err != nil || v == nil {
		return nil, err
	}
	n, err := toInt(v, path)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func toString(v interface{}, path string) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", mismatch(path, "expected a string, got %s", kindOf(v))
	}
}

func toInt(v interface{}, path string) (int, error) {
	var text string
	switch val := v.(type) {
	case json.Number:
		text = val.String()
	case float64:
		text = strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		text = strings.TrimSpace(val)
	default:
		return 0, mismatch(path, "expected an integer, got %s", kindOf(v))
	}
	// Values must fit in 32 bits however they are written. 70.0 style
	// integers are accepted, anything with a fractional part is not.
	if n, err := strconv.ParseInt(text, 10, 32); err == nil {
		return int(n), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, mismatch(path, "%q is not a 32-bit integer", text)
	}
	return int(f), nil
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "an object"
	case []interface{}:
		return "a list"
	case string:
		return "a string"
	case json.Number, float64:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
