// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package starconv converts Starlark values to Go values and back.
package starconv

import (
	"fmt"

	"go.starlark.net/starlark"
)

// FromValue converts v to a Go value.
//
// None becomes nil, bool, string and bytes map to bool, string and []byte,
// integers become int64, floats become float64, lists and tuples become
// []any and dicts with string keys become map[string]any. Other values are
// an error.
func FromValue(v starlark.Value) (any, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.String:
		return string(v), nil
	case starlark.Bytes:
		return []byte(v), nil
	case starlark.Int:
		i, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %s out of range", v)
		}
		return i, nil
	case starlark.Float:
		return float64(v), nil
	case *starlark.List:
		return iterableToSlice(v, v.Len())
	case starlark.Tuple:
		return iterableToSlice(v, v.Len())
	case *starlark.Dict:
		m := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key %s is %s, not a string", item[0], item[0].Type())
			}
			val, err := FromValue(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", string(key), err)
			}
			m[string(key)] = val
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported Starlark type: %s", v.Type())
	}
}

func iterableToSlice(v starlark.Iterable, n int) ([]any, error) {
	s := make([]any, 0, n)
	it := v.Iterate()
	defer it.Done()
	var elem starlark.Value
	for i := 0; it.Next(&elem); i++ {
		conv, err := FromValue(elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		s = append(s, conv)
	}
	return s, nil
}

// ToValue converts a Go value produced by FromValue, or a JSON-like Go value
// (int, int64, float64, bool, string, []any, map[string]any), to a Starlark
// value.
func ToValue(val any) (starlark.Value, error) {
	switch v := val.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(v), nil
	case string:
		return starlark.String(v), nil
	case []byte:
		return starlark.Bytes(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case float64:
		return starlark.Float(v), nil
	case []any:
		list := make([]starlark.Value, 0, len(v))
		for _, item := range v {
			conv, err := ToValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, conv)
		}
		return starlark.NewList(list), nil
	case map[string]any:
		dict := starlark.NewDict(len(v))
		for key, value := range v {
			conv, err := ToValue(value)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			if err := dict.SetKey(starlark.String(key), conv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported Go type: %T", val)
	}
}
