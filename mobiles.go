// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package dingtalk

import (
	"fmt"
	"strings"
)

// ParseMobiles normalizes a loosely typed list of mobile numbers to mention.
//
// A nil value yields an empty list. A string is split on commas; each part is
// trimmed and empty parts are dropped, so "138, 139" yields two numbers. To
// mention a single number that contains a comma, pass a []string instead.
// A []string or a []any holding only strings is copied as is. Anything else
// fails with ErrInvalidArgument.
//
// The returned slice is always non-nil and never shares memory with v.
func ParseMobiles(v any) ([]string, error) {
	switch v := v.(type) {
	case nil:
		return []string{}, nil
	case string:
		return splitMobiles(v), nil
	case []string:
		return append([]string{}, v...), nil
	case []any:
		mobiles := make([]string, 0, len(v))
		for i, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("%w: mobile %d is %T, not a string", ErrInvalidArgument, i, elem)
			}
			mobiles = append(mobiles, s)
		}
		return mobiles, nil
	default:
		return nil, fmt.Errorf("%w: mobiles must be a string or a list of strings, got %T", ErrInvalidArgument, v)
	}
}

func splitMobiles(s string) []string {
	mobiles := []string{}
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			mobiles = append(mobiles, part)
		}
	}
	return mobiles
}
