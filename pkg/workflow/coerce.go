package workflow

import (
	"reflect"
	"strings"
)

// falseStrings are the string spellings that coerce to false after
// trimming and lowercasing.
var falseStrings = map[string]struct{}{
	"": {}, "0": {}, "false": {}, "none": {}, "null": {}, "no": {}, "off": {},
}

// coerceBool converts a templated return value into a boolean flag:
// booleans pass through, nil is false, numeric zero is false, strings are
// false only when they spell an empty/negative value, and containers are
// false only when empty.
func coerceBool(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		_, isFalse := falseStrings[strings.ToLower(strings.TrimSpace(typed))]

		return !isFalse
	case int:
		return typed != 0
	case int32:
		return typed != 0
	case int64:
		return typed != 0
	case uint:
		return typed != 0
	case float32:
		return typed != 0
	case float64:
		return typed != 0
	default:
		reflected := reflect.ValueOf(value)

		switch reflected.Kind() {
		case reflect.Slice, reflect.Map, reflect.Array:
			return reflected.Len() > 0
		case reflect.Ptr, reflect.Interface:
			return !reflected.IsNil()
		default:
			return true
		}
	}
}
