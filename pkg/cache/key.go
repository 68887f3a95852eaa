package cache

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// KeyPrefix is the namespace every cache key starts with.
const KeyPrefix = "cms"

// Key identifies one logical cached call.
type Key struct {
	// Operation is the logical operation name (e.g., "content.list")
	Operation string

	// Params is the parameter bag of the call (filters, pagination, search term).
	// Nil values are skipped so an unset optional parameter and an absent one
	// produce the same key. Scalars are rendered by their text form, so 1 and
	// "1" produce the same key, as they would in a query string.
	Params map[string]any
}

// BuildKey is shorthand for Key{Operation: op, Params: params}.String().
func BuildKey(op string, params map[string]any) string {
	return Key{Operation: op, Params: params}.String()
}

// Prefix returns the prefix shared by every key built for op,
// suitable for Cache.DeletePrefix.
//
// Example:
//
//	Prefix("content.") == "cms:content."
func Prefix(op string) string {
	return KeyPrefix + ":" + op
}

// String generates a deterministic cache key string.
// Parameter names are sorted, so the order in which the bag was filled
// never changes the key.
// Format: cms:operation:param1=val1:param2=val2
//
// Example:
//
//	cms:content.list:limit=20:offset=40:status=draft
func (k Key) String() string {
	parts := []string{KeyPrefix}

	if op := strings.TrimSpace(k.Operation); op != "" {
		parts = append(parts, op)
	}

	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name, value := range k.Params {
			if isNil(value) {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			var sb strings.Builder
			sb.WriteString(url.QueryEscape(name))
			sb.WriteByte('=')
			writeValue(&sb, reflect.ValueOf(k.Params[name]))
			parts = append(parts, sb.String())
		}
	}

	return strings.Join(parts, ":")
}

// writeValue serializes v recursively: maps as {a=1,b=2} with sorted keys,
// slices and arrays as [x,y], strings query-escaped, other values literally.
func writeValue(sb *strings.Builder, v reflect.Value) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			sb.WriteString("null")
			return
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Invalid:
		sb.WriteString("null")
	case reflect.String:
		sb.WriteString(url.QueryEscape(v.String()))
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			sb.WriteString("null")
			return
		}
		sb.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeValue(sb, v.Index(i))
		}
		sb.WriteByte(']')
	case reflect.Map:
		if v.IsNil() {
			sb.WriteString("null")
			return
		}
		keys := make([]string, 0, v.Len())
		values := make(map[string]reflect.Value, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			name := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, name)
			values[name] = iter.Value()
		}
		sort.Strings(keys)

		sb.WriteByte('{')
		for i, name := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(url.QueryEscape(name))
			sb.WriteByte('=')
			writeValue(sb, values[name])
		}
		sb.WriteByte('}')
	default:
		fmt.Fprint(sb, v.Interface())
	}
}

// isNil reports whether value is nil or a nil pointer, map or slice.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
