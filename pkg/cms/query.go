package cms

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// filterParams turns a filter struct into a parameter bag.
// Fields are named by their mapstructure tags; zero fields tagged
// omitempty are left out so unset filters do not fragment the cache.
// Pointer fields are tri-state: nil is unset, otherwise the pointee is sent.
func filterParams(filter any) (map[string]any, error) {
	params := map[string]any{}
	if filter == nil {
		return params, nil
	}
	if v := reflect.ValueOf(filter); v.Kind() == reflect.Ptr && v.IsNil() {
		return params, nil
	}

	if err := mapstructure.Decode(filter, &params); err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}

	for name, value := range params {
		if isEmpty(value) {
			delete(params, name)
			continue
		}
		// Optional filters (*bool and the like) are stored by value.
		if v := reflect.ValueOf(value); v.Kind() == reflect.Ptr {
			params[name] = v.Elem().Interface()
		}
	}
	return params, nil
}

// isEmpty reports zero values, including empty slices that omitempty keeps.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// mergeParams returns a new bag holding every entry of the given bags.
// Later bags win.
func mergeParams(bags ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, bag := range bags {
		for k, v := range bag {
			out[k] = v
		}
	}
	return out
}

// toQuery converts a parameter bag into URL query values.
// Slices become repeated parameters.
func toQuery(params map[string]any) url.Values {
	query := url.Values{}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := reflect.ValueOf(params[name])
		if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
			for i := 0; i < v.Len(); i++ {
				query.Add(name, fmt.Sprint(v.Index(i).Interface()))
			}
			continue
		}
		query.Set(name, fmt.Sprint(params[name]))
	}
	return query
}
