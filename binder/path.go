package binder

import (
	"fmt"
	"net/http"
	"reflect"
)

// BindPath binds fields tagged `path:"name"` using extractor, typically
// chi.URLParam. Types implementing encoding.TextUnmarshaler, such as
// uuid.UUID, are supported.
func BindPath(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	if extractor == nil {
		panic("binder: nil path extractor")
	}

	return func(r *http.Request, v any) error {
		rv, err := structValue(v, ErrInvalidPath)
		if err != nil {
			return err
		}

		values := make(map[string][]string)
		rt := rv.Type()
		for i := range rt.NumField() {
			name, skip := parseFieldTag(rt.Field(i), "path")
			if skip || !rv.Field(i).CanSet() {
				continue
			}
			if value := extractor(r, name); value != "" {
				values[name] = []string{value}
			}
		}
		return bindToStruct(v, "path", values, ErrInvalidPath)
	}
}

func structValue(v any, bindErr error) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: target must be a non-nil pointer", bindErr)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: target must be a pointer to struct", bindErr)
	}
	return rv, nil
}
