package binder

import "net/http"

// BindQuery binds fields tagged `query:"name"` from the URL query string.
func BindQuery() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrInvalidQuery)
	}
}
