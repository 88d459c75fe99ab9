// Package binder populates request structs from JSON bodies, query strings,
// path parameters and multipart forms.
//
// Binders share one signature, func(r *http.Request, v any) error, and are
// composed by handler.WithBinders. Struct tags select the source of each
// field: `json`, `query`, `path`, `form` and `file`. BindJSON and Validate run
// go-playground/validator `validate` tags after decoding.
package binder
