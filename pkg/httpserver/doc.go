// Package httpserver runs an http.Handler until its context is cancelled and
// then drains in-flight requests within a bounded shutdown window.
//
// Signal handling is left to the caller, which usually derives the context
// from signal.NotifyContext and runs several servers under one errgroup.
package httpserver
