// Package metrics holds the Prometheus collectors exported by the service.
//
// Every collector set is registered on an explicit prometheus.Registerer so
// tests can use a private registry. All methods are safe on a nil receiver,
// which lets callers treat metrics as optional.
package metrics
