// Package webhook applies payment-provider events to local subscription state.
//
// A Parser turns a signed request body into a provider-neutral Event. The
// Dispatcher routes each Event kind to exactly one handler, which writes
// through subscription.Store. Events carry their provider timestamp so an
// older event never overwrites a newer one, and replaying an event leaves the
// record unchanged.
package webhook
