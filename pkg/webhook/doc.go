// Package webhook authenticates inbound webhook deliveries signed with a
// shared secret: the signature is the hex HMAC-SHA256 of the raw request body.
package webhook
