// Package api exposes NDAVault over HTTP: the plan catalog, subscription
// management, agreement storage, billing webhooks and the manual alert
// trigger. Router mounts each module under its path and guards the
// per-user routes with a bearer JWT.
package api
