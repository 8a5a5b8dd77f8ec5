// Package services is the application core of the Homes client.
//
// SessionStore owns the authentication session: it restores the persisted
// token and user record at startup, logs in, registers and logs out, and
// notifies subscribers on every state change. Gate answers access
// questions from the store's current state. CatalogService composes the
// REST client with the query cache for browsing, inquiries and the admin
// area.
//
// Public operations never panic and report failures as typed outcomes:
// AuthResult for credential actions, cache.Result plus an error for
// catalog reads, and *ValidationError for input rejected before any
// network call.
package services
