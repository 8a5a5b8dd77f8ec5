// Package client is the transport boundary of the Homes client.
//
// # Overview
//
// Client is the contract the core depends on: catalog reads (properties,
// a property by ID or slug), inquiry submission, authentication (login,
// register, current user) and the admin mutations. HTTPClient implements
// it against the REST API; it keeps no catalog or session state of its
// own and is safe for concurrent use. Bearer credentials come from an
// optional TokenSource, normally the session store.
//
// # Error Handling
//
// Every failure is one of two types:
//
//   - *TransportError: no response was received (dial failure, timeout,
//     cancelled context). Retryable unless the caller cancelled.
//   - *ResponseError: the server answered with a non-success status, or a
//     success body that could not be decoded. Retryable only for 5xx.
//
// Both match the sentinels ErrUnavailable, ErrUnauthorized and ErrNotFound
// through errors.Is. IsRetryable encodes the retry policy.
package client
