// Package common holds wire and storage constants shared by the Homes
// client packages.
package common

// HTTP headers.
const (
	AuthorizationHeader = "Authorization"
	RequestIDHeader     = "X-Request-ID"
	BearerPrefix        = "Bearer "
	ContentTypeJSON     = "application/json"
)

// Keys of the persisted session in the metadata table.
const (
	TokenKey = "token"
	UserKey  = "user"
)
