// Package testserver is an in-process fake of the Homes REST API used by
// tests. It serves the catalog, inquiry, auth and admin endpoints from
// memory, counts calls per route, and lets a test inject failures or block
// a route until it is released.
//
// Routes are identified by "<METHOD> <pattern>" relative to the API root,
// e.g. "GET /properties" or "POST /auth/login".
package testserver
