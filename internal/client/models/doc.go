// Package models defines the catalog and session records exchanged with
// the Homes REST API and kept by the client core.
package models
