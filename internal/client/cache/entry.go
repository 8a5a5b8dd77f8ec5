package cache

import "time"

// Status is the lifecycle state of a cache entry.
type Status string

const (
	// StatusPending means no data has been fetched yet and a fetch is running.
	StatusPending Status = "PENDING"
	StatusFresh   Status = "FRESH"
	// StatusStale marks data that is still shown but must be refetched on
	// the next read.
	StatusStale Status = "STALE"
	StatusError Status = "ERROR"
)

// Entry is an immutable snapshot of one cache slot.
type Entry struct {
	Key       string
	Data      any
	Status    Status
	FetchedAt time.Time
	Err       error
	// Seq is the sequence number of the latest fetch issued for Key.
	Seq uint64
	// Fetching is true while a fetch for Key is in flight.
	Fetching bool
}

// HasData reports whether a fetch ever succeeded for the key.
func (e Entry) HasData() bool { return !e.FetchedAt.IsZero() }

// Result is the typed view of an Entry returned by Query.
type Result[T any] struct {
	Data      T
	Status    Status
	Err       error
	FetchedAt time.Time
}

// Stale reports whether Data may be out of date.
func (r Result[T]) Stale() bool {
	return r.Status == StatusStale || r.Status == StatusError
}
