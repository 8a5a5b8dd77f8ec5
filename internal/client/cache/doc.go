// Package cache is the client-side query cache.
//
// An Engine keeps one Entry per canonical key (see query.Descriptor.Key)
// for the lifetime of the process. Reads of a FRESH entry never touch the
// network. A missing, STALE or explicitly refetched entry triggers a single
// fetch that every concurrent caller of the same key joins.
//
// Every fetch carries a per-key sequence number; only the result of the
// latest one is applied. Invalidate marks an entry STALE while keeping its
// data visible, and supersedes any fetch already in flight for it.
//
// A failed fetch is retried once after Options.RetryDelay when the error
// is retryable. When the retry fails too the entry moves to ERROR and the
// previously fetched data stays available.
//
// Fetches run detached from the caller's context: a caller that gives up
// stops waiting, the fetch completes under Options.FetchTimeout and its
// result still lands in the cache.
package cache
