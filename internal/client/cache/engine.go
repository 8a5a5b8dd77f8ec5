package cache

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/homes/internal/client/client"
	"github.com/dmitrijs2005/homes/internal/logging"
)

const (
	DefaultRetryDelay   = time.Second
	DefaultFetchTimeout = 30 * time.Second
)

// FetchBudget returns a FetchTimeout that leaves room for both attempts of
// a fetch whose requests are each bounded by requestTimeout.
func FetchBudget(requestTimeout, retryDelay time.Duration) time.Duration {
	if requestTimeout <= 0 {
		return DefaultFetchTimeout
	}
	return 2*requestTimeout + max(retryDelay, 0) + max(requestTimeout/2, time.Second)
}

// FetchFunc loads the value of one key.
type FetchFunc func(ctx context.Context) (any, error)

type Options struct {
	// RetryDelay is the pause before the single retry of a failed fetch.
	RetryDelay time.Duration
	// FetchTimeout bounds a detached fetch, retry included.
	FetchTimeout time.Duration
	// IsRetryable decides whether a fetch error earns a retry. Defaults to
	// client.IsRetryable.
	IsRetryable func(error) bool
	Logger      logging.Logger
	Metrics     Metrics
	Now         func() time.Time
}

// call is one fetch in flight. done is closed when the fetch settles or a
// newer fetch for the same key supersedes it.
type call struct {
	seq  uint64
	done chan struct{}
	once sync.Once
	data any
	err  error
}

func (c *call) finish() { c.once.Do(func() { close(c.done) }) }

type slot struct {
	Entry
	fetch    FetchFunc
	origin   context.Context
	inflight *call
}

func (s *slot) snapshot() Entry { return s.Entry }

type subscriber struct {
	fn     func(Entry)
	active atomic.Bool
}

type notification struct {
	subs  []*subscriber
	entry Entry
}

// Engine is the query cache. The zero value is not usable; call New.
type Engine struct {
	opts    Options
	log     logging.Logger
	metrics Metrics

	mu      sync.Mutex
	slots   map[string]*slot
	subs    map[string]map[uint64]*subscriber
	nextSub uint64

	wg sync.WaitGroup
}

func New(opts Options) *Engine {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.IsRetryable == nil {
		opts.IsRetryable = client.IsRetryable
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		opts:    opts,
		log:     opts.Logger.With("component", "cache"),
		metrics: opts.Metrics,
		slots:   make(map[string]*slot),
		subs:    make(map[string]map[uint64]*subscriber),
	}
}

// Do returns the entry for key, fetching it when it is not FRESH. The
// returned error is only ever ctx.Err(); fetch failures are reported in
// Entry.Err with StatusError.
func (e *Engine) Do(ctx context.Context, key string, fetch FetchFunc) (Entry, error) {
	return e.get(ctx, key, fetch, false)
}

// Refetch fetches key even when its entry is FRESH. A fetch already in
// flight is joined instead of duplicated.
func (e *Engine) Refetch(ctx context.Context, key string, fetch FetchFunc) (Entry, error) {
	return e.get(ctx, key, fetch, true)
}

func (e *Engine) get(ctx context.Context, key string, fetch FetchFunc, force bool) (Entry, error) {
	if err := ctx.Err(); err != nil {
		snap, _ := e.Peek(key)
		return snap, err
	}

	e.mu.Lock()
	s, created := e.slotLocked(key)
	if !force && s.Status == StatusFresh {
		snap := s.snapshot()
		e.mu.Unlock()
		e.metrics.RecordHit()
		e.log.Debug(ctx, "cache hit", "key", key)
		return snap, nil
	}

	s.fetch = fetch
	c := s.inflight
	var n *notification
	if c != nil {
		e.metrics.RecordJoin()
	} else {
		c = e.startLocked(context.WithoutCancel(ctx), s)
		n = e.notificationLocked(s)
		e.metrics.RecordMiss()
	}
	count := len(e.slots)
	e.mu.Unlock()

	if created {
		e.metrics.SetEntries(count)
	}
	e.deliver(n)
	return e.wait(ctx, key, c)
}

func (e *Engine) slotLocked(key string) (*slot, bool) {
	if s, ok := e.slots[key]; ok {
		return s, false
	}
	s := &slot{Entry: Entry{Key: key, Status: StatusPending}}
	e.slots[key] = s
	return s, true
}

// startLocked issues a new fetch for s with the next sequence number,
// superseding any fetch still in flight. origin carries the request-scoped
// values of the caller but not its cancellation.
func (e *Engine) startLocked(origin context.Context, s *slot) *call {
	s.Seq++
	c := &call{seq: s.Seq, done: make(chan struct{})}
	if s.inflight != nil {
		s.inflight.finish()
	}
	s.inflight = c
	s.Fetching = true
	if !s.HasData() {
		s.Status = StatusPending
	}
	s.origin = origin

	e.wg.Add(1)
	go e.run(origin, s.Key, c, s.fetch)
	return c
}

func (e *Engine) run(parent context.Context, key string, c *call, fetch FetchFunc) {
	defer e.wg.Done()

	ctx, cancel := context.WithTimeout(parent, e.opts.FetchTimeout)
	defer cancel()

	attempt := 0
	backoff := retry.WithMaxRetries(1, retry.NewConstant(e.opts.RetryDelay))
	data, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (any, error) {
		attempt++
		if attempt > 1 {
			e.metrics.RecordRetry()
			e.log.Debug(ctx, "retrying fetch", "key", key, "seq", c.seq)
		}
		v, err := safeFetch(ctx, fetch)
		if err != nil && e.opts.IsRetryable(err) {
			return nil, retry.RetryableError(err)
		}
		return v, err
	})
	if err != nil && parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		var te *client.TransportError
		if !errors.As(err, &te) {
			err = &client.TransportError{Op: "fetch " + key, Err: err}
		}
	}

	e.settle(ctx, key, c, data, err)
}

func safeFetch(ctx context.Context, fetch FetchFunc) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return fetch(ctx)
}

// settle applies the outcome of c when c is still the latest fetch of key
// and drops it otherwise.
func (e *Engine) settle(ctx context.Context, key string, c *call, data any, err error) {
	e.mu.Lock()
	c.data, c.err = data, err
	s := e.slots[key]
	if s == nil || s.inflight != c {
		e.mu.Unlock()
		e.metrics.RecordDiscarded()
		e.log.Debug(ctx, "discarding superseded fetch result", "key", key, "seq", c.seq)
		c.finish()
		return
	}

	s.inflight = nil
	s.Fetching = false
	if err == nil {
		s.Data = data
		s.Status = StatusFresh
		s.FetchedAt = e.opts.Now()
		s.Err = nil
	} else {
		s.Status = StatusError
		s.Err = err
	}
	n := e.notificationLocked(s)
	e.mu.Unlock()

	e.metrics.RecordFetch(err == nil)
	if err != nil {
		e.log.Warn(ctx, "fetch failed", "key", key, "seq", c.seq, "error", err)
	} else {
		e.log.Debug(ctx, "fetch done", "key", key, "seq", c.seq)
	}
	// Observers see the transition before waiters are released.
	e.deliver(n)
	c.finish()
}

// wait blocks until the latest fetch of key that c leads to settles, or
// ctx ends.
func (e *Engine) wait(ctx context.Context, key string, c *call) (Entry, error) {
	for {
		select {
		case <-c.done:
		case <-ctx.Done():
			snap, _ := e.Peek(key)
			return snap, ctx.Err()
		}

		e.mu.Lock()
		s := e.slots[key]
		if s != nil && s.inflight != nil && s.inflight != c {
			c = s.inflight
			e.mu.Unlock()
			continue
		}
		var snap Entry
		if s != nil {
			snap = s.snapshot()
		} else {
			// Evicted while in flight: report what this fetch produced.
			snap = Entry{Key: key, Data: c.data, Err: c.err, Seq: c.seq, Status: StatusFresh}
			if c.err != nil {
				snap.Status = StatusError
			} else {
				snap.FetchedAt = e.opts.Now()
			}
		}
		e.mu.Unlock()
		return snap, nil
	}
}

// Invalidate marks key STALE. Its data stays readable and the next read
// refetches. A fetch in flight for key is superseded by a new one so that
// waiters never receive a result requested before the invalidation.
func (e *Engine) Invalidate(key string) {
	e.invalidate(func(k string) bool { return k == key })
}

// InvalidatePrefix invalidates every key starting with prefix.
func (e *Engine) InvalidatePrefix(prefix string) {
	e.invalidate(func(k string) bool { return strings.HasPrefix(k, prefix) })
}

func (e *Engine) invalidate(match func(string) bool) {
	var pending []*notification

	e.mu.Lock()
	for key, s := range e.slots {
		if !match(key) {
			continue
		}
		if s.inflight != nil {
			e.startLocked(s.origin, s)
		}
		if s.HasData() || s.inflight == nil {
			s.Status = StatusStale
		}
		pending = append(pending, e.notificationLocked(s))
	}
	e.mu.Unlock()

	for _, n := range pending {
		e.deliver(n)
	}
}

// Evict drops key. A fetch in flight for it completes but is not stored.
func (e *Engine) Evict(key string) {
	e.mu.Lock()
	delete(e.slots, key)
	n := len(e.slots)
	e.mu.Unlock()
	e.metrics.SetEntries(n)
}

// EvictPrefix drops every key starting with prefix.
func (e *Engine) EvictPrefix(prefix string) {
	e.mu.Lock()
	maps.DeleteFunc(e.slots, func(k string, _ *slot) bool { return strings.HasPrefix(k, prefix) })
	n := len(e.slots)
	e.mu.Unlock()
	e.metrics.SetEntries(n)
}

// Clear drops every entry.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.slots = make(map[string]*slot)
	e.mu.Unlock()
	e.metrics.SetEntries(0)
}

// Peek returns the current snapshot of key without fetching.
func (e *Engine) Peek(key string) (Entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.slots[key]
	if !ok {
		return Entry{Key: key}, false
	}
	return s.snapshot(), true
}

// Keys returns the cached keys in sorted order.
func (e *Engine) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Sorted(maps.Keys(e.slots))
}

// Subscribe registers fn to receive a snapshot of key after every state
// change. Callbacks run outside the engine lock, in subscription order.
// The returned function unsubscribes; after it returns fn is not called
// again.
func (e *Engine) Subscribe(key string, fn func(Entry)) (unsubscribe func()) {
	sub := &subscriber{fn: fn}
	sub.active.Store(true)

	e.mu.Lock()
	e.nextSub++
	id := e.nextSub
	if e.subs[key] == nil {
		e.subs[key] = make(map[uint64]*subscriber)
	}
	e.subs[key][id] = sub
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subs[key], id)
			if len(e.subs[key]) == 0 {
				delete(e.subs, key)
			}
		})
	}
}

func (e *Engine) notificationLocked(s *slot) *notification {
	m := e.subs[s.Key]
	if len(m) == 0 {
		return nil
	}
	ids := slices.Sorted(maps.Keys(m))
	subs := make([]*subscriber, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, m[id])
	}
	return &notification{subs: subs, entry: s.snapshot()}
}

func (e *Engine) deliver(n *notification) {
	if n == nil {
		return
	}
	for _, sub := range n.subs {
		if sub.active.Load() {
			sub.fn(n.entry)
		}
	}
}

// Wait blocks until every detached fetch has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Query is the typed front door of Engine.Do. err is ctx.Err() when the
// caller stopped waiting, or the fetch error when the entry ended in
// StatusError; in both cases the result still carries any data cached
// earlier.
func Query[T any](ctx context.Context, e *Engine, key string, fetch func(context.Context) (T, error)) (Result[T], error) {
	ent, err := e.Do(ctx, key, wrap(fetch))
	return typed[T](ent, err)
}

// Refresh is Query with Engine.Refetch semantics.
func Refresh[T any](ctx context.Context, e *Engine, key string, fetch func(context.Context) (T, error)) (Result[T], error) {
	ent, err := e.Refetch(ctx, key, wrap(fetch))
	return typed[T](ent, err)
}

func wrap[T any](fetch func(context.Context) (T, error)) FetchFunc {
	return func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func typed[T any](ent Entry, err error) (Result[T], error) {
	r := Result[T]{Status: ent.Status, Err: ent.Err, FetchedAt: ent.FetchedAt}
	if ent.Data != nil {
		v, ok := ent.Data.(T)
		if !ok {
			return r, fmt.Errorf("cache: key %q holds %T, want %T", ent.Key, ent.Data, r.Data)
		}
		r.Data = v
	}
	if err != nil {
		return r, err
	}
	if ent.Status == StatusError {
		return r, ent.Err
	}
	return r, nil
}
