package selection

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultTimeout  = 10 * time.Second
)

// SearchFunc runs a search for the given selection.
type SearchFunc[T any] func(ctx context.Context, keys []string) (T, error)

// Update is the outcome of the search for one generation of the selection.
type Update[T any] struct {
	Generation uint64
	Keys       []string
	Result     T
	Err        error
}

// Empty reports whether the update is the short-circuit for an empty selection.
func (u Update[T]) Empty() bool {
	return len(u.Keys) == 0
}

// Options tune a Session. Zero values pick the defaults.
type Options struct {
	Debounce time.Duration
	Timeout  time.Duration
}

// Session couples a Set with a search. Every change re-arms a debounce timer;
// when it fires, the search runs for the selection at that moment and any
// older in-flight search is cancelled. Only the result of the latest
// generation is published, so a slow early query never overwrites a newer one.
type Session[T any] struct {
	set      *Set
	search   SearchFunc[T]
	debounce time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	closed  bool
	running sync.WaitGroup

	baseCtx    context.Context
	baseCancel context.CancelFunc
	updates    chan Update[T]
}

// NewSession starts a session with an empty selection.
func NewSession[T any](search SearchFunc[T], opts Options) *Session[T] {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session[T]{
		set:        NewSet(),
		search:     search,
		debounce:   opts.Debounce,
		timeout:    opts.Timeout,
		baseCtx:    ctx,
		baseCancel: cancel,
		updates:    make(chan Update[T], 1),
	}
}

// Updates delivers the newest result. The channel buffers at most one update;
// an undelivered update is replaced by a newer one. It is closed by Close.
func (s *Session[T]) Updates() <-chan Update[T] {
	return s.updates
}

// Toggle flips key in the selection and schedules a search.
func (s *Session[T]) Toggle(key string) bool {
	if strings.TrimSpace(key) == "" {
		return false
	}
	selected := s.set.Toggle(key)
	s.schedule(s.debounce)
	return selected
}

// Clear empties the selection. The empty result is published immediately.
func (s *Session[T]) Clear() {
	s.set.Clear()
	s.schedule(s.debounce)
}

// Selection returns the current keys, sorted.
func (s *Session[T]) Selection() []string {
	return s.set.Keys()
}

// Refresh re-runs the search for the current selection without waiting for
// the debounce, e.g. after a failed search.
func (s *Session[T]) Refresh() {
	s.schedule(0)
}

// Close cancels pending work and closes the updates channel.
func (s *Session[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.baseCancel()
	s.mu.Unlock()

	s.running.Wait()
	close(s.updates)
}

func (s *Session[T]) schedule(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if s.set.Len() == 0 {
		s.publishLocked(Update[T]{Generation: gen, Keys: []string{}})
		return
	}

	s.timer = time.AfterFunc(delay, func() { s.run(gen) })
}

func (s *Session[T]) run(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
	s.cancel = cancel
	keys := s.set.Keys()
	s.running.Add(1)
	s.mu.Unlock()

	defer s.running.Done()
	defer cancel()

	result, err := s.search(ctx, keys)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	s.cancel = nil
	s.publishLocked(Update[T]{Generation: gen, Keys: keys, Result: result, Err: err})
}

// publishLocked replaces any undelivered update. Must hold s.mu.
func (s *Session[T]) publishLocked(u Update[T]) {
	select {
	case <-s.updates:
	default:
	}
	s.updates <- u
}
