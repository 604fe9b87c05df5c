package toolbake

import (
	"context"
	"fmt"
	"sync"
)

// LoadFunc acquires a heavy optional module by name. Supplied by the host via
// WithLoader; typically hundreds of milliseconds to seconds per load, which
// is why results are memoized.
type LoadFunc func(ctx context.Context, name string) (any, error)

// Loader memoizes module acquisition per instance. The first Acquire for a
// name starts the load; concurrent and later calls share the in-flight or
// resolved value instead of loading again. There is no cross-instance
// sharing: two instances of the same tool each pay the load cost once.
type Loader struct {
	mu      sync.Mutex
	load    LoadFunc
	entries map[string]*loadEntry
	closed  bool
}

type loadEntry struct {
	done   chan struct{}
	module any
	err    error
}

func newLoader(load LoadFunc) *Loader {
	return &Loader{
		load:    load,
		entries: make(map[string]*loadEntry),
	}
}

// Acquire returns the module for name, loading it on first use. A failed load
// is returned as a LoadError and evicted, so a later trigger may retry.
// Waiting callers observe the same result as the loading caller. After
// instance teardown Acquire fails with ErrInstanceClosed.
func (l *Loader) Acquire(ctx context.Context, name string) (any, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrInstanceClosed
	}
	if l.load == nil {
		l.mu.Unlock()
		return nil, &LoadError{Module: name, Err: fmt.Errorf("no load function configured")}
	}
	if e, ok := l.entries[name]; ok {
		l.mu.Unlock()
		select {
		case <-e.done:
			return e.module, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &loadEntry{done: make(chan struct{})}
	l.entries[name] = e
	l.mu.Unlock()

	module, err := l.load(ctx, name)
	l.mu.Lock()
	if err != nil {
		e.err = &LoadError{Module: name, Err: err}
		delete(l.entries, name)
	} else {
		e.module = module
	}
	l.mu.Unlock()
	close(e.done)
	return e.module, e.err
}

// close releases the cache. Loads already in flight finish and their waiters
// are served, but the results are no longer retained.
func (l *Loader) close() {
	l.mu.Lock()
	l.closed = true
	l.entries = make(map[string]*loadEntry)
	l.mu.Unlock()
}

// Env exposes per-instance capabilities to handler code. It is handed to the
// HandlerFactory at Open; the runtime never reads or mutates whatever state
// the factory builds around it.
type Env struct {
	instanceID string
	loader     *Loader
}

// InstanceID returns the id of the instance this handler serves.
func (e *Env) InstanceID() string { return e.instanceID }

// Acquire loads a heavy optional module, memoized for this instance's life.
// Handlers routinely call it inside retained-state guards ("if no cached
// module, acquire and remember it"); both patterns cost one load.
func (e *Env) Acquire(ctx context.Context, name string) (any, error) {
	return e.loader.Acquire(ctx, name)
}
