// Package testutil provides test helpers for toolbake (e.g. MockContainer).
package testutil

import (
	"context"
	"sync"

	toolbake "github.com/WonderfulSoap/ToolBake-sub004"
)

// MockContainer is a Container implementation for tests. It records every
// SetContent call and serves a mutable side-state map, standing in for the
// host's real render target.
type MockContainer struct {
	mu       sync.Mutex
	contents []string
	state    map[string]string
}

// NewMockContainer returns an empty MockContainer.
func NewMockContainer() *MockContainer {
	return &MockContainer{state: make(map[string]string)}
}

// SetContent records the rendered markup.
func (c *MockContainer) SetContent(markup string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contents = append(c.contents, markup)
}

// State returns the current side-state map (shared; use SetState to mutate).
func (c *MockContainer) State() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.state))
	for k, v := range c.state {
		out[k] = v
	}
	return out
}

// SetState records side-state the way a mounted fragment's behavior would.
func (c *MockContainer) SetState(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[key] = value
}

// Contents returns every markup string rendered so far, in order.
func (c *MockContainer) Contents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.contents...)
}

// Content returns the most recently rendered markup, or "".
func (c *MockContainer) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.contents) == 0 {
		return ""
	}
	return c.contents[len(c.contents)-1]
}

// CountingLoader is a LoadFunc for tests that counts invocations per module
// name and serves canned modules or errors.
type CountingLoader struct {
	mu      sync.Mutex
	counts  map[string]int
	Modules map[string]any
	Errs    map[string]error
}

// NewCountingLoader returns a CountingLoader serving the given modules.
func NewCountingLoader(modules map[string]any) *CountingLoader {
	return &CountingLoader{counts: make(map[string]int), Modules: modules}
}

// Load is the LoadFunc to pass to toolbake.WithLoader.
func (l *CountingLoader) Load(_ context.Context, name string) (any, error) {
	l.mu.Lock()
	l.counts[name]++
	l.mu.Unlock()
	if err := l.Errs[name]; err != nil {
		return nil, err
	}
	return l.Modules[name], nil
}

// Count returns how many times the named module was actually loaded.
func (l *CountingLoader) Count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[name]
}

var _ toolbake.Container = (*MockContainer)(nil)
