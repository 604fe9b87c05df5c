package toolbake

import (
	"fmt"
	"sync"
)

// Container is the host boundary for one label widget: a node the runtime
// renders fragments into. SetContent replaces the rendered markup. State
// returns the side-state blob the fragment's behavior recorded on the
// container (the generalized form of stashing drag offsets on node
// attributes); the runtime reads it back into the next snapshot's
// Value.Interactive so continuous gestures commit their final position
// without ever scheduling an invocation mid-gesture.
type Container interface {
	SetContent(markup string)
	State() map[string]string
}

// ScriptRunner evaluates a Fragment.Script with the mounted container in
// scope. Hosts without an embedded interpreter simply do not configure one
// and use the Attach form instead.
type ScriptRunner func(script string, c Container) error

// fragmentManager owns the Unmounted -> Mounted -> Unmounted lifecycle of
// every label widget. Cleanup runs exactly once per mount, strictly before
// the next mount's behavior or before permanent removal.
type fragmentManager struct {
	mu         sync.Mutex
	runner     ScriptRunner
	containers map[string]Container
	cleanups   map[string]func()
	closed     bool
}

func newFragmentManager(runner ScriptRunner) *fragmentManager {
	return &fragmentManager{
		runner:     runner,
		containers: make(map[string]Container),
		cleanups:   make(map[string]func()),
	}
}

func (m *fragmentManager) bind(widgetID string, c Container) {
	m.mu.Lock()
	m.containers[widgetID] = c
	m.mu.Unlock()
}

// mount renders a fragment into the widget's bound container. The previous
// mount's cleanup is invoked first, exactly once. Behavior errors are
// returned as BehaviorError; the content stays rendered and the widget is
// left unmounted (no cleanup captured). Widgets without a bound container are
// skipped: the value is stored, rendering waits for the host to bind.
func (m *fragmentManager) mount(widgetID string, f *Fragment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	c, ok := m.containers[widgetID]
	if !ok {
		return nil
	}
	if cleanup := m.cleanups[widgetID]; cleanup != nil {
		delete(m.cleanups, widgetID)
		cleanup()
	}
	c.SetContent(f.Content)
	cleanup, err := runBehavior(f, c, m.runner)
	if err != nil {
		return &BehaviorError{Widget: widgetID, Err: err}
	}
	if cleanup != nil {
		m.cleanups[widgetID] = cleanup
	}
	return nil
}

// runBehavior executes the fragment's attach function or script. Panics in
// behavior code are recovered so a bad fragment cannot take down the
// scheduler goroutine.
func runBehavior(f *Fragment, c Container, runner ScriptRunner) (cleanup func(), err error) {
	defer func() {
		if p := recover(); p != nil {
			cleanup = nil
			err = &panicError{p: p}
		}
	}()
	if f.Attach != nil {
		return f.Attach(c)
	}
	if runner == nil {
		return nil, fmt.Errorf("script fragment but no script runner configured")
	}
	return nil, runner(f.Script, c)
}

// states returns a copy of the side-state of every bound container that
// currently has recorded state, keyed by widget id.
func (m *fragmentManager) states() map[string]map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]map[string]string)
	for id, c := range m.containers {
		st := c.State()
		if len(st) == 0 {
			continue
		}
		cp := make(map[string]string, len(st))
		for k, v := range st {
			cp[k] = v
		}
		out[id] = cp
	}
	return out
}

// unmountAll runs every pending cleanup; called on instance teardown.
func (m *fragmentManager) unmountAll() {
	m.mu.Lock()
	m.closed = true
	cleanups := m.cleanups
	m.cleanups = make(map[string]func())
	m.mu.Unlock()
	for _, cleanup := range cleanups {
		cleanup()
	}
}
